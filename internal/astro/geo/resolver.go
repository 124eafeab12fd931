package geo

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

// Location is a resolved place. HasOffset is false when no zone covers the
// point; the coordinates are still valid in that case.
type Location struct {
	Latitude  float64
	Longitude float64
	Offset    float64
	HasOffset bool
	Zone      string
	Fallback  bool
}

// Resolver turns a place name and birth wall-clock time into coordinates plus
// the historical UTC offset. It never returns an error: ok is false when the
// place could not be resolved at all.
type Resolver struct {
	geocoder  Geocoder
	zones     ZoneLocator
	fallbacks map[string]Coordinates
	attempts  int
	backoff   time.Duration
	log       zerolog.Logger
}

func NewResolver(cfg model.GeocoderConfig, geocoder Geocoder, zones ZoneLocator) *Resolver {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	base := time.Duration(cfg.BackoffMillis) * time.Millisecond
	if base <= 0 {
		base = time.Second
	}
	return &Resolver{
		geocoder:  geocoder,
		zones:     zones,
		fallbacks: DefaultFallbacks,
		attempts:  attempts,
		backoff:   base,
		log:       logx.Component("geo"),
	}
}

// WithFallbacks replaces the static fallback table.
func (r *Resolver) WithFallbacks(table map[string]Coordinates) *Resolver {
	r.fallbacks = table
	return r
}

func (r *Resolver) Resolve(ctx context.Context, place string, wall time.Time) (Location, bool) {
	coords, found := r.geocode(ctx, place)
	var loc Location
	if found {
		loc = Location{Latitude: coords.Latitude, Longitude: coords.Longitude}
	} else {
		fb, ok := lookupFallback(r.fallbacks, place)
		if !ok {
			r.log.Warn().Str("place", place).Msg("place not found and no fallback available")
			return Location{}, false
		}
		r.log.Warn().Str("place", place).
			Float64("lat", fb.Latitude).Float64("lon", fb.Longitude).
			Msg("using fallback coordinates")
		loc = Location{Latitude: fb.Latitude, Longitude: fb.Longitude, Fallback: true}
	}

	zone := r.zones.ZoneName(loc.Latitude, loc.Longitude)
	if zone == "" {
		r.log.Warn().Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).Msg("timezone not found; returning coordinates without offset")
		return loc, true
	}
	offset, err := HistoricalOffset(zone, wall)
	if err != nil {
		r.log.Warn().Err(err).Str("zone", zone).Msg("timezone offset unavailable")
		return loc, true
	}
	loc.Zone = zone
	loc.Offset = offset
	loc.HasOffset = true
	return loc, true
}

// geocode retries only transient failures; a clean "no match" ends immediately.
func (r *Resolver) geocode(ctx context.Context, place string) (Coordinates, bool) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	var coords Coordinates
	var found bool
	attempt := 0
	op := func() error {
		attempt++
		lat, lon, ok, err := r.geocoder.Geocode(ctx, place)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		coords = Coordinates{Latitude: lat, Longitude: lon}
		found = ok
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Str("place", place).Msg("geocoding attempt failed")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.attempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		r.log.Error().Err(err).Str("place", place).Int("attempts", attempt).Msg("geocoding failed")
		return Coordinates{}, false
	}
	return coords, found
}
