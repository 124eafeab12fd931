package normalize

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/jyotish-ai/server/internal/astro/geo"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

const (
	GeocodingFailedMessage  = "Geocoding failed for provided city/date."
	UnsupportedChartMessage = "unsupported chart type"
	InvalidDateMessage      = "Invalid date of birth; expected YYYY-MM-DD."
	InvalidTimeMessage      = "Invalid time of birth; expected HH:MM or HH:MM:SS."
	MissingCityMessage      = "City of birth is required."
)

// ErrUnparseable is returned when no accepted layout matches.
var ErrUnparseable = errors.New("unparseable value")

// Primary layout first; the rest are tried in order.
var dateLayouts = []string{"2006-1-2", "2006/1/2", "2-1-2006", "1/2/2006"}

var timeLayouts = []string{"15:4:5", "15:4"}

var wrapperPairs = map[byte]byte{
	'\'': '\'',
	'"':  '"',
	'(':  ')',
	'[':  ']',
	'{':  '}',
}

// StripWrappers trims whitespace, unescapes HTML entities and peels matching
// quote/bracket pairs from the outside in until none remain.
func StripWrappers(raw string) string {
	s := strings.TrimSpace(html.UnescapeString(strings.TrimSpace(raw)))
	for len(s) >= 2 {
		closing, ok := wrapperPairs[s[0]]
		if !ok || s[len(s)-1] != closing {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Date parses a cleaned date string into a calendar date.
func Date(raw string) (model.Date, error) {
	s := StripWrappers(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return model.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
		}
	}
	return model.Date{}, fmt.Errorf("date %q: %w", raw, ErrUnparseable)
}

// CanonicalDate returns raw re-rendered as YYYY-MM-DD.
func CanonicalDate(raw string) (string, error) {
	d, err := Date(raw)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Time parses a cleaned HH:MM[:SS] string.
func Time(raw string) (model.Clock, error) {
	s := StripWrappers(raw)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return model.Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return model.Clock{}, fmt.Errorf("time %q: %w", raw, ErrUnparseable)
}

// LocationResolver is satisfied by *geo.Resolver.
type LocationResolver interface {
	Resolve(ctx context.Context, place string, wall time.Time) (geo.Location, bool)
}

// Catalog reports which chart codes can be dispatched.
type Catalog interface {
	Supports(t model.ChartType) bool
	Codes() []string
}

// Normalizer turns loosely formatted tool arguments into a ChartRequest.
type Normalizer struct {
	resolver LocationResolver
	catalog  Catalog
	log      zerolog.Logger
}

func New(resolver LocationResolver, catalog Catalog) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		catalog:  catalog,
		log:      logx.Component("normalize"),
	}
}

// Normalize never fails with a Go error: problems come back as a ToolError
// value for the agent to read.
func (n *Normalizer) Normalize(ctx context.Context, dob, tob, city, code string) (model.ChartRequest, *model.ToolError) {
	chartType := model.ParseChartType(StripWrappers(code))
	if !n.catalog.Supports(chartType) {
		return model.ChartRequest{}, &model.ToolError{
			Message:    UnsupportedChartMessage,
			Details:    fmt.Sprintf("chart type %q is not supported", chartType),
			ValidCodes: n.catalog.Codes(),
		}
	}

	date, err := Date(dob)
	if err != nil {
		n.log.Warn().Err(err).Msg("date of birth rejected")
		return model.ChartRequest{}, &model.ToolError{Message: InvalidDateMessage, Details: err.Error()}
	}
	clock, err := Time(tob)
	if err != nil {
		n.log.Warn().Err(err).Msg("time of birth rejected")
		return model.ChartRequest{}, &model.ToolError{Message: InvalidTimeMessage, Details: err.Error()}
	}
	place := StripWrappers(city)
	if place == "" {
		return model.ChartRequest{}, &model.ToolError{Message: MissingCityMessage}
	}

	loc, ok := n.resolver.Resolve(ctx, place, model.WallClock(date, clock))
	if !ok || !loc.HasOffset {
		return model.ChartRequest{}, &model.ToolError{Message: GeocodingFailedMessage, Details: place}
	}

	return model.ChartRequest{
		Query: model.BirthQuery{
			Date:      date,
			Time:      clock,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Offset:    loc.Offset,
		},
		Type: chartType,
		City: place,
	}, nil
}
