package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/stretchr/testify/require"
)

type fixedZone string

func (z fixedZone) ZoneName(lat, lon float64) string {
	return string(z)
}

func testConfig() model.GeocoderConfig {
	return model.GeocoderConfig{Attempts: 3, BackoffMillis: 1, TimeoutSeconds: 2, UserAgent: "test-agent"}
}

func wall(y, m, d, hh, mm int) time.Time {
	return time.Date(y, time.Month(m), d, hh, mm, 0, 0, time.UTC)
}

func TestResolveUsesFallbackWhenGeocoderUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(testConfig(), NewNominatim(srv.URL, "test-agent", 2*time.Second), fixedZone("Asia/Kathmandu"))
	loc, ok := r.Resolve(context.Background(), "Kathmandu, Nepal", wall(1990, 1, 1, 6, 0))

	require.True(t, ok)
	require.True(t, loc.Fallback)
	require.Equal(t, 27.7172, loc.Latitude)
	require.Equal(t, 85.3240, loc.Longitude)
	require.True(t, loc.HasOffset)
	require.InDelta(t, 5.75, loc.Offset, 1e-9)
	require.Equal(t, int32(3), calls.Load())
}

func TestResolveFallbackMatchesTrimmedName(t *testing.T) {
	geocoder := geocoderFunc(func(ctx context.Context, place string) (float64, float64, bool, error) {
		return 0, 0, false, nil
	})
	r := NewResolver(testConfig(), geocoder, fixedZone("Asia/Kathmandu"))

	loc, ok := r.Resolve(context.Background(), "  Lalitpur  ", wall(2000, 6, 1, 12, 0))
	require.True(t, ok)
	require.Equal(t, 27.6667, loc.Latitude)
	require.Equal(t, 85.3333, loc.Longitude)
}

func TestResolveNoMatchIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		require.Equal(t, "Atlantis", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	r := NewResolver(testConfig(), NewNominatim(srv.URL, "test-agent", 2*time.Second), fixedZone("UTC"))
	_, ok := r.Resolve(context.Background(), "Atlantis", wall(1990, 1, 1, 6, 0))

	require.False(t, ok)
	require.Equal(t, int32(1), calls.Load())
}

func TestResolveGeocodedPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`[{"lat":"40.7127281","lon":"-74.0060152","display_name":"New York"}]`))
	}))
	defer srv.Close()

	r := NewResolver(testConfig(), NewNominatim(srv.URL, "test-agent", 2*time.Second), fixedZone("America/New_York"))

	summer, ok := r.Resolve(context.Background(), "New York", wall(2021, 7, 4, 9, 30))
	require.True(t, ok)
	require.False(t, summer.Fallback)
	require.InDelta(t, 40.7127281, summer.Latitude, 1e-9)
	require.Equal(t, -4.0, summer.Offset)

	winter, ok := r.Resolve(context.Background(), "New York", wall(2021, 1, 4, 9, 30))
	require.True(t, ok)
	require.Equal(t, -5.0, winter.Offset)
}

func TestResolveWithoutZoneKeepsCoordinates(t *testing.T) {
	geocoder := geocoderFunc(func(ctx context.Context, place string) (float64, float64, bool, error) {
		return -50.1, -140.2, true, nil
	})
	r := NewResolver(testConfig(), geocoder, fixedZone(""))

	loc, ok := r.Resolve(context.Background(), "Pacific Ocean", wall(2000, 1, 1, 0, 0))
	require.True(t, ok)
	require.False(t, loc.HasOffset)
	require.Equal(t, -50.1, loc.Latitude)
}

func TestHistoricalOffsetHonoursRuleChanges(t *testing.T) {
	// Nepal moved from +05:30 to +05:45 in 1986.
	before, err := HistoricalOffset("Asia/Kathmandu", wall(1985, 6, 1, 12, 0))
	require.NoError(t, err)
	require.InDelta(t, 5.5, before, 1e-9)

	after, err := HistoricalOffset("Asia/Kathmandu", wall(1990, 6, 1, 12, 0))
	require.NoError(t, err)
	require.InDelta(t, 5.75, after, 1e-9)

	_, err = HistoricalOffset("Not/AZone", wall(1990, 6, 1, 12, 0))
	require.Error(t, err)
}

func TestTZFLocatorFindsKathmandu(t *testing.T) {
	locator, err := NewTZFLocator()
	require.NoError(t, err)
	require.Equal(t, "Asia/Kathmandu", locator.ZoneName(27.7172, 85.3240))
}

type geocoderFunc func(ctx context.Context, place string) (float64, float64, bool, error)

func (f geocoderFunc) Geocode(ctx context.Context, place string) (float64, float64, bool, error) {
	return f(ctx, place)
}
