package geo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ms-flights/internal/errs"
	"ms-flights/internal/geo"

	"github.com/stretchr/testify/assert"
)

func newGeoServer(t *testing.T, calls *int64) *httptest.Server {
	cities := map[string]map[string]interface{}{
		"Taipei": {"city": "Taipei", "timezone": "Asia/Taipei", "lat": 25.033, "lon": 121.5654},
		"Tokyo":  {"city": "Tokyo", "timezone": "Asia/Tokyo", "lat": 35.6762, "lon": 139.6503},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		city, ok := cities[r.URL.Query().Get("name")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(city)
	}))
}

func TestClientResolvesCity(t *testing.T) {
	var calls int64
	srv := newGeoServer(t, &calls)
	defer srv.Close()

	client := geo.NewClient(srv.URL, srv.Client())

	tz, err := client.ResolveTimezone(context.Background(), "Taipei")
	assert.NoError(t, err)
	assert.Equal(t, "Asia/Taipei", tz)

	coords, err := client.Coordinates(context.Background(), "Tokyo")
	assert.NoError(t, err)
	assert.InDelta(t, 35.6762, coords.Lat, 1e-6)
}

func TestClientUnknownCity(t *testing.T) {
	var calls int64
	srv := newGeoServer(t, &calls)
	defer srv.Close()

	client := geo.NewClient(srv.URL, srv.Client())

	_, err := client.ResolveTimezone(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, errs.ErrUnresolvableLocation)

	_, err = client.ResolveTimezone(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrUnresolvableLocation)
}

func TestCachedResolverHitsUpstreamOnce(t *testing.T) {
	var calls int64
	srv := newGeoServer(t, &calls)
	defer srv.Close()

	cached := geo.NewCached(geo.NewClient(srv.URL, srv.Client()), 16)

	for i := 0; i < 5; i++ {
		tz, err := cached.ResolveTimezone(context.Background(), "Taipei")
		assert.NoError(t, err)
		assert.Equal(t, "Asia/Taipei", tz)

		_, err = cached.Coordinates(context.Background(), "Taipei")
		assert.NoError(t, err)
	}

	// One entry fill = two upstream lookups (timezone + coordinates).
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCachedResolverDoesNotCacheFailures(t *testing.T) {
	var calls int64
	srv := newGeoServer(t, &calls)
	defer srv.Close()

	cached := geo.NewCached(geo.NewClient(srv.URL, srv.Client()), 16)

	_, err := cached.ResolveTimezone(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, errs.ErrUnresolvableLocation)
	_, err = cached.ResolveTimezone(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, errs.ErrUnresolvableLocation)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestDistanceTaipeiTokyo(t *testing.T) {
	taipei := geo.Coordinates{Lat: 25.033, Lon: 121.5654}
	tokyo := geo.Coordinates{Lat: 35.6762, Lon: 139.6503}

	km := geo.Distance(taipei, tokyo)
	// Great-circle distance is roughly 2100 km.
	assert.InDelta(t, 2100, km, 100)

	assert.Zero(t, geo.Distance(taipei, taipei))
}

func TestFlightDurationMinutes(t *testing.T) {
	// 900 km at 900 km/h is exactly one hour.
	assert.Equal(t, 60, geo.FlightDurationMinutes(900))
	assert.Equal(t, 0, geo.FlightDurationMinutes(0))
}
