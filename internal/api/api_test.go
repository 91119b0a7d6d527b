package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trihash/internal/cache"
	"trihash/internal/ipgeo"
	"trihash/internal/store"
	"trihash/internal/trihash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	points   []store.Point
	prefix   string
	limit    int
	encodes  int
	failures int
}

func (f *fakeStore) PointsByPrefix(ctx context.Context, prefix string, limit int) ([]store.Point, error) {
	if err := store.ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	f.prefix, f.limit = prefix, store.ClampLimit(limit)
	return f.points, nil
}

func (f *fakeStore) IncrStats(ctx context.Context, failed bool) {
	if failed {
		f.failures++
	} else {
		f.encodes++
	}
}

type fakeGeoIP map[string]ipgeo.Location

func (f fakeGeoIP) Lookup(ip string) (ipgeo.Location, error) {
	if loc, ok := f[ip]; ok {
		return loc, nil
	}
	if ip == "bad" {
		return ipgeo.Location{}, ipgeo.ErrBadIP
	}
	return ipgeo.Location{}, ipgeo.ErrNotFound
}

func newMux(d Deps) *http.ServeMux {
	if d.Enc == nil {
		d.Enc = cache.NewEncoder(trihash.NewEncoder(nil), cache.NewLRU(64, time.Minute), nil)
	}
	return BuildRoutes(d)
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rr.Body.Len() > 0 && rr.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHash(t *testing.T) {
	fs := &fakeStore{}
	mux := newMux(Deps{Store: fs, DefaultDepth: 4})

	rr, body := get(t, mux, "/hash?lat=25&lon=-71")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "15|2222", body["hash"])
	assert.Equal(t, float64(4), body["depth"])
	assert.NotContains(t, body, "hashes")
	assert.Equal(t, 1, fs.encodes)

	rr, body = get(t, mux, "/hash?lat=25&lon=-71&depth=2&all=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "15|22", body["hash"])
	assert.Equal(t, []any{"15|", "15|2", "15|22"}, body["hashes"])
}

func TestHashBadInput(t *testing.T) {
	fs := &fakeStore{}
	mux := newMux(Deps{Store: fs})
	for _, q := range []string{
		"/hash",
		"/hash?lat=1",
		"/hash?lat=x&lon=1",
		"/hash?lat=91&lon=0",
		"/hash?lat=0&lon=181",
		"/hash?lat=0&lon=0&depth=21",
		"/hash?lat=0&lon=0&depth=-3",
		"/hash?lat=0&lon=0&depth=abc",
		"/hash?lat=0&lon=0&coord=utm",
	} {
		rr, body := get(t, mux, q)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.NotEmpty(t, body["error"], q)
	}
	assert.Equal(t, 4, fs.failures)
}

func TestHashCoordSystem(t *testing.T) {
	mux := newMux(Deps{})
	_, plain := get(t, mux, "/hash?lat=39.9056&lon=116.4136&depth=16")
	rr, conv := get(t, mux, "/hash?lat=39.9056&lon=116.4136&depth=16&coord=gcj02")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gcj02", conv["coord"])
	assert.NotEqual(t, plain["hash"], conv["hash"])
}

func TestCellAndChildren(t *testing.T) {
	mux := newMux(Deps{})
	rr, body := get(t, mux, "/cell?hash=15|2222")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "15|2222", body["hash"])
	assert.Equal(t, float64(4), body["depth"])
	assert.Len(t, body["vertices"], 3)

	rr, body = get(t, mux, "/cell?hash=15|2222&format=geojson")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Feature", body["type"])

	rr, _ = get(t, mux, "/cell?hash=99|")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = get(t, mux, "/children?hash=3|")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"3|1", "3|2", "3|3", "3|4"}, body["children"])
}

func TestMeshAndDepths(t *testing.T) {
	mux := newMux(Deps{})
	rr, body := get(t, mux, "/mesh?depth=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("content-type"), "geo+json")
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.Len(t, body["features"], 80)

	rr, _ = get(t, mux, "/mesh?depth=6")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/depths", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var ds []trihash.DepthInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ds))
	assert.Len(t, ds, trihash.MaxDepth+1)
}

func TestIP(t *testing.T) {
	geo := fakeGeoIP{
		"81.2.69.142": {IP: "81.2.69.142", Lat: 51.5142, Lon: -0.0931, AccuracyKm: 100, Country: "United Kingdom", City: "London"},
	}
	mux := newMux(Deps{GeoIP: geo, DefaultDepth: 10})

	rr, body := get(t, mux, "/ip?ip=81.2.69.142")
	require.Equal(t, http.StatusOK, rr.Code)
	// 精度 100 千米对应深度 7（约 55 千米）
	assert.Equal(t, float64(7), body["depth"])
	assert.Equal(t, "London", body["city"])
	h, err := trihash.Encode(51.5142, -0.0931, 7)
	require.NoError(t, err)
	assert.Equal(t, h, body["hash"])

	rr, _ = get(t, mux, "/ip?ip=81.2.69.142&depth=-3")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = get(t, mux, "/ip?ip=81.2.69.142&depth=3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(3), body["depth"])

	rr, _ = get(t, mux, "/ip?ip=10.0.0.1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = get(t, mux, "/ip?ip=bad")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = get(t, newMux(Deps{}), "/ip?ip=81.2.69.142")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCells(t *testing.T) {
	fs := &fakeStore{points: []store.Point{{ID: "a", Lat: 25, Lon: -71, Depth: 6, Hash: "15|222212"}}}
	mux := newMux(Deps{Store: fs})

	rr, body := get(t, mux, "/cells?prefix=15|22&limit=9999")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "15|22", fs.prefix)
	assert.Equal(t, store.MaxLimit, fs.limit)

	rr, _ = get(t, mux, "/cells?prefix=1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = get(t, newMux(Deps{}), "/cells?prefix=15|")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name   string
		target string
		header map[string]string
		remote string
		want   string
	}{
		{"query", "/ip?ip=1.2.3.4", nil, "9.9.9.9:1", "1.2.3.4"},
		{"xff", "/ip", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1", "5.6.7.8"},
		{"real_ip", "/ip", map[string]string{"X-Real-IP": "6.6.6.6"}, "9.9.9.9:1", "6.6.6.6"},
		{"forwarded", "/ip", map[string]string{"Forwarded": `for="[2001:db8::1]:4711";proto=https`}, "9.9.9.9:1", "2001:db8::1"},
		{"forwarded_v4", "/ip", map[string]string{"Forwarded": "for=192.0.2.60;proto=http"}, "9.9.9.9:1", "192.0.2.60"},
		{"remote", "/ip", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote_v6", "/ip", nil, "[::1]:80", "::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(r))
		})
	}
}
