package trihash

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"trihash/internal/sphere"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAllReference(t *testing.T) {
	e := NewEncoder(nil)
	got, err := e.EncodeAll(25, -71, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"15|", "15|2", "15|22", "15|222", "15|2222"}, got)

	h, err := e.Encode(25, -71, 4)
	require.NoError(t, err)
	assert.Equal(t, "15|2222", h)
}

func TestEncodeKnownPoints(t *testing.T) {
	e := NewEncoder(nil)
	cases := []struct {
		name     string
		lat, lon float64
		depth    int
		want     string
	}{
		{"north_pole", 90, 0, 0, "1|"},
		{"north_pole_deep", 90, 0, 3, "1|222"},
		{"south_pole", -90, 0, 0, "16|"},
		{"south_pole_deep", -90, 0, 3, "16|222"},
		{"cap_belt_overlap", 27, 0, 5, "1|44444"},
		{"origin", 0, 0, 6, "7|112222"},
		{"antimeridian_east", 0, 180, 3, "12|112"},
		{"antimeridian_west", 0, -180, 3, "12|112"},
		{"mid_north", 45, 45, 10, "1|1244144314"},
		{"sydney", -33.8688, 151.2093, 10, "19|4334212442"},
		{"london", 51.5074, -0.1278, 10, "5|3223323313"},
		{"south_pacific", -45, -120, 10, "20|4143334114"},
		{"san_francisco", 37.7749, -122.4194, 10, "4|4313313124"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := e.Encode(tc.lat, tc.lon, tc.depth)
			require.NoError(t, err)
			assert.Equal(t, tc.want, h)
		})
	}
}

func TestEncodeAllPrefixes(t *testing.T) {
	e := NewEncoder(nil)
	all, err := e.EncodeAll(45, 45, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"1|", "1|1", "1|12", "1|124", "1|1244", "1|12441"}, all)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		p := sphere.RandomPoint(rng)
		lat, lon := p.LatDegrees(), p.LonDegrees()
		hs, err := e.EncodeAll(lat, lon, 8)
		require.NoError(t, err)
		require.Len(t, hs, 9)
		for d := 1; d < len(hs); d++ {
			assert.True(t, strings.HasPrefix(hs[d], hs[d-1]))
			assert.Len(t, hs[d], len(hs[d-1])+1)
		}
		h, err := e.Encode(lat, lon, 8)
		require.NoError(t, err)
		assert.Equal(t, hs[8], h)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a, err := NewEncoder(nil).Encode(-12.5, 130.25, 12)
	require.NoError(t, err)
	b, err := Encode(-12.5, 130.25, 12)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeRangeErrors(t *testing.T) {
	e := NewEncoder(nil)
	cases := []struct {
		name     string
		lat, lon float64
		depth    int
	}{
		{"lat_high", 90.5, 0, 3},
		{"lat_low", -91, 0, 3},
		{"lon_high", 0, 181, 3},
		{"lon_low", 0, -180.01, 3},
		{"nan", math.NaN(), 0, 3},
		{"inf", 0, math.Inf(1), 3},
		{"negative_depth", 0, 0, -1},
		{"very_negative_depth", 0, 0, -5},
		{"too_deep", 0, 0, MaxDepth + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Encode(tc.lat, tc.lon, tc.depth)
			require.Error(t, err)
			var re *sphere.RangeError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tc.depth, re.Depth)
			assert.Equal(t, sphere.KindRange, sphere.KindOf(err))

			_, err = e.EncodeAll(tc.lat, tc.lon, tc.depth)
			assert.ErrorIs(t, err, sphere.ErrRange)
		})
	}
}

func TestEncodeStableUnderEpsilon(t *testing.T) {
	e := NewEncoder(nil)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		p := sphere.RandomPoint(rng)
		lat, lon := p.LatDegrees(), p.LonDegrees()
		a, err := e.Encode(lat, lon, 12)
		require.NoError(t, err)
		b, err := e.Encode(math.Nextafter(lat, 90), math.Nextafter(lon, 180), 12)
		require.NoError(t, err)
		assert.Equal(t, a, b, "lat=%v lon=%v", lat, lon)
	}
}

func TestLocateContainsPoint(t *testing.T) {
	e := NewEncoder(nil)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		p := sphere.RandomPoint(rng)
		tr, err := e.Locate(p.LatDegrees(), p.LonDegrees(), 10)
		require.NoError(t, err)
		assert.True(t, tr.ContainsPoint(p))
		assert.InDelta(t, EdgeKm(10), tr.EdgeKm(), EdgeKm(10)*0.3)
	}
}

func TestDepthConstants(t *testing.T) {
	assert.Equal(t, 0, Km7050)
	assert.Equal(t, 10, Km6)
	assert.Equal(t, 17, Km0_05)

	ds := Depths()
	require.Len(t, ds, MaxDepth+1)
	assert.Equal(t, "Km7050", ds[0].Name)
	assert.Equal(t, "Km0_05", ds[Km0_05].Name)
	assert.Empty(t, ds[MaxDepth].Name)
	assert.InDelta(t, 3525, ds[1].EdgeKm, 1e-9)
	assert.InDelta(t, 0.0538, ds[17].EdgeKm, 1e-4)
}

func TestDepthForKm(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{10000, 0},
		{7050, 0},
		{5000, 1},
		{1000, 3},
		{6.9, 10},
		{0.05, 18},
		{1e-9, MaxDepth},
	}
	for _, tc := range cases {
		d, err := DepthForKm(tc.km)
		require.NoError(t, err)
		assert.Equal(t, tc.want, d, "km %v", tc.km)
	}
	_, err := DepthForKm(0)
	assert.ErrorIs(t, err, sphere.ErrRange)
	_, err = DepthForKm(math.NaN())
	assert.ErrorIs(t, err, sphere.ErrRange)
}
