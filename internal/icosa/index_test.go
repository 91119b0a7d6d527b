package icosa

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"trihash/internal/sphere"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containing(x *Index, p sphere.Point) []int {
	var out []int
	for _, t := range x.Triangles() {
		if t.ContainsPoint(p) {
			out = append(out, t.Pos)
		}
	}
	return out
}

func TestNewIndexLayout(t *testing.T) {
	x := New()
	tris := x.Triangles()
	require.Len(t, tris, Count)
	for i, tr := range tris {
		assert.Equal(t, i+1, tr.Pos)
		// 根三角形边长约 7050 千米
		assert.InDelta(t, 7050, tr.EdgeKm(), 400, "root %d", tr.Pos)
	}
	for i := 1; i <= 5; i++ {
		tr, err := x.Triangle(i)
		require.NoError(t, err)
		assert.True(t, tr.A.IsPole())
		assert.Equal(t, sphere.Up, tr.Direction)
	}
	for i := 16; i <= 20; i++ {
		tr, _ := x.Triangle(i)
		assert.True(t, tr.A.IsPole())
		assert.Equal(t, sphere.Down, tr.Direction)
	}
}

func TestTriangleIndexBounds(t *testing.T) {
	x := New()
	_, err := x.Triangle(0)
	assert.Error(t, err)
	_, err = x.Triangle(21)
	assert.Error(t, err)
}

func TestCandidatesBands(t *testing.T) {
	x := New()
	cases := []struct {
		lat      float64
		from, to int
	}{
		{80, 1, 5},
		{34, 1, 15},
		{24, 1, 15},
		{28, 1, 15},
		{0, 6, 15},
		{23.9, 6, 15},
		{-24, 6, 20},
		{-30, 6, 20},
		{-34, 6, 20},
		{-60, 16, 20},
		{90, 1, 5},
		{-90, 16, 20},
	}
	for _, tc := range cases {
		c, err := x.Candidates(sphere.FromCoordinates(tc.lat, 10))
		require.NoError(t, err)
		assert.Equal(t, span(tc.from, tc.to), c, "lat %v", tc.lat)
	}
}

func TestLocatePoles(t *testing.T) {
	x := New()
	n, err := x.Locate(sphere.FromCoordinates(90, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n.Pos)

	s, err := x.Locate(sphere.FromCoordinates(-90, 0))
	require.NoError(t, err)
	assert.Equal(t, 16, s.Pos)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, containing(x, sphere.FromCoordinates(90, 0)))
	assert.Equal(t, []int{16, 17, 18, 19, 20}, containing(x, sphere.FromCoordinates(-90, 0)))
}

func TestLocateSharedVertex(t *testing.T) {
	x := New()
	v := sphere.FromCoordinates(RingLatitude, 0)
	assert.Equal(t, []int{1, 5, 6, 7, 8}, containing(x, v))
	tr, err := x.Locate(v)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Pos)
}

func TestLocateKnownPoints(t *testing.T) {
	x := New()
	cases := []struct {
		lat, lon float64
		want     int
	}{
		{27, 0, 1},
		{45, 45, 1},
		{51.5074, -0.1278, 5},
		{-33.8688, 151.2093, 19},
		{25, -71, 15},
		{0, 0, 7},
		{0, 180, 12},
		{0, -180, 12},
		{-45, -120, 20},
		{37.7749, -122.4194, 4},
	}
	for _, tc := range cases {
		tr, err := x.Locate(sphere.FromCoordinates(tc.lat, tc.lon))
		require.NoError(t, err, "lat %v lon %v", tc.lat, tc.lon)
		assert.Equal(t, tc.want, tr.Pos, "lat %v lon %v", tc.lat, tc.lon)
	}
}

func TestRandomPointsInExactlyOneRoot(t *testing.T) {
	x := New()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		p := sphere.RandomPoint(rng)
		got := containing(x, p)
		require.Len(t, got, 1, "point %s in %v", p, got)
		tr, err := x.Locate(p)
		require.NoError(t, err)
		assert.Equal(t, got[0], tr.Pos)
	}
}

func TestLocateRangeError(t *testing.T) {
	x := New()
	_, err := x.Locate(sphere.FromRadians(math.Pi/2+0.1, 0))
	require.Error(t, err)
	var re *sphere.RangeError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, sphere.KindRange, sphere.KindOf(err))

	_, err = x.Locate(sphere.FromRadians(math.NaN(), 0))
	assert.ErrorIs(t, err, sphere.ErrRange)
}
