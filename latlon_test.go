package grib2msm

import (
	"math"
	"testing"
)

func msmGrid() *LatLonGrid {
	return &LatLonGrid{Ni: 481, Nj: 505, La1: 47.6, Lo1: 120, La2: 22.4, Lo2: 150, Di: 0.0625, Dj: 0.05}
}

func TestLatLonToIJ(t *testing.T) {
	g := msmGrid()
	cases := []struct {
		name     string
		lat, lon float64
		i, j     int
	}{
		{"first point", 47.6, 120, 0, 0},
		{"last point", 22.4, 150, 480, 504},
		{"tokyo", 35.6895, 139.6917, 315, 238},
		{"negative longitude", 47.6, 120 - 360, 0, 0},
		{"rounds to nearest", 47.574, 120.04, 1, 1},
	}
	for _, tc := range cases {
		i, j := g.LatLonToIJ(tc.lat, tc.lon)
		if i != tc.i || j != tc.j {
			t.Errorf("%s: LatLonToIJ(%v, %v) = (%d, %d), want (%d, %d)", tc.name, tc.lat, tc.lon, i, j, tc.i, tc.j)
		}
	}
	if i, j := (&LatLonGrid{}).LatLonToIJ(0, 0); i != -1 || j != -1 {
		t.Errorf("zero increments: got (%d, %d)", i, j)
	}
}

func TestPointInvertsLatLonToIJ(t *testing.T) {
	g := msmGrid()
	for _, ij := range [][2]int{{0, 0}, {480, 504}, {100, 250}, {315, 238}} {
		lat, lon := g.Point(ij[0], ij[1])
		i, j := g.LatLonToIJ(lat, lon)
		if i != ij[0] || j != ij[1] {
			t.Errorf("Point(%d, %d) = (%v, %v) maps back to (%d, %d)", ij[0], ij[1], lat, lon, i, j)
		}
	}
}

func TestLatLonLookup(t *testing.T) {
	g := &LatLonGrid{Ni: 3, Nj: 2, La1: 10, Lo1: 350, La2: 9, Lo2: 2, Di: 6, Dj: 1}
	vals := []float64{1, 2, 3, 4, 5, 6}
	if v := g.Lookup(10, -10, vals); v != 1 {
		t.Errorf("(10, -10): got %v, want 1", v)
	}
	if v := g.Lookup(9, 2, vals); v != 6 {
		t.Errorf("across the meridian: got %v, want 6", v)
	}
	if v := g.Lookup(8, 350, vals); !math.IsNaN(v) {
		t.Errorf("below the grid: got %v, want NaN", v)
	}
	if v := g.Lookup(10, 20, vals); !math.IsNaN(v) {
		t.Errorf("east of the grid: got %v, want NaN", v)
	}
	if v := g.Lookup(9, 350, vals[:2]); !math.IsNaN(v) {
		t.Errorf("short value slice: got %v, want NaN", v)
	}
}

func TestNormLon(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 180: 180, 181: -179, 350: -10} {
		if got := NormLon(in); got != want {
			t.Errorf("NormLon(%v) = %v, want %v", in, got, want)
		}
	}
}
