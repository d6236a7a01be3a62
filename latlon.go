package grib2msm

import "math"

// LatLonGrid holds parsed GDT 3.0 parameters. Angles are in degrees,
// longitudes in the 0-360 convention as stored in GRIB2.
type LatLonGrid struct {
	ShapeOfEarth    byte
	Ni, Nj          int
	La1, Lo1        float64 // first grid point
	La2, Lo2        float64 // last grid point
	Di, Dj          float64 // increments, always positive
	ResolutionFlags byte
	ScanMode        byte
}

func (*LatLonGrid) TemplateNumber() uint16 { return 0 }
func (g *LatLonGrid) Dims() (ni, nj int)   { return g.Ni, g.Nj }
func (g *LatLonGrid) ScanningMode() byte   { return g.ScanMode }
func (*LatLonGrid) isGridTemplate()        {}

// latStep returns the signed latitude increment per row. Scanning mode 0x00
// walks north to south, so rows step towards La2.
func (g *LatLonGrid) latStep() float64 {
	if g.La2 < g.La1 {
		return -g.Dj
	}
	return g.Dj
}

// LatLonToIJ maps (lat°N, lon°E, either longitude convention) to the nearest
// grid indices. i increases eastward from Lo1, j increases from La1 to La2.
func (g *LatLonGrid) LatLonToIJ(lat, lon float64) (i, j int) {
	if g.Di == 0 || g.Dj == 0 {
		return -1, -1
	}
	dlon := math.Mod(lon-g.Lo1+720, 360)
	i = int(math.Round(dlon / g.Di))
	j = int(math.Round((lat - g.La1) / g.latStep()))
	return
}

// Point returns the coordinates of grid point (i, j), longitude in -180..180.
func (g *LatLonGrid) Point(i, j int) (lat, lon float64) {
	lat = g.La1 + float64(j)*g.latStep()
	lon = NormLon(math.Mod(g.Lo1+float64(i)*g.Di, 360))
	return
}

// Lookup returns the value at (lat, lon) by nearest-neighbour from vals.
// vals is a flat row-major slice: index = j*Ni + i.
// Returns math.NaN() if the point falls outside the grid.
func (g *LatLonGrid) Lookup(lat, lon float64, vals []float64) float64 {
	i, j := g.LatLonToIJ(lat, lon)
	if i < 0 || i >= g.Ni || j < 0 || j >= g.Nj || j*g.Ni+i >= len(vals) {
		return math.NaN()
	}
	return vals[j*g.Ni+i]
}

// NormLon converts a 0-360 longitude to -180..+180.
func NormLon(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}
