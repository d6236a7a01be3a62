package grib2msm

import (
	"math"
	"time"
)

// Field is one decoded grid variable: the product, representation and bitmap
// sections that describe it plus the unpacked values.
// Values are stored row-major: Vals[j*Ni + i], j over Nj rows.
type Field struct {
	Offset         int // byte offset of the field's section 4
	Product        ProductDefinition
	Representation DataRepresentation
	Bitmap         BitmapSection
	DataLength     uint32 // declared length of section 7
	Ni, Nj         int
	Vals           []float64

	grid GridTemplate
}

// Rows returns the values shaped (Nj, Ni). Rows alias Vals.
func (f *Field) Rows() [][]float64 {
	rows := make([][]float64, f.Nj)
	for j := range rows {
		rows[j] = f.Vals[j*f.Ni : (j+1)*f.Ni : (j+1)*f.Ni]
	}
	return rows
}

// At returns the value at column i, row j, or NaN outside the grid.
func (f *Field) At(i, j int) float64 {
	if i < 0 || i >= f.Ni || j < 0 || j >= f.Nj {
		return math.NaN()
	}
	return f.Vals[j*f.Ni+i]
}

// Parameter returns the parameter category and number (code table 4.1/4.2).
func (f *Field) Parameter() (category, number uint8) {
	p := f.Product.Template.Common()
	return p.ParameterCategory, p.ParameterNumber
}

// Level returns the first fixed surface.
func (f *Field) Level() Surface {
	return f.Product.Template.Common().FirstSurface
}

// LeadTime returns the forecast time from the reference time.
func (f *Field) LeadTime() (time.Duration, bool) {
	return f.Product.Template.Common().LeadTime()
}

// Lookup returns the nearest-neighbour value at (lat°N, lon°E).
func (f *Field) Lookup(lat, lon float64) float64 {
	g, ok := f.grid.(*LatLonGrid)
	if !ok {
		return math.NaN()
	}
	return g.Lookup(lat, lon, f.Vals)
}

// Stats returns the minimum, maximum and mean of the non-NaN values.
// All three are NaN when no value is present.
func (f *Field) Stats() (lo, hi, mean float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	var sum float64
	n := 0
	for _, v := range f.Vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return lo, hi, sum / float64(n)
}
