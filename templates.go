package grib2msm

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Template layouts, in octet order, for the variants this package decodes.
var (
	// GDT 3.0: latitude/longitude (equidistant cylindrical).
	latLonLayout = Layout{
		{Name: "shape_of_earth", Width: 1},
		{Name: "radius_scale_factor", Width: 1},
		{Name: "radius_scaled_value", Width: 4},
		{Name: "major_axis_scale_factor", Width: 1},
		{Name: "major_axis_scaled_value", Width: 4},
		{Name: "minor_axis_scale_factor", Width: 1},
		{Name: "minor_axis_scaled_value", Width: 4},
		{Name: "ni", Width: 4},
		{Name: "nj", Width: 4},
		{Name: "basic_angle", Width: 4},
		{Name: "basic_angle_subdivisions", Width: 4},
		{Name: "la1", Width: 4, Kind: SignMagnitude},
		{Name: "lo1", Width: 4},
		{Name: "resolution_flags", Width: 1},
		{Name: "la2", Width: 4, Kind: SignMagnitude},
		{Name: "lo2", Width: 4},
		{Name: "di", Width: 4},
		{Name: "dj", Width: 4},
		{Name: "scanning_mode", Width: 1},
	}

	// PDT 4.0: analysis or forecast at a horizontal level at a point in time.
	instantaneousLayout = Layout{
		{Name: "parameter_category", Width: 1},
		{Name: "parameter_number", Width: 1},
		{Name: "generating_process", Width: 1},
		{Name: "background_process", Width: 1},
		{Name: "forecast_process", Width: 1},
		{Name: "cutoff_hours", Width: 2},
		{Name: "cutoff_minutes", Width: 1},
		{Name: "time_unit", Width: 1},
		{Name: "forecast_time", Width: 4},
		{Name: "first_surface_type", Width: 1},
		{Name: "first_surface_scale_factor", Width: 1, Kind: SignMagnitude},
		{Name: "first_surface_scaled_value", Width: 4},
		{Name: "second_surface_type", Width: 1},
		{Name: "second_surface_scale_factor", Width: 1, Kind: SignMagnitude},
		{Name: "second_surface_scaled_value", Width: 4},
	}

	// PDT 4.8 extends 4.0 with the end of the overall time interval.
	statisticalLayout = instantaneousLayout.Extend(
		FieldSpec{Name: "end_year", Width: 2},
		FieldSpec{Name: "end_month", Width: 1},
		FieldSpec{Name: "end_day", Width: 1},
		FieldSpec{Name: "end_hour", Width: 1},
		FieldSpec{Name: "end_minute", Width: 1},
		FieldSpec{Name: "end_second", Width: 1},
		FieldSpec{Name: "time_range_count", Width: 1},
		FieldSpec{Name: "missing_values", Width: 4},
	)

	// One PDT 4.8 time-range entry; the section repeats it once per range.
	timeRangeLayout = Layout{
		{Name: "process", Width: 1},
		{Name: "increment_type", Width: 1},
		{Name: "range_unit", Width: 1},
		{Name: "range_length", Width: 4},
		{Name: "increment_unit", Width: 1},
		{Name: "increment", Width: 4},
	}

	// DRT 5.0: grid point data, simple packing.
	simplePackingLayout = Layout{
		{Name: "reference_value", Width: 4, Kind: Float32},
		{Name: "binary_scale", Width: 2, Kind: SignMagnitude},
		{Name: "decimal_scale", Width: 2, Kind: SignMagnitude},
		{Name: "bits", Width: 1},
		{Name: "original_type", Width: 1},
	}
)

type (
	gridReader    func(c *Cursor) (GridTemplate, error)
	productReader func(c *Cursor) (ProductTemplate, error)
	dataReader    func(c *Cursor) (DataTemplate, error)
)

var (
	gridTemplates = map[uint16]gridReader{
		0: readLatLonGrid,
	}
	productTemplates = map[uint16]productReader{
		0: readInstantaneous,
		8: readStatisticallyProcessed,
	}
	dataTemplates = map[uint16]dataReader{
		0: readSimplePacking,
	}
)

func lookupGridTemplate(n uint16) (gridReader, error) {
	if r, ok := gridTemplates[n]; ok {
		return r, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedTemplate, "grid definition template 3.%d", n)
}

func lookupProductTemplate(n uint16) (productReader, error) {
	if r, ok := productTemplates[n]; ok {
		return r, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedTemplate, "product definition template 4.%d", n)
}

func lookupDataTemplate(n uint16) (dataReader, error) {
	if r, ok := dataTemplates[n]; ok {
		return r, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedTemplate, "data representation template 5.%d", n)
}

// ---------------------------------------------------------------------------
// Grid definition templates
// ---------------------------------------------------------------------------

// GridTemplate is one of the supported grid definition template variants.
// The set is closed: LatLonGrid is currently the only implementation.
type GridTemplate interface {
	TemplateNumber() uint16
	Dims() (ni, nj int)
	ScanningMode() byte
	isGridTemplate()
}

// readLatLonGrid decodes GDT 3.0. Angles are converted to degrees using the
// basic angle and subdivisions, or microdegrees when those are 0 or missing.
func readLatLonGrid(c *Cursor) (GridTemplate, error) {
	r, err := latLonLayout.Decode(c)
	if err != nil {
		return nil, err
	}
	unit := angleUnit(uint32(r.Uint("basic_angle")), uint32(r.Uint("basic_angle_subdivisions")))
	return &LatLonGrid{
		ShapeOfEarth:    byte(r.Uint("shape_of_earth")),
		Ni:              int(r.Uint("ni")),
		Nj:              int(r.Uint("nj")),
		La1:             float64(r.Int("la1")) * unit,
		Lo1:             float64(r.Uint("lo1")) * unit,
		La2:             float64(r.Int("la2")) * unit,
		Lo2:             float64(r.Uint("lo2")) * unit,
		Di:              float64(r.Uint("di")) * unit,
		Dj:              float64(r.Uint("dj")) * unit,
		ResolutionFlags: byte(r.Uint("resolution_flags")),
		ScanMode:        byte(r.Uint("scanning_mode")),
	}, nil
}

func angleUnit(basic, subdivisions uint32) float64 {
	const missing = math.MaxUint32
	if basic == 0 || basic == missing || subdivisions == 0 || subdivisions == missing {
		return 1e-6
	}
	return float64(basic) / float64(subdivisions)
}

// ---------------------------------------------------------------------------
// Product definition templates
// ---------------------------------------------------------------------------

// ProductTemplate is one of the supported product definition template
// variants: Instantaneous (4.0) or StatisticallyProcessed (4.8).
type ProductTemplate interface {
	TemplateNumber() uint16
	// Common returns the template 4.0 fields every variant carries.
	Common() Instantaneous
	isProductTemplate()
}

// Surface is a fixed surface: its type code and scaled value.
type Surface struct {
	Type        uint8
	ScaleFactor int8
	ScaledValue uint32
}

// Missing reports whether the surface is absent (type 255).
func (s Surface) Missing() bool { return s.Type == 255 }

// Value returns ScaledValue / 10^ScaleFactor.
func (s Surface) Value() float64 {
	return float64(s.ScaledValue) / math.Pow10(int(s.ScaleFactor))
}

// Instantaneous holds PDT 4.0.
type Instantaneous struct {
	ParameterCategory uint8
	ParameterNumber   uint8
	GeneratingProcess uint8
	BackgroundProcess uint8
	ForecastProcess   uint8
	CutoffHours       uint16
	CutoffMinutes     uint8
	TimeUnit          uint8
	ForecastTime      uint32
	FirstSurface      Surface
	SecondSurface     Surface
}

func (Instantaneous) TemplateNumber() uint16  { return 0 }
func (p Instantaneous) Common() Instantaneous { return p }
func (Instantaneous) isProductTemplate()      {}

// LeadTime converts ForecastTime to a duration. ok is false when the time
// unit code has no fixed length (months, years, centuries).
func (p Instantaneous) LeadTime() (d time.Duration, ok bool) {
	return unitDuration(p.TimeUnit, p.ForecastTime)
}

func instantaneousFrom(r Record) Instantaneous {
	return Instantaneous{
		ParameterCategory: uint8(r.Uint("parameter_category")),
		ParameterNumber:   uint8(r.Uint("parameter_number")),
		GeneratingProcess: uint8(r.Uint("generating_process")),
		BackgroundProcess: uint8(r.Uint("background_process")),
		ForecastProcess:   uint8(r.Uint("forecast_process")),
		CutoffHours:       uint16(r.Uint("cutoff_hours")),
		CutoffMinutes:     uint8(r.Uint("cutoff_minutes")),
		TimeUnit:          uint8(r.Uint("time_unit")),
		ForecastTime:      uint32(r.Uint("forecast_time")),
		FirstSurface: Surface{
			Type:        uint8(r.Uint("first_surface_type")),
			ScaleFactor: int8(r.Int("first_surface_scale_factor")),
			ScaledValue: uint32(r.Uint("first_surface_scaled_value")),
		},
		SecondSurface: Surface{
			Type:        uint8(r.Uint("second_surface_type")),
			ScaleFactor: int8(r.Int("second_surface_scale_factor")),
			ScaledValue: uint32(r.Uint("second_surface_scaled_value")),
		},
	}
}

func readInstantaneous(c *Cursor) (ProductTemplate, error) {
	r, err := instantaneousLayout.Decode(c)
	if err != nil {
		return nil, err
	}
	return instantaneousFrom(r), nil
}

// TimeRange is one statistical-processing entry of PDT 4.8.
type TimeRange struct {
	Process       uint8 // statistical operator, code table 4.10 (1 = accumulation)
	IncrementType uint8
	Unit          uint8
	Length        uint32
	IncrementUnit uint8
	Increment     uint32
}

// Duration returns the length of the range.
func (t TimeRange) Duration() (time.Duration, bool) {
	return unitDuration(t.Unit, t.Length)
}

// StatisticallyProcessed holds PDT 4.8: an average, accumulation or other
// statistic over one or more time ranges ending at End.
type StatisticallyProcessed struct {
	Instantaneous
	End           time.Time
	MissingValues uint32
	Ranges        []TimeRange
}

func (StatisticallyProcessed) TemplateNumber() uint16 { return 8 }

// Operator returns the statistical process of the outermost time range.
func (p StatisticallyProcessed) Operator() uint8 {
	if len(p.Ranges) == 0 {
		return 255
	}
	return p.Ranges[0].Process
}

// Window returns the aggregation window of the outermost time range.
func (p StatisticallyProcessed) Window() (time.Duration, bool) {
	if len(p.Ranges) == 0 {
		return 0, false
	}
	return p.Ranges[0].Duration()
}

func readStatisticallyProcessed(c *Cursor) (ProductTemplate, error) {
	r, err := statisticalLayout.Decode(c)
	if err != nil {
		return nil, err
	}
	p := StatisticallyProcessed{
		Instantaneous: instantaneousFrom(r),
		End: time.Date(int(r.Uint("end_year")), time.Month(r.Uint("end_month")), int(r.Uint("end_day")),
			int(r.Uint("end_hour")), int(r.Uint("end_minute")), int(r.Uint("end_second")), 0, time.UTC),
		MissingValues: uint32(r.Uint("missing_values")),
	}
	n := int(r.Uint("time_range_count"))
	p.Ranges = make([]TimeRange, 0, n)
	for i := 0; i < n; i++ {
		tr, err := timeRangeLayout.Decode(c)
		if err != nil {
			return nil, errors.Wrapf(err, "time range %d of %d", i+1, n)
		}
		p.Ranges = append(p.Ranges, TimeRange{
			Process:       uint8(tr.Uint("process")),
			IncrementType: uint8(tr.Uint("increment_type")),
			Unit:          uint8(tr.Uint("range_unit")),
			Length:        uint32(tr.Uint("range_length")),
			IncrementUnit: uint8(tr.Uint("increment_unit")),
			Increment:     uint32(tr.Uint("increment")),
		})
	}
	return p, nil
}

// unitDuration converts a value in a code table 4.4 time unit.
func unitDuration(unit uint8, v uint32) (time.Duration, bool) {
	var base time.Duration
	switch unit {
	case 0:
		base = time.Minute
	case 1:
		base = time.Hour
	case 2:
		base = 24 * time.Hour
	case 10:
		base = 3 * time.Hour
	case 11:
		base = 6 * time.Hour
	case 12:
		base = 12 * time.Hour
	case 13:
		base = time.Second
	default:
		return 0, false
	}
	return time.Duration(v) * base, true
}

// ---------------------------------------------------------------------------
// Data representation templates
// ---------------------------------------------------------------------------

// DataTemplate is one of the supported data representation template
// variants. SimplePacking is currently the only implementation.
type DataTemplate interface {
	TemplateNumber() uint16
	isDataTemplate()
}

// SimplePacking holds DRT 5.0. Each value is Bits wide and unpacks as
// (Reference + X*2^BinaryScale) / 10^DecimalScale.
type SimplePacking struct {
	Reference    float32
	BinaryScale  int
	DecimalScale int
	Bits         int
	OriginalType uint8
}

func (SimplePacking) TemplateNumber() uint16 { return 0 }
func (SimplePacking) isDataTemplate()        {}

func readSimplePacking(c *Cursor) (DataTemplate, error) {
	r, err := simplePackingLayout.Decode(c)
	if err != nil {
		return nil, err
	}
	p := SimplePacking{
		Reference:    r.Float("reference_value"),
		BinaryScale:  int(r.Int("binary_scale")),
		DecimalScale: int(r.Int("decimal_scale")),
		Bits:         int(r.Uint("bits")),
		OriginalType: uint8(r.Uint("original_type")),
	}
	if p.Bits > maxBitWidth {
		return nil, errors.Wrapf(ErrInvalidPacking, "%d bits per value exceeds %d", p.Bits, maxBitWidth)
	}
	return p, nil
}
