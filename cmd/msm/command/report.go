package command

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/geal-ai/grib2msm"
)

// point is a --at location.
type point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// parsePoint parses "lat,lon".
func parsePoint(s string) (*point, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, errors.Errorf("invalid --at %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid longitude %q", parts[1])
	}
	if lat < -90 || lat > 90 {
		return nil, errors.Errorf("latitude %g out of range", lat)
	}
	return &point{Lat: lat, Lon: lon}, nil
}

type gridReport struct {
	Template uint16  `json:"template" yaml:"template"`
	Ni       int     `json:"ni" yaml:"ni"`
	Nj       int     `json:"nj" yaml:"nj"`
	La1      float64 `json:"la1" yaml:"la1"`
	Lo1      float64 `json:"lo1" yaml:"lo1"`
	La2      float64 `json:"la2" yaml:"la2"`
	Lo2      float64 `json:"lo2" yaml:"lo2"`
	Di       float64 `json:"di" yaml:"di"`
	Dj       float64 `json:"dj" yaml:"dj"`
}

// fieldReport is one field in JSON/YAML output. Statistics are null when
// the field has no non-missing value.
type fieldReport struct {
	Index     int      `json:"index" yaml:"index"`
	Offset    int      `json:"offset" yaml:"offset"`
	Parameter string   `json:"parameter" yaml:"parameter"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Level     string   `json:"level" yaml:"level"`
	Template  uint16   `json:"pdt" yaml:"pdt"`
	Lead      string   `json:"lead,omitempty" yaml:"lead,omitempty"`
	Window    string   `json:"window,omitempty" yaml:"window,omitempty"`
	Bits      int      `json:"bits" yaml:"bits"`
	Min       *float64 `json:"min" yaml:"min"`
	Max       *float64 `json:"max" yaml:"max"`
	Mean      *float64 `json:"mean" yaml:"mean"`
	Value     *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	RawRED    string   `json:"raw_red,omitempty" yaml:"raw_red,omitempty"`
}

type messageReport struct {
	File      string        `json:"file" yaml:"file"`
	Center    uint16        `json:"center" yaml:"center"`
	Reference string        `json:"reference_time" yaml:"reference_time"`
	Grid      gridReport    `json:"grid" yaml:"grid"`
	At        *point        `json:"at,omitempty" yaml:"at,omitempty"`
	Fields    []fieldReport `json:"fields" yaml:"fields"`
}

func (a *app) buildReport(file string, msg *grib2msm.Message, at *point) messageReport {
	r := messageReport{
		File:      file,
		Center:    msg.Identification.Center,
		Reference: msg.Identification.RefTime.Format(time.RFC3339),
		Grid:      gridReport{Template: msg.Grid.TemplateNumber},
		At:        at,
		Fields:    make([]fieldReport, 0, len(msg.Fields)),
	}
	if g, ok := msg.Grid.Template.(*grib2msm.LatLonGrid); ok {
		r.Grid.Ni, r.Grid.Nj = g.Ni, g.Nj
		r.Grid.La1, r.Grid.Lo1, r.Grid.La2, r.Grid.Lo2 = g.La1, g.Lo1, g.La2, g.Lo2
		r.Grid.Di, r.Grid.Dj = g.Di, g.Dj
	}

	for i := range msg.Fields {
		f := &msg.Fields[i]
		param, level := a.fieldLabel(f)
		cat, _ := f.Parameter()
		lo, hi, mean := f.Stats()
		fr := fieldReport{
			Index:     i,
			Offset:    f.Offset,
			Parameter: param,
			Category:  a.labels.Category(cat),
			Level:     level,
			Template:  f.Product.TemplateNumber,
			Min:       number(lo),
			Max:       number(hi),
			Mean:      number(mean),
		}
		if d, ok := f.LeadTime(); ok {
			fr.Lead = d.String()
		}
		if sp, ok := f.Product.Template.(grib2msm.StatisticallyProcessed); ok {
			if d, ok := sp.Window(); ok {
				fr.Window = d.String()
			}
		}
		if p, ok := f.Representation.Template.(grib2msm.SimplePacking); ok {
			fr.Bits = p.Bits
		}
		if at != nil {
			fr.Value = number(f.Lookup(at.Lat, at.Lon))
		}
		if f.Representation.RawRED != nil {
			fr.RawRED = hex.EncodeToString(f.Representation.RawRED)
		}
		r.Fields = append(r.Fields, fr)
	}
	return r
}

// number returns nil for NaN, which JSON cannot represent.
func number(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeReports(w io.Writer, format string, reports []messageReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		for _, r := range reports {
			writeText(w, r)
		}
		return nil
	default:
		return errors.Errorf("unknown format %q (text, json, yaml)", format)
	}
}

func writeText(w io.Writer, r messageReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  File      : %s\n", r.File)
	fmt.Fprintf(w, "  Center    : %d\n", r.Center)
	fmt.Fprintf(w, "  Reference : %s\n", r.Reference)
	fmt.Fprintf(w, "  Grid      : 3.%d  %dx%d  %.4f..%.4f°N  %.4f..%.4f°E  (%.4f° x %.4f°)\n",
		r.Grid.Template, r.Grid.Ni, r.Grid.Nj, r.Grid.La1, r.Grid.La2, r.Grid.Lo1, r.Grid.Lo2, r.Grid.Di, r.Grid.Dj)
	if r.At != nil {
		fmt.Fprintf(w, "  Location  : %.4f°N  %.4f°E\n", r.At.Lat, r.At.Lon)
	}
	fmt.Fprintf(w, "\n")

	maxParam, maxLevel := len("PARAM"), len("LEVEL")
	for _, f := range r.Fields {
		maxParam = max(maxParam, len(f.Parameter))
		maxLevel = max(maxLevel, len(f.Level))
	}
	fmt.Fprintf(w, "  %4s  %-*s  %-*s  %-4s  %-8s  %12s  %12s  %12s", "#", maxParam, "PARAM", maxLevel, "LEVEL",
		"PDT", "LEAD", "MIN", "MAX", "MEAN")
	if r.At != nil {
		fmt.Fprintf(w, "  %12s", "VALUE")
	}
	fmt.Fprintf(w, "\n")
	for _, f := range r.Fields {
		lead := f.Lead
		if f.Window != "" {
			lead += "/" + f.Window
		}
		fmt.Fprintf(w, "  %4d  %-*s  %-*s  4.%-2d  %-8s  %12s  %12s  %12s", f.Index, maxParam, f.Parameter,
			maxLevel, f.Level, f.Template, lead, formatNumber(f.Min), formatNumber(f.Max), formatNumber(f.Mean))
		if r.At != nil {
			fmt.Fprintf(w, "  %12s", formatNumber(f.Value))
		}
		if f.RawRED != "" {
			fmt.Fprintf(w, "  red=%s", f.RawRED)
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "\n")
}

func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', 6, 64)
}
