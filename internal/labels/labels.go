// Package labels maps GRIB2 parameter and level codes to display names.
// Decoding never depends on it.
package labels

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Param identifies a parameter within discipline 0 (meteorological products).
type Param struct {
	Category uint8
	Number   uint8
}

// Table holds parameter abbreviations, category names and level names.
type Table struct {
	Categories map[uint8]string
	Params     map[Param]string
	Levels     map[uint8]string
}

// Default returns the table for the elements carried by MSM surface and
// pressure-level files.
func Default() *Table {
	return &Table{
		Categories: map[uint8]string{
			0: "Temperature",
			1: "Moisture",
			2: "Momentum",
			3: "Mass",
			6: "Cloud",
		},
		Params: map[Param]string{
			{0, 0}: "TMP",
			{1, 1}: "RH",
			{1, 8}: "APCP",
			{2, 2}: "UGRD",
			{2, 3}: "VGRD",
			{2, 8}: "VVEL",
			{3, 0}: "PRES",
			{3, 1}: "PRMSL",
			{3, 5}: "HGT",
			{6, 1}: "TCDC",
			{6, 3}: "LCDC",
			{6, 4}: "MCDC",
			{6, 5}: "HCDC",
		},
		Levels: map[uint8]string{
			1:   "surface",
			101: "mean sea level",
			103: "above ground",
		},
	}
}

// Parameter returns the abbreviation for (category, number), or a
// "cat<C>-num<N>" placeholder.
func (t *Table) Parameter(category, number uint8) string {
	if name, ok := t.Params[Param{category, number}]; ok {
		return name
	}
	return fmt.Sprintf("cat%d-num%d", category, number)
}

// Category returns the category name, or "" when unknown.
func (t *Table) Category(category uint8) string {
	return t.Categories[category]
}

// Level renders a fixed surface. Isobaric surfaces (type 100) print their
// pressure in hPa; other known types print their name.
func (t *Table) Level(surfaceType uint8, value float64) string {
	if surfaceType == 100 {
		return strconv.FormatFloat(value/100, 'f', -1, 64) + " hPa"
	}
	if name, ok := t.Levels[surfaceType]; ok {
		return name
	}
	return fmt.Sprintf("type%d", surfaceType)
}

// overrideFile is the YAML shape accepted by Load.
type overrideFile struct {
	Categories map[uint8]string `yaml:"categories"`
	Params     []struct {
		Category uint8  `yaml:"category"`
		Number   uint8  `yaml:"number"`
		Name     string `yaml:"name"`
	} `yaml:"params"`
	Levels map[uint8]string `yaml:"levels"`
}

// Load merges YAML entries from r into t, replacing existing names.
//
//	categories: {19: Physical atmospheric properties}
//	params:
//	  - {category: 19, number: 0, name: VIS}
//	levels: {4: 0C isotherm}
func (t *Table) Load(r io.Reader) error {
	var f overrideFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return errors.Wrap(err, "labels")
	}
	for k, v := range f.Categories {
		t.Categories[k] = v
	}
	for _, p := range f.Params {
		t.Params[Param{p.Category, p.Number}] = p.Name
	}
	for k, v := range f.Levels {
		t.Levels[k] = v
	}
	return nil
}
