package labels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameters(t *testing.T) {
	tbl := Default()
	cases := []struct {
		cat, num uint8
		want     string
	}{
		{0, 0, "TMP"},
		{1, 8, "APCP"},
		{2, 3, "VGRD"},
		{3, 1, "PRMSL"},
		{6, 5, "HCDC"},
		{9, 9, "cat9-num9"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tbl.Parameter(tc.cat, tc.num), "Parameter(%d, %d)", tc.cat, tc.num)
	}
	assert.Equal(t, "Momentum", tbl.Category(2))
	assert.Empty(t, tbl.Category(42))
}

func TestLevel(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "surface", tbl.Level(1, 0))
	assert.Equal(t, "mean sea level", tbl.Level(101, 0))
	assert.Equal(t, "850 hPa", tbl.Level(100, 85000))
	assert.Equal(t, "type7", tbl.Level(7, 0))
}

func TestLoadOverrides(t *testing.T) {
	tbl := Default()
	err := tbl.Load(strings.NewReader(`
categories: {19: Physical atmospheric properties}
params:
  - {category: 19, number: 0, name: VIS}
  - {category: 0, number: 0, name: TEMP}
levels: {4: 0C isotherm}
`))
	require.NoError(t, err)
	assert.Equal(t, "VIS", tbl.Parameter(19, 0))
	assert.Equal(t, "TEMP", tbl.Parameter(0, 0))
	assert.Equal(t, "Physical atmospheric properties", tbl.Category(19))
	assert.Equal(t, "0C isotherm", tbl.Level(4, 0))
}

func TestLoadEmptyIsNoop(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Load(strings.NewReader("")))
	assert.Equal(t, "TMP", tbl.Parameter(0, 0))
}

func TestLoadInvalidYAML(t *testing.T) {
	require.Error(t, Default().Load(strings.NewReader("params: [unclosed")))
}
