package grib2msm

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
)

const (
	sectionHeaderLen = 5 // 4-byte length + 1-byte section number
	gribMagic        = "GRIB"
)

// Indicator is the GRIB2 Indicator Section (section 0, 16 bytes).
type Indicator struct {
	Magic       string // "GRIB" for well-formed input; not enforced
	Discipline  uint8
	Edition     uint8
	TotalLength uint64
}

// Identification is the Identification Section (section 1).
type Identification struct {
	Center           uint16
	Subcenter        uint16
	MasterTable      uint8
	LocalTable       uint8
	RefSignificance  uint8
	RefTime          time.Time // UTC
	ProductionStatus uint8
	DataType         uint8
}

// GridDefinition is the Grid Definition Section (section 3), shared by every
// field of a message.
type GridDefinition struct {
	Source             uint8
	NumPoints          uint32
	OptionalListLength uint8
	OptionalListInterp uint8
	TemplateNumber     uint16
	Template           GridTemplate
}

// ProductDefinition is the Product Definition Section (section 4).
type ProductDefinition struct {
	CoordinateValues uint16
	TemplateNumber   uint16
	Template         ProductTemplate
}

// DataRepresentation is the Data Representation Section (section 5).
// RawRED holds the 8 undecoded bytes of R, E and D when raw capture is on.
type DataRepresentation struct {
	NumPoints      uint32
	TemplateNumber uint16
	Template       DataTemplate
	RawRED         []byte
}

// BitmapSection is the Bitmap Section (section 6).
// Bitmap is nil unless Indicator is 0.
type BitmapSection struct {
	Indicator uint8
	Bitmap    []byte
}

// Bitmap indicator values.
const (
	bitmapPresent = 0
	bitmapNone    = 255
)

// DataSection is the Data Section (section 7). Payload aliases the input.
type DataSection struct {
	Length  uint32
	Payload []byte
}

var (
	indicatorLayout = Layout{
		{Name: "magic", Width: 4, Kind: Octets},
		{Name: "reserved", Width: 2, Kind: Octets},
		{Name: "discipline", Width: 1},
		{Name: "edition", Width: 1},
		{Name: "total_length", Width: 8},
	}
	identificationLayout = Layout{
		{Name: "center", Width: 2},
		{Name: "subcenter", Width: 2},
		{Name: "master_table", Width: 1},
		{Name: "local_table", Width: 1},
		{Name: "ref_significance", Width: 1},
		{Name: "year", Width: 2},
		{Name: "month", Width: 1},
		{Name: "day", Width: 1},
		{Name: "hour", Width: 1},
		{Name: "minute", Width: 1},
		{Name: "second", Width: 1},
		{Name: "production_status", Width: 1},
		{Name: "data_type", Width: 1},
	}
	gridHeaderLayout = Layout{
		{Name: "source", Width: 1},
		{Name: "num_points", Width: 4},
		{Name: "optional_list_length", Width: 1},
		{Name: "optional_list_interp", Width: 1},
		{Name: "template", Width: 2},
	}
	productHeaderLayout = Layout{
		{Name: "coordinate_values", Width: 2},
		{Name: "template", Width: 2},
	}
	dataRepHeaderLayout = Layout{
		{Name: "num_points", Width: 4},
		{Name: "template", Width: 2},
	}
	bitmapLayout = Layout{
		{Name: "indicator", Width: 1},
	}
)

// sectionHeader is the common 5-byte prefix of sections 1-7.
type sectionHeader struct {
	Start  int
	Length uint32
	Number uint8
}

// end returns the offset one past the section's declared extent.
func (h sectionHeader) end() int { return h.Start + int(h.Length) }

// peekSectionHeader reads the common header without advancing.
func peekSectionHeader(c *Cursor) (sectionHeader, error) {
	b, err := c.Peek(sectionHeaderLen)
	if err != nil {
		return sectionHeader{}, err
	}
	return sectionHeader{
		Start:  c.Pos(),
		Length: binary.BigEndian.Uint32(b[0:4]),
		Number: b[4],
	}, nil
}

// readSection runs body over one section numbered num. minBody is the fixed
// part body will read after the 5-byte header. Bytes between the end of body
// and the declared length are skipped. On any failure the cursor is restored
// to the section start and the error carries the section number and offset.
func readSection[T any](c *Cursor, num uint8, minBody int, body func(c *Cursor, h sectionHeader) (T, error)) (T, error) {
	var zero T
	start := c.Pos()
	fail := func(err error) (T, error) {
		c.pos = start
		return zero, sectionErr(int(num), start, err)
	}

	h, err := peekSectionHeader(c)
	if err != nil {
		return fail(err)
	}
	if h.Number != num {
		return fail(errors.Wrapf(ErrUnexpectedSection, "found section %d, want %d", h.Number, num))
	}
	if int64(h.Length) < int64(sectionHeaderLen+minBody) {
		return fail(errors.Wrapf(ErrSectionLength, "declared %d bytes, need at least %d",
			h.Length, sectionHeaderLen+minBody))
	}
	if int64(h.Start)+int64(h.Length) > int64(c.Len()) {
		return fail(errors.Wrapf(ErrTruncatedInput, "declared %d bytes, %d remain", h.Length, c.Remaining()))
	}
	if err := c.Skip(sectionHeaderLen); err != nil {
		return fail(err)
	}

	v, err := body(c, h)
	if err != nil {
		return fail(err)
	}
	rest := h.end() - c.Pos()
	if rest < 0 {
		return fail(errors.Wrapf(ErrSectionLength, "declared %d bytes, template consumed %d",
			h.Length, c.Pos()-start))
	}
	if err := c.Skip(rest); err != nil {
		return fail(err)
	}
	return v, nil
}

// readIndicator decodes section 0. The magic is recorded, not enforced.
func readIndicator(c *Cursor) (Indicator, error) {
	start := c.Pos()
	r, err := indicatorLayout.Decode(c)
	if err != nil {
		return Indicator{}, sectionErr(0, start, err)
	}
	return Indicator{
		Magic:       string(r.Bytes("magic")),
		Discipline:  uint8(r.Uint("discipline")),
		Edition:     uint8(r.Uint("edition")),
		TotalLength: r.Uint("total_length"),
	}, nil
}

func readIdentification(c *Cursor) (Identification, error) {
	return readSection(c, 1, identificationLayout.Size(), func(c *Cursor, _ sectionHeader) (Identification, error) {
		r, err := identificationLayout.Decode(c)
		if err != nil {
			return Identification{}, err
		}
		return Identification{
			Center:          uint16(r.Uint("center")),
			Subcenter:       uint16(r.Uint("subcenter")),
			MasterTable:     uint8(r.Uint("master_table")),
			LocalTable:      uint8(r.Uint("local_table")),
			RefSignificance: uint8(r.Uint("ref_significance")),
			RefTime: time.Date(int(r.Uint("year")), time.Month(r.Uint("month")), int(r.Uint("day")),
				int(r.Uint("hour")), int(r.Uint("minute")), int(r.Uint("second")), 0, time.UTC),
			ProductionStatus: uint8(r.Uint("production_status")),
			DataType:         uint8(r.Uint("data_type")),
		}, nil
	})
}

// readLocalUse consumes an optional section 2 and returns its body.
// It returns nil without advancing when the next section is not 2.
func readLocalUse(c *Cursor) ([]byte, error) {
	h, err := peekSectionHeader(c)
	if err != nil || h.Number != 2 {
		return nil, nil
	}
	return readSection(c, 2, 0, func(c *Cursor, h sectionHeader) ([]byte, error) {
		return c.ReadExact(int(h.Length) - sectionHeaderLen)
	})
}

// readGridDefinition decodes section 3. Only scanning mode 0x00 (west to
// east, north to south, rows consecutive) is accepted: the decoded values
// are laid out in that order and any other mode would be silently misread.
func readGridDefinition(c *Cursor, maxPoints int) (GridDefinition, error) {
	return readSection(c, 3, gridHeaderLayout.Size(), func(c *Cursor, _ sectionHeader) (GridDefinition, error) {
		r, err := gridHeaderLayout.Decode(c)
		if err != nil {
			return GridDefinition{}, err
		}
		gd := GridDefinition{
			Source:             uint8(r.Uint("source")),
			NumPoints:          uint32(r.Uint("num_points")),
			OptionalListLength: uint8(r.Uint("optional_list_length")),
			OptionalListInterp: uint8(r.Uint("optional_list_interp")),
			TemplateNumber:     uint16(r.Uint("template")),
		}
		read, err := lookupGridTemplate(gd.TemplateNumber)
		if err != nil {
			return GridDefinition{}, err
		}
		if gd.Template, err = read(c); err != nil {
			return GridDefinition{}, err
		}

		ni, nj := gd.Template.Dims()
		if ni <= 0 || nj <= 0 || int64(ni)*int64(nj) > int64(maxPoints) {
			return GridDefinition{}, errors.Wrapf(ErrInvalidGrid, "dimensions %dx%d (max %d points)",
				ni, nj, maxPoints)
		}
		if int64(ni)*int64(nj) != int64(gd.NumPoints) {
			return GridDefinition{}, errors.Wrapf(ErrInvalidGrid, "%dx%d grid declares %d points",
				ni, nj, gd.NumPoints)
		}
		if mode := gd.Template.ScanningMode(); mode != 0x00 {
			return GridDefinition{}, errors.Wrapf(ErrUnsupportedScanMode, "0x%02X (only 0x00 supported)", mode)
		}
		return gd, nil
	})
}

func readProductDefinition(c *Cursor) (ProductDefinition, error) {
	return readSection(c, 4, productHeaderLayout.Size(), func(c *Cursor, _ sectionHeader) (ProductDefinition, error) {
		r, err := productHeaderLayout.Decode(c)
		if err != nil {
			return ProductDefinition{}, err
		}
		pd := ProductDefinition{
			CoordinateValues: uint16(r.Uint("coordinate_values")),
			TemplateNumber:   uint16(r.Uint("template")),
		}
		read, err := lookupProductTemplate(pd.TemplateNumber)
		if err != nil {
			return ProductDefinition{}, err
		}
		if pd.Template, err = read(c); err != nil {
			return ProductDefinition{}, err
		}
		return pd, nil
	})
}

// readDataRepresentation decodes section 5. With captureRaw the 8 bytes
// spanning R, E and D are re-read verbatim after the typed decode.
func readDataRepresentation(c *Cursor, captureRaw bool) (DataRepresentation, error) {
	return readSection(c, 5, dataRepHeaderLayout.Size(), func(c *Cursor, _ sectionHeader) (DataRepresentation, error) {
		r, err := dataRepHeaderLayout.Decode(c)
		if err != nil {
			return DataRepresentation{}, err
		}
		dr := DataRepresentation{
			NumPoints:      uint32(r.Uint("num_points")),
			TemplateNumber: uint16(r.Uint("template")),
		}
		read, err := lookupDataTemplate(dr.TemplateNumber)
		if err != nil {
			return DataRepresentation{}, err
		}
		if dr.Template, err = read(c); err != nil {
			return DataRepresentation{}, err
		}
		if captureRaw {
			if dr.RawRED, err = captureRED(c); err != nil {
				return DataRepresentation{}, err
			}
		}
		return dr, nil
	})
}

// captureRED rewinds over the just-decoded simple packing template, copies
// R (4 bytes), E (2) and D (2), then skips nbits and the type code again.
func captureRED(c *Cursor) ([]byte, error) {
	n := simplePackingLayout.Size()
	if err := c.Seek(-n); err != nil {
		return nil, err
	}
	b, err := c.ReadExact(8)
	if err != nil {
		return nil, err
	}
	if err := c.Seek(n - 8); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// readBitmap decodes section 6. An explicit bitmap (indicator 0) is returned
// for the caller to apply; 255 means every point carries a value.
func readBitmap(c *Cursor) (BitmapSection, error) {
	return readSection(c, 6, bitmapLayout.Size(), func(c *Cursor, h sectionHeader) (BitmapSection, error) {
		r, err := bitmapLayout.Decode(c)
		if err != nil {
			return BitmapSection{}, err
		}
		bs := BitmapSection{Indicator: uint8(r.Uint("indicator"))}
		switch bs.Indicator {
		case bitmapNone:
		case bitmapPresent:
			if bs.Bitmap, err = c.ReadExact(h.end() - c.Pos()); err != nil {
				return BitmapSection{}, err
			}
		default:
			return BitmapSection{}, errors.Wrapf(ErrUnsupportedBitmap, "indicator %d", bs.Indicator)
		}
		return bs, nil
	})
}

// readData decodes section 7: declared length minus the 5-byte header is
// the packed payload.
func readData(c *Cursor) (DataSection, error) {
	return readSection(c, 7, 0, func(c *Cursor, h sectionHeader) (DataSection, error) {
		payload, err := c.ReadExact(int(h.Length) - sectionHeaderLen)
		if err != nil {
			return DataSection{}, err
		}
		return DataSection{Length: h.Length, Payload: payload}, nil
	})
}
