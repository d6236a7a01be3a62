// Package grib2msm decodes JMA MSM GRIB2 files: a single message holding one
// latitude/longitude grid (GDT 3.0) and repeated product (PDT 4.0/4.8),
// simple-packing (DRT 5.0), bitmap and data blocks up to the "7777" marker.
package grib2msm

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const endMarker = "7777"

// Message is one decoded GRIB2 message.
type Message struct {
	Indicator      Indicator
	Identification Identification
	LocalUse       []byte // body of section 2, if present
	Grid           GridDefinition
	Fields         []Field
}

// Decode parses a complete message from raw. raw must hold the whole
// message; slices in the result (payloads, bitmaps) alias it.
func Decode(raw []byte, opts ...Option) (*Message, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	d := &decoder{c: NewCursor(raw), opts: o, log: o.logger}
	return d.run()
}

// DecodeFile reads path and decodes the message it holds.
func DecodeFile(path string, opts ...Option) (*Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	msg, err := Decode(raw, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return msg, nil
}

type decodeState int

const (
	stateStart decodeState = iota
	stateHeaderRead
	stateBlockLoop
	stateDone
)

type decoder struct {
	c    *Cursor
	opts *options
	log  *zap.Logger
}

// run drives Start → HeaderRead → BlockLoop → Done. Any failure aborts the
// whole message.
func (d *decoder) run() (*Message, error) {
	msg := &Message{}
	state := stateStart
	for state != stateDone {
		switch state {
		case stateStart:
			if err := d.readHeader(msg); err != nil {
				return nil, err
			}
			state = stateHeaderRead
		case stateHeaderRead:
			state = stateBlockLoop
		case stateBlockLoop:
			end, err := atEnd(d.c)
			if err != nil {
				return nil, err
			}
			if end {
				d.log.Debug("end marker", zap.Int("offset", d.c.Pos()-len(endMarker)),
					zap.Int("fields", len(msg.Fields)))
				state = stateDone
				continue
			}
			f, err := d.readField(msg.Grid)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, f)
		}
	}

	if uint64(d.c.Pos()) != msg.Indicator.TotalLength {
		d.log.Warn("message length differs from indicator",
			zap.Uint64("declared", msg.Indicator.TotalLength), zap.Int("consumed", d.c.Pos()))
	}
	return msg, nil
}

// readHeader reads sections 0, 1, the optional 2, and 3.
func (d *decoder) readHeader(msg *Message) error {
	var err error
	if msg.Indicator, err = readIndicator(d.c); err != nil {
		return err
	}
	if msg.Indicator.Magic != gribMagic || msg.Indicator.Edition != 2 {
		d.log.Warn("unexpected indicator", zap.String("magic", msg.Indicator.Magic),
			zap.Uint8("edition", msg.Indicator.Edition))
	}
	if msg.Identification, err = readIdentification(d.c); err != nil {
		return err
	}
	if msg.LocalUse, err = readLocalUse(d.c); err != nil {
		return err
	}
	off := d.c.Pos()
	if msg.Grid, err = readGridDefinition(d.c, d.opts.maxGridPoints); err != nil {
		return err
	}
	ni, nj := msg.Grid.Template.Dims()
	d.log.Debug("grid definition", zap.Int("offset", off),
		zap.Uint16("template", msg.Grid.TemplateNumber), zap.Int("ni", ni), zap.Int("nj", nj),
		zap.Time("reference_time", msg.Identification.RefTime))
	return nil
}

// atEnd reads 4 bytes; on "7777" they stay consumed, otherwise the cursor
// is moved back by exactly 4.
func atEnd(c *Cursor) (bool, error) {
	start := c.Pos()
	b, err := c.ReadExact(len(endMarker))
	if err != nil {
		return false, &DecodeError{Section: -1, Offset: start, Err: err}
	}
	if string(b) == endMarker {
		return true, nil
	}
	if err := c.Seek(-len(endMarker)); err != nil {
		return false, &DecodeError{Section: -1, Offset: start, Err: err}
	}
	return false, nil
}

// readField reads one section 4, 5, 6, 7 block and unpacks its values onto grid.
func (d *decoder) readField(grid GridDefinition) (Field, error) {
	start := d.c.Pos()
	if h, err := peekSectionHeader(d.c); err != nil || h.Number != 4 {
		return Field{}, &DecodeError{Section: -1, Offset: start,
			Err: errors.Wrapf(ErrMalformedSentinel, "neither %q nor section 4 follows the previous block", endMarker)}
	}

	pd, err := readProductDefinition(d.c)
	if err != nil {
		return Field{}, err
	}
	dr, err := readDataRepresentation(d.c, d.opts.captureRaw)
	if err != nil {
		return Field{}, err
	}
	bm, err := readBitmap(d.c)
	if err != nil {
		return Field{}, err
	}
	dataOff := d.c.Pos()
	ds, err := readData(d.c)
	if err != nil {
		return Field{}, err
	}

	ni, nj := grid.Template.Dims()
	vals, err := unpackField(ds.Payload, dr, bm, ni*nj)
	if err != nil {
		return Field{}, sectionErr(7, dataOff, err)
	}

	f := Field{
		Offset:         start,
		Product:        pd,
		Representation: dr,
		Bitmap:         bm,
		DataLength:     ds.Length,
		Ni:             ni,
		Nj:             nj,
		Vals:           vals,
		grid:           grid.Template,
	}
	if ce := d.log.Check(zap.DebugLevel, "field"); ce != nil {
		cat, num := f.Parameter()
		lead, _ := f.LeadTime()
		ce.Write(zap.Int("offset", start), zap.Uint16("pdt", pd.TemplateNumber),
			zap.Uint8("category", cat), zap.Uint8("number", num),
			zap.Uint8("level_type", f.Level().Type), zap.Uint32("level_value", f.Level().ScaledValue),
			zap.Duration("lead", lead), zap.Uint8("bitmap", bm.Indicator))
	}
	return f, nil
}

// unpackField dispatches on the data representation variant. Without a
// bitmap every grid point is packed; with one, only the set points are and
// section 5's point count is advisory.
func unpackField(payload []byte, dr DataRepresentation, bm BitmapSection, points int) ([]float64, error) {
	n := points
	if bm.Indicator == bitmapPresent {
		if len(bm.Bitmap)*8 < points {
			return nil, errors.Wrapf(ErrTruncatedInput, "bitmap of %d bytes covers fewer than %d points",
				len(bm.Bitmap), points)
		}
		n = bm.count(points)
	}
	var (
		vals []float64
		err  error
	)
	switch t := dr.Template.(type) {
	case SimplePacking:
		vals, err = unpackSimple(payload, t, n)
	default:
		err = errors.Wrapf(ErrUnsupportedTemplate, "data representation template 5.%d", dr.TemplateNumber)
	}
	if err != nil {
		return nil, err
	}
	if bm.Indicator == bitmapPresent {
		return applyBitmap(vals, bm, points)
	}
	return vals, nil
}
