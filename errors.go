package grib2msm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Decode failure kinds. Every error returned by Decode wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrUnsupportedTemplate = errors.New("unsupported template")
	ErrMalformedSentinel   = errors.New("malformed end sentinel")
	ErrUnexpectedSection   = errors.New("unexpected section")
	ErrSectionLength       = errors.New("invalid section length")
	ErrUnsupportedScanMode = errors.New("unsupported scanning mode")
	ErrUnsupportedBitmap   = errors.New("unsupported bitmap indicator")
	ErrInvalidGrid         = errors.New("invalid grid definition")
	ErrInvalidPacking      = errors.New("invalid packing parameters")
)

// DecodeError reports where in the input a decode failure happened.
// Section is the GRIB2 section number being read (-1 for the end sentinel).
type DecodeError struct {
	Section int
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Section < 0 {
		return fmt.Sprintf("end sentinel at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("section %d at offset %d: %v", e.Section, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// sectionErr wraps a failure with its section number and starting offset.
// An error that is already a *DecodeError is passed through untouched so the
// innermost location wins.
func sectionErr(section, offset int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Section: section, Offset: offset, Err: err}
}
