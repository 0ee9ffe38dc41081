package format

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrInvalidMagic = errors.New("invalid magic bytes: not an SCF or ZTR file")
	ErrTruncated    = errors.New("truncated data")
)

// UnknownTransformError reports a ZTR block whose leading algorithm tag is
// not a known transform.
type UnknownTransformError struct {
	Tag uint8
}

func (e *UnknownTransformError) Error() string {
	return fmt.Sprintf("unknown transform tag %d", e.Tag)
}

// TruncatedError reports that fewer bytes were available than a section or
// transform declared.
type TruncatedError struct {
	Where  string // section, chunk or transform being read
	Offset int64  // absolute byte offset of the failed read
	Want   int
	Have   int
}

func (e *TruncatedError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("truncated data at offset %d: need %d bytes, have %d", e.Offset, e.Want, e.Have)
	}
	return fmt.Sprintf("%s: truncated data at offset %d: need %d bytes, have %d", e.Where, e.Offset, e.Want, e.Have)
}

// Is makes every TruncatedError match ErrTruncated.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// InconsistentHeaderError reports section offsets or sizes that cannot
// describe a valid file layout.
type InconsistentHeaderError struct {
	Section string
	Offset  int64
	Reason  string
}

func (e *InconsistentHeaderError) Error() string {
	return fmt.Sprintf("inconsistent header: %s section at offset %d: %s", e.Section, e.Offset, e.Reason)
}

// MissingSectionError reports that a section the caller required is absent.
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("missing required section: %s", e.Section)
}

// UnsupportedVersionError reports a container version the codecs cannot read.
type UnsupportedVersionError struct {
	Format  Kind
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported %s version %q", e.Format, e.Version)
}

// AlignmentError reports input whose length is not a multiple of the
// element width a transform works on.
type AlignmentError struct {
	Transform string
	Len       int
	Width     int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: length %d is not a multiple of element width %d", e.Transform, e.Len, e.Width)
}

// CorruptError reports data that is long enough but internally inconsistent,
// such as a decoded length that disagrees with its header.
type CorruptError struct {
	Where  string
	Offset int64
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s: corrupt data at offset %d: %s", e.Where, e.Offset, e.Reason)
}

// InconsistentDataError reports decoded fields whose lengths disagree, for
// example fewer peaks than basecalls.
type InconsistentDataError struct {
	Field string
	Want  int
	Have  int
}

func (e *InconsistentDataError) Error() string {
	return fmt.Sprintf("inconsistent chromatogram: %s has length %d, want %d", e.Field, e.Have, e.Want)
}
