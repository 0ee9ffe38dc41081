// Package format identifies chromatogram containers and defines the errors
// shared by the SCF and ZTR codecs.
package format

import (
	"bytes"
	"fmt"
)

// Kind is a chromatogram container format.
type Kind uint8

// Supported container formats.
const (
	Unknown Kind = iota
	SCF
	ZTR
)

func (k Kind) String() string {
	switch k {
	case SCF:
		return "scf"
	case ZTR:
		return "ztr"
	default:
		return "unknown"
	}
}

// ParseKind maps a format name (as used on the command line or in file
// extensions) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scf", "SCF", ".scf":
		return SCF, nil
	case "ztr", "ZTR", ".ztr":
		return ZTR, nil
	default:
		return Unknown, fmt.Errorf("unknown chromatogram format %q", s)
	}
}

// Magic bytes identifying each container.
var (
	SCFMagic = [4]byte{'.', 's', 'c', 'f'}
	ZTRMagic = [8]byte{0xae, 'Z', 'T', 'R', '\r', '\n', 0x1a, '\n'}
)

// MagicLen is the number of leading bytes Detect needs to tell the formats apart.
const MagicLen = len(ZTRMagic)

// Detect returns the container format identified by the leading bytes of a
// file. At least len(SCFMagic) bytes are needed to recognize SCF and
// MagicLen bytes to recognize ZTR.
func Detect(head []byte) (Kind, error) {
	if len(head) >= len(ZTRMagic) && bytes.Equal(head[:len(ZTRMagic)], ZTRMagic[:]) {
		return ZTR, nil
	}
	if len(head) >= len(SCFMagic) && bytes.Equal(head[:len(SCFMagic)], SCFMagic[:]) {
		return SCF, nil
	}
	return Unknown, ErrInvalidMagic
}
