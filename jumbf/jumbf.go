// Package jumbf implements the JPEG Universal Metadata Box Format container
// codec: a recursive, typed binary box format that carries all C2PA
// manifest data. Every box has a 4-byte big-endian length (inclusive of its
// own header) and a 4-byte ASCII type code.
package jumbf

import (
	"errors"
	"fmt"
)

// Type is a 4-byte ASCII JUMBF box type code, e.g. "jumb", "jumd", "bfdb".
type Type [4]byte

func (t Type) String() string { return string(t[:]) }

// TypeFromString builds a Type from a 4-character ASCII string. Panics if s
// is not exactly 4 bytes, since every call site uses a compile-time constant.
func TypeFromString(s string) Type {
	if len(s) != 4 {
		panic("jumbf: type code must be exactly 4 bytes: " + s)
	}
	var t Type
	copy(t[:], s)
	return t
}

// Well-known JUMBF box type codes (ISO/IEC 19566-5).
var (
	TypeSuperBox        = TypeFromString("jumb")
	TypeDescriptionBox   = TypeFromString("jumd")
	TypeCBORBox          = TypeFromString("cbor")
	TypeJSONBox          = TypeFromString("json")
	TypeSaltBox          = TypeFromString("c2sa") // carries random padding bytes used to perturb an assertion's content hash for selective redaction
	TypeEmbeddedFileBox  = TypeFromString("bidb")
	TypeEmbeddedFileDescriptionBox = TypeFromString("bfdb")
	TypeCodestreamBox    = TypeFromString("jp2c")
	TypeUUIDBox          = TypeFromString("uuid")
)

var (
	ErrMalformedContent   = errors.New("jumbf: malformed box content")
	ErrShortLength        = errors.New("jumbf: box length 1..7 is malformed")
	ErrMissingDescription = errors.New("jumbf: superbox is missing its description box")
	ErrUnexpectedEOF      = errors.New("jumbf: box extends past the end of its container")
	ErrBadToggle          = errors.New("jumbf: invalid description box toggle combination")
)

// Box is the tagged-union contract every JUMBF box variant satisfies:
// SuperBox, DescriptionBox, CBORBox, JSONBox, EmbeddedFileBox,
// EmbeddedFileDescriptionBox, CodestreamBox, UUIDBox, or UnknownBox (an
// opaque passthrough preserving raw bytes).
type Box interface {
	// BoxType returns the 4-byte type code.
	BoxType() Type
	// Measure returns len(Serialize()) without allocating the full output,
	// used by the two-pass COSE padding solve and by asset space
	// reservation.
	Measure() int
	// Serialize returns the complete box including its 8-byte header.
	Serialize() []byte
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedContent, fmt.Sprintf(format, args...))
}

// header encodes the 8-byte length+type prefix for a box whose content is
// contentLen bytes long.
func header(t Type, contentLen int) []byte {
	total := contentLen + 8
	b := make([]byte, 8)
	b[0] = byte(total >> 24)
	b[1] = byte(total >> 16)
	b[2] = byte(total >> 8)
	b[3] = byte(total)
	copy(b[4:8], t[:])
	return b
}
