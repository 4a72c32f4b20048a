// Package binary2 provides the fixed-width and variable-width byte-level
// reads shared by the JUMBF codec and the per-format asset handlers.
package binary2

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

var (
	ErrShortBuffer  = errors.New("binary2: buffer too short for requested read")
	ErrUnterminated = errors.New("binary2: no null terminator found before buffer end")
)

// ReadUint16BE reads a big-endian uint16 at offset off.
func ReadUint16BE(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint16(b[off : off+2]), nil
}

// ReadUint32BE reads a big-endian uint32 at offset off.
func ReadUint32BE(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint32(b[off : off+4]), nil
}

// ReadUint64BE reads a big-endian uint64 at offset off.
func ReadUint64BE(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint64(b[off : off+8]), nil
}

// WriteUint16BE appends the big-endian encoding of v to dst.
func WriteUint16BE(dst []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(dst, tmp[:]...)
}

// WriteUint32BE appends the big-endian encoding of v to dst.
func WriteUint32BE(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

// WriteUint64BE appends the big-endian encoding of v to dst.
func WriteUint64BE(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// ReadCString reads a null-terminated UTF-8 string starting at off. It
// returns the string (without the terminator) and the number of bytes
// consumed including the terminator.
func ReadCString(b []byte, off int) (s string, n int, err error) {
	if off < 0 || off > len(b) {
		return "", 0, ErrShortBuffer
	}
	for i := off; i < len(b); i++ {
		if b[i] == 0 {
			return string(b[off:i]), i - off + 1, nil
		}
	}
	return "", 0, ErrUnterminated
}

// WriteCString appends s followed by a null terminator to dst.
func WriteCString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}

// Synchsafe32 decodes a 4-byte ID3v2 synchsafe integer (7 bits per byte).
func Synchsafe32(b [4]byte) uint32 {
	return uint32(b[0])<<21 | uint32(b[1])<<14 | uint32(b[2])<<7 | uint32(b[3])
}

// ToSynchsafe32 encodes v (which must fit in 28 bits) as an ID3v2 synchsafe
// integer.
func ToSynchsafe32(v uint32) [4]byte {
	var b [4]byte
	b[0] = byte((v >> 21) & 0x7F)
	b[1] = byte((v >> 14) & 0x7F)
	b[2] = byte((v >> 7) & 0x7F)
	b[3] = byte(v & 0x7F)
	return b
}

// ConstantTimeEqual reports whether a and b hold the same bytes, without
// leaking timing information about where they first differ. Used for digest
// comparisons in HashedURI resolution and asset data-hash validation.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
