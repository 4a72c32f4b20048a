package assets

import "errors"

var ErrOutOfRange = errors.New("assets: range outside asset bounds")

// MemorySource is an in-memory AssetSource backing a byte slice, used by
// tests and by callers that have already buffered the whole asset.
type MemorySource struct {
	buf []byte
}

// NewMemorySource copies b into a new MemorySource.
func NewMemorySource(b []byte) *MemorySource {
	cp := append([]byte(nil), b...)
	return &MemorySource{buf: cp}
}

func (m *MemorySource) Size() (int64, error) { return int64(len(m.buf)), nil }

func (m *MemorySource) ReadRange(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(m.buf)) {
		return nil, ErrOutOfRange
	}
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

func (m *MemorySource) WriteRange(offset int64, data []byte) error {
	if offset < 0 || offset+int64(len(data)) > int64(len(m.buf)) {
		return ErrOutOfRange
	}
	copy(m.buf[offset:], data)
	return nil
}

func (m *MemorySource) InsertRange(offset int64, data []byte) error {
	if offset < 0 || offset > int64(len(m.buf)) {
		return ErrOutOfRange
	}
	out := make([]byte, 0, len(m.buf)+len(data))
	out = append(out, m.buf[:offset]...)
	out = append(out, data...)
	out = append(out, m.buf[offset:]...)
	m.buf = out
	return nil
}

func (m *MemorySource) DeleteRange(offset, length int64) error {
	if offset < 0 || length < 0 || offset+length > int64(len(m.buf)) {
		return ErrOutOfRange
	}
	m.buf = append(m.buf[:offset], m.buf[offset+length:]...)
	return nil
}

// Bytes returns a copy of the current backing buffer.
func (m *MemorySource) Bytes() []byte {
	return append([]byte(nil), m.buf...)
}
