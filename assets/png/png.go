// Package png implements the PNG asset handler: the manifest lives in a
// "caBX" ancillary chunk carrying the raw JUMBF bytes, with a CRC-32/IEEE
// recomputed over type+data on every write.
package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/trustnxt/c2pa-go/assets"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

const (
	chunkCaBX = "caBX"
	chunkIDAT = "IDAT"
)

// chunk is a PNG chunk's position and metadata within the asset.
type chunk struct {
	offset     int64 // offset of the 4-byte length field
	length     uint32
	typ        string
	dataOffset int64
}

// Handler recognizes and parses PNG assets.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < int64(len(pngSignature)) {
		return false, nil
	}
	sig, err := src.ReadRange(0, int64(len(pngSignature)))
	if err != nil {
		return false, err
	}
	return bytes.Equal(sig, pngSignature), nil
}

func (Handler) Parse(src assets.AssetSource) (assets.Asset, error) {
	ok, err := Handler{}.CanRead(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, assets.ErrMalformedContainer
	}
	a := &Asset{src: src}
	if err := a.reindex(); err != nil {
		return nil, err
	}
	return a, nil
}

// Asset is a parsed PNG asset.
type Asset struct {
	src    assets.AssetSource
	chunks []chunk

	manifestIdx    int // index into chunks of the caBX chunk, or -1
	firstIDATIdx   int // index into chunks of the first IDAT chunk, or -1
	reservedLength int // -1 if no space currently reserved
}

func (a *Asset) reindex() error {
	n, err := a.src.Size()
	if err != nil {
		return err
	}

	a.chunks = nil
	a.manifestIdx = -1
	a.firstIDATIdx = -1

	off := int64(len(pngSignature))
	manifestCount := 0
	for off < n {
		header, err := a.src.ReadRange(off, 8)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		length := binary.BigEndian.Uint32(header[0:4])
		typ := string(header[4:8])

		c := chunk{offset: off, length: length, typ: typ, dataOffset: off + 8}
		idx := len(a.chunks)
		a.chunks = append(a.chunks, c)

		if typ == chunkCaBX {
			manifestCount++
			a.manifestIdx = idx
		}
		if typ == chunkIDAT && a.firstIDATIdx == -1 {
			a.firstIDATIdx = idx
		}

		off += 8 + int64(length) + 4 // length + type + data + crc
	}
	if off != n {
		return assets.ErrMalformedContainer
	}
	if manifestCount > 1 {
		// Multiple valid manifest groups are treated as invalid/missing.
		a.manifestIdx = -1
	}
	a.reservedLength = -1
	return nil
}

func (a *Asset) GetManifestJUMBF() ([]byte, error) {
	if a.manifestIdx == -1 {
		return nil, nil
	}
	c := a.chunks[a.manifestIdx]
	return a.src.ReadRange(c.dataOffset, int64(c.length))
}

func (a *Asset) EnsureManifestSpace(n int) error {
	if a.manifestIdx != -1 {
		if err := a.removeChunk(a.manifestIdx); err != nil {
			return err
		}
	}

	insertAt := a.insertionOffset()
	placeholder := make([]byte, n)
	if err := a.insertChunk(insertAt, chunkCaBX, placeholder); err != nil {
		return err
	}
	a.reservedLength = n
	return a.reindex()
}

func (a *Asset) insertionOffset() int64 {
	if a.firstIDATIdx != -1 {
		return a.chunks[a.firstIDATIdx].offset
	}
	n, _ := a.src.Size()
	return n
}

func (a *Asset) insertChunk(at int64, typ string, data []byte) error {
	buf := make([]byte, 0, 12+len(data))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, typ...)
	buf = append(buf, data...)
	crc := crc32.ChecksumIEEE(buf[4:])
	buf = binary.BigEndian.AppendUint32(buf, crc)
	return a.src.InsertRange(at, buf)
}

func (a *Asset) removeChunk(idx int) error {
	c := a.chunks[idx]
	total := 8 + int64(c.length) + 4
	return a.src.DeleteRange(c.offset, total)
}

func (a *Asset) GetHashExclusionRange() (assets.Range, error) {
	if err := a.reindex(); err != nil {
		return assets.Range{}, err
	}
	if a.manifestIdx == -1 {
		return assets.Range{}, assets.ErrNoManifest
	}
	c := a.chunks[a.manifestIdx]
	return assets.Range{Start: c.offset, Length: 8 + int64(c.length) + 4}, nil
}

func (a *Asset) WriteManifestJUMBF(j []byte) error {
	if a.reservedLength < 0 {
		return assets.ErrSpaceNotReserved
	}
	if len(j) != a.reservedLength {
		return assets.ErrWrongLength
	}
	if a.manifestIdx == -1 {
		return assets.ErrSpaceNotReserved
	}

	c := a.chunks[a.manifestIdx]
	total := 8 + int64(c.length) + 4
	if err := a.src.DeleteRange(c.offset, total); err != nil {
		return err
	}
	if err := a.insertChunk(c.offset, chunkCaBX, j); err != nil {
		return err
	}
	return a.reindex()
}
