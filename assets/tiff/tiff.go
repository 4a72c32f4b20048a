// Package tiff implements the read-only TIFF asset handler: the manifest
// lives in IFD tag 0xCD41 (52545) of type UNDEFINED, carrying JUMBF bytes
// whose outer box length mirrors the tag's component count. Writing a TIFF
// manifest is not supported.
package tiff

import (
	"encoding/binary"

	"github.com/trustnxt/c2pa-go/assets"
)

const manifestTag = 0xCD41

const (
	typeByte      = 1
	typeUndefined = 7
)

// Handler recognizes and reads TIFF assets.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < 8 {
		return false, nil
	}
	b, err := src.ReadRange(0, 4)
	if err != nil {
		return false, err
	}
	return (b[0] == 'I' && b[1] == 'I' && b[2] == 0x2A && b[3] == 0x00) ||
		(b[0] == 'M' && b[1] == 'M' && b[2] == 0x00 && b[3] == 0x2A), nil
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

// Asset is a parsed (read-only) TIFF asset.
type Asset struct {
	src assets.AssetSource

	bigEndian  bool
	entryOff   int64 // offset of the manifest IFD entry, or -1
	dataOffset int64
	dataLen    int64
}

type byteOrder struct{ bigEndian bool }

func (bo byteOrder) u16(b []byte) uint16 {
	if bo.bigEndian {
		return binary.BigEndian.Uint16(b)
	}
	return binary.LittleEndian.Uint16(b)
}

func (bo byteOrder) u32(b []byte) uint32 {
	if bo.bigEndian {
		return binary.BigEndian.Uint32(b)
	}
	return binary.LittleEndian.Uint32(b)
}

func (a *Asset) reindex() error {
	hdr, err := a.src.ReadRange(0, 8)
	if err != nil {
		return assets.ErrMalformedContainer
	}
	a.bigEndian = hdr[0] == 'M'
	bo := byteOrder{a.bigEndian}
	ifdOffset := int64(bo.u32(hdr[4:8]))
	a.entryOff = -1

	n, err := a.src.Size()
	if err != nil {
		return err
	}

	for ifdOffset != 0 {
		if ifdOffset+2 > n {
			return assets.ErrMalformedContainer
		}
		cb, err := a.src.ReadRange(ifdOffset, 2)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		count := bo.u16(cb)
		entriesOff := ifdOffset + 2
		for i := uint16(0); i < count; i++ {
			entOff := entriesOff + int64(i)*12
			ent, err := a.src.ReadRange(entOff, 12)
			if err != nil {
				return assets.ErrMalformedContainer
			}
			tag := bo.u16(ent[0:2])
			typ := bo.u16(ent[2:4])
			numValues := bo.u32(ent[4:8])

			if tag == manifestTag {
				var valueLen int64
				switch typ {
				case typeByte, typeUndefined:
					valueLen = int64(numValues)
				default:
					valueLen = int64(numValues)
				}
				var valueOff int64
				if valueLen <= 4 {
					valueOff = entOff + 8
				} else {
					valueOff = int64(bo.u32(ent[8:12]))
				}
				a.entryOff = entOff
				a.dataOffset = valueOff
				a.dataLen = valueLen
			}
		}

		nextOff := entriesOff + int64(count)*12
		next, err := a.src.ReadRange(nextOff, 4)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		ifdOffset = int64(bo.u32(next))
	}
	return nil
}

func (a *Asset) GetManifestJUMBF() ([]byte, error) {
	if a.entryOff == -1 {
		return nil, nil
	}
	return a.src.ReadRange(a.dataOffset, a.dataLen)
}

func (a *Asset) GetHashExclusionRange() (assets.Range, error) {
	if err := a.reindex(); err != nil {
		return assets.Range{}, err
	}
	if a.entryOff == -1 {
		return assets.Range{}, assets.ErrNoManifest
	}
	return assets.Range{Start: a.dataOffset, Length: a.dataLen}, nil
}

func (a *Asset) EnsureManifestSpace(int) error {
	return assets.ErrNotSupported
}

func (a *Asset) WriteManifestJUMBF([]byte) error {
	return assets.ErrNotSupported
}
