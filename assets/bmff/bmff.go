// Package bmff implements the BMFF/HEIC asset handler: the manifest lives
// in a top-level UUID box carrying the C2PA user-type, inserted immediately
// after ftyp. Insertion shifts every subsequent top-level box, so any
// meta/iloc item-location entries that reference absolute file offsets past
// the insertion point are patched in place.
package bmff

import (
	"encoding/binary"
	"errors"

	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/jumbf"
)

var (
	ErrUnsupportedIlocLayout = errors.New("bmff: unsupported iloc field widths or version")
	purposeManifest          = "manifest"
)

type box struct {
	offset    int64
	size      int64 // total size including header
	headerLen int
	typ       string
	dataOff   int64
	dataLen   int64
}

// Handler recognizes and parses ISOBMFF (HEIC/MIF1-family) assets.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < 12 {
		return false, nil
	}
	b, err := src.ReadRange(0, 12)
	if err != nil {
		return false, err
	}
	return string(b[4:8]) == "ftyp", nil
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

// Asset is a parsed ISOBMFF asset.
type Asset struct {
	src assets.AssetSource

	top            []box
	ftypEnd        int64
	manifestIdx    int // index into top of the C2PA manifest uuid box, or -1
	reservedLength int
	valid          bool
}

func readTopBoxes(src assets.AssetSource) ([]box, error) {
	n, err := src.Size()
	if err != nil {
		return nil, err
	}
	var boxes []box
	off := int64(0)
	for off+8 <= n {
		hdr, err := src.ReadRange(off, 8)
		if err != nil {
			return nil, assets.ErrMalformedContainer
		}
		size32 := int64(binary.BigEndian.Uint32(hdr[0:4]))
		typ := string(hdr[4:8])
		headerLen := 8
		size := size32
		if size32 == 1 {
			ext, err := src.ReadRange(off+8, 8)
			if err != nil {
				return nil, assets.ErrMalformedContainer
			}
			size = int64(binary.BigEndian.Uint64(ext))
			headerLen = 16
		} else if size32 == 0 {
			size = n - off
		}
		if size < int64(headerLen) || off+size > n {
			return nil, assets.ErrMalformedContainer
		}
		boxes = append(boxes, box{
			offset:    off,
			size:      size,
			headerLen: headerLen,
			typ:       typ,
			dataOff:   off + int64(headerLen),
			dataLen:   size - int64(headerLen),
		})
		off += size
	}
	if off != n {
		return nil, assets.ErrMalformedContainer
	}
	return boxes, nil
}

func (a *Asset) reindex() error {
	top, err := readTopBoxes(a.src)
	if err != nil {
		return err
	}
	a.top = top
	a.ftypEnd = -1
	a.manifestIdx = -1
	a.valid = true

	manifestCount := 0
	for i, b := range top {
		if b.typ == "ftyp" && a.ftypEnd == -1 {
			a.ftypEnd = b.offset + b.size
		}
		if b.typ == "uuid" {
			isManifest, purpose, err := a.isManifestUUIDBox(b)
			if err != nil {
				return err
			}
			if isManifest && purpose == purposeManifest {
				manifestCount++
				a.manifestIdx = i
			}
		}
	}
	if a.ftypEnd == -1 {
		a.ftypEnd = 0
	}
	if manifestCount > 1 {
		a.manifestIdx = -1
	}
	a.reservedLength = -1
	return nil
}

func (a *Asset) isManifestUUIDBox(b box) (bool, string, error) {
	if b.dataLen < 16 {
		return false, "", nil
	}
	usertype, err := a.src.ReadRange(b.dataOff, 16)
	if err != nil {
		return false, "", err
	}
	if [16]byte(usertype) != jumbf.BMFFUserType {
		return false, "", nil
	}
	purpose, _, err := readPurpose(a.src, b.dataOff+16+4)
	if err != nil {
		return false, "", err
	}
	return true, purpose, nil
}

// readPurpose reads the null-terminated purpose string starting at off.
func readPurpose(src assets.AssetSource, off int64) (string, int64, error) {
	n, err := src.Size()
	if err != nil {
		return "", 0, err
	}
	end := off
	for end < n {
		b, err := src.ReadRange(end, 1)
		if err != nil {
			return "", 0, err
		}
		if b[0] == 0 {
			break
		}
		end++
	}
	s, err := src.ReadRange(off, end-off)
	if err != nil {
		return "", 0, err
	}
	return string(s), end + 1, nil
}

// manifestBox layout: usertype(16) + fullbox-header(4: version+flags) +
// purpose cstring + merkle_offset(u64) + manifest_content.
func buildManifestBox(content []byte) []byte {
	var body []byte
	body = append(body, jumbf.BMFFUserType[:]...)
	body = append(body, 0, 0, 0, 0) // version=0, flags=0
	body = append(body, purposeManifest...)
	body = append(body, 0) // NUL terminator
	body = binary.BigEndian.AppendUint64(body, 0)
	body = append(body, content...)

	size := uint32(8 + len(body))
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint32(out, size)
	out = append(out, "uuid"...)
	out = append(out, body...)
	return out
}

func (a *Asset) GetManifestJUMBF() ([]byte, error) {
	if a.manifestIdx == -1 {
		return nil, nil
	}
	b := a.top[a.manifestIdx]
	_, contentOff, err := readPurpose(a.src, b.dataOff+16+4)
	if err != nil {
		return nil, err
	}
	contentOff += 8 // merkle_offset
	contentLen := (b.dataOff + b.dataLen) - contentOff
	if contentLen < 0 {
		return nil, assets.ErrMalformedContainer
	}
	return a.src.ReadRange(contentOff, contentLen)
}

func (a *Asset) GetHashExclusionRange() (assets.Range, error) {
	if err := a.reindex(); err != nil {
		return assets.Range{}, err
	}
	if a.manifestIdx == -1 {
		return assets.Range{}, assets.ErrNoManifest
	}
	b := a.top[a.manifestIdx]
	return assets.Range{Start: b.offset, Length: b.size}, nil
}

func (a *Asset) EnsureManifestSpace(n int) error {
	if a.manifestIdx != -1 {
		b := a.top[a.manifestIdx]
		if err := a.src.DeleteRange(b.offset, b.size); err != nil {
			return err
		}
		if err := a.reindex(); err != nil {
			return err
		}
		if err := a.patchIloc(b.offset, -b.size); err != nil {
			return err
		}
	}

	insertAt := a.ftypEnd
	newBox := buildManifestBox(make([]byte, n))
	if err := a.src.InsertRange(insertAt, newBox); err != nil {
		return err
	}
	if err := a.reindex(); err != nil {
		return err
	}
	if err := a.patchIloc(insertAt, int64(len(newBox))); err != nil {
		return err
	}
	a.reservedLength = n
	return a.reindex()
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
	b := a.top[a.manifestIdx]
	_, contentOff, err := readPurpose(a.src, b.dataOff+16+4)
	if err != nil {
		return err
	}
	contentOff += 8
	if err := a.src.WriteRange(contentOff, j); err != nil {
		return err
	}
	return a.reindex()
}

// patchIloc shifts offsets referencing file positions at or beyond
// shiftPoint by delta, inside the first meta box's iloc child, patching
// both the in-memory tree and the underlying buffer.
func (a *Asset) patchIloc(shiftPoint int64, delta int64) error {
	for _, b := range a.top {
		if b.typ != "meta" {
			continue
		}
		metaChildren, err := readFullBoxChildren(a.src, b)
		if err != nil {
			return err
		}
		for _, c := range metaChildren {
			if c.typ != "iloc" {
				continue
			}
			if err := patchIlocBox(a.src, c, shiftPoint, delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// readFullBoxChildren reads the nested box stream of a FullBox container
// (version+flags occupy the first 4 bytes of its data).
func readFullBoxChildren(src assets.AssetSource, b box) ([]box, error) {
	childStart := b.dataOff + 4
	childLen := b.dataLen - 4
	if childLen < 0 {
		return nil, assets.ErrMalformedContainer
	}
	var boxes []box
	off := childStart
	end := childStart + childLen
	for off+8 <= end {
		hdr, err := src.ReadRange(off, 8)
		if err != nil {
			return nil, assets.ErrMalformedContainer
		}
		size32 := int64(binary.BigEndian.Uint32(hdr[0:4]))
		typ := string(hdr[4:8])
		headerLen := 8
		size := size32
		if size32 == 1 {
			ext, err := src.ReadRange(off+8, 8)
			if err != nil {
				return nil, assets.ErrMalformedContainer
			}
			size = int64(binary.BigEndian.Uint64(ext))
			headerLen = 16
		} else if size32 == 0 {
			size = end - off
		}
		if size < int64(headerLen) || off+size > end {
			return nil, assets.ErrMalformedContainer
		}
		boxes = append(boxes, box{
			offset: off, size: size, headerLen: headerLen, typ: typ,
			dataOff: off + int64(headerLen), dataLen: size - int64(headerLen),
		})
		off += size
	}
	return boxes, nil
}

// patchIlocBox decodes an iloc FullBox, shifts any offset ≥ shiftPoint by
// delta, and rewrites the box's data bytes in place. Field widths are
// nibble-encoded as in ISO/IEC 14496-12; only widths {0,4,8} are supported.
func patchIlocBox(src assets.AssetSource, b box, shiftPoint, delta int64) error {
	raw, err := src.ReadRange(b.dataOff, b.dataLen)
	if err != nil {
		return err
	}
	if len(raw) < 4 {
		return ErrUnsupportedIlocLayout
	}
	version := raw[0]
	pos := 4

	readWidth := func(nibble byte) (int, error) {
		switch nibble {
		case 0:
			return 0, nil
		case 4:
			return 4, nil
		case 8:
			return 8, nil
		default:
			return 0, ErrUnsupportedIlocLayout
		}
	}

	if pos+2 > len(raw) {
		return ErrUnsupportedIlocLayout
	}
	offsetSize, err := readWidth(raw[pos] >> 4)
	if err != nil {
		return err
	}
	lengthSize, err := readWidth(raw[pos] & 0x0F)
	if err != nil {
		return err
	}
	baseOffsetSize, err := readWidth(raw[pos+1] >> 4)
	if err != nil {
		return err
	}
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize, err = readWidth(raw[pos+1] & 0x0F)
		if err != nil {
			return err
		}
	}
	pos += 2

	readUint := func(width int) (uint64, error) {
		if pos+width > len(raw) {
			return 0, ErrUnsupportedIlocLayout
		}
		var v uint64
		switch width {
		case 0:
			v = 0
		case 4:
			v = uint64(binary.BigEndian.Uint32(raw[pos : pos+4]))
		case 8:
			v = binary.BigEndian.Uint64(raw[pos : pos+8])
		}
		pos += width
		return v, nil
	}
	writeUint := func(at, width int, v uint64) {
		switch width {
		case 4:
			binary.BigEndian.PutUint32(raw[at:at+4], uint32(v))
		case 8:
			binary.BigEndian.PutUint64(raw[at:at+8], v)
		}
	}

	var itemCount uint64
	if version < 2 {
		if pos+2 > len(raw) {
			return ErrUnsupportedIlocLayout
		}
		itemCount = uint64(binary.BigEndian.Uint16(raw[pos : pos+2]))
		pos += 2
	} else {
		if pos+4 > len(raw) {
			return ErrUnsupportedIlocLayout
		}
		itemCount = uint64(binary.BigEndian.Uint32(raw[pos : pos+4]))
		pos += 4
	}

	changed := false
	for i := uint64(0); i < itemCount; i++ {
		if version < 2 {
			pos += 2 // item_ID
		} else {
			pos += 4
		}
		constructionMethod := byte(0)
		if version == 1 || version == 2 {
			if pos+2 > len(raw) {
				return ErrUnsupportedIlocLayout
			}
			constructionMethod = byte(raw[pos+1] & 0x0F)
			pos += 2
		}
		pos += 2 // data_reference_index

		baseOffAt := pos
		baseOff, err := readUint(baseOffsetSize)
		if err != nil {
			return err
		}
		if baseOffsetSize > 0 && int64(baseOff) >= shiftPoint {
			writeUint(baseOffAt, baseOffsetSize, uint64(int64(baseOff)+delta))
			baseOff = uint64(int64(baseOff) + delta)
			changed = true
		}

		if pos+2 > len(raw) {
			return ErrUnsupportedIlocLayout
		}
		extentCount := binary.BigEndian.Uint16(raw[pos : pos+2])
		pos += 2

		for e := uint16(0); e < extentCount; e++ {
			if (version == 1 || version == 2) && indexSize > 0 {
				pos += indexSize
			}
			extOffAt := pos
			extOff, err := readUint(offsetSize)
			if err != nil {
				return err
			}
			if offsetSize > 0 && constructionMethod == 0 && baseOff == 0 && int64(extOff) >= shiftPoint {
				writeUint(extOffAt, offsetSize, uint64(int64(extOff)+delta))
				changed = true
			}
			if _, err := readUint(lengthSize); err != nil {
				return err
			}
		}
	}

	if changed {
		return src.WriteRange(b.dataOff, raw)
	}
	return nil
}
