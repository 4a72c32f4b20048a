package bmff

import (
	"encoding/binary"
	"errors"
	"strings"
)

var ErrXPathNotFound = errors.New("bmff: xpath does not resolve to a box in this asset")

// fullBoxContainers are the ISOBMFF box types whose data begins with a
// 4-byte version+flags field before any nested boxes (FullBox, ISO/IEC
// 14496-12 §4.2), which readFullBoxChildren already special-cases for meta;
// containerChildren below generalizes that to the handful of such boxes a
// c2pa.hash.bmff exclusion path is ever expected to name.
var fullBoxContainers = map[string]bool{
	"meta": true,
}

// ResolveXPath resolves a slash-separated sequence of four-character box
// types (e.g. "meta/iloc") against raw's top-level box stream, returning the
// byte range of the box the full path addresses (header included, matching
// the c2pa.hash.data exclusion convention of excluding whole boxes).
func ResolveXPath(raw []byte, xpath string) (start, length int64, err error) {
	segments := strings.Split(strings.Trim(xpath, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return 0, 0, ErrXPathNotFound
	}

	boxes, err := parseBoxes(raw, 0, int64(len(raw)))
	if err != nil {
		return 0, 0, err
	}

	var b *memBox
	for _, seg := range segments {
		b = findBox(boxes, seg)
		if b == nil {
			return 0, 0, ErrXPathNotFound
		}
		childStart, childLen := b.dataOff, b.dataLen
		if fullBoxContainers[b.typ] {
			childStart += 4
			childLen -= 4
		}
		if childLen < 0 {
			return 0, 0, ErrXPathNotFound
		}
		boxes, err = parseBoxes(raw, childStart, childStart+childLen)
		if err != nil {
			return 0, 0, err
		}
	}
	return b.offset, b.size, nil
}

type memBox struct {
	offset, size    int64
	headerLen       int
	typ             string
	dataOff, dataLen int64
}

func findBox(boxes []memBox, typ string) *memBox {
	for i := range boxes {
		if boxes[i].typ == typ {
			return &boxes[i]
		}
	}
	return nil
}

func parseBoxes(raw []byte, start, end int64) ([]memBox, error) {
	var boxes []memBox
	off := start
	for off+8 <= end {
		if off+8 > int64(len(raw)) {
			return nil, errBounds
		}
		size32 := int64(binary.BigEndian.Uint32(raw[off : off+4]))
		typ := string(raw[off+4 : off+8])
		headerLen := 8
		size := size32
		if size32 == 1 {
			if off+16 > int64(len(raw)) {
				return nil, errBounds
			}
			size = int64(binary.BigEndian.Uint64(raw[off+8 : off+16]))
			headerLen = 16
		} else if size32 == 0 {
			size = end - off
		}
		if size < int64(headerLen) || off+size > end {
			return nil, errBounds
		}
		boxes = append(boxes, memBox{
			offset: off, size: size, headerLen: headerLen, typ: typ,
			dataOff: off + int64(headerLen), dataLen: size - int64(headerLen),
		})
		off += size
	}
	return boxes, nil
}

var errBounds = errors.New("bmff: malformed box while resolving xpath")
