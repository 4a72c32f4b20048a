// Package jpeg implements the JPEG asset handler: the manifest is carried
// across one or more APP11 (marker 0xEB) segments, each prefixed by a
// common identifier "JP", a box-instance number constant across the group,
// and a strictly-increasing packet sequence number starting at 1.
package jpeg

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/trustnxt/c2pa-go/assets"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerAPP0 = 0xE0
	markerAPP11 = 0xEB
	markerSOS  = 0xDA

	ci = "JP"

	// segHeaderLen is the fixed Ci+BoxInstanceNumber+PacketSequenceNumber
	// header present in every APP11 segment.
	segHeaderLen = 8
	// contHeaderLen is the additional repeated jumb length+type prefix
	// carried by continuation segments.
	contHeaderLen = 8
	// maxChunk is the net JUMBF-byte capacity of the first segment in a
	// group: 0xFFFF-4 is the maximum APP11 marker-segment payload, less
	// the fixed 8-byte per-segment header.
	maxChunk = 0xFFFF - 4 - segHeaderLen
	// maxContChunk is the net JUMBF-byte capacity of every segment after
	// the first: continuation segments carry contHeaderLen additional
	// bytes (the repeated jumb length+type prefix) on top of segHeaderLen,
	// so they hold less payload than the first segment for the same
	// 0xFFFF-4 marker-segment ceiling.
	maxContChunk = 0xFFFF - 4 - segHeaderLen - contHeaderLen
)

var (
	ErrBadSegmentOrder = errors.New("jpeg: APP11 sequence numbers are not contiguous starting at 1")
	ErrMixedInstances  = errors.New("jpeg: APP11 segments advertise more than one box-instance number")
)

// segment describes one APP11 marker segment's location in the asset.
type segment struct {
	markerOffset int64 // offset of the 0xFF 0xEB marker bytes
	totalLen     int   // value of the marker's 2-byte length field
	payloadOff   int64 // offset of the segment payload (after marker+length)
	seq          uint32
	instance     uint16
}

// Handler recognizes and parses JPEG assets.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < 2 {
		return false, nil
	}
	b, err := src.ReadRange(0, 2)
	if err != nil {
		return false, err
	}
	return b[0] == 0xFF && b[1] == markerSOI, nil
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

// Asset is a parsed JPEG asset.
type Asset struct {
	src assets.AssetSource

	app0Offset     int64 // offset to insert after; -1 if no APP0 present
	app0End        int64
	segments       []segment // APP11/C2PA segments belonging to the single manifest group, in sequence order
	jumbTotalLen   uint32    // declared total JUMBF length from the first segment
	reservedLength int       // -1 if unreserved
	valid          bool      // false if multiple manifest groups were found (treated as missing)
}

func (a *Asset) reindex() error {
	n, err := a.src.Size()
	if err != nil {
		return err
	}

	a.app0Offset = -1
	a.segments = nil
	a.valid = true
	var instances = map[uint16]bool{}

	off := int64(2) // past SOI
	for off+4 <= n {
		marker, err := a.src.ReadRange(off, 2)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		if marker[0] != 0xFF {
			return assets.ErrMalformedContainer
		}
		m := marker[1]
		if m == markerSOS || m == markerEOI {
			break
		}

		lenBytes, err := a.src.ReadRange(off+2, 2)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		segLen := int(binary.BigEndian.Uint16(lenBytes))
		if segLen < 2 {
			return assets.ErrMalformedContainer
		}
		payloadOff := off + 4
		payloadLen := segLen - 2

		if m == markerAPP0 && a.app0Offset == -1 {
			a.app0Offset = off
			a.app0End = off + 2 + int64(segLen)
		}

		if m == markerAPP11 && payloadLen >= segHeaderLen {
			hdr, err := a.src.ReadRange(payloadOff, segHeaderLen)
			if err != nil {
				return assets.ErrMalformedContainer
			}
			if string(hdr[0:2]) == ci {
				instance := binary.BigEndian.Uint16(hdr[2:4])
				seq := binary.BigEndian.Uint32(hdr[4:8])
				instances[instance] = true
				a.segments = append(a.segments, segment{
					markerOffset: off,
					totalLen:     segLen,
					payloadOff:   payloadOff,
					seq:          seq,
					instance:     instance,
				})
			}
		}

		off += 2 + int64(segLen)
	}

	if len(instances) > 1 {
		a.valid = false
	}

	sort.Slice(a.segments, func(i, j int) bool { return a.segments[i].seq < a.segments[j].seq })

	if len(a.segments) > 0 {
		for i, s := range a.segments {
			if s.seq != uint32(i+1) {
				a.valid = false
				break
			}
		}
	}

	a.reservedLength = -1
	return nil
}

func (a *Asset) GetManifestJUMBF() ([]byte, error) {
	if !a.valid || len(a.segments) == 0 {
		return nil, nil
	}

	var out []byte
	for i, s := range a.segments {
		headerLen := segHeaderLen
		if i > 0 {
			headerLen += contHeaderLen
		}
		chunkLen := s.totalLen - 2 - headerLen
		if chunkLen < 0 {
			return nil, assets.ErrMalformedContainer
		}
		chunk, err := a.src.ReadRange(s.payloadOff+int64(headerLen), int64(chunkLen))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (a *Asset) GetHashExclusionRange() (assets.Range, error) {
	if err := a.reindex(); err != nil {
		return assets.Range{}, err
	}
	if !a.valid || len(a.segments) == 0 {
		return assets.Range{}, assets.ErrNoManifest
	}
	first := a.segments[0]
	last := a.segments[len(a.segments)-1]
	start := first.markerOffset
	end := last.markerOffset + 2 + int64(last.totalLen)
	return assets.Range{Start: start, Length: end - start}, nil
}

func (a *Asset) EnsureManifestSpace(n int) error {
	if len(a.segments) > 0 {
		if err := a.removeExistingSegments(); err != nil {
			return err
		}
	}

	insertAt := int64(2)
	if a.app0Offset != -1 {
		insertAt = a.app0End
	}

	chunks := splitChunks(n)
	buf := a.buildSegments(chunks, make([]byte, n), 1)
	if err := a.src.InsertRange(insertAt, buf); err != nil {
		return err
	}
	a.reservedLength = n
	return a.reindex()
}

func (a *Asset) removeExistingSegments() error {
	if !a.valid {
		return nil
	}
	first := a.segments[0]
	last := a.segments[len(a.segments)-1]
	total := (last.markerOffset + 2 + int64(last.totalLen)) - first.markerOffset
	return a.src.DeleteRange(first.markerOffset, total)
}

// splitChunks divides n bytes of JUMBF payload across segments, the first
// sized to maxChunk and every continuation segment to the smaller
// maxContChunk, since each continuation segment's contHeaderLen eats into
// the same 0xFFFF-4 marker-segment ceiling.
func splitChunks(n int) [][2]int {
	var chunks [][2]int
	off := 0
	cap := maxChunk
	for off < n || (n == 0 && off == 0) {
		end := off + cap
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]int{off, end})
		off = end
		cap = maxContChunk
		if n == 0 {
			break
		}
	}
	if len(chunks) == 0 {
		chunks = [][2]int{{0, 0}}
	}
	return chunks
}

// buildSegments assembles the concatenated raw APP11 marker bytes for the
// full set of chunks, using instance as the box-instance number.
func (a *Asset) buildSegments(chunks [][2]int, jumbBytes []byte, instance uint16) []byte {
	var out []byte
	for i, c := range chunks {
		headerLen := segHeaderLen
		if i > 0 {
			headerLen += contHeaderLen
		}
		payload := jumbBytes[c[0]:c[1]]
		segLen := 2 + headerLen + len(payload) // length field counts itself

		out = append(out, 0xFF, markerAPP11)
		out = binary.BigEndian.AppendUint16(out, uint16(segLen))
		out = append(out, ci...)
		out = binary.BigEndian.AppendUint16(out, instance)
		out = binary.BigEndian.AppendUint32(out, uint32(i+1))
		if i > 0 && len(jumbBytes) >= 8 {
			out = append(out, jumbBytes[0:8]...)
		}
		out = append(out, payload...)
	}
	return out
}

func (a *Asset) WriteManifestJUMBF(j []byte) error {
	if a.reservedLength < 0 {
		return assets.ErrSpaceNotReserved
	}
	if len(j) != a.reservedLength {
		return assets.ErrWrongLength
	}
	if len(a.segments) == 0 {
		return assets.ErrSpaceNotReserved
	}

	first := a.segments[0]
	last := a.segments[len(a.segments)-1]
	total := (last.markerOffset + 2 + int64(last.totalLen)) - first.markerOffset
	if err := a.src.DeleteRange(first.markerOffset, total); err != nil {
		return err
	}

	chunks := splitChunks(len(j))
	buf := a.buildSegments(chunks, j, first.instance)
	if err := a.src.InsertRange(first.markerOffset, buf); err != nil {
		return err
	}
	return a.reindex()
}
