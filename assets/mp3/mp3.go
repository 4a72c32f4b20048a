// Package mp3 implements the MP3 asset handler: the manifest lives in an
// ID3v2.4 GEOB frame with MIME type application/x-c2pa-manifest-store,
// filename "c2pa", description "c2pa manifest store". On rewrite the tag is
// rebuilt as v2.4 with synchsafe sizes and the GEOB frame placed first.
package mp3

import (
	"encoding/binary"
	"errors"

	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/binary2"
)

const (
	geobMIME  = "application/x-c2pa-manifest-store"
	geobFile  = "c2pa"
	geobDesc  = "c2pa manifest store"
	frameGEOB = "GEOB"
)

var ErrUnsupportedID3Version = errors.New("mp3: only ID3v2.x tags are supported")

// frame is one ID3v2 frame's location within the asset.
type frame struct {
	offset    int64 // offset of the 10-byte frame header
	id        string
	size      uint32 // synchsafe-decoded frame body size
	dataOff   int64
}

// Handler recognizes and parses MP3 assets carrying an ID3v2 tag.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < 10 {
		return false, nil
	}
	b, err := src.ReadRange(0, 3)
	if err != nil {
		return false, err
	}
	return string(b) == "ID3", nil
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

// Asset is a parsed MP3 asset.
type Asset struct {
	src assets.AssetSource

	tagSize        int64 // ID3v2 tag body size (synchsafe-decoded), excludes the 10-byte header
	audioOffset    int64
	frames         []frame
	manifestIdx    int
	reservedLength int
}

func (a *Asset) reindex() error {
	hdr, err := a.src.ReadRange(0, 10)
	if err != nil {
		return assets.ErrMalformedContainer
	}
	var sizeBytes [4]byte
	copy(sizeBytes[:], hdr[6:10])
	a.tagSize = int64(binary2.Synchsafe32(sizeBytes))
	a.audioOffset = 10 + a.tagSize

	a.frames = nil
	a.manifestIdx = -1
	manifestCount := 0

	off := int64(10)
	end := a.audioOffset
	for off+10 <= end {
		fh, err := a.src.ReadRange(off, 10)
		if err != nil {
			return assets.ErrMalformedContainer
		}
		id := string(fh[0:4])
		if id == "\x00\x00\x00\x00" {
			break
		}
		var szb [4]byte
		copy(szb[:], fh[4:8])
		size := int64(binary2.Synchsafe32(szb))

		idx := len(a.frames)
		a.frames = append(a.frames, frame{offset: off, id: id, size: uint32(size), dataOff: off + 10})

		if id == frameGEOB {
			isManifest, err := a.isManifestGEOB(off+10, size)
			if err != nil {
				return err
			}
			if isManifest {
				manifestCount++
				a.manifestIdx = idx
			}
		}

		off += 10 + size
	}
	if manifestCount > 1 {
		a.manifestIdx = -1
	}
	a.reservedLength = -1
	return nil
}

// isManifestGEOB checks whether the GEOB frame body at off (length
// frameLen) carries the C2PA manifest store MIME/filename/description.
func (a *Asset) isManifestGEOB(off, frameLen int64) (bool, error) {
	body, err := a.src.ReadRange(off, frameLen)
	if err != nil {
		return false, err
	}
	if len(body) < 1 {
		return false, nil
	}
	// encoding byte, then: MIME type (always latin1, NUL-terminated),
	// filename, description (both in the frame's declared encoding), then data.
	mime, _, err := binary2.ReadCString(body, 1)
	if err != nil {
		return false, nil
	}
	return mime == geobMIME, nil
}

// geobContent extracts the manifest bytes from a GEOB frame body.
func geobContent(body []byte) ([]byte, error) {
	if len(body) < 1 {
		return nil, assets.ErrMalformedContainer
	}
	off := 1
	_, n, err := binary2.ReadCString(body, off)
	if err != nil {
		return nil, assets.ErrMalformedContainer
	}
	off = n
	_, n, err = binary2.ReadCString(body, off)
	if err != nil {
		return nil, assets.ErrMalformedContainer
	}
	off = n
	_, n, err = binary2.ReadCString(body, off)
	if err != nil {
		return nil, assets.ErrMalformedContainer
	}
	off = n
	return append([]byte(nil), body[off:]...), nil
}

func buildGEOBBody(data []byte) []byte {
	var body []byte
	body = append(body, 0x00) // encoding: ISO-8859-1
	body = binary2.WriteCString(body, geobMIME)
	body = binary2.WriteCString(body, geobFile)
	body = binary2.WriteCString(body, geobDesc)
	body = append(body, data...)
	return body
}

func buildGEOBFrame(data []byte) []byte {
	body := buildGEOBBody(data)
	out := make([]byte, 0, 10+len(body))
	out = append(out, frameGEOB...)
	sync := binary2.ToSynchsafe32(uint32(len(body)))
	out = append(out, sync[:]...)
	out = append(out, 0, 0) // flags
	out = append(out, body...)
	return out
}

func (a *Asset) GetManifestJUMBF() ([]byte, error) {
	if a.manifestIdx == -1 {
		return nil, nil
	}
	f := a.frames[a.manifestIdx]
	body, err := a.src.ReadRange(f.dataOff, int64(f.size))
	if err != nil {
		return nil, err
	}
	return geobContent(body)
}

func (a *Asset) GetHashExclusionRange() (assets.Range, error) {
	if err := a.reindex(); err != nil {
		return assets.Range{}, err
	}
	if a.manifestIdx == -1 {
		return assets.Range{}, assets.ErrNoManifest
	}
	f := a.frames[a.manifestIdx]
	return assets.Range{Start: f.offset, Length: 10 + int64(f.size)}, nil
}

func (a *Asset) EnsureManifestSpace(n int) error {
	placeholder := make([]byte, n)
	newGEOB := buildGEOBFrame(placeholder)

	var rest []byte
	for i, f := range a.frames {
		if i == a.manifestIdx {
			continue
		}
		raw, err := a.src.ReadRange(f.offset, 10+int64(f.size))
		if err != nil {
			return err
		}
		rest = append(rest, raw...)
	}

	newBody := append(append([]byte(nil), newGEOB...), rest...)
	if err := a.src.DeleteRange(10, a.tagSize); err != nil {
		return err
	}
	padded := padTagBody(newBody)
	if err := a.src.InsertRange(10, padded); err != nil {
		return err
	}
	if err := a.rewriteHeader(int64(len(padded))); err != nil {
		return err
	}
	a.reservedLength = n
	return a.reindex()
}

// padTagBody is a hook for future padding policy; currently a no-op.
func padTagBody(body []byte) []byte { return body }

func (a *Asset) rewriteHeader(newTagSize int64) error {
	hdr, err := a.src.ReadRange(0, 10)
	if err != nil {
		return err
	}
	hdr[3] = 4 // major version 4
	hdr[4] = 0 // revision
	sync := binary2.ToSynchsafe32(uint32(newTagSize))
	copy(hdr[6:10], sync[:])
	return a.src.WriteRange(0, hdr)
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
	f := a.frames[a.manifestIdx]
	body := buildGEOBBody(j)
	if int64(len(body)) != int64(f.size) {
		return assets.ErrWrongLength
	}
	return a.src.WriteRange(f.dataOff, body)
}
