// Package assets implements the per-format asset handlers that reserve
// space for, embed, extract, and compute hash-exclusion ranges for a JUMBF
// manifest inside a media file. The file-system I/O layer itself is an
// external collaborator, modelled here only as the AssetSource interface it
// must satisfy.
package assets

import (
	"errors"
)

var (
	ErrNotSupported        = errors.New("assets: operation not supported for this format")
	ErrNoManifest           = errors.New("assets: asset carries no manifest")
	ErrMultipleManifests    = errors.New("assets: multiple manifest groups found; treated as invalid")
	ErrSpaceNotReserved     = errors.New("assets: write attempted before ensure_manifest_space")
	ErrWrongLength          = errors.New("assets: written manifest length does not match reserved space")
	ErrMalformedContainer   = errors.New("assets: malformed container structure")
)

// Range is a byte range [Start, Start+Length) within an asset.
type Range struct {
	Start  int64
	Length int64
}

// End returns Start+Length.
func (r Range) End() int64 { return r.Start + r.Length }

// AssetSource is the out-of-scope file-system/stream I/O collaborator: the
// concrete reader/writer backing an asset. It supports both read and
// in-place patch, since BMFF iloc patching and PNG/JPEG segment insertion
// mutate bytes outside the manifest payload itself.
type AssetSource interface {
	// Size returns the current total byte length of the asset.
	Size() (int64, error)
	// ReadRange returns length bytes starting at offset.
	ReadRange(offset, length int64) ([]byte, error)
	// WriteRange overwrites length(data) bytes starting at offset; offset+len(data)
	// must not exceed Size().
	WriteRange(offset int64, data []byte) error
	// InsertRange inserts data at offset, shifting all subsequent bytes
	// forward and growing the asset.
	InsertRange(offset int64, data []byte) error
	// DeleteRange removes length bytes starting at offset, shifting all
	// subsequent bytes backward and shrinking the asset.
	DeleteRange(offset, length int64) error
}

// ReadAll reads the entirety of src.
func ReadAll(src AssetSource) ([]byte, error) {
	n, err := src.Size()
	if err != nil {
		return nil, err
	}
	return src.ReadRange(0, n)
}

// Asset is the per-format contract every media container handler satisfies.
type Asset interface {
	// GetManifestJUMBF returns the embedded manifest's raw JUMBF bytes, or
	// nil if none is present.
	GetManifestJUMBF() ([]byte, error)
	// EnsureManifestSpace removes any existing manifest container and
	// reserves room for exactly n bytes, such that a subsequent
	// WriteManifestJUMBF with len(j)==n succeeds.
	EnsureManifestSpace(n int) error
	// GetHashExclusionRange returns the byte range that must be skipped (or
	// offset-marker-substituted) when computing the asset's data hash.
	GetHashExclusionRange() (Range, error)
	// WriteManifestJUMBF writes j into the space reserved by
	// EnsureManifestSpace. len(j) must equal the n passed to
	// EnsureManifestSpace.
	WriteManifestJUMBF(j []byte) error
}

// Handler recognizes and parses one asset format.
type Handler interface {
	CanRead(src AssetSource) (bool, error)
	Parse(src AssetSource) (Asset, error)
}

// Handlers is the registry of known format handlers, tried in order; the
// first whose CanRead returns true parses the asset.
var Handlers = []Handler{}

// Detect finds the first handler that recognizes src and parses it.
func Detect(src AssetSource) (Asset, error) {
	for _, h := range Handlers {
		ok, err := h.CanRead(src)
		if err != nil {
			return nil, err
		}
		if ok {
			return h.Parse(src)
		}
	}
	return nil, ErrNotSupported
}
