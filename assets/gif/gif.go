// Package gif implements a read-only GIF asset recognizer. GIF has no
// defined C2PA embedding; this handler recognizes the format so it
// participates in format detection without misclassifying as another
// format, but never reports a manifest and rejects writes.
package gif

import (
	"bytes"

	"github.com/trustnxt/c2pa-go/assets"
)

var (
	sig87 = []byte("GIF87a")
	sig89 = []byte("GIF89a")
)

// Handler recognizes GIF assets.
type Handler struct{}

func init() { assets.Handlers = append(assets.Handlers, Handler{}) }

func (Handler) CanRead(src assets.AssetSource) (bool, error) {
	n, err := src.Size()
	if err != nil {
		return false, err
	}
	if n < 6 {
		return false, nil
	}
	b, err := src.ReadRange(0, 6)
	if err != nil {
		return false, err
	}
	return bytes.Equal(b, sig87) || bytes.Equal(b, sig89), nil
}

func (Handler) Parse(src assets.AssetSource) (assets.Asset, error) {
	ok, err := Handler{}.CanRead(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, assets.ErrMalformedContainer
	}
	return &Asset{}, nil
}

// Asset is a recognized but unembeddable GIF asset.
type Asset struct{}

func (*Asset) GetManifestJUMBF() ([]byte, error) { return nil, nil }

func (*Asset) EnsureManifestSpace(int) error { return assets.ErrNotSupported }

func (*Asset) GetHashExclusionRange() (assets.Range, error) {
	return assets.Range{}, assets.ErrNoManifest
}

func (*Asset) WriteManifestJUMBF([]byte) error { return assets.ErrNotSupported }
