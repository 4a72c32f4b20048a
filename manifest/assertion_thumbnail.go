package manifest

import (
	"github.com/trustnxt/c2pa-go/jumbf"
)

// ThumbnailAssertion carries a preview image as an embedded file, stored as
// an EmbeddedFileDescriptionBox (media type) followed by an
// EmbeddedFileBox (raw bytes) rather than a CBOR content box.
type ThumbnailAssertion struct {
	// Label is the full assertion label, e.g. "c2pa.thumbnail.claim.jpeg"
	// or "c2pa.thumbnail.ingredient.jpeg" — the format suffix is part of
	// the label itself, not a separate field.
	Label     string
	MediaType string
	Data      []byte
}

func (a *ThumbnailAssertion) AssertionLabel() string { return a.Label }

func (a *ThumbnailAssertion) ContentBoxes() ([]jumbf.Box, error) {
	return []jumbf.Box{
		&jumbf.EmbeddedFileDescriptionBox{MediaType: a.MediaType},
		&jumbf.EmbeddedFileBox{Data: a.Data},
	}, nil
}

func decodeThumbnailAssertion(label string, sb *jumbf.SuperBox) (Assertion, error) {
	a := &ThumbnailAssertion{Label: label}
	for _, c := range sb.Children {
		switch box := c.(type) {
		case *jumbf.EmbeddedFileDescriptionBox:
			a.MediaType = box.MediaType
		case *jumbf.EmbeddedFileBox:
			a.Data = box.Data
		}
	}
	return a, nil
}
