package manifest

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/jumbf"
)

// MetadataAssertion carries free-form key/value metadata (EXIF/IPTC-style
// fields not otherwise modeled) as a CBOR map.
type MetadataAssertion struct {
	Fields map[string]any
}

func (a *MetadataAssertion) AssertionLabel() string { return "c2pa.metadata" }

func (a *MetadataAssertion) ContentBoxes() ([]jumbf.Box, error) {
	raw, err := cbor.Marshal(a.Fields)
	if err != nil {
		return nil, err
	}
	return []jumbf.Box{&jumbf.CBORBox{Raw: raw}}, nil
}

func decodeMetadataAssertion(sb *jumbf.SuperBox) (Assertion, error) {
	cb, err := soleCBORBox(sb)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := cbor.Unmarshal(cb.Raw, &fields); err != nil {
		return nil, err
	}
	return &MetadataAssertion{Fields: fields}, nil
}

// UnknownAssertion is the opaque-passthrough fallback for an assertion
// label this model doesn't otherwise recognize. It preserves the raw
// content boxes unchanged so the assertion still participates in HashedURI
// verification (its outer SuperBox still digests and round-trips).
type UnknownAssertion struct {
	Label    string
	Children []jumbf.Box
}

func (a *UnknownAssertion) AssertionLabel() string           { return a.Label }
func (a *UnknownAssertion) ContentBoxes() ([]jumbf.Box, error) { return a.Children, nil }

func decodeUnknownAssertion(label string, sb *jumbf.SuperBox) (Assertion, error) {
	return &UnknownAssertion{Label: label, Children: sb.Children}, nil
}
