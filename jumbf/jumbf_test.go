package jumbf

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func simpleSuperBox(label string, content []Box) *SuperBox {
	return &SuperBox{
		Description: &DescriptionBox{
			UUID:     [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			HasLabel: true,
			Label:    label,
		},
		Children: content,
	}
}

func TestSuperBoxRoundTrip(t *testing.T) {
	inner := simpleSuperBox("c2pa.assertions", []Box{
		&CBORBox{Raw: mustCBOR(t, map[string]any{"hello": "world"})},
	})
	outer := simpleSuperBox("c2pa.manifest", []Box{inner})

	encoded := outer.Serialize()

	parsed, err := Parse(encoded)
	require.NoError(t, err)

	reencoded := parsed.Serialize()
	assert.Assert(t, cmp.DeepEqual(encoded, reencoded))
}

func TestParseRejectsShortLength(t *testing.T) {
	// box lengths 1..7 are too short to be a valid length+type header
	b := []byte{0, 0, 0, 5, 'j', 'u', 'm', 'd'}
	_, err := Parse(b)
	require.ErrorIs(t, err, ErrShortLength)
}

func TestParseRejectsMissingDescription(t *testing.T) {
	inner := &CBORBox{Raw: mustCBOR(t, 1)}
	content := inner.Serialize()
	boxed := append(header(TypeSuperBox, len(content)), content...)
	_, err := Parse(boxed)
	require.ErrorIs(t, err, ErrMissingDescription)
}

func TestDescriptionBoxToggleRoundTrip(t *testing.T) {
	d := &DescriptionBox{
		UUID:        [16]byte{0xAA},
		Requestable: true,
		HasLabel:    true,
		Label:       "c2pa.hash.data",
		HasID:       true,
		ID:          7,
		HasHash:     true,
		Hash:        [32]byte{0xFF},
	}
	encoded := d.Serialize()
	parsed, err := Parse(encoded)
	require.NoError(t, err)
	d2, ok := parsed.(*DescriptionBox)
	require.True(t, ok)
	require.Equal(t, d.UUID, d2.UUID)
	require.Equal(t, d.Label, d2.Label)
	require.Equal(t, d.ID, d2.ID)
	require.Equal(t, d.Hash, d2.Hash)
	require.Equal(t, encoded, d2.Serialize())
}

func TestAssignURIs(t *testing.T) {
	inner := simpleSuperBox("c2pa.assertions", nil)
	root := simpleSuperBox("c2pa.contentauth", []Box{inner})
	root.AssignURIs("")
	require.Equal(t, "self#jumbf=c2pa.contentauth", root.URI)
	require.Equal(t, "self#jumbf=c2pa.contentauth/c2pa.assertions", inner.URI)
}

func TestCBORBoxPreservesTag(t *testing.T) {
	raw := mustCBOR(t, map[string]any{"k": 1})
	box := &CBORBox{Tag: 1399, HasTag: true, Raw: raw}
	encoded := box.Serialize()

	parsed, err := Parse(encoded)
	require.NoError(t, err)
	cb, ok := parsed.(*CBORBox)
	require.True(t, ok)
	require.True(t, cb.HasTag)
	require.EqualValues(t, 1399, cb.Tag)
	require.Equal(t, encoded, cb.Serialize())
}

func TestMeasureMatchesSerializeLength(t *testing.T) {
	sb := simpleSuperBox("c2pa.manifest", []Box{
		&JSONBox{Raw: []byte(`{"a":1}`)},
		&UUIDBox{UUID: [16]byte{9}, Raw: []byte("payload")},
	})
	require.Equal(t, len(sb.Serialize()), sb.Measure())
}

func TestUnknownBoxPassthrough(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	boxed := append(header(TypeFromString("zzzz"), len(raw)), raw...)
	parsed, err := Parse(boxed)
	require.NoError(t, err)
	ub, ok := parsed.(*UnknownBox)
	require.True(t, ok)
	require.Equal(t, raw, ub.Raw)
	require.Equal(t, boxed, ub.Serialize())
}

func mustCBOR(t *testing.T, v any) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	require.NoError(t, err)
	return b
}
