package bmff

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
)

func appendBox(buf []byte, typ string, content []byte) []byte {
	size := uint32(8 + len(content))
	buf = binary.BigEndian.AppendUint32(buf, size)
	buf = append(buf, typ...)
	buf = append(buf, content...)
	return buf
}

// buildHEIC constructs a minimal ftyp/meta(hdlr,iloc)/mdat tree. The iloc
// entry's single extent references the offset of mdat's data, using
// construction_method=file and base_offset=0.
func buildHEIC(t *testing.T) (buf []byte, mdatDataOffset int64, mdatFirstByte byte) {
	t.Helper()

	buf = appendBox(nil, "ftyp", []byte("heic\x00\x00\x00\x00heicmif1"))

	hdlr := appendBox(nil, "hdlr", append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, []byte("pict\x00\x00\x00\x00\x00\x00\x00\x00\x00")...))

	// We need the extent offset before we know meta's total size, so we
	// compute it after assembling everything except iloc's offset field,
	// then patch that one field directly.
	mdatFirstByte = 0xAB
	mdatData := []byte{mdatFirstByte, 0x01, 0x02, 0x03}

	ilocFixed := []byte{
		0x00, 0x00, 0x00, 0x00, // version=0, flags=0
		0x44, // offsetSize=4 lengthSize=4
		0x40, // baseOffsetSize=4 indexSize=0
		0x00, 0x01, // item_count=1
		0x00, 0x01, // item_ID=1
		0x00, 0x00, // data_reference_index
		0x00, 0x00, 0x00, 0x00, // base_offset=0
		0x00, 0x01, // extent_count=1
		0x00, 0x00, 0x00, 0x00, // extent_offset (placeholder, patched below)
		0x00, 0x00, 0x00, 0x04, // extent_length=4
	}
	iloc := appendBox(nil, "iloc", ilocFixed)

	meta := appendBox(nil, "meta", append(append([]byte{0, 0, 0, 0}, hdlr...), iloc...))

	metaStart := int64(len(buf))
	buf = append(buf, meta...)
	mdatStart := int64(len(buf))

	mdatDataOffset = mdatStart + 8
	buf = appendBox(buf, "mdat", mdatData)

	// Patch the extent_offset field to point at mdat's data.
	offsetFieldPos := metaStart + 8 /*meta header*/ + 4 /*meta version/flags*/ +
		8 /*hdlr header*/ + int64(len(hdlr)-8) + 8 /*iloc header*/ +
		4 /*version/flags*/ + 2 /*widths*/ + 2 /*item_count*/ + 2 /*item_ID*/ +
		2 /*data_ref_idx*/ + 4 /*base_offset*/ + 2 /*extent_count*/
	binary.BigEndian.PutUint32(buf[offsetFieldPos:offsetFieldPos+4], uint32(mdatDataOffset))

	return buf, mdatDataOffset, mdatFirstByte
}

func TestCanReadRejectsNonBMFF(t *testing.T) {
	ok, err := Handler{}.CanRead(assets.NewMemorySource([]byte("not bmff at all here")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseNoManifest(t *testing.T) {
	buf, _, _ := buildHEIC(t)
	src := assets.NewMemorySource(buf)
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)
	j, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Nil(t, j)
}

func TestIlocPatchedAfterInsertion(t *testing.T) {
	buf, mdatDataOffset, firstByte := buildHEIC(t)
	src := assets.NewMemorySource(buf)
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	manifest := []byte("c2pa manifest bytes")
	require.NoError(t, a.EnsureManifestSpace(len(manifest)))
	require.NoError(t, a.WriteManifestJUMBF(manifest))

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)

	// Re-parse from scratch and confirm the iloc extent offset was shifted
	// to keep pointing at the same logical mdat byte.
	final := src.Bytes()
	shift := int64(len(final)) - int64(len(buf))
	newOffset := mdatDataOffset + shift
	require.Equal(t, firstByte, final[newOffset])
}
