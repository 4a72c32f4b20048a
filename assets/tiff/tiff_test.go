package tiff

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
)

// buildTIFF constructs a minimal little-endian TIFF with a single IFD
// carrying one manifestTag entry whose value is stored out-of-line.
func buildTIFF(manifest []byte) []byte {
	var buf []byte
	buf = append(buf, 'I', 'I', 0x2A, 0x00)
	buf = binary.LittleEndian.AppendUint32(buf, 8) // IFD offset

	ifdStart := len(buf)
	_ = ifdStart
	entryCount := uint16(1)
	buf = binary.LittleEndian.AppendUint16(buf, entryCount)

	entryOff := len(buf)
	buf = append(buf, make([]byte, 12)...) // placeholder entry
	buf = binary.LittleEndian.AppendUint32(buf, 0)          // next IFD offset = 0

	valueOff := len(buf)
	buf = append(buf, manifest...)

	binary.LittleEndian.PutUint16(buf[entryOff:entryOff+2], manifestTag)
	binary.LittleEndian.PutUint16(buf[entryOff+2:entryOff+4], typeUndefined)
	binary.LittleEndian.PutUint32(buf[entryOff+4:entryOff+8], uint32(len(manifest)))
	binary.LittleEndian.PutUint32(buf[entryOff+8:entryOff+12], uint32(valueOff))

	return buf
}

func TestCanReadRejectsNonTIFF(t *testing.T) {
	ok, err := Handler{}.CanRead(assets.NewMemorySource([]byte("not a tiff file at all")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadsManifestTag(t *testing.T) {
	manifest := []byte("jumbf bytes stored out of line")
	src := assets.NewMemorySource(buildTIFF(manifest))
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)
}

func TestWriteUnsupported(t *testing.T) {
	manifest := []byte("jumbf bytes")
	src := assets.NewMemorySource(buildTIFF(manifest))
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	err = a.EnsureManifestSpace(10)
	require.ErrorIs(t, err, assets.ErrNotSupported)
}
