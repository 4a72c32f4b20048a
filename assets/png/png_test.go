package png

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
)

func minimalPNG() []byte {
	var buf []byte
	buf = append(buf, pngSignature...)
	buf = append(buf, chunkBytes("IHDR", make([]byte, 13))...)
	buf = append(buf, chunkBytes("IDAT", []byte("data"))...)
	buf = append(buf, chunkBytes("IEND", nil)...)
	return buf
}

func chunkBytes(typ string, data []byte) []byte {
	var out []byte
	length := uint32(len(data))
	out = append(out, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	out = append(out, typ...)
	out = append(out, data...)
	// CRC is recomputed by insertChunk elsewhere; for a hand-built fixture we
	// just need something present since reindex doesn't validate it.
	out = append(out, 0, 0, 0, 0)
	return out
}

func TestCanReadRejectsNonPNG(t *testing.T) {
	ok, err := Handler{}.CanRead(assets.NewMemorySource([]byte("not a png")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseNoManifest(t *testing.T) {
	src := assets.NewMemorySource(minimalPNG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)
	j, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Nil(t, j)
}

func TestEnsureAndWriteManifestRoundTrip(t *testing.T) {
	src := assets.NewMemorySource(minimalPNG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	manifest := []byte("hello jumbf")
	require.NoError(t, a.EnsureManifestSpace(len(manifest)))
	require.NoError(t, a.WriteManifestJUMBF(manifest))

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)
}

func TestWriteManifestWrongLengthFails(t *testing.T) {
	src := assets.NewMemorySource(minimalPNG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	require.NoError(t, a.EnsureManifestSpace(10))
	err = a.WriteManifestJUMBF([]byte("too short"))
	require.ErrorIs(t, err, assets.ErrWrongLength)
}

func TestCRCRecomputedOnInsert(t *testing.T) {
	src := assets.NewMemorySource(minimalPNG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)
	require.NoError(t, a.EnsureManifestSpace(4))
	require.NoError(t, a.WriteManifestJUMBF([]byte("abcd")))

	rexcl, err := a.GetHashExclusionRange()
	require.NoError(t, err)
	require.Greater(t, rexcl.Length, int64(0))
}
