package jpeg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
)

func minimalJPEG() []byte {
	var buf []byte
	buf = append(buf, 0xFF, markerSOI)
	buf = append(buf, app0Segment()...)
	buf = append(buf, 0xFF, markerSOS, 0x00, 0x02) // degenerate SOS, no scan data
	buf = append(buf, 0xFF, markerEOI)
	return buf
}

func app0Segment() []byte {
	data := append([]byte("JFIF\x00"), 0, 0, 0, 0, 0, 0, 0, 0, 0)
	out := []byte{0xFF, markerAPP0}
	segLen := uint16(2 + len(data))
	out = append(out, byte(segLen>>8), byte(segLen))
	out = append(out, data...)
	return out
}

func TestCanReadRejectsNonJPEG(t *testing.T) {
	ok, err := Handler{}.CanRead(assets.NewMemorySource([]byte("not a jpeg")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseNoManifest(t *testing.T) {
	src := assets.NewMemorySource(minimalJPEG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)
	j, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Nil(t, j)
}

func TestEnsureAndWriteManifestRoundTrip(t *testing.T) {
	src := assets.NewMemorySource(minimalJPEG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	manifest := []byte("a small jumbf manifest payload")
	require.NoError(t, a.EnsureManifestSpace(len(manifest)))
	require.NoError(t, a.WriteManifestJUMBF(manifest))

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)
}

func TestMultiSegmentSplitAndReassembly(t *testing.T) {
	src := assets.NewMemorySource(minimalJPEG())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	const n = 200000
	require.NoError(t, a.EnsureManifestSpace(n))

	asset := a.(*Asset)
	// The first segment holds maxChunk bytes; every continuation segment
	// holds the smaller maxContChunk, since its extra contHeaderLen eats
	// into the same 0xFFFF-4 marker-segment ceiling.
	expectedSegments := 1 + (n-maxChunk+maxContChunk-1)/maxContChunk
	require.Equal(t, expectedSegments, len(asset.segments))
	for i, s := range asset.segments {
		require.EqualValues(t, i+1, s.seq)
		// totalLen is the marker's 2-byte length field; a continuation
		// segment filled to the first segment's larger capacity would
		// overflow it.
		require.LessOrEqual(t, s.totalLen, 0xFFFF)
	}

	manifest := make([]byte, n)
	for i := range manifest {
		manifest[i] = byte(i)
	}
	require.NoError(t, a.WriteManifestJUMBF(manifest))

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)
}
