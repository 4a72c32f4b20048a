package mp3

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/binary2"
)

func emptyID3Tag() []byte {
	hdr := []byte{'I', 'D', '3', 3, 0, 0}
	sync := binary2.ToSynchsafe32(0)
	hdr = append(hdr, sync[:]...)
	return hdr
}

func minimalMP3() []byte {
	audio := []byte("fake mpeg audio frames follow here")
	return append(emptyID3Tag(), audio...)
}

func TestCanReadRejectsNonMP3(t *testing.T) {
	ok, err := Handler{}.CanRead(assets.NewMemorySource([]byte("not an mp3 at all")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseNoManifest(t *testing.T) {
	src := assets.NewMemorySource(minimalMP3())
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)
	j, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Nil(t, j)
}

func TestEnsureAndWriteManifestRoundTrip(t *testing.T) {
	raw := minimalMP3()
	audioStart := len(emptyID3Tag())
	src := assets.NewMemorySource(raw)
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	manifest := []byte("c2pa manifest store payload")
	require.NoError(t, a.EnsureManifestSpace(len(manifest)))
	require.NoError(t, a.WriteManifestJUMBF(manifest))

	got, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Equal(t, manifest, got)

	final := src.Bytes()
	require.Equal(t, raw[audioStart:], final[len(final)-len(raw[audioStart:]):])
}
