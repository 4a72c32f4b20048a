package gif

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustnxt/c2pa-go/assets"
)

func TestCanReadAcceptsBothVersions(t *testing.T) {
	for _, sig := range [][]byte{sig87, sig89} {
		ok, err := Handler{}.CanRead(assets.NewMemorySource(append(append([]byte{}, sig...), 0, 0, 0)))
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestParseNeverReportsManifest(t *testing.T) {
	src := assets.NewMemorySource(append(append([]byte{}, sig89...), 0, 0, 0))
	a, err := Handler{}.Parse(src)
	require.NoError(t, err)

	j, err := a.GetManifestJUMBF()
	require.NoError(t, err)
	require.Nil(t, j)

	err = a.EnsureManifestSpace(10)
	require.ErrorIs(t, err, assets.ErrNotSupported)

	err = a.WriteManifestJUMBF([]byte("x"))
	require.ErrorIs(t, err, assets.ErrNotSupported)
}
