package xcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAlgorithmRoundTrip(t *testing.T) {
	for _, alg := range []HashAlgorithm{SHA256, SHA384, SHA512} {
		name := alg.C2PAName()
		require.NotEmpty(t, name)
		parsed, err := ParseC2PAName(name)
		require.NoError(t, err)
		require.Equal(t, alg, parsed)
	}
}

func TestParseC2PANameUnknown(t *testing.T) {
	_, err := ParseC2PAName("sha1")
	require.ErrorIs(t, err, ErrUnknownHashAlgorithm)
}

func TestDigestDeterministic(t *testing.T) {
	d1, err := Digest(SHA256, []byte("hello c2pa"))
	require.NoError(t, err)
	d2, err := Digest(SHA256, []byte("hello c2pa"))
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Len(t, d1, 32)
}

func TestDigesterStreaming(t *testing.T) {
	d, err := NewDigester(SHA256)
	require.NoError(t, err)
	_, _ = d.Write([]byte("hello "))
	_, _ = d.Write([]byte("c2pa"))
	streamed := d.Sum()

	whole, err := Digest(SHA256, []byte("hello c2pa"))
	require.NoError(t, err)
	require.Equal(t, whole, streamed)
}
