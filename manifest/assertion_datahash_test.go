package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

func TestNewDataHashAssertionValidatesAgainstItsOwnSource(t *testing.T) {
	src := assets.NewMemorySource([]byte("the quick brown fox jumps over the lazy dog"))
	exclusions := []Exclusion{{Start: 4, Length: 5}}

	a, err := NewDataHashAssertion(xcrypto.SHA256, exclusions, src)
	require.NoError(t, err)
	require.NoError(t, a.Validate(src))

	tampered := assets.NewMemorySource([]byte("the slow brown fox jumps over the lazy dog"))
	require.ErrorIs(t, a.Validate(tampered), ErrAssertionDataHashMismatch)
}
