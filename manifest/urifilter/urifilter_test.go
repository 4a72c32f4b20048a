package urifilter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMayContainFindsInserted(t *testing.T) {
	f, err := New(8, BitsPerElement, 7)
	require.NoError(t, err)

	uris := []string{
		"self#jumbf=c2pa.manifest/c2pa.claim",
		"self#jumbf=c2pa.manifest/c2pa.assertions/c2pa.hash.data",
		"self#jumbf=c2pa.manifest/c2pa.signature",
	}
	for _, u := range uris {
		f.Insert(u)
	}
	for _, u := range uris {
		require.True(t, f.MayContain(u))
	}
}

func TestMayContainRejectsObviousMiss(t *testing.T) {
	f, err := New(4, BitsPerElement, 7)
	require.NoError(t, err)
	f.Insert("self#jumbf=c2pa.manifest/c2pa.claim")

	missCount := 0
	for i := 0; i < 100; i++ {
		if !f.MayContain(fmt.Sprintf("self#jumbf=nonexistent/%d", i)) {
			missCount++
		}
	}
	require.Greater(t, missCount, 90)
}

func TestNewRejectsZeroElements(t *testing.T) {
	_, err := New(0, BitsPerElement, 7)
	require.ErrorIs(t, err, ErrBadElementCount)
}
