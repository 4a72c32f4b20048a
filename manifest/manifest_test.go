package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

func sampleManifest(t *testing.T) *Manifest {
	t.Helper()
	return &Manifest{
		Label: "c2pa.manifest",
		Assertions: []Assertion{
			&DataHashAssertion{
				Algorithm:  xcrypto.SHA256,
				Exclusions: []Exclusion{{Start: 2, Length: 10}},
				Hash:       make([]byte, 32),
			},
			&ActionAssertion{Actions: []Action{{Action: "c2pa.created", When: "2026-01-01T00:00:00Z"}}},
		},
		Claim: &Claim{
			Version:              1,
			Format:                "image/jpeg",
			InstanceID:            "xmp:iid:1",
			DefaultHashAlgorithm:  xcrypto.SHA256,
			SignatureRef:          "self#jumbf=c2pa.manifest/c2pa.signature",
			Generator:             "c2pa-go/0.1",
		},
		Signature: &Signature{
			Algorithm:         -7, // ES256
			Certificate:       []byte("leaf-der"),
			ChainCertificates: [][]byte{[]byte("intermediate-der")},
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := sampleManifest(t)
	require.NoError(t, m.Signature.EncodeProtectedBucket())
	m.Signature.SignatureBytes = []byte("signature-bytes")

	store := &ManifestStore{Manifests: []*Manifest{m}}
	root, err := store.GenerateJUMBFBox()
	require.NoError(t, err)

	serialized := root.Serialize()
	box, err := jumbf.Parse(serialized)
	require.NoError(t, err)

	readStore, err := Read(box)
	require.NoError(t, err)
	require.Len(t, readStore.Manifests, 1)

	got := readStore.Manifests[0]
	require.Equal(t, m.Label, got.Label)
	require.Equal(t, m.Claim.Format, got.Claim.Format)
	require.Equal(t, m.Claim.InstanceID, got.Claim.InstanceID)
	require.Len(t, got.Claim.Assertions, 2)
	require.Len(t, got.Assertions, 2)

	dh, ok := got.Assertions[0].(*DataHashAssertion)
	require.True(t, ok)
	require.Equal(t, xcrypto.SHA256, dh.Algorithm)
	require.Equal(t, m.Assertions[0].(*DataHashAssertion).Hash, dh.Hash)

	require.Equal(t, []byte("leaf-der"), got.Signature.Certificate)
	require.Equal(t, []byte("signature-bytes"), got.Signature.SignatureBytes)
}

func TestResolveFindsAssertionByURI(t *testing.T) {
	m := sampleManifest(t)
	require.NoError(t, m.Signature.EncodeProtectedBucket())
	store := &ManifestStore{Manifests: []*Manifest{m}}
	root, err := store.GenerateJUMBFBox()
	require.NoError(t, err)

	uri := m.Claim.Assertions[0].URI
	box, err := store.Resolve(uri)
	require.NoError(t, err)
	require.NotNil(t, box)

	_, err = store.Resolve("self#jumbf=nonexistent")
	require.ErrorIs(t, err, ErrURINotFound)

	_ = root
}

func TestBuilderAssemblesAndFinalizesAManifest(t *testing.T) {
	b := NewBuilder(ManifestBuilderConfig{
		AssetFormat:        "image/jpeg",
		Generator:          "manifest-builder-test/0.1",
		SignatureAlgorithm: -7, // ES256
		Certificate:        []byte("leaf-der"),
	})

	assertions := []Assertion{
		&DataHashAssertion{Algorithm: xcrypto.SHA256, Hash: make([]byte, 32)},
	}
	claimBytes, err := b.ClaimBytes(assertions)
	require.NoError(t, err)
	require.NotEmpty(t, claimBytes)

	root, err := b.Finalize([]byte("signature-bytes"))
	require.NoError(t, err)

	box, err := jumbf.Parse(root.Serialize())
	require.NoError(t, err)
	store, err := Read(box)
	require.NoError(t, err)

	require.Len(t, store.Manifests, 1)
	got := store.Manifests[0]
	require.Equal(t, "image/jpeg", got.Claim.Format)
	require.True(t, strings.HasPrefix(got.Claim.InstanceID, "xmp:iid:"))
	require.Len(t, got.Claim.Assertions, 1)
	require.Equal(t, []byte("signature-bytes"), got.Signature.SignatureBytes)
	require.NotEmpty(t, got.Claim.SignatureRef)
	require.Nil(t, got.Claim.SignatureHash)
}

func TestBuilderPopulatesSignatureHashForVersion2Claims(t *testing.T) {
	b := NewBuilder(ManifestBuilderConfig{
		AssetFormat:        "image/jpeg",
		Generator:          "manifest-builder-test/0.1",
		ClaimVersion:       2,
		SignatureAlgorithm: -7, // ES256
		Certificate:        []byte("leaf-der"),
		ChainCertificates:  [][]byte{[]byte("intermediate-der")},
	})

	assertions := []Assertion{
		&DataHashAssertion{Algorithm: xcrypto.SHA256, Hash: make([]byte, 32)},
	}
	_, err := b.ClaimBytes(assertions)
	require.NoError(t, err)

	root, err := b.Finalize([]byte("signature-bytes"))
	require.NoError(t, err)

	// A version-2 claim must survive the exact round trip readManifest's
	// decodeClaim applies on read, including its Validate() call — the
	// bug this guards against serialized fine but failed
	// ErrClaimMissingSignature the moment it was parsed back.
	box, err := jumbf.Parse(root.Serialize())
	require.NoError(t, err)
	store, err := Read(box)
	require.NoError(t, err)

	got := store.Manifests[0]
	require.NoError(t, got.Claim.Validate())
	require.NotNil(t, got.Claim.SignatureHash)
	require.Empty(t, got.Claim.SignatureRef)
	require.NoError(t, got.Claim.SignatureHash.VerifyBytes(got.Signature.RawProtectedBucket))
}

func TestNewInstanceIDIsUniqueAndXMPScoped(t *testing.T) {
	a := NewInstanceID()
	b := NewInstanceID()
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "xmp:iid:"))
}

func TestHashedURIVerifyDetectsTamper(t *testing.T) {
	m := sampleManifest(t)
	require.NoError(t, m.Signature.EncodeProtectedBucket())
	store := &ManifestStore{Manifests: []*Manifest{m}}
	_, err := store.GenerateJUMBFBox()
	require.NoError(t, err)

	h := m.Claim.Assertions[0]
	require.NoError(t, h.Verify(store))

	h.Hash[0] ^= 0xFF
	require.ErrorIs(t, h.Verify(store), ErrHashedURIMismatch)
}
