package validate_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/cose"
	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/manifest"
	"github.com/trustnxt/c2pa-go/validate"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

// testSignerChain issues a CA and a CA-signed manifest-signing leaf, both
// ECDSA P-256, shaped to satisfy certpolicy.CheckCertificate's
// ManifestSigning checks (not self-signed, digitalSignature keyUsage,
// emailProtection EKU, authorityKeyIdentifier set).
func testSignerChain(t *testing.T) xcrypto.Signer {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber:   big.NewInt(2),
		Subject:        pkix.Name{CommonName: "leaf"},
		NotBefore:      time.Now().Add(-time.Hour),
		NotAfter:       time.Now().Add(24 * time.Hour),
		KeyUsage:       x509.KeyUsageDigitalSignature,
		ExtKeyUsage:    []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection},
		AuthorityKeyId: []byte{1, 2, 3, 4},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, caTmpl, &leafKey.PublicKey, caKey)
	require.NoError(t, err)
	leafCert, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	signer, err := xcrypto.NewStaticSigner(leafKey, leafCert, []*x509.Certificate{caCert}, xcrypto.SHA256)
	require.NoError(t, err)
	return signer
}

// buildSignedStore assembles a one-manifest store whose DataHashAssertion
// covers the whole of assetBuf, signs it with a real ECDSA chain, and
// round-trips it through JUMBF encode/decode the way an embedder and a
// reader would.
func buildSignedStore(t *testing.T, assetBuf []byte) *manifest.ManifestStore {
	t.Helper()

	digester, err := xcrypto.NewDigester(xcrypto.SHA256)
	require.NoError(t, err)
	_, err = digester.Write(assetBuf)
	require.NoError(t, err)

	m := &manifest.Manifest{
		Label: "c2pa.manifest",
		Assertions: []manifest.Assertion{
			&manifest.DataHashAssertion{Algorithm: xcrypto.SHA256, Hash: digester.Sum()},
		},
		Claim: &manifest.Claim{
			Version:              1,
			Format:               "image/jpeg",
			InstanceID:           "xmp:iid:1",
			DefaultHashAlgorithm: xcrypto.SHA256,
			SignatureRef:         "self#jumbf=c2pa.manifest/c2pa.signature",
			Generator:            "validate-test/0.1",
		},
		// Placeholder so GenerateJUMBFBox's first pass (which only needs to
		// populate Claim.Assertions) has something to encode.
		Signature: &manifest.Signature{},
	}
	store := &manifest.ManifestStore{Manifests: []*manifest.Manifest{m}}

	_, err = store.GenerateJUMBFBox()
	require.NoError(t, err)
	claimBytes, err := m.Claim.Encode()
	require.NoError(t, err)

	signer := testSignerChain(t)
	probe, err := cose.Sign(claimBytes, signer, 4096, nil)
	require.NoError(t, err)
	exact, err := probe.Encode()
	require.NoError(t, err)
	sig, err := cose.Sign(claimBytes, signer, len(exact), nil)
	require.NoError(t, err)
	m.Signature = sig

	root, err := store.GenerateJUMBFBox()
	require.NoError(t, err)

	box, err := jumbf.Parse(root.Serialize())
	require.NoError(t, err)
	readStore, err := manifest.Read(box)
	require.NoError(t, err)
	return readStore
}

func TestPipelineValidatesAnUntamperedManifest(t *testing.T) {
	assetBuf := []byte("this is the asset's content, outside any manifest box")
	store := buildSignedStore(t, assetBuf)

	p := &validate.Pipeline{}
	result, err := p.Validate(store, assets.NewMemorySource(assetBuf))
	require.NoError(t, err)
	require.True(t, result.IsValid(), "%+v", result.Entries)

	var codes []validate.StatusCode
	for _, e := range result.Entries {
		codes = append(codes, e.Code)
	}
	require.Contains(t, codes, validate.ClaimSignatureValidated)
	require.Contains(t, codes, validate.SigningCredentialTrusted)
	require.Contains(t, codes, validate.AssertionDataHashMatch)
	require.Contains(t, codes, validate.AssertionHashedURIMatch)
}

func TestPipelineDetectsTamperedAssetBytes(t *testing.T) {
	assetBuf := []byte("this is the asset's content, outside any manifest box")
	store := buildSignedStore(t, assetBuf)

	tampered := append([]byte(nil), assetBuf...)
	tampered[0] ^= 0xFF

	p := &validate.Pipeline{}
	result, err := p.Validate(store, assets.NewMemorySource(tampered))
	require.NoError(t, err)
	require.False(t, result.IsValid())

	found := false
	for _, e := range result.Entries {
		if e.Code == validate.AssertionDataHashMismatch {
			found = true
		}
	}
	require.True(t, found, "%+v", result.Entries)
}

func TestNewPipelineAppliesOptions(t *testing.T) {
	assetBuf := []byte("this is the asset's content, outside any manifest box")
	store := buildSignedStore(t, assetBuf)

	// A Now far past the leaf certificate's validity window turns an
	// otherwise-valid manifest's credential check into an expiry failure,
	// confirming NewPipeline's Now override reaches checkCertificatePolicy.
	future := time.Now().Add(365 * 24 * time.Hour)
	p := validate.NewPipeline(validate.ValidationOptions{
		Now: func() time.Time { return future },
	})
	result, err := p.Validate(store, assets.NewMemorySource(assetBuf))
	require.NoError(t, err)
	require.False(t, result.IsValid())

	found := false
	for _, e := range result.Entries {
		if e.Code == validate.SigningCredentialExpired {
			found = true
		}
	}
	require.True(t, found, "%+v", result.Entries)
}

func TestPipelineDetectsTamperedSignature(t *testing.T) {
	assetBuf := []byte("this is the asset's content, outside any manifest box")
	store := buildSignedStore(t, assetBuf)

	m, err := store.Active("")
	require.NoError(t, err)
	m.Signature.SignatureBytes[0] ^= 0xFF

	p := &validate.Pipeline{}
	result, err := p.Validate(store, assets.NewMemorySource(assetBuf))
	require.NoError(t, err)
	require.False(t, result.IsValid())

	found := false
	for _, e := range result.Entries {
		if e.Code == validate.ClaimSignatureMismatch {
			found = true
		}
	}
	require.True(t, found, "%+v", result.Entries)
}
