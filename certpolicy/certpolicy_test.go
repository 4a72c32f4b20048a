package certpolicy

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func issueCert(t *testing.T, tmpl *x509.Certificate, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	if parent == nil {
		parent = tmpl
	}
	signingKey := parentKey
	if signingKey == nil {
		signingKey = key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, signingKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func caTemplate(cn string) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:                pkix.Name{CommonName: cn},
		NotBefore:              time.Now().Add(-time.Hour),
		NotAfter:               time.Now().Add(24 * time.Hour),
		KeyUsage:               x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid:  true,
		IsCA:                   true,
		SubjectKeyId:           []byte{1, 2, 3, 4},
	}
}

func leafTemplate(cn string) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:    big.NewInt(2),
		Subject:         pkix.Name{CommonName: cn},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(24 * time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		ExtKeyUsage:     []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection},
		AuthorityKeyId:  []byte{1, 2, 3, 4},
	}
}

func TestValidManifestSigningLeafHasNoViolations(t *testing.T) {
	ca, caKey := issueCert(t, caTemplate("root"), nil, nil)
	leaf, _ := issueCert(t, leafTemplate("leaf"), ca, caKey)

	v := CheckCertificate(leaf, ManifestSigning, time.Now())
	require.Empty(t, v)
}

func TestValidCAHasNoViolations(t *testing.T) {
	ca, _ := issueCert(t, caTemplate("root"), nil, nil)
	v := CheckCertificate(ca, Chain, time.Now())
	require.Empty(t, v)
}

func TestSelfSignedLeafRejectedForManifestSigning(t *testing.T) {
	tmpl := leafTemplate("self-signed-leaf")
	leaf, _ := issueCert(t, tmpl, nil, nil)

	v := CheckCertificate(leaf, ManifestSigning, time.Now())
	codes := violationCodes(v)
	require.Contains(t, codes, "self-signed-leaf")
}

func TestLeafMissingDigitalSignatureUsage(t *testing.T) {
	ca, caKey := issueCert(t, caTemplate("root"), nil, nil)
	tmpl := leafTemplate("no-digital-signature")
	tmpl.KeyUsage = x509.KeyUsageKeyEncipherment
	leaf, _ := issueCert(t, tmpl, ca, caKey)

	v := CheckCertificate(leaf, ManifestSigning, time.Now())
	require.Contains(t, violationCodes(v), "keyusage-no-digital-signature")
}

func TestCAMissingSubjectKeyIdentifier(t *testing.T) {
	tmpl := caTemplate("root-no-ski")
	tmpl.SubjectKeyId = nil
	ca, _ := issueCert(t, tmpl, nil, nil)

	v := CheckCertificate(ca, Chain, time.Now())
	require.Contains(t, violationCodes(v), "missing-subject-key-id")
}

func TestExpiredCertificate(t *testing.T) {
	ca, caKey := issueCert(t, caTemplate("root"), nil, nil)
	tmpl := leafTemplate("expired")
	tmpl.NotAfter = time.Now().Add(-time.Minute)
	leaf, _ := issueCert(t, tmpl, ca, caKey)

	v := CheckCertificate(leaf, ManifestSigning, time.Now())
	require.Contains(t, violationCodes(v), "validity-expired")
}

func TestTimeStampingMustBeSoleEKU(t *testing.T) {
	ca, caKey := issueCert(t, caTemplate("root"), nil, nil)
	tmpl := leafTemplate("tsa")
	tmpl.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping, x509.ExtKeyUsageEmailProtection}
	leaf, _ := issueCert(t, tmpl, ca, caKey)

	v := CheckCertificate(leaf, Chain, time.Now())
	require.Contains(t, violationCodes(v), "eku-timestamping-not-sole")
}

func TestSHA1SignedCertificateRejected(t *testing.T) {
	caKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "sha1-root"},
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

	leafKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	leafTmpl := leafTemplate("sha1-leaf")
	leafTmpl.SignatureAlgorithm = x509.SHA1WithRSA
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, caCert, &leafKey.PublicKey, caKey)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	v := CheckCertificate(leaf, ManifestSigning, time.Now())
	require.Contains(t, violationCodes(v), "signature-algorithm-not-allowed")
}

func TestParsePEMChainRoundTripsThroughPolicyCheck(t *testing.T) {
	ca, caKey := issueCert(t, caTemplate("pem-root"), nil, nil)
	leaf, _ := issueCert(t, leafTemplate("pem-leaf"), ca, caKey)

	bundle := append(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw}),
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.Raw})...,
	)

	chain, err := ParsePEMChain(bundle)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, leaf.Raw, chain[0].Raw)
	require.Equal(t, ca.Raw, chain[1].Raw)

	require.Empty(t, CheckCertificate(chain[0], ManifestSigning, time.Now()))
}

func violationCodes(v []Violation) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = x.Code
	}
	return out
}
