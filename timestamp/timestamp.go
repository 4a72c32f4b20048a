// Package timestamp requests and verifies RFC 3161 timestamp tokens, the
// third-party attestation a C2PA signature counter-signs to prove a claim
// existed at or before a given time.
package timestamp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"
	"github.com/trustnxt/c2pa-go/certpolicy"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

var (
	ErrMessageImprintMismatch = errors.New("timestamp: response message imprint does not match the requested digest")
	ErrGenTimeOutsideValidity = errors.New("timestamp: TSA signing time falls outside the TSA certificate's validity window")
	ErrNoSigningCertificate   = errors.New("timestamp: token's PKCS#7 SignedData carries no signing certificate")
)

// Token is a parsed RFC 3161 TimeStampResp, retained in both its raw wire
// form (for embedding under sigTst2) and decoded form (for verification).
type Token struct {
	Raw        []byte
	Info       *timestamp.Timestamp
	SignedData *pkcs7.PKCS7
}

// ChainPolicy is the shape of certpolicy.CheckCertificate, taken as a
// parameter rather than imported as a concrete dependency so Verify's
// caller controls exactly which policy a TSA certificate must satisfy.
type ChainPolicy func(cert *x509.Certificate, role certpolicy.Role, at time.Time) []certpolicy.Violation

// HTTPProvider implements cose.TimestampProvider against an RFC 3161 HTTP
// TSA endpoint.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{URL: url, Client: http.DefaultClient}
}

// Timestamp builds a TimeStampReq over digest (already hashed under alg),
// POSTs it to the TSA, and returns the raw TimeStampResp bytes.
func (p *HTTPProvider) Timestamp(digest []byte, alg xcrypto.HashAlgorithm) ([]byte, error) {
	reqBytes, err := timestamp.CreateRequest(bytes.NewReader(digest), &timestamp.RequestOptions{
		Hash:         alg.GoHash(),
		Certificates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("timestamp: building request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, p.URL, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/timestamp-query")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("timestamp: requesting from %s: %w", p.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timestamp: TSA %s returned status %d", p.URL, resp.StatusCode)
	}

	if _, err := timestamp.ParseResponse(body); err != nil {
		return nil, fmt.Errorf("timestamp: parsing response: %w", err)
	}
	return body, nil
}

// Parse decodes a raw TimeStampResp (as embedded under sigTst/sigTst2) into
// a Token, extracting its PKCS#7 SignedData for later certificate checks.
func Parse(raw []byte) (*Token, error) {
	info, err := timestamp.ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	signedData, err := pkcs7.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("timestamp: parsing enclosed PKCS#7 SignedData: %w", err)
	}
	return &Token{Raw: raw, Info: info, SignedData: signedData}, nil
}

// Verify checks that the token attests to messageImprint (the digest of the
// Sig_structure the timestamp counter-signs), that its own PKCS#7 signature
// is valid, that its signing time falls within its signing certificate's
// validity window, and runs every certificate in the token's chain through
// chainPolicy with certpolicy.Chain.
func (t *Token) Verify(messageImprint []byte, hashAlg crypto.Hash, chainPolicy ChainPolicy) error {
	if t.Info.HashAlgorithm != hashAlg {
		return fmt.Errorf("%w: token hashed under %v, expected %v", ErrMessageImprintMismatch, t.Info.HashAlgorithm, hashAlg)
	}
	if !bytes.Equal(t.Info.HashedMessage, messageImprint) {
		return ErrMessageImprintMismatch
	}

	if err := t.SignedData.Verify(); err != nil {
		return fmt.Errorf("timestamp: PKCS#7 signature invalid: %w", err)
	}

	signer := t.SignedData.GetOnlySigner()
	if signer == nil {
		return ErrNoSigningCertificate
	}
	if t.Info.Time.Before(signer.NotBefore) || t.Info.Time.After(signer.NotAfter) {
		return ErrGenTimeOutsideValidity
	}

	for _, cert := range t.SignedData.Certificates {
		role := certpolicy.Chain
		if violations := chainPolicy(cert, role, t.Info.Time); len(violations) > 0 {
			return fmt.Errorf("timestamp: TSA certificate %s failed policy: %v", cert.Subject, violations)
		}
	}
	return nil
}
