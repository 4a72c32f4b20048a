// Package xcrypto adapts the primitive cryptographic engine (digest, sign,
// verify over SHA-2 and ECDSA/RSA-PSS/Ed25519) that the manifest and
// validation packages depend on as an external collaborator, specified only
// by interface. This package is that interface, implemented over the
// standard library.
package xcrypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"

	"github.com/veraison/go-cose"
)

// HashAlgorithm is a C2PA digest algorithm identifier.
type HashAlgorithm int

const (
	HashAlgorithmUnknown HashAlgorithm = iota
	SHA256
	SHA384
	SHA512
)

var ErrUnknownHashAlgorithm = errors.New("xcrypto: unknown hash algorithm")

// GoHash returns the crypto.Hash backing this algorithm.
func (h HashAlgorithm) GoHash() crypto.Hash {
	switch h {
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

// C2PAName returns the lowercase short form used in CBOR, e.g. "sha256".
func (h HashAlgorithm) C2PAName() string {
	switch h {
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return ""
	}
}

// String returns the internal form used elsewhere in the manifest model,
// e.g. "SHA-256".
func (h HashAlgorithm) String() string {
	switch h {
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	default:
		return "unknown"
	}
}

// ParseC2PAName maps a CBOR short form ("sha256") back to a HashAlgorithm.
func ParseC2PAName(name string) (HashAlgorithm, error) {
	switch name {
	case "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	default:
		return HashAlgorithmUnknown, ErrUnknownHashAlgorithm
	}
}

// Digester is a streaming digest that accepts chunk sizes independent of the
// underlying asset's range granularity.
type Digester interface {
	Write(p []byte) (int, error)
	Sum() []byte
	Algorithm() HashAlgorithm
}

type digester struct {
	alg HashAlgorithm
	h   hash.Hash
}

// NewDigester returns a streaming digest for the given algorithm.
func NewDigester(alg HashAlgorithm) (Digester, error) {
	var h hash.Hash
	switch alg {
	case SHA256:
		h = sha256.New()
	case SHA384:
		h = sha512.New384()
	case SHA512:
		h = sha512.New()
	default:
		return nil, ErrUnknownHashAlgorithm
	}
	return &digester{alg: alg, h: h}, nil
}

func (d *digester) Write(p []byte) (int, error) { return d.h.Write(p) }
func (d *digester) Sum() []byte                 { return d.h.Sum(nil) }
func (d *digester) Algorithm() HashAlgorithm     { return d.alg }

// Digest is a convenience one-shot digest of b under alg.
func Digest(alg HashAlgorithm, b []byte) ([]byte, error) {
	d, err := NewDigester(alg)
	if err != nil {
		return nil, err
	}
	if _, err := d.Write(b); err != nil {
		return nil, err
	}
	return d.Sum(), nil
}

// CurveHashAlgorithm returns the hash algorithm conventionally paired with
// an ECDSA curve's COSE algorithm (ES256/ES384/ES512), determined by the
// named curve actually on the certificate or key.
func CurveHashAlgorithm(curve elliptic.Curve) (HashAlgorithm, error) {
	switch curve {
	case elliptic.P256():
		return SHA256, nil
	case elliptic.P384():
		return SHA384, nil
	case elliptic.P521():
		return SHA512, nil
	default:
		return HashAlgorithmUnknown, ErrUnknownHashAlgorithm
	}
}

// ECDSAAlgorithmForCurve maps an ECDSA public key's curve to the COSE
// algorithm identifier C2PA permits for it. C2PA allows any of
// ES256/384/512 to be paired with any of P-256/384/521; this binds each
// curve to its natural algorithm, matching how every issued C2PA signing
// cert in practice pairs them.
func ECDSAAlgorithmForCurve(pub *ecdsa.PublicKey) (cose.Algorithm, error) {
	switch pub.Curve {
	case elliptic.P256():
		return cose.AlgorithmES256, nil
	case elliptic.P384():
		return cose.AlgorithmES384, nil
	case elliptic.P521():
		return cose.AlgorithmES512, nil
	default:
		return 0, ErrUnknownHashAlgorithm
	}
}
