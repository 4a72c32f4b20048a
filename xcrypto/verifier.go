package xcrypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"

	"github.com/veraison/go-cose"
)

var ErrVerify = errors.New("xcrypto: signature verification failed")

// NewVerifier builds a cose.Verifier for the given algorithm and public key,
// a thin wrap around the go-cose constructor restricted to the key types
// C2PA permits.
func NewVerifier(alg cose.Algorithm, pub crypto.PublicKey) (cose.Verifier, error) {
	switch pub.(type) {
	case *ecdsa.PublicKey, *rsa.PublicKey, ed25519.PublicKey:
		return cose.NewVerifier(alg, pub)
	default:
		return nil, ErrUnsupportedPublicKey
	}
}
