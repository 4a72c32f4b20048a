package xcrypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"errors"

	"github.com/veraison/go-cose"
)

var ErrUnsupportedPublicKey = errors.New("xcrypto: certificate public key type not supported by C2PA")

// AlgorithmForCertificate resolves the COSE algorithm family implied by a
// certificate's public key, combined (for ECDSA) with the curve actually on
// the certificate. It cannot disambiguate RSA's PSS hash
// width (PS256 vs PS384 vs PS512) from the key alone, since C2PA permits any
// of the three for an RSA key: callers verifying a signature should instead
// trust the alg advertised in the COSE protected bucket and use this function
// only to confirm that the advertised alg's key family matches the cert.
func AlgorithmForCertificate(cert *x509.Certificate) (cose.Algorithm, error) {
	switch pub := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		return ECDSAAlgorithmForCurve(pub)
	case *rsa.PublicKey:
		return cose.AlgorithmPS256, nil
	case ed25519.PublicKey:
		return cose.AlgorithmEdDSA, nil
	default:
		return 0, ErrUnsupportedPublicKey
	}
}

// KeyFamilyMatches reports whether alg's key family (EC/RSA/Ed25519) is
// consistent with the certificate's public key type, without pinning to a
// specific hash width.
func KeyFamilyMatches(alg cose.Algorithm, cert *x509.Certificate) bool {
	switch cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		return alg == cose.AlgorithmES256 || alg == cose.AlgorithmES384 || alg == cose.AlgorithmES512
	case *rsa.PublicKey:
		return alg == cose.AlgorithmPS256 || alg == cose.AlgorithmPS384 || alg == cose.AlgorithmPS512
	case ed25519.PublicKey:
		return alg == cose.AlgorithmEdDSA
	default:
		return false
	}
}
