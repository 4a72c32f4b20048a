package certpolicy

import (
	"crypto/x509"

	"github.com/cloudflare/cfssl/helpers"
)

// ParsePEMChain decodes a PEM-encoded bundle of one or more certificates,
// the format a trust-anchor file or a chain embedded in configuration is
// typically shipped in, returning them in the order they appear.
func ParsePEMChain(pemBytes []byte) ([]*x509.Certificate, error) {
	return helpers.ParseCertificatesPEM(pemBytes)
}
