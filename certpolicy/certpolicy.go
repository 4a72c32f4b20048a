// Package certpolicy checks an X.509 certificate against the field and
// extension constraints a C2PA trust chain imposes, independent of whether
// the certificate chains to a trusted root. It reports every violation found
// rather than stopping at the first, the way a linter would.
package certpolicy

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"time"
)

// Role distinguishes the leaf certificate a manifest is signed with from an
// intermediate or root certificate in its chain: several checks (key usage,
// extended key usage, self-signature) only apply to one or the other.
type Role int

const (
	ManifestSigning Role = iota
	Chain
)

// Violation is a single failed policy check. Code is a short, stable,
// machine-matchable identifier; Message is the human-readable detail.
type Violation struct {
	Code    string
	Message string
}

func (v Violation) Error() string { return fmt.Sprintf("%s: %s", v.Code, v.Message) }

var (
	oidKeyUsage           = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtKeyUsageAny     = asn1.ObjectIdentifier{2, 5, 29, 37, 0}
	oidEKUEmailProtection = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 4}
	oidEKUDocumentSigning = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 36}
	oidEKUTimeStamping    = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 8}
	oidEKUOCSPSigning     = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 9}
)

// CheckCertificate runs every applicable policy check against cert for the
// given role, evaluated as of validityTimestamp, and returns every violation
// found. A nil/empty return means cert satisfies the policy.
func CheckCertificate(cert *x509.Certificate, role Role, validityTimestamp time.Time) []Violation {
	var v []Violation

	v = append(v, checkVersion(cert)...)
	v = append(v, checkValidityWindow(cert, validityTimestamp)...)
	v = append(v, checkSelfSignedAndAuthorityKeyID(cert, role)...)
	v = append(v, checkKeyUsage(cert, role)...)
	v = append(v, checkSubjectKeyIdentifier(cert)...)
	v = append(v, checkExtendedKeyUsage(cert, role)...)
	v = append(v, checkPublicKeyStrength(cert)...)
	v = append(v, checkSignatureAlgorithm(cert)...)

	return v
}

func checkVersion(cert *x509.Certificate) []Violation {
	if cert.Version != 3 {
		return []Violation{{"version", fmt.Sprintf("certificate must be X.509 v3, got v%d", cert.Version)}}
	}
	return nil
}

func checkValidityWindow(cert *x509.Certificate, at time.Time) []Violation {
	var v []Violation
	if !at.After(cert.NotBefore) {
		v = append(v, Violation{"validity-not-yet-valid", fmt.Sprintf("validity timestamp %s is before notBefore %s", at, cert.NotBefore)})
	}
	if !at.Before(cert.NotAfter) {
		v = append(v, Violation{"validity-expired", fmt.Sprintf("validity timestamp %s is after notAfter %s", at, cert.NotAfter)})
	}
	return v
}

func checkSelfSignedAndAuthorityKeyID(cert *x509.Certificate, role Role) []Violation {
	var v []Violation
	selfSigned := cert.CheckSignatureFrom(cert) == nil

	if role == ManifestSigning && selfSigned {
		v = append(v, Violation{"self-signed-leaf", "manifest-signing certificate must not be self-signed"})
	}
	if !selfSigned && len(cert.AuthorityKeyId) == 0 {
		v = append(v, Violation{"missing-authority-key-id", "non-self-signed certificate must carry authorityKeyIdentifier"})
	}
	return v
}

func checkKeyUsage(cert *x509.Certificate, role Role) []Violation {
	var v []Violation

	hasKeyUsageExt := false
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidKeyUsage) {
			hasKeyUsageExt = true
			if !ext.Critical {
				v = append(v, Violation{"keyusage-not-critical", "keyUsage extension must be marked critical"})
			}
		}
	}

	if role == ManifestSigning {
		if !hasKeyUsageExt {
			v = append(v, Violation{"missing-keyusage", "manifest-signing certificate must carry a keyUsage extension"})
		} else if cert.KeyUsage&x509.KeyUsageDigitalSignature == 0 {
			v = append(v, Violation{"keyusage-no-digital-signature", "manifest-signing certificate's keyUsage must include digitalSignature"})
		}
		if cert.KeyUsage&x509.KeyUsageCertSign != 0 {
			v = append(v, Violation{"keyusage-cert-sign-on-leaf", "manifest-signing certificate must not carry keyCertSign"})
		}
	}

	if cert.KeyUsage&x509.KeyUsageCertSign != 0 && !cert.IsCA {
		v = append(v, Violation{"keycertsign-non-ca", "keyCertSign is set but the certificate is not marked as a CA"})
	}

	return v
}

func checkSubjectKeyIdentifier(cert *x509.Certificate) []Violation {
	if cert.IsCA && len(cert.SubjectKeyId) == 0 {
		return []Violation{{"missing-subject-key-id", "CA certificate must carry subjectKeyIdentifier"}}
	}
	return nil
}

func checkExtendedKeyUsage(cert *x509.Certificate, role Role) []Violation {
	var v []Violation
	if cert.IsCA {
		return v
	}

	for _, oid := range cert.UnknownExtKeyUsage {
		if oid.Equal(oidExtKeyUsageAny) {
			v = append(v, Violation{"eku-any", "end-entity certificate must not carry anyExtendedKeyUsage"})
		}
	}
	for _, ku := range cert.ExtKeyUsage {
		if ku == x509.ExtKeyUsageAny {
			v = append(v, Violation{"eku-any", "end-entity certificate must not carry anyExtendedKeyUsage"})
		}
	}

	timeStampingOrOCSP := hasEKU(cert, oidEKUTimeStamping) || hasExtKeyUsage(cert, x509.ExtKeyUsageTimeStamping) ||
		hasEKU(cert, oidEKUOCSPSigning) || hasExtKeyUsage(cert, x509.ExtKeyUsageOCSPSigning)
	totalEKUCount := len(cert.ExtKeyUsage) + len(cert.UnknownExtKeyUsage)
	if timeStampingOrOCSP && totalEKUCount != 1 {
		v = append(v, Violation{"eku-timestamping-not-sole", "timeStamping/ocspSigning must be the sole extendedKeyUsage when present"})
	}

	if role == ManifestSigning {
		hasDocumentOrEmail := hasEKU(cert, oidEKUEmailProtection) || hasExtKeyUsage(cert, x509.ExtKeyUsageEmailProtection) ||
			hasEKU(cert, oidEKUDocumentSigning)
		if !hasDocumentOrEmail {
			v = append(v, Violation{"eku-missing-signing-purpose", "manifest-signing certificate must carry emailProtection or documentSigning extendedKeyUsage"})
		}
	}

	return v
}

func hasEKU(cert *x509.Certificate, oid asn1.ObjectIdentifier) bool {
	for _, u := range cert.UnknownExtKeyUsage {
		if u.Equal(oid) {
			return true
		}
	}
	return false
}

func hasExtKeyUsage(cert *x509.Certificate, ku x509.ExtKeyUsage) bool {
	for _, u := range cert.ExtKeyUsage {
		if u == ku {
			return true
		}
	}
	return false
}

// checkSignatureAlgorithm restricts the algorithm the certificate itself was
// signed with to RSASSA-PKCS1-v1_5, RSA-PSS, ECDSA, or Ed25519, with a
// SHA-256/384/512 digest for every family but Ed25519 (which fixes its own).
func checkSignatureAlgorithm(cert *x509.Certificate) []Violation {
	switch cert.SignatureAlgorithm {
	case x509.SHA256WithRSA, x509.SHA384WithRSA, x509.SHA512WithRSA,
		x509.SHA256WithRSAPSS, x509.SHA384WithRSAPSS, x509.SHA512WithRSAPSS,
		x509.ECDSAWithSHA256, x509.ECDSAWithSHA384, x509.ECDSAWithSHA512,
		x509.PureEd25519:
		return nil
	default:
		return []Violation{{"signature-algorithm-not-allowed", fmt.Sprintf(
			"certificate signature algorithm %s is not in {RSASSA-PKCS1-v1_5, RSA-PSS, ECDSA, Ed25519} with SHA-256/384/512", cert.SignatureAlgorithm)}}
	}
}

func checkPublicKeyStrength(cert *x509.Certificate) []Violation {
	var v []Violation
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		if pub.N.BitLen() < 2048 {
			v = append(v, Violation{"rsa-key-too-small", fmt.Sprintf("RSA key must be at least 2048 bits, got %d", pub.N.BitLen())})
		}
	case *ecdsa.PublicKey:
		switch pub.Curve {
		case elliptic.P256(), elliptic.P384(), elliptic.P521():
		default:
			v = append(v, Violation{"ecdsa-curve-not-allowed", fmt.Sprintf("ECDSA curve %s is not in {P-256,P-384,P-521}", pub.Curve.Params().Name)})
		}
	default:
		v = append(v, Violation{"unsupported-public-key", fmt.Sprintf("public key type %T is not permitted", pub)})
	}
	return v
}
