package cose

import (
	"crypto/rand"
	"crypto/x509"
	"errors"

	"github.com/trustnxt/c2pa-go/manifest"
	"github.com/trustnxt/c2pa-go/xcrypto"
	"github.com/veraison/go-cose"
)

var (
	ErrPaddingOverflow = errors.New("cose: signed manifest exceeds its pre-reserved JUMBF size even with zero padding")
	ErrPaddingMismatch = errors.New("cose: padded measurement does not match the unpadded measurement plus pad length")
)

// Sign produces a manifest.Signature over claimBytes (the claim's raw CBOR
// encoding), reserving exactly reserved bytes for the finished COSE_Sign1
// box.
//
// When tp is non-nil a v2 counter-signature timestamp is attached. Since
// C2PA's protected bucket carries sigTst2 alongside alg/x5chain, and the
// Signature1 computation covers the whole protected bucket, the timestamp
// must be known before the final signature is produced: a provisional
// signature (over the bucket without any timestamp) is computed first,
// timestamped, and then the real signature is produced over the bucket
// that now includes sigTst2. The provisional signature is discarded.
func Sign(claimBytes []byte, signer xcrypto.Signer, reserved int, tp TimestampProvider) (*manifest.Signature, error) {
	chain := derChain(signer.Chain())

	provisional := &manifest.Signature{
		Algorithm:         signer.Algorithm(),
		Certificate:       signer.Certificate().Raw,
		ChainCertificates: chain,
	}
	if err := provisional.EncodeProtectedBucket(); err != nil {
		return nil, err
	}
	provisionalSig, err := signOver(signer, provisional.RawProtectedBucket, claimBytes)
	if err != nil {
		return nil, err
	}

	sig := provisional
	if tp != nil {
		sig.SignatureBytes = provisionalSig
		token, err := timestampSignature(sig, claimBytes, tp, CounterSignatureV2)
		if err != nil {
			return nil, err
		}
		sig.TimestampTokens = append(sig.TimestampTokens, manifest.TimestampToken{Version: 2, Response: token})
		if err := sig.EncodeProtectedBucket(); err != nil {
			return nil, err
		}
		final, err := signOver(signer, sig.RawProtectedBucket, claimBytes)
		if err != nil {
			return nil, err
		}
		sig.SignatureBytes = final
	} else {
		sig.SignatureBytes = provisionalSig
	}

	if err := solvePadding(sig, reserved); err != nil {
		return nil, err
	}
	return sig, nil
}

// signOver builds the Signature1 Sig_structure over protected/payload and
// signs it with signer's underlying key via go-cose's per-algorithm Signer,
// which handles ECDSA's raw r||s encoding, RSA-PSS, and Ed25519 internally.
func signOver(signer xcrypto.Signer, protected, payload []byte) ([]byte, error) {
	tbs, err := buildSigStructure("Signature1", protected, nil, payload)
	if err != nil {
		return nil, err
	}
	coseSigner, err := cose.NewSigner(signer.Algorithm(), signer.Key())
	if err != nil {
		return nil, err
	}
	return coseSigner.Sign(rand.Reader, tbs)
}

// solvePadding measures sig unpadded, computes the pad length that brings
// it to reserved bytes, then re-measures to confirm the two agree — the
// two-pass discipline the padding field exists for.
func solvePadding(sig *manifest.Signature, reserved int) error {
	sig.PaddingLength = 0
	unpadded, err := sig.Encode()
	if err != nil {
		return err
	}
	if len(unpadded) > reserved {
		return ErrPaddingOverflow
	}
	sig.PaddingLength = reserved - len(unpadded)

	padded, err := sig.Encode()
	if err != nil {
		return err
	}
	if len(padded) != reserved {
		return ErrPaddingMismatch
	}
	return nil
}

// Verify checks a manifest.Signature's COSE signature over claimBytes. It
// trusts the certificate embedded in sig for the public key; chain and
// policy validation is the certpolicy package's job, run separately.
func Verify(sig *manifest.Signature, claimBytes []byte) error {
	cert, err := x509.ParseCertificate(sig.Certificate)
	if err != nil {
		return err
	}
	tbs, err := buildSigStructure("Signature1", sig.RawProtectedBucket, nil, claimBytes)
	if err != nil {
		return err
	}
	verifier, err := cose.NewVerifier(sig.Algorithm, cert.PublicKey)
	if err != nil {
		return err
	}
	return verifier.Verify(tbs, sig.SignatureBytes)
}

func derChain(chain []*x509.Certificate) [][]byte {
	out := make([][]byte, len(chain))
	for i, c := range chain {
		out[i] = c.Raw
	}
	return out
}
