package cose

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/manifest"
	"github.com/trustnxt/c2pa-go/xcrypto"
	"github.com/veraison/go-cose"
)

// CounterSignatureVersion selects which field (sigTst or sigTst2) a
// timestamp token is stored under and what its SigStructure payload is.
type CounterSignatureVersion int

const (
	// CounterSignatureV1 timestamps the claim bytes directly.
	CounterSignatureV1 CounterSignatureVersion = 1
	// CounterSignatureV2 timestamps the CBOR-encoded COSE signature bytes.
	// Only one timestamp token is permitted per C2PA v2.1, and Sign always
	// produces a v2 token; v1 remains for reading and for direct callers
	// that need it.
	CounterSignatureV2 CounterSignatureVersion = 2
)

// TimestampProvider is the external RFC 3161 TSA collaborator: given a
// message-imprint digest and the hash algorithm it was computed under, it
// returns the raw bytes of a TimeStampResp token.
type TimestampProvider interface {
	Timestamp(digest []byte, alg xcrypto.HashAlgorithm) ([]byte, error)
}

// AttachTimestamp requests a timestamp token over sig (for v2: the CBOR
// encoding of sig.SignatureBytes) or claimBytes (for v1), and appends the
// returned token to sig.TimestampTokens. Callers that also need the
// protected bucket re-encoded and the signature re-computed over it (as
// Sign does) must do so themselves afterward.
func AttachTimestamp(sig *manifest.Signature, claimBytes []byte, tp TimestampProvider, v CounterSignatureVersion) error {
	token, err := timestampSignature(sig, claimBytes, tp, v)
	if err != nil {
		return err
	}
	sig.TimestampTokens = append(sig.TimestampTokens, manifest.TimestampToken{Version: int(v), Response: token})
	return nil
}

func timestampSignature(sig *manifest.Signature, claimBytes []byte, tp TimestampProvider, v CounterSignatureVersion) ([]byte, error) {
	digest, alg, err := CounterSignatureDigest(sig, claimBytes, v)
	if err != nil {
		return nil, err
	}
	return tp.Timestamp(digest, alg)
}

// CounterSignatureDigest computes the message-imprint digest a timestamp
// token over sig must attest to: the digest, under sig.Algorithm's
// conventional hash, of the CounterSignature Sig_structure wrapping either
// the claim bytes (v1) or the CBOR encoding of sig.SignatureBytes (v2).
// Exported so verification code can recompute the same digest a token is
// checked against without duplicating the Sig_structure construction.
func CounterSignatureDigest(sig *manifest.Signature, claimBytes []byte, v CounterSignatureVersion) ([]byte, xcrypto.HashAlgorithm, error) {
	var payload []byte
	var err error
	switch v {
	case CounterSignatureV1:
		payload = claimBytes
	default:
		payload, err = cbor.Marshal(sig.SignatureBytes)
		if err != nil {
			return nil, 0, err
		}
	}

	tbs, err := buildSigStructure("CounterSignature", sig.RawProtectedBucket, nil, payload)
	if err != nil {
		return nil, 0, err
	}

	alg := hashAlgorithmForAlgorithm(sig.Algorithm)
	digest, err := xcrypto.Digest(alg, tbs)
	if err != nil {
		return nil, 0, err
	}
	return digest, alg, nil
}

// hashAlgorithmForAlgorithm maps a COSE signing algorithm to the hash it
// conventionally pairs with, for digesting the CounterSignature structure
// sent to the TSA.
func hashAlgorithmForAlgorithm(alg cose.Algorithm) xcrypto.HashAlgorithm {
	switch alg {
	case cose.AlgorithmES384, cose.AlgorithmPS384:
		return xcrypto.SHA384
	case cose.AlgorithmES512, cose.AlgorithmPS512:
		return xcrypto.SHA512
	default:
		return xcrypto.SHA256
	}
}
