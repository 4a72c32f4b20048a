package manifest

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

var ErrMalformedCOSESign1 = errors.New("manifest: signature box is not a well-formed COSE_Sign1 4-tuple")

// TimestampToken is one RFC 3161 response attached to a Signature's
// protected bucket (sigTst for v1 counter-signatures, sigTst2 for v2).
type TimestampToken struct {
	Version  int // 1 or 2
	Response []byte
}

// Signature is the manifest's COSE_Sign1 envelope, stored as a UUID-labeled
// JUMBF box: the 4-tuple [protected_bucket_bytes, unprotected_bucket_map,
// external_aad_or_null, signature_bytes].
type Signature struct {
	Algorithm           cose.Algorithm
	Certificate         []byte   // leaf DER
	ChainCertificates   [][]byte // DER, leaf-exclusive
	RawProtectedBucket  []byte
	SignatureBytes      []byte
	TimestampTokens     []TimestampToken
	PaddingLength       int
}

// protectedBucket is the CBOR map inside RawProtectedBucket: integer keys 1
// (algorithm), 33 (x5chain), and the timestamp container keys.
type protectedBucket struct {
	Algorithm int      `cbor:"1,keyasint"`
	X5Chain   [][]byte `cbor:"33,keyasint"`
	SigTst    []byte   `cbor:"sigTst,omitempty"`
	SigTst2   []byte   `cbor:"sigTst2,omitempty"`
}

// unprotectedBucket carries only the padding C2PA uses to make the
// enclosing JUMBF box exactly the pre-reserved size.
type unprotectedBucket struct {
	Pad []byte `cbor:"pad,omitempty"`
}

// sign1Tuple is the raw 4-element COSE_Sign1 array.
type sign1Tuple struct {
	_            struct{} `cbor:",toarray"`
	Protected    []byte
	Unprotected  unprotectedBucket
	ExternalAAD  []byte
	SignatureVal []byte
}

// DecodeSign1 parses the COSE_Sign1 4-tuple out of a UUID box's raw bytes
// (the bytes following the 16-byte C2PA credentials UUID).
func DecodeSign1(raw []byte) (*Signature, error) {
	var tuple sign1Tuple
	if err := cbor.Unmarshal(raw, &tuple); err != nil {
		return nil, ErrMalformedCOSESign1
	}
	var pb protectedBucket
	if err := cbor.Unmarshal(tuple.Protected, &pb); err != nil {
		return nil, ErrMalformedCOSESign1
	}
	if len(pb.X5Chain) == 0 {
		return nil, ErrMalformedCOSESign1
	}

	sig := &Signature{
		Algorithm:          cose.Algorithm(pb.Algorithm),
		Certificate:        pb.X5Chain[0],
		ChainCertificates:  pb.X5Chain[1:],
		RawProtectedBucket: tuple.Protected,
		SignatureBytes:     tuple.SignatureVal,
		PaddingLength:      len(tuple.Unprotected.Pad),
	}
	if len(pb.SigTst) > 0 {
		sig.TimestampTokens = append(sig.TimestampTokens, TimestampToken{Version: 1, Response: pb.SigTst})
	}
	if len(pb.SigTst2) > 0 {
		sig.TimestampTokens = append(sig.TimestampTokens, TimestampToken{Version: 2, Response: pb.SigTst2})
	}
	return sig, nil
}

// Encode serializes the Signature back into the COSE_Sign1 4-tuple bytes.
func (s *Signature) Encode() ([]byte, error) {
	pad := make([]byte, s.PaddingLength)
	tuple := sign1Tuple{
		Protected:    s.RawProtectedBucket,
		Unprotected:  unprotectedBucket{Pad: pad},
		SignatureVal: s.SignatureBytes,
	}
	return cbor.Marshal(tuple)
}

// EncodeProtectedBucket builds RawProtectedBucket from the Signature's
// algorithm, certificate chain, and timestamp tokens. Callers building a
// new Signature call this before Encode.
func (s *Signature) EncodeProtectedBucket() error {
	pb := protectedBucket{
		Algorithm: int(s.Algorithm),
		X5Chain:   append([][]byte{s.Certificate}, s.ChainCertificates...),
	}
	for _, t := range s.TimestampTokens {
		switch t.Version {
		case 1:
			pb.SigTst = t.Response
		case 2:
			pb.SigTst2 = t.Response
		}
	}
	raw, err := cbor.Marshal(pb)
	if err != nil {
		return err
	}
	s.RawProtectedBucket = raw
	return nil
}
