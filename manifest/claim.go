package manifest

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

var (
	ErrUnsupportedClaimVersion = errors.New("manifest: claim version must be 1 or 2")
	ErrClaimMissingSignature   = errors.New("manifest: version-2 claim must carry a signature HashedURI")
)

// Claim is the manifest's central assertion-binding record: its raw CBOR
// encoding is the COSE_Sign1 payload that Signature signs over.
type Claim struct {
	Version              int
	Format               string
	InstanceID            string
	DefaultHashAlgorithm xcrypto.HashAlgorithm
	Assertions           []HashedURI
	SignatureRef         string     // version 1: plain URI to the c2pa.signature box
	SignatureHash        *HashedURI // version 2: hashed reference to the same box
	Redactions           []string
	Generator            string
	GeneratorInfo        string

	// rawBytes is the exact CBOR encoding this Claim was decoded from, if
	// any. The COSE signature over a manifest covers these literal bytes,
	// not a re-derived encoding of the Go struct, so RawBytes (rather than
	// re-calling Encode) is what signature verification must use.
	rawBytes []byte
}

// RawBytes returns the exact CBOR bytes this Claim was decoded from, or nil
// for a Claim built in memory that has not yet been encoded.
func (c *Claim) RawBytes() []byte { return c.rawBytes }

type cborClaim struct {
	Version              int         `cbor:"version"`
	Format               string      `cbor:"format"`
	InstanceID           string      `cbor:"instance_id"`
	DefaultHashAlgorithm string      `cbor:"default_hash_algorithm"`
	Assertions           []HashedURI `cbor:"assertions"`
	SignatureRef         string      `cbor:"signature_ref,omitempty"`
	SignatureHash        *HashedURI  `cbor:"signature,omitempty"`
	Redactions           []string    `cbor:"redactions,omitempty"`
	Generator            string      `cbor:"generator"`
	GeneratorInfo        string      `cbor:"generator_info,omitempty"`
}

// Validate checks the version-dependent invariants: version ∈ {1,2}, and a
// version-2 claim must carry a signature HashedURI rather than a bare ref.
func (c *Claim) Validate() error {
	if c.Version != 1 && c.Version != 2 {
		return ErrUnsupportedClaimVersion
	}
	if c.Version == 2 && c.SignatureHash == nil {
		return ErrClaimMissingSignature
	}
	return nil
}

// Encode produces the deterministic CBOR bytes that serve as the
// COSE_Sign1 payload. Callers must call Validate first.
func (c *Claim) Encode() ([]byte, error) {
	w := cborClaim{
		Version:              c.Version,
		Format:               c.Format,
		InstanceID:           c.InstanceID,
		DefaultHashAlgorithm: c.DefaultHashAlgorithm.C2PAName(),
		Assertions:           c.Assertions,
		SignatureRef:         c.SignatureRef,
		SignatureHash:        c.SignatureHash,
		Redactions:           c.Redactions,
		Generator:            c.Generator,
		GeneratorInfo:        c.GeneratorInfo,
	}
	return cbor.Marshal(w)
}

// decodeClaim parses raw CBOR claim bytes (the c2pa.claim CBORBox content).
func decodeClaim(raw []byte) (*Claim, error) {
	var w cborClaim
	if err := cbor.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	alg, err := xcrypto.ParseC2PAName(w.DefaultHashAlgorithm)
	if err != nil {
		return nil, err
	}
	c := &Claim{
		Version:              w.Version,
		Format:               w.Format,
		InstanceID:           w.InstanceID,
		DefaultHashAlgorithm: alg,
		Assertions:           w.Assertions,
		SignatureRef:         w.SignatureRef,
		SignatureHash:        w.SignatureHash,
		Redactions:           w.Redactions,
		Generator:            w.Generator,
		GeneratorInfo:        w.GeneratorInfo,
		rawBytes:             raw,
	}
	return c, c.Validate()
}
