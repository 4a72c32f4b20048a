// Package manifest implements the C2PA manifest object model: the claim,
// its assertions, the manifest store that owns them, and the HashedURI
// cross-reference graph that binds them together.
package manifest

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/binary2"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

var (
	ErrHashedURIMismatch = errors.New("manifest: HashedURI digest does not match resolved box")
	ErrURINotFound       = errors.New("manifest: URI does not resolve to any box in the store")
)

// HashedURI is a value-type self-reference inside a manifest: resolving
// URI yields a box whose raw bytes must digest to Hash under Algorithm.
// Stored by value everywhere to avoid a cyclic pointer graph between boxes.
type HashedURI struct {
	URI       string
	Algorithm xcrypto.HashAlgorithm
	Hash      []byte
}

// cborHashedURI is the wire shape: C2PA encodes the algorithm as its
// lowercase short form and omits it when it matches the claim default.
type cborHashedURI struct {
	URL       string `cbor:"url"`
	Hash      []byte `cbor:"hash"`
	Algorithm string `cbor:"alg,omitempty"`
}

// MarshalCBOR encodes h using the claim default algorithm's short form only
// when it differs from defaultAlg; callers needing claim-relative encoding
// should use EncodeWithDefault instead of relying on cbor.Marshal directly.
func (h HashedURI) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cborHashedURI{
		URL:       h.URI,
		Hash:      h.Hash,
		Algorithm: h.Algorithm.C2PAName(),
	})
}

func (h *HashedURI) UnmarshalCBOR(data []byte) error {
	var w cborHashedURI
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	h.URI = w.URL
	h.Hash = w.Hash
	if w.Algorithm != "" {
		alg, err := xcrypto.ParseC2PAName(w.Algorithm)
		if err != nil {
			return err
		}
		h.Algorithm = alg
	}
	return nil
}

// Verify resolves h.URI in store and checks that the resolved box's raw
// bytes digest to h.Hash under h.Algorithm.
func (h HashedURI) Verify(store *ManifestStore) error {
	raw, err := store.ResolveRaw(h.URI)
	if err != nil {
		return err
	}
	return h.VerifyBytes(raw)
}

// VerifyBytes checks that raw digests to h.Hash under h.Algorithm, without
// resolving h.URI against a store. Used for references such as
// Claim.SignatureHash, which commit to material (the signature's protected
// bucket) that never appears in the store as its own addressable box.
func (h HashedURI) VerifyBytes(raw []byte) error {
	digest, err := xcrypto.Digest(h.Algorithm, raw)
	if err != nil {
		return err
	}
	if !binary2.ConstantTimeEqual(digest, h.Hash) {
		return ErrHashedURIMismatch
	}
	return nil
}
