package manifest

import (
	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/xcrypto"
	"github.com/veraison/go-cose"
)

// ManifestBuilderConfig is the recognized configuration for assembling a new
// Claim: the caller-supplied material that determines its fields, as opposed
// to what GenerateJUMBFBox derives on its own (assertion URIs, digests).
type ManifestBuilderConfig struct {
	// AssetFormat is the asset's MIME type, written to Claim.Format.
	AssetFormat string
	// InstanceID is written to Claim.InstanceID; NewInstanceID() is used
	// if left empty.
	InstanceID string
	// DefaultHashAlgorithm is used for every hashed reference the claim
	// records; defaults to xcrypto.SHA256.
	DefaultHashAlgorithm xcrypto.HashAlgorithm
	// ClaimVersion selects the claim field layout and ingredient version
	// (1 or 2); defaults to 1.
	ClaimVersion int
	// Generator identifies the software that produced the claim.
	Generator string
	// Label is the manifest's own box label; defaults to "c2pa.manifest".
	Label string

	// SignatureAlgorithm, Certificate, and ChainCertificates describe the
	// signer that will produce the claim's signature. A version-2 claim
	// commits to this material through Claim.SignatureHash before the
	// detached signature bytes exist, so it must be supplied up front
	// rather than only at Finalize.
	SignatureAlgorithm cose.Algorithm
	Certificate        []byte
	ChainCertificates  [][]byte
}

// Builder assembles a Manifest from a ManifestBuilderConfig and a set of
// assertions in two steps, mirroring how GenerateJUMBFBox itself requires a
// Signature to already be present while only populating Claim.Assertions as
// a side effect: ClaimBytes produces the bytes a Signer must sign, and
// Finalize takes the resulting detached signature bytes to produce the
// final box.
type Builder struct {
	cfg ManifestBuilderConfig
	m   *Manifest
}

// NewBuilder applies cfg's defaults and returns a Builder ready to accept
// assertions.
func NewBuilder(cfg ManifestBuilderConfig) *Builder {
	if cfg.InstanceID == "" {
		cfg.InstanceID = NewInstanceID()
	}
	if cfg.DefaultHashAlgorithm == xcrypto.HashAlgorithmUnknown {
		cfg.DefaultHashAlgorithm = xcrypto.SHA256
	}
	if cfg.ClaimVersion == 0 {
		cfg.ClaimVersion = 1
	}
	if cfg.Label == "" {
		cfg.Label = "c2pa.manifest"
	}
	return &Builder{cfg: cfg}
}

// ClaimBytes assembles the Manifest's signature (protected bucket only),
// claim, and assertion store, runs GenerateJUMBFBox once to populate
// Claim.Assertions, and returns the claim's raw CBOR encoding for a Signer
// to sign.
//
// A version-1 claim references the signature box by its plain URI
// (SignatureRef). A version-2 claim instead carries SignatureHash, a digest
// of the signature's protected bucket (algorithm, certificate chain, and
// any timestamp tokens) — the only part of the signature box fixed before
// the detached signature bytes exist. This mirrors COSE_Sign1 itself: the
// Sig_structure a signer signs over commits to the protected header, never
// to its own signature value, so hashing the protected bucket is the only
// non-circular choice of "signature box" reference a claim can carry.
func (b *Builder) ClaimBytes(assertions []Assertion) ([]byte, error) {
	sig := &Signature{
		Algorithm:         b.cfg.SignatureAlgorithm,
		Certificate:       b.cfg.Certificate,
		ChainCertificates: b.cfg.ChainCertificates,
	}
	if err := sig.EncodeProtectedBucket(); err != nil {
		return nil, err
	}

	claim := &Claim{
		Version:              b.cfg.ClaimVersion,
		Format:               b.cfg.AssetFormat,
		InstanceID:           b.cfg.InstanceID,
		DefaultHashAlgorithm: b.cfg.DefaultHashAlgorithm,
		Generator:            b.cfg.Generator,
	}

	sigURI := "self#jumbf=" + b.cfg.Label + "/" + jumbf.LabelSignature
	if b.cfg.ClaimVersion == 2 {
		digest, err := xcrypto.Digest(b.cfg.DefaultHashAlgorithm, sig.RawProtectedBucket)
		if err != nil {
			return nil, err
		}
		claim.SignatureHash = &HashedURI{URI: sigURI, Algorithm: b.cfg.DefaultHashAlgorithm, Hash: digest}
	} else {
		claim.SignatureRef = sigURI
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	b.m = &Manifest{
		Label:      b.cfg.Label,
		Assertions: assertions,
		Claim:      claim,
		Signature:  sig,
	}
	store := &ManifestStore{Manifests: []*Manifest{b.m}}
	if _, err := store.GenerateJUMBFBox(); err != nil {
		return nil, err
	}
	return b.m.Claim.Encode()
}

// Finalize assigns signatureBytes as the manifest's detached COSE signature
// and regenerates the JUMBF box carrying the finished COSE_Sign1. The
// protected bucket ClaimBytes already built (and any SignatureHash derived
// from it) is unaffected, since signatureBytes is appended alongside it,
// not folded into it.
func (b *Builder) Finalize(signatureBytes []byte) (*jumbf.SuperBox, error) {
	b.m.Signature.SignatureBytes = signatureBytes
	if err := b.m.Claim.Validate(); err != nil {
		return nil, err
	}
	store := &ManifestStore{Manifests: []*Manifest{b.m}}
	return store.GenerateJUMBFBox()
}
