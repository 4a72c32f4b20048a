package manifest

import (
	"errors"

	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

var (
	ErrNotAManifestStore    = errors.New("manifest: root box is not a C2PA manifest store")
	ErrManifestMissingClaim = errors.New("manifest: manifest has no c2pa.claim box")
	ErrManifestMissingSig   = errors.New("manifest: manifest has no c2pa.signature box")
)

// Manifest owns one claim, its assertions, and the signature over the
// claim. A ManifestStore holds one or more Manifests; exactly one is
// active.
type Manifest struct {
	Label      string
	Assertions []Assertion
	Claim      *Claim
	Signature  *Signature
}

// Read decodes a Manifest from its SuperBox: children are the assertion
// store (c2pa.assertions), the claim (c2pa.claim, a CBORBox), and the
// signature (c2pa.signature, a UUIDBox carrying COSE_Sign1).
func readManifest(sb *jumbf.SuperBox) (*Manifest, error) {
	m := &Manifest{Label: sb.Description.Label}

	if store := sb.FindByLabel(jumbf.LabelAssertionStore); store != nil {
		for _, c := range store.Children {
			asb, ok := c.(*jumbf.SuperBox)
			if !ok {
				continue
			}
			a, err := parseAssertion(asb)
			if err != nil {
				return nil, err
			}
			m.Assertions = append(m.Assertions, a)
		}
	}

	claimBox := sb.FindByLabel(jumbf.LabelClaim)
	if claimBox == nil {
		return nil, ErrManifestMissingClaim
	}
	cb, ok := claimBox.ContentBox().(*jumbf.CBORBox)
	if !ok {
		return nil, ErrManifestMissingClaim
	}
	claim, err := decodeClaim(cb.Raw)
	if err != nil {
		return nil, err
	}
	m.Claim = claim

	sigBox := sb.FindByLabel(jumbf.LabelSignature)
	if sigBox == nil {
		return nil, ErrManifestMissingSig
	}
	ub, ok := sigBox.ContentBox().(*jumbf.UUIDBox)
	if !ok || ub.UUID != jumbf.SignatureUUID {
		return nil, ErrManifestMissingSig
	}
	sig, err := DecodeSign1(ub.Raw)
	if err != nil {
		return nil, err
	}
	m.Signature = sig

	return m, nil
}

// GenerateJUMBFBox is the write-side dual of readManifest: it produces a
// SuperBox with the assertion store, claim, and signature children, in the
// same order readManifest expects to find them.
func (m *Manifest) GenerateJUMBFBox() (*jumbf.SuperBox, error) {
	assertionStore := &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{Label: jumbf.LabelAssertionStore, HasLabel: true},
	}
	for _, a := range m.Assertions {
		asb, err := assertionSuperBox(a)
		if err != nil {
			return nil, err
		}
		assertionStore.Children = append(assertionStore.Children, asb)
	}
	// Assign URIs against this manifest's own path so each assertion's
	// HashedURI below references the address it will actually carry once
	// the whole store is assembled and re-assigned from the root.
	assertionStore.AssignURIs("self#jumbf=" + m.Label)

	claimAssertions := make([]HashedURI, 0, len(assertionStore.Children))
	for _, c := range assertionStore.Children {
		asb, ok := c.(*jumbf.SuperBox)
		if !ok {
			continue
		}
		digest, err := assertionDigest(asb, func(b []byte) ([]byte, error) {
			return xcrypto.Digest(m.Claim.DefaultHashAlgorithm, b)
		})
		if err != nil {
			return nil, err
		}
		claimAssertions = append(claimAssertions, HashedURI{
			URI: asb.URI, Algorithm: m.Claim.DefaultHashAlgorithm, Hash: digest,
		})
	}
	m.Claim.Assertions = claimAssertions

	claimBytes, err := m.Claim.Encode()
	if err != nil {
		return nil, err
	}
	claimBox := &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{Label: jumbf.LabelClaim, HasLabel: true},
		Children:    []jumbf.Box{&jumbf.CBORBox{Raw: claimBytes}},
	}

	sigBytes, err := m.Signature.Encode()
	if err != nil {
		return nil, err
	}
	sigBox := &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{Label: jumbf.LabelSignature, HasLabel: true},
		Children:    []jumbf.Box{&jumbf.UUIDBox{UUID: jumbf.SignatureUUID, Raw: sigBytes}},
	}

	return &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{UUID: jumbf.ManifestUUID, Label: m.Label, HasLabel: true},
		Children:    []jumbf.Box{assertionStore, claimBox, sigBox},
	}, nil
}

// assertionDigest computes the HashedURI digest of an assertion's outer
// SuperBox: the bytes following the SuperBox header, per the convention
// every assertion hash in a claim is computed under.
func assertionDigest(sb *jumbf.SuperBox, alg func([]byte) ([]byte, error)) ([]byte, error) {
	full := sb.Serialize()
	return alg(full[8:])
}
