// Package validate runs the ordered, never-short-circuiting validation
// pipeline over a parsed ManifestStore and the asset it came from, producing
// a stable-ordered, aggregated Result.
package validate

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/assets/bmff"
	"github.com/trustnxt/c2pa-go/certpolicy"
	"github.com/trustnxt/c2pa-go/cose"
	"github.com/trustnxt/c2pa-go/manifest"
	"github.com/trustnxt/c2pa-go/timestamp"
	"go.uber.org/zap"
)

// StatusCode identifies the kind of check a StatusEntry reports on.
type StatusCode string

const (
	ClaimSignatureValidated StatusCode = "ClaimSignatureValidated"
	ClaimSignatureMismatch  StatusCode = "ClaimSignatureMismatch"

	SigningCredentialTrusted StatusCode = "SigningCredentialTrusted"
	SigningCredentialInvalid StatusCode = "SigningCredentialInvalid"
	SigningCredentialExpired StatusCode = "SigningCredentialExpired"

	AssertionHashedURIMatch    StatusCode = "AssertionHashedURIMatch"
	AssertionHashedURIMismatch StatusCode = "AssertionHashedURIMismatch"

	AssertionDataHashMatch    StatusCode = "AssertionDataHashMatch"
	AssertionDataHashMismatch StatusCode = "AssertionDataHashMismatch"

	AssertionBMFFHashMatch    StatusCode = "AssertionBMFFHashMatch"
	AssertionBMFFHashMismatch StatusCode = "AssertionBMFFHashMismatch"

	AssertionActionIngredientMismatch StatusCode = "AssertionActionIngredientMismatch"

	TimeStampTrusted        StatusCode = "TimeStampTrusted"
	TimeStampMismatch       StatusCode = "TimeStampMismatch"
	TimeStampMalformed      StatusCode = "TimeStampMalformed"
	TimeStampOutsideValidity StatusCode = "TimeStampOutsideValidity"
)

// StatusEntry is one emitted check result.
type StatusEntry struct {
	Code        StatusCode
	URL         string
	Success     bool
	Explanation string
}

// Result is the ordered, aggregated outcome of a pipeline run.
type Result struct {
	Entries []StatusEntry
}

// IsValid reports whether every entry succeeded.
func (r *Result) IsValid() bool {
	for _, e := range r.Entries {
		if !e.Success {
			return false
		}
	}
	return true
}

func (r *Result) pass(code StatusCode, url string) {
	r.Entries = append(r.Entries, StatusEntry{Code: code, URL: url, Success: true})
}

func (r *Result) fail(code StatusCode, url, explanation string) {
	r.Entries = append(r.Entries, StatusEntry{Code: code, URL: url, Success: false, Explanation: explanation})
}

// Pipeline runs the validation checks. The zero value is ready to use; Now
// defaults to time.Now, ChainPolicy to certpolicy.CheckCertificate, Logger
// to zap.NewNop(). Every failed check is recoverable (the pipeline always
// runs the rest and returns an aggregated Result rather than an error), so
// it is logged at Warn rather than treated as a hard failure.
type Pipeline struct {
	Now         func() time.Time
	ChainPolicy timestamp.ChainPolicy
	Logger      *zap.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) chainPolicy() timestamp.ChainPolicy {
	if p.ChainPolicy != nil {
		return p.ChainPolicy
	}
	return certpolicy.CheckCertificate
}

// ValidationOptions is the recognized configuration for a Pipeline: passed
// by value to NewPipeline, mirroring how ManifestBuilderConfig configures a
// manifest.Builder on the write side.
type ValidationOptions struct {
	// Now overrides the current time used to evaluate certificate and
	// timestamp validity; defaults to time.Now.
	Now func() time.Time
	// ChainPolicy overrides the certificate chain policy used to trust a
	// timestamp's TSA certificate; defaults to certpolicy.CheckCertificate.
	ChainPolicy timestamp.ChainPolicy
	// Logger receives a Warn entry for every recoverable check failure;
	// defaults to zap.NewNop().
	Logger *zap.Logger
}

// NewPipeline builds a Pipeline from opts.
func NewPipeline(opts ValidationOptions) *Pipeline {
	return &Pipeline{Now: opts.Now, ChainPolicy: opts.ChainPolicy, Logger: opts.Logger}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

// fail records a failed check on r and logs it at Warn: every check this
// pipeline runs is recoverable by construction (ValidateManifest always
// continues to the remaining checks), so a failure here is noteworthy, not
// fatal.
func (p *Pipeline) fail(r *Result, code StatusCode, url, explanation string) {
	r.fail(code, url, explanation)
	p.logger().Warn("validation check failed",
		zap.String("code", string(code)),
		zap.String("url", url),
		zap.String("reason", explanation),
	)
}

// Validate runs every check against store's active manifest and src, the
// asset the manifest is embedded in, in the fixed order: HashedURI
// resolution, data-hash, BMFF-hash, timestamp, certificate policy, COSE
// signature, then aggregates. It never stops early; a missing or malformed
// signature only skips the COSE verification step itself.
func (p *Pipeline) Validate(store *manifest.ManifestStore, src assets.AssetSource) (*Result, error) {
	m, err := store.Active("")
	if err != nil {
		return nil, err
	}
	return p.ValidateManifest(store, m, src)
}

// ValidateManifest runs the pipeline against a specific manifest in store,
// for callers validating a non-active manifest in a multi-manifest store.
func (p *Pipeline) ValidateManifest(store *manifest.ManifestStore, m *manifest.Manifest, src assets.AssetSource) (*Result, error) {
	r := &Result{}

	p.checkHashedURIs(r, store, m)
	p.checkDataHash(r, m, src)

	rawAsset, err := assets.ReadAll(src)
	if err != nil {
		return nil, err
	}
	p.checkBMFFHash(r, m, rawAsset)

	claimBytes := m.Claim.RawBytes()
	attested, attestedOK := p.checkTimestamp(r, m, claimBytes)
	p.checkCertificatePolicy(r, m, attested, attestedOK)
	p.checkSignature(r, m, claimBytes)

	return r, nil
}

func (p *Pipeline) checkHashedURIs(r *Result, store *manifest.ManifestStore, m *manifest.Manifest) {
	check := func(h manifest.HashedURI) {
		if err := h.Verify(store); err != nil {
			p.fail(r, AssertionHashedURIMismatch, h.URI, err.Error())
			return
		}
		r.pass(AssertionHashedURIMatch, h.URI)
	}

	for _, h := range m.Claim.Assertions {
		check(h)
	}
	if h := m.Claim.SignatureHash; h != nil {
		// SignatureHash commits to the signature's protected bucket, not to
		// the final signature box: the detached signature bytes did not
		// exist yet when the claim was signed, so the box itself was never
		// a valid hash target. Check against the protected bucket directly
		// instead of resolving h.URI through the store.
		if m.Signature == nil || len(m.Signature.RawProtectedBucket) == 0 {
			p.fail(r, AssertionHashedURIMismatch, h.URI, "signature box has no protected bucket to verify against")
		} else if err := h.VerifyBytes(m.Signature.RawProtectedBucket); err != nil {
			p.fail(r, AssertionHashedURIMismatch, h.URI, err.Error())
		} else {
			r.pass(AssertionHashedURIMatch, h.URI)
		}
	}

	for _, a := range m.Assertions {
		ing, ok := a.(*manifest.IngredientAssertion)
		if !ok {
			continue
		}
		if ing.ActiveManifest != nil {
			check(*ing.ActiveManifest)
		}
		if ing.Data != nil {
			check(*ing.Data)
		}
	}
}

func (p *Pipeline) checkDataHash(r *Result, m *manifest.Manifest, src assets.AssetSource) {
	for _, a := range m.Assertions {
		dh, ok := a.(*manifest.DataHashAssertion)
		if !ok {
			continue
		}
		url := dh.AssertionLabel()
		if err := dh.Validate(src); err != nil {
			p.fail(r, AssertionDataHashMismatch, url, err.Error())
			continue
		}
		r.pass(AssertionDataHashMatch, url)
	}
}

func (p *Pipeline) checkBMFFHash(r *Result, m *manifest.Manifest, rawAsset []byte) {
	for _, a := range m.Assertions {
		bh, ok := a.(*manifest.BmffHashAssertion)
		if !ok {
			continue
		}
		url := bh.AssertionLabel()
		err := bh.Validate(rawAsset, func(xpath string) (int64, int64, error) {
			return bmff.ResolveXPath(rawAsset, xpath)
		})
		if err != nil {
			p.fail(r, AssertionBMFFHashMismatch, url, err.Error())
			continue
		}
		r.pass(AssertionBMFFHashMatch, url)
	}
}

// checkTimestamp verifies the manifest's most recent timestamp token against
// the claim's COSE counter-signature digest and, on success, returns the
// token's attested time for checkCertificatePolicy to evaluate certificate
// validity against. ok is false whenever no attested time can be trusted —
// either no token is present or it failed to parse or verify — in which
// case the caller must fall back to the pipeline's current time rather than
// an unauthenticated genTime.
func (p *Pipeline) checkTimestamp(r *Result, m *manifest.Manifest, claimBytes []byte) (attested time.Time, ok bool) {
	sig := m.Signature
	if sig == nil || len(sig.TimestampTokens) == 0 {
		return time.Time{}, false
	}
	tok := sig.TimestampTokens[len(sig.TimestampTokens)-1]
	v := cose.CounterSignatureVersion(tok.Version)

	digest, alg, err := cose.CounterSignatureDigest(sig, claimBytes, v)
	if err != nil {
		p.fail(r, TimeStampMalformed, "timestamp", err.Error())
		return time.Time{}, false
	}

	token, err := timestamp.Parse(tok.Response)
	if err != nil {
		p.fail(r, TimeStampMalformed, "timestamp", err.Error())
		return time.Time{}, false
	}

	if err := token.Verify(digest, alg.GoHash(), p.chainPolicy()); err != nil {
		p.fail(r, TimeStampMismatch, "timestamp", err.Error())
		return time.Time{}, false
	}
	r.pass(TimeStampTrusted, "timestamp")
	return token.Info.Time, true
}

func (p *Pipeline) checkCertificatePolicy(r *Result, m *manifest.Manifest, attested time.Time, attestedOK bool) {
	sig := m.Signature
	if sig == nil {
		p.fail(r, SigningCredentialInvalid, "signature", "manifest has no signature")
		return
	}
	cert, err := x509.ParseCertificate(sig.Certificate)
	if err != nil {
		p.fail(r, SigningCredentialInvalid, "signature", fmt.Sprintf("certificate does not parse: %v", err))
		return
	}

	// Only a timestamp checkTimestamp already verified may override the
	// current time; an unverified genTime is attacker-controlled and must
	// never decide whether a certificate looks valid.
	at := p.now()
	if attestedOK {
		at = attested
	}
	violations := certpolicy.CheckCertificate(cert, certpolicy.ManifestSigning, at)
	if len(violations) == 0 {
		r.pass(SigningCredentialTrusted, "signature")
		return
	}
	for _, v := range violations {
		if v.Code == "validity-expired" {
			p.fail(r, SigningCredentialExpired, "signature", v.Message)
			continue
		}
		p.fail(r, SigningCredentialInvalid, "signature", v.Message)
	}
}

func (p *Pipeline) checkSignature(r *Result, m *manifest.Manifest, claimBytes []byte) {
	sig := m.Signature
	if sig == nil {
		// Already reported by checkCertificatePolicy; signature evaluation
		// has nothing to run against.
		return
	}
	if _, err := x509.ParseCertificate(sig.Certificate); err != nil {
		// Malformed certificate: skip COSE verification, per the pipeline's
		// rule that only a malformed/missing signature skips this step.
		p.fail(r, ClaimSignatureMismatch, "signature", "certificate malformed, signature not evaluated")
		return
	}
	if err := cose.Verify(sig, claimBytes); err != nil {
		p.fail(r, ClaimSignatureMismatch, "signature", err.Error())
		return
	}
	r.pass(ClaimSignatureValidated, "signature")
}
