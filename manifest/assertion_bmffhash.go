package manifest

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/binary2"
	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

// BmffExclusion names a box by its slash-separated xpath (e.g. "meta/iloc")
// rather than a byte range, since BMFF boxes move when sibling boxes grow.
type BmffExclusion struct {
	XPath  string
	Length int64
}

type cborBmffExclusion struct {
	XPath  string `cbor:"xpath"`
	Length int64  `cbor:"length,omitempty"`
}

// BmffHashAssertion is the BMFF-native analogue of DataHashAssertion,
// addressing excluded regions by box xpath instead of byte offset. V2 uses
// label "c2pa.hash.bmff"; V3 ("c2pa.hash.bmff.v2", confusingly) adds merkle
// tree support, which is not modeled here.
type BmffHashAssertion struct {
	Version    int
	Algorithm  xcrypto.HashAlgorithm
	Exclusions []BmffExclusion
	Hash       []byte
}

type cborBmffHash struct {
	Alg        string              `cbor:"alg"`
	Exclusions []cborBmffExclusion `cbor:"exclusions,omitempty"`
	Hash       []byte              `cbor:"hash"`
}

func (a *BmffHashAssertion) AssertionLabel() string {
	if a.Version == 2 {
		return "c2pa.hash.bmff.v2"
	}
	return "c2pa.hash.bmff"
}

func (a *BmffHashAssertion) ContentBoxes() ([]jumbf.Box, error) {
	w := cborBmffHash{Alg: a.Algorithm.C2PAName(), Hash: a.Hash}
	for _, e := range a.Exclusions {
		w.Exclusions = append(w.Exclusions, cborBmffExclusion{XPath: e.XPath, Length: e.Length})
	}
	raw, err := cbor.Marshal(w)
	if err != nil {
		return nil, err
	}
	return []jumbf.Box{&jumbf.CBORBox{Raw: raw}}, nil
}

func decodeBmffHashAssertion(label string, sb *jumbf.SuperBox) (Assertion, error) {
	cb, err := soleCBORBox(sb)
	if err != nil {
		return nil, err
	}
	var w cborBmffHash
	if err := cbor.Unmarshal(cb.Raw, &w); err != nil {
		return nil, err
	}
	alg, err := xcrypto.ParseC2PAName(w.Alg)
	if err != nil {
		return nil, err
	}
	a := &BmffHashAssertion{Algorithm: alg, Hash: w.Hash}
	if label == "c2pa.hash.bmff.v2" {
		a.Version = 2
	}
	for _, e := range w.Exclusions {
		a.Exclusions = append(a.Exclusions, BmffExclusion{XPath: e.XPath, Length: e.Length})
	}
	return a, nil
}

// Validate digests raw (the full asset bytes) excluding the byte ranges
// resolve maps each xpath to, the BMFF analogue of DataHashAssertion's
// byte-range exclusion walk.
func (a *BmffHashAssertion) Validate(raw []byte, resolve func(xpath string) (start, length int64, err error)) error {
	d, err := xcrypto.NewDigester(a.Algorithm)
	if err != nil {
		return err
	}
	ranges := make([]resolvedRange, 0, len(a.Exclusions))
	for _, e := range a.Exclusions {
		start, length, err := resolve(e.XPath)
		if err != nil {
			return err
		}
		ranges = append(ranges, resolvedRange{start: start, length: length})
	}
	for i := 1; i < len(ranges); i++ {
		for j := i; j > 0 && ranges[j-1].start > ranges[j].start; j-- {
			ranges[j-1], ranges[j] = ranges[j], ranges[j-1]
		}
	}
	pos := int64(0)
	for _, r := range ranges {
		if pos < r.start {
			if _, err := d.Write(raw[pos:r.start]); err != nil {
				return err
			}
		}
		pos = r.start + r.length
	}
	if pos < int64(len(raw)) {
		if _, err := d.Write(raw[pos:]); err != nil {
			return err
		}
	}
	if !binary2.ConstantTimeEqual(d.Sum(), a.Hash) {
		return ErrAssertionBmffHashMismatch
	}
	return nil
}
