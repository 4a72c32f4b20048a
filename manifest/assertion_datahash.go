package manifest

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/assets"
	"github.com/trustnxt/c2pa-go/binary2"
	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/xcrypto"
)

// Exclusion is one range skipped (or offset-marker-substituted) when
// computing a DataHashAssertion's digest over the asset.
type Exclusion struct {
	Start        int64
	Length       int64
	OffsetMarker bool
	Name         string
}

type cborExclusion struct {
	Start        int64  `cbor:"start"`
	Length       int64  `cbor:"length"`
	OffsetMarker bool   `cbor:"offset_marker,omitempty"`
	Name         string `cbor:"name,omitempty"`
}

// DataHashAssertion binds the claim to the bytes of the asset outside its
// own manifest storage: Hash is the digest of the asset with every range in
// Exclusions skipped (or, if OffsetMarker, replaced by an 8-byte big-endian
// position marker).
type DataHashAssertion struct {
	Algorithm  xcrypto.HashAlgorithm
	Exclusions []Exclusion
	Hash       []byte
	Pad        []byte
}

type cborDataHash struct {
	Alg        string          `cbor:"alg"`
	Exclusions []cborExclusion `cbor:"exclusions,omitempty"`
	Hash       []byte          `cbor:"hash"`
	Pad        []byte          `cbor:"pad,omitempty"`
}

func (a *DataHashAssertion) AssertionLabel() string { return "c2pa.hash.data" }

func (a *DataHashAssertion) ContentBoxes() ([]jumbf.Box, error) {
	w := cborDataHash{Alg: a.Algorithm.C2PAName(), Hash: a.Hash, Pad: a.Pad}
	for _, e := range a.Exclusions {
		w.Exclusions = append(w.Exclusions, cborExclusion{
			Start: e.Start, Length: e.Length, OffsetMarker: e.OffsetMarker, Name: e.Name,
		})
	}
	raw, err := cbor.Marshal(w)
	if err != nil {
		return nil, err
	}
	return []jumbf.Box{&jumbf.CBORBox{Raw: raw}}, nil
}

func decodeDataHashAssertion(sb *jumbf.SuperBox) (Assertion, error) {
	cb, err := soleCBORBox(sb)
	if err != nil {
		return nil, err
	}
	var w cborDataHash
	if err := cbor.Unmarshal(cb.Raw, &w); err != nil {
		return nil, err
	}
	alg, err := xcrypto.ParseC2PAName(w.Alg)
	if err != nil {
		return nil, err
	}
	a := &DataHashAssertion{Algorithm: alg, Hash: w.Hash, Pad: w.Pad}
	for _, e := range w.Exclusions {
		a.Exclusions = append(a.Exclusions, Exclusion{
			Start: e.Start, Length: e.Length, OffsetMarker: e.OffsetMarker, Name: e.Name,
		})
	}
	return a, nil
}

// Validate recomputes the digest of src with Exclusions applied and checks
// it against Hash.
func (a *DataHashAssertion) Validate(src assets.AssetSource) error {
	sum, err := digestExcluding(a.Algorithm, a.Exclusions, src)
	if err != nil {
		return err
	}
	if !binary2.ConstantTimeEqual(sum, a.Hash) {
		return ErrAssertionDataHashMismatch
	}
	return nil
}

// NewDataHashAssertion builds a DataHashAssertion by digesting src under alg
// with exclusions skipped (or offset-marker-substituted), the write-side
// counterpart to Validate: embedding computes the same digest Validate will
// later recompute and compare against.
func NewDataHashAssertion(alg xcrypto.HashAlgorithm, exclusions []Exclusion, src assets.AssetSource) (*DataHashAssertion, error) {
	sum, err := digestExcluding(alg, exclusions, src)
	if err != nil {
		return nil, err
	}
	return &DataHashAssertion{Algorithm: alg, Exclusions: exclusions, Hash: sum}, nil
}

func digestExcluding(alg xcrypto.HashAlgorithm, exclusions []Exclusion, src assets.AssetSource) ([]byte, error) {
	size, err := src.Size()
	if err != nil {
		return nil, err
	}
	d, err := xcrypto.NewDigester(alg)
	if err != nil {
		return nil, err
	}

	ranges := excludedRanges(exclusions, size)
	pos := int64(0)
	for _, r := range ranges {
		if pos < r.start {
			chunk, err := src.ReadRange(pos, r.start-pos)
			if err != nil {
				return nil, err
			}
			if _, err := d.Write(chunk); err != nil {
				return nil, err
			}
		}
		if r.offsetMarker {
			marker := make([]byte, 8)
			for i := 0; i < 8; i++ {
				marker[7-i] = byte(r.start >> (8 * i))
			}
			if _, err := d.Write(marker); err != nil {
				return nil, err
			}
		}
		pos = r.start + r.length
	}
	if pos < size {
		chunk, err := src.ReadRange(pos, size-pos)
		if err != nil {
			return nil, err
		}
		if _, err := d.Write(chunk); err != nil {
			return nil, err
		}
	}
	return d.Sum(), nil
}

type resolvedRange struct {
	start, length int64
	offsetMarker  bool
}

// excludedRanges sorts and clamps Exclusions against [0, size) so Validate
// can walk the asset in one linear pass.
func excludedRanges(exclusions []Exclusion, size int64) []resolvedRange {
	out := make([]resolvedRange, 0, len(exclusions))
	for _, e := range exclusions {
		start, length := e.Start, e.Length
		if start < 0 {
			start = 0
		}
		if start+length > size {
			length = size - start
		}
		if length <= 0 {
			continue
		}
		out = append(out, resolvedRange{start: start, length: length, offsetMarker: e.OffsetMarker})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].start > out[j].start; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
