package jumbf

import (
	"github.com/fxamacker/cbor/v2"
)

// CBORBox carries a CBOR-encoded content box (e.g. a Claim or an assertion
// body). It is tag-aware: if the outermost value is CBOR tagged, the tag is
// preserved across parse/serialize round-trips.
type CBORBox struct {
	Tag    uint64
	HasTag bool
	Raw    cbor.RawMessage
}

func (b *CBORBox) BoxType() Type { return TypeCBORBox }

func (b *CBORBox) content() []byte {
	if !b.HasTag {
		return b.Raw
	}
	enc, _ := cbor.Marshal(cbor.Tag{Number: b.Tag, Content: cbor.RawMessage(b.Raw)})
	return enc
}

func (b *CBORBox) Measure() int { return len(b.content()) + 8 }

func (b *CBORBox) Serialize() []byte {
	content := b.content()
	return append(header(TypeCBORBox, len(content)), content...)
}

func parseCBORBox(content []byte) (*CBORBox, error) {
	var tag cbor.Tag
	if err := cbor.Unmarshal(content, &tag); err == nil {
		inner, err := cbor.Marshal(tag.Content)
		if err != nil {
			return nil, malformed("cbor box: re-encoding tagged content: %v", err)
		}
		return &CBORBox{Tag: tag.Number, HasTag: true, Raw: inner}, nil
	}
	// Not a tagged value (or not decodable as one): store verbatim.
	var probe cbor.RawMessage
	if err := cbor.Unmarshal(content, &probe); err != nil {
		return nil, malformed("cbor box: %v", err)
	}
	return &CBORBox{Raw: append(cbor.RawMessage(nil), content...)}, nil
}

// JSONBox carries a JSON content box (used for some assertion variants that
// predate or coexist with CBOR assertions).
type JSONBox struct {
	Raw []byte
}

func (b *JSONBox) BoxType() Type { return TypeJSONBox }
func (b *JSONBox) Measure() int  { return len(b.Raw) + 8 }
func (b *JSONBox) Serialize() []byte {
	return append(header(TypeJSONBox, len(b.Raw)), b.Raw...)
}

func parseJSONBox(content []byte) (*JSONBox, error) {
	return &JSONBox{Raw: append([]byte(nil), content...)}, nil
}

// UUIDBox is a generic 16-byte-UUID-tagged payload box, used both for the
// C2PA COSE signature box and for BMFF's manifest-carrying UUID box.
type UUIDBox struct {
	UUID [16]byte
	Raw  []byte
}

func (b *UUIDBox) BoxType() Type { return TypeUUIDBox }
func (b *UUIDBox) content() []byte {
	out := make([]byte, 0, 16+len(b.Raw))
	out = append(out, b.UUID[:]...)
	return append(out, b.Raw...)
}
func (b *UUIDBox) Measure() int { return len(b.content()) + 8 }
func (b *UUIDBox) Serialize() []byte {
	content := b.content()
	return append(header(TypeUUIDBox, len(content)), content...)
}

func parseUUIDBox(content []byte) (*UUIDBox, error) {
	if len(content) < 16 {
		return nil, malformed("uuid box shorter than 16 bytes")
	}
	b := &UUIDBox{Raw: append([]byte(nil), content[16:]...)}
	copy(b.UUID[:], content[:16])
	return b, nil
}

// SaltBox carries random padding bytes used to perturb an assertion's
// content hash for selective redaction support.
type SaltBox struct {
	Salt []byte
}

func (b *SaltBox) BoxType() Type { return TypeSaltBox }
func (b *SaltBox) Measure() int  { return len(b.Salt) + 8 }
func (b *SaltBox) Serialize() []byte {
	return append(header(TypeSaltBox, len(b.Salt)), b.Salt...)
}

func parseSaltBox(content []byte) (*SaltBox, error) {
	return &SaltBox{Salt: append([]byte(nil), content...)}, nil
}

// EmbeddedFileDescriptionBox precedes an EmbeddedFileBox inside the same
// SuperBox, naming the embedded content's media type.
type EmbeddedFileDescriptionBox struct {
	MediaType       string
	FileName        string
	ExternalFile    bool
}

func (b *EmbeddedFileDescriptionBox) BoxType() Type { return TypeEmbeddedFileDescriptionBox }

func (b *EmbeddedFileDescriptionBox) content() []byte {
	var toggle byte
	if b.ExternalFile {
		toggle = 1
	}
	content := []byte{toggle}
	content = append(content, []byte(b.MediaType)...)
	content = append(content, 0)
	content = append(content, []byte(b.FileName)...)
	content = append(content, 0)
	return content
}

func (b *EmbeddedFileDescriptionBox) Measure() int { return len(b.content()) + 8 }
func (b *EmbeddedFileDescriptionBox) Serialize() []byte {
	content := b.content()
	return append(header(TypeEmbeddedFileDescriptionBox, len(content)), content...)
}

func parseEmbeddedFileDescriptionBox(content []byte) (*EmbeddedFileDescriptionBox, error) {
	if len(content) < 1 {
		return nil, malformed("embedded file description box empty")
	}
	b := &EmbeddedFileDescriptionBox{ExternalFile: content[0]&1 != 0}
	off := 1
	for _, field := range []*string{&b.MediaType, &b.FileName} {
		end := off
		for end < len(content) && content[end] != 0 {
			end++
		}
		if end >= len(content) {
			return nil, malformed("embedded file description box: unterminated string field")
		}
		*field = string(content[off:end])
		off = end + 1
	}
	return b, nil
}

// EmbeddedFileBox carries the raw bytes of an embedded file (e.g. a
// thumbnail), alongside its sibling EmbeddedFileDescriptionBox.
type EmbeddedFileBox struct {
	Data []byte
}

func (b *EmbeddedFileBox) BoxType() Type { return TypeEmbeddedFileBox }
func (b *EmbeddedFileBox) Measure() int  { return len(b.Data) + 8 }
func (b *EmbeddedFileBox) Serialize() []byte {
	return append(header(TypeEmbeddedFileBox, len(b.Data)), b.Data...)
}

func parseEmbeddedFileBox(content []byte) (*EmbeddedFileBox, error) {
	return &EmbeddedFileBox{Data: append([]byte(nil), content...)}, nil
}

// CodestreamBox carries a raw (non-JUMBF) codestream, used by some
// thumbnail/ingredient variants that embed JPEG2000 content directly.
type CodestreamBox struct {
	Data []byte
}

func (b *CodestreamBox) BoxType() Type { return TypeCodestreamBox }
func (b *CodestreamBox) Measure() int  { return len(b.Data) + 8 }
func (b *CodestreamBox) Serialize() []byte {
	return append(header(TypeCodestreamBox, len(b.Data)), b.Data...)
}

func parseCodestreamBox(content []byte) (*CodestreamBox, error) {
	return &CodestreamBox{Data: append([]byte(nil), content...)}, nil
}

// UnknownBox is the opaque-passthrough fallback for any box type this codec
// does not otherwise recognize. Preserving its raw bytes lets an assertion
// with an unrecognized content box type still participate in HashedURI
// verification.
type UnknownBox struct {
	Type_ Type
	Raw   []byte
}

func (b *UnknownBox) BoxType() Type { return b.Type_ }
func (b *UnknownBox) Measure() int  { return len(b.Raw) + 8 }
func (b *UnknownBox) Serialize() []byte {
	return append(header(b.Type_, len(b.Raw)), b.Raw...)
}
