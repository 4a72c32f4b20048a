package jumbf

import (
	"fmt"

	"github.com/trustnxt/c2pa-go/binary2"
)

// Toggle bits for DescriptionBox, in fixed bit-position order.
const (
	ToggleRequestable byte = 1 << 0
	ToggleHasLabel    byte = 1 << 1
	ToggleHasID       byte = 1 << 2
	ToggleHasHash     byte = 1 << 3
	ToggleHasPrivate  byte = 1 << 4
)

const uuidLen = 16
const hashLen = 32

// DescriptionBox is the mandatory first child of every SuperBox.
type DescriptionBox struct {
	UUID         [uuidLen]byte
	Requestable  bool
	Label        string
	HasLabel     bool
	ID           uint32
	HasID        bool
	Hash         [hashLen]byte
	HasHash      bool
	PrivateBoxes []Box
}

func (d *DescriptionBox) BoxType() Type { return TypeDescriptionBox }

func (d *DescriptionBox) toggle() byte {
	var t byte
	if d.Requestable {
		t |= ToggleRequestable
	}
	if d.HasLabel {
		t |= ToggleHasLabel
	}
	if d.HasID {
		t |= ToggleHasID
	}
	if d.HasHash {
		t |= ToggleHasHash
	}
	if len(d.PrivateBoxes) > 0 {
		t |= ToggleHasPrivate
	}
	return t
}

func (d *DescriptionBox) content() []byte {
	content := make([]byte, 0, uuidLen+1+len(d.Label)+1+4+hashLen)
	content = append(content, d.UUID[:]...)
	content = append(content, d.toggle())
	if d.HasLabel {
		content = binary2.WriteCString(content, d.Label)
	}
	if d.HasID {
		content = binary2.WriteUint32BE(content, d.ID)
	}
	if d.HasHash {
		content = append(content, d.Hash[:]...)
	}
	for _, pb := range d.PrivateBoxes {
		content = append(content, pb.Serialize()...)
	}
	return content
}

func (d *DescriptionBox) Measure() int {
	return len(d.content()) + 8
}

func (d *DescriptionBox) Serialize() []byte {
	content := d.content()
	return append(header(TypeDescriptionBox, len(content)), content...)
}

// parseDescriptionBox decodes a DescriptionBox's content (the bytes after
// its 8-byte header, up to the declared length).
func parseDescriptionBox(content []byte) (*DescriptionBox, error) {
	if len(content) < uuidLen+1 {
		return nil, malformed("description box shorter than UUID+toggle")
	}

	d := &DescriptionBox{}
	copy(d.UUID[:], content[:uuidLen])
	toggle := content[uuidLen]
	off := uuidLen + 1

	d.Requestable = toggle&ToggleRequestable != 0
	d.HasLabel = toggle&ToggleHasLabel != 0
	d.HasID = toggle&ToggleHasID != 0
	d.HasHash = toggle&ToggleHasHash != 0
	hasPrivate := toggle&ToggleHasPrivate != 0

	if unknownBits := toggle &^ (ToggleRequestable | ToggleHasLabel | ToggleHasID | ToggleHasHash | ToggleHasPrivate); unknownBits != 0 {
		return nil, malformed("description box toggle has reserved bits set: 0x%02x", unknownBits)
	}

	if d.HasLabel {
		label, n, err := binary2.ReadCString(content, off)
		if err != nil {
			return nil, fmt.Errorf("%w: description box label: %v", ErrMalformedContent, err)
		}
		d.Label = label
		off += n
	}

	if d.HasID {
		id, err := binary2.ReadUint32BE(content, off)
		if err != nil {
			return nil, fmt.Errorf("%w: description box id: %v", ErrMalformedContent, err)
		}
		d.ID = id
		off += 4
	}

	if d.HasHash {
		if off+hashLen > len(content) {
			return nil, malformed("description box hash truncated")
		}
		copy(d.Hash[:], content[off:off+hashLen])
		off += hashLen
	}

	if hasPrivate {
		boxes, err := parseBoxStream(content[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: description box private boxes: %v", ErrMalformedContent, err)
		}
		d.PrivateBoxes = boxes
	} else if off != len(content) {
		return nil, malformed("description box has %d trailing bytes with no private-box toggle set", len(content)-off)
	}

	return d, nil
}
