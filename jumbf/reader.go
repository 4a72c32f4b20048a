package jumbf

import "github.com/trustnxt/c2pa-go/binary2"

// Parse decodes a single box (including its header) from b. Extra trailing
// bytes in b beyond the box are ignored; use parseBoxStream to decode a
// concatenated sequence that must exactly fill its container.
func Parse(b []byte) (Box, error) {
	boxes, _, err := readOne(b)
	return boxes, err
}

// parseBoxStream decodes a concatenated sequence of boxes that must exactly
// fill content (used for a SuperBox's children and a DescriptionBox's
// private boxes).
func parseBoxStream(content []byte) ([]Box, error) {
	var boxes []Box
	off := 0
	for off < len(content) {
		b, n, err := readOne(content[off:])
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
		off += n
	}
	return boxes, nil
}

// readOne reads one box from the front of b, returning the decoded box and
// the number of bytes it consumed.
func readOne(b []byte) (Box, int, error) {
	if len(b) < 8 {
		return nil, 0, ErrUnexpectedEOF
	}

	length, err := binary2.ReadUint32BE(b, 0)
	if err != nil {
		return nil, 0, err
	}

	var t Type
	copy(t[:], b[4:8])

	switch {
	case length == 0:
		// Extends to the end of the current container: consume everything
		// remaining in b.
		length = uint32(len(b))
	case length >= 1 && length <= 7:
		return nil, 0, ErrShortLength
	}

	total := int(length)
	if total > len(b) {
		return nil, 0, ErrUnexpectedEOF
	}

	content := b[8:total]

	box, err := dispatch(t, content)
	if err != nil {
		return nil, 0, err
	}
	return box, total, nil
}

func dispatch(t Type, content []byte) (Box, error) {
	switch t {
	case TypeSuperBox:
		return parseSuperBox(content)
	case TypeDescriptionBox:
		return parseDescriptionBox(content)
	case TypeCBORBox:
		return parseCBORBox(content)
	case TypeJSONBox:
		return parseJSONBox(content)
	case TypeEmbeddedFileDescriptionBox:
		return parseEmbeddedFileDescriptionBox(content)
	case TypeEmbeddedFileBox:
		return parseEmbeddedFileBox(content)
	case TypeCodestreamBox:
		return parseCodestreamBox(content)
	case TypeUUIDBox:
		return parseUUIDBox(content)
	case TypeSaltBox:
		return parseSaltBox(content)
	default:
		return &UnknownBox{Type_: t, Raw: append([]byte(nil), content...)}, nil
	}
}
