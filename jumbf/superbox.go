package jumbf

// SuperBox contains exactly one DescriptionBox followed by zero or more
// content boxes. Its URI is assigned by AssignURIs after the whole tree is
// parsed (or before serialization, for a freshly-built tree).
type SuperBox struct {
	Description *DescriptionBox
	Children    []Box

	// URI is "self#jumbf=<path>/<label>", populated by AssignURIs.
	URI string
}

func (s *SuperBox) BoxType() Type { return TypeSuperBox }

func (s *SuperBox) content() []byte {
	content := make([]byte, 0, 256)
	content = append(content, s.Description.Serialize()...)
	for _, c := range s.Children {
		content = append(content, c.Serialize()...)
	}
	return content
}

func (s *SuperBox) Measure() int {
	total := s.Description.Measure()
	for _, c := range s.Children {
		total += c.Measure()
	}
	return total + 8
}

func (s *SuperBox) Serialize() []byte {
	content := s.content()
	return append(header(TypeSuperBox, len(content)), content...)
}

// AssignURIs walks the tree depth-first assigning each SuperBox's URI
// relative to parentURI. Call with parentURI == "" on the root of a
// manifest store.
func (s *SuperBox) AssignURIs(parentURI string) {
	label := ""
	if s.Description != nil {
		label = s.Description.Label
	}
	if parentURI == "" {
		s.URI = "self#jumbf=" + label
	} else {
		s.URI = parentURI + "/" + label
	}
	for _, c := range s.Children {
		if sb, ok := c.(*SuperBox); ok {
			sb.AssignURIs(s.URI)
		}
	}
}

// FindByLabel returns the first immediate child SuperBox whose description
// label matches, or nil.
func (s *SuperBox) FindByLabel(label string) *SuperBox {
	for _, c := range s.Children {
		if sb, ok := c.(*SuperBox); ok && sb.Description != nil && sb.Description.Label == label {
			return sb
		}
	}
	return nil
}

// ContentBox returns the first non-SuperBox, non-DescriptionBox child —
// the single content box a leaf SuperBox (e.g. a claim or signature box)
// carries.
func (s *SuperBox) ContentBox() Box {
	for _, c := range s.Children {
		switch c.(type) {
		case *SuperBox, *DescriptionBox:
			continue
		default:
			return c
		}
	}
	return nil
}

// parseSuperBox decodes a SuperBox's content. The first child must be a
// DescriptionBox; this is the rule that makes a malformed nested box fail
// locally without corrupting siblings.
func parseSuperBox(content []byte) (*SuperBox, error) {
	boxes, err := parseBoxStream(content)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, ErrMissingDescription
	}
	desc, ok := boxes[0].(*DescriptionBox)
	if !ok {
		return nil, ErrMissingDescription
	}
	return &SuperBox{Description: desc, Children: boxes[1:]}, nil
}
