package manifest

import (
	"errors"
	"strings"

	"github.com/trustnxt/c2pa-go/jumbf"
)

var ErrUnknownAssertionContent = errors.New("manifest: assertion SuperBox carries no recognizable content box")

// Assertion is the polymorphic-over-label contract every assertion variant
// satisfies. Each assertion lives in its own SuperBox under the manifest's
// c2pa.assertions store, named by AssertionLabel.
type Assertion interface {
	AssertionLabel() string
	// ContentBoxes returns the boxes that follow the assertion's
	// DescriptionBox inside its SuperBox.
	ContentBoxes() ([]jumbf.Box, error)
}

// assertionSuperBox wraps a as a labeled SuperBox, ready to be placed under
// the assertion store.
func assertionSuperBox(a Assertion) (*jumbf.SuperBox, error) {
	children, err := a.ContentBoxes()
	if err != nil {
		return nil, err
	}
	return &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{Label: a.AssertionLabel(), HasLabel: true},
		Children:    children,
	}, nil
}

// parseAssertion dispatches on the assertion SuperBox's DescriptionBox
// label to the concrete variant's decoder; an unrecognized label becomes an
// UnknownAssertion that still participates in HashedURI verification.
func parseAssertion(sb *jumbf.SuperBox) (Assertion, error) {
	if sb.Description == nil {
		return nil, ErrMissingAssertionLabel
	}
	label := sb.Description.Label
	switch {
	case label == "c2pa.hash.data":
		return decodeDataHashAssertion(sb)
	case label == "c2pa.hash.bmff" || label == "c2pa.hash.bmff.v2":
		return decodeBmffHashAssertion(label, sb)
	case strings.HasPrefix(label, "c2pa.ingredient"):
		return decodeIngredientAssertion(label, sb)
	case strings.HasPrefix(label, "c2pa.actions"):
		return decodeActionAssertion(label, sb)
	case strings.HasPrefix(label, "c2pa.thumbnail"):
		return decodeThumbnailAssertion(label, sb)
	case label == "c2pa.metadata":
		return decodeMetadataAssertion(sb)
	default:
		return decodeUnknownAssertion(label, sb)
	}
}

var ErrMissingAssertionLabel = errors.New("manifest: assertion SuperBox has no DescriptionBox label")

// soleCBORBox returns the single CBORBox child of sb, the shape almost every
// assertion variant uses for its content.
func soleCBORBox(sb *jumbf.SuperBox) (*jumbf.CBORBox, error) {
	for _, c := range sb.Children {
		if cb, ok := c.(*jumbf.CBORBox); ok {
			return cb, nil
		}
	}
	return nil, ErrUnknownAssertionContent
}
