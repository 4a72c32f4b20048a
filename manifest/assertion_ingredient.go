package manifest

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/trustnxt/c2pa-go/jumbf"
)

// IngredientAssertion records another asset (or manifest) this one was
// derived from or composed with. Fields present depend on Version: v1 is
// title/format/document+instance IDs and an optional reference to the
// ingredient's own active manifest; v2 adds a validation status list; v3
// adds a direct HashedURI to the ingredient's raw data.
type IngredientAssertion struct {
	Version          int
	Title            string
	Format           string
	DocumentID       string
	InstanceID       string
	Relationship     string
	ActiveManifest   *HashedURI
	ValidationStatus []string
	Data             *HashedURI // v3 only
}

type cborIngredient struct {
	Title            string      `cbor:"title"`
	Format           string      `cbor:"format"`
	DocumentID       string      `cbor:"document_id,omitempty"`
	InstanceID       string      `cbor:"instance_id,omitempty"`
	Relationship     string      `cbor:"relationship"`
	ActiveManifest   *HashedURI  `cbor:"active_manifest,omitempty"`
	ValidationStatus []string    `cbor:"validation_status,omitempty"`
	Data             *HashedURI  `cbor:"data,omitempty"`
}

func (a *IngredientAssertion) AssertionLabel() string {
	switch a.Version {
	case 3:
		return "c2pa.ingredient.v3"
	case 2:
		return "c2pa.ingredient.v2"
	default:
		return "c2pa.ingredient"
	}
}

func (a *IngredientAssertion) ContentBoxes() ([]jumbf.Box, error) {
	w := cborIngredient{
		Title: a.Title, Format: a.Format, DocumentID: a.DocumentID, InstanceID: a.InstanceID,
		Relationship: a.Relationship, ActiveManifest: a.ActiveManifest, ValidationStatus: a.ValidationStatus,
	}
	if a.Version == 3 {
		w.Data = a.Data
	}
	raw, err := cbor.Marshal(w)
	if err != nil {
		return nil, err
	}
	return []jumbf.Box{&jumbf.CBORBox{Raw: raw}}, nil
}

func decodeIngredientAssertion(label string, sb *jumbf.SuperBox) (Assertion, error) {
	cb, err := soleCBORBox(sb)
	if err != nil {
		return nil, err
	}
	var w cborIngredient
	if err := cbor.Unmarshal(cb.Raw, &w); err != nil {
		return nil, err
	}
	a := &IngredientAssertion{
		Title: w.Title, Format: w.Format, DocumentID: w.DocumentID, InstanceID: w.InstanceID,
		Relationship: w.Relationship, ActiveManifest: w.ActiveManifest, ValidationStatus: w.ValidationStatus,
		Data: w.Data,
	}
	switch label {
	case "c2pa.ingredient.v3":
		a.Version = 3
	case "c2pa.ingredient.v2":
		a.Version = 2
	default:
		a.Version = 1
	}
	return a, nil
}
