package manifest

import "github.com/google/uuid"

// NewInstanceID generates a fresh instance identifier for a new Claim or
// IngredientAssertion, in the xmp:iid URN-qualified form C2PA instance IDs
// are conventionally carried in.
func NewInstanceID() string {
	return "xmp:iid:" + uuid.New().String()
}
