package manifest

import "errors"

var (
	ErrAssertionDataHashMismatch = errors.New("manifest: data-hash assertion does not match recomputed digest")
	ErrAssertionBmffHashMismatch = errors.New("manifest: BMFF-hash assertion does not match recomputed digest")
)
