// Package formats registers every built-in asset format handler into
// assets.Handlers as a side effect of import. Callers that want detection
// across all supported formats import this package for its side effect:
//
//	import _ "github.com/trustnxt/c2pa-go/assets/formats"
package formats

import (
	_ "github.com/trustnxt/c2pa-go/assets/bmff"
	_ "github.com/trustnxt/c2pa-go/assets/gif"
	_ "github.com/trustnxt/c2pa-go/assets/jpeg"
	_ "github.com/trustnxt/c2pa-go/assets/mp3"
	_ "github.com/trustnxt/c2pa-go/assets/png"
	_ "github.com/trustnxt/c2pa-go/assets/tiff"
)
