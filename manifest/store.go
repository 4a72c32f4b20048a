package manifest

import (
	"errors"

	"github.com/trustnxt/c2pa-go/jumbf"
	"github.com/trustnxt/c2pa-go/manifest/urifilter"
)

var (
	ErrNoActiveManifest      = errors.New("manifest: store has no active manifest")
	ErrMultipleActiveManifests = errors.New("manifest: store has more than one manifest; active one is ambiguous")
)

// ManifestStore owns every Manifest embedded in an asset; exactly one is
// active (in this model, the first one found — multi-manifest provenance
// chains name their active manifest by store-relative label convention,
// which callers select via Active(label)).
type ManifestStore struct {
	Manifests []*Manifest

	uriIndex map[string]jumbf.Box
	filter   *urifilter.Filter
}

// Read decodes a ManifestStore from its root SuperBox: every child SuperBox
// whose DescriptionBox UUID matches jumbf.ManifestUUID becomes a Manifest.
func Read(box jumbf.Box) (*ManifestStore, error) {
	root, ok := box.(*jumbf.SuperBox)
	if !ok || root.Description == nil || root.Description.UUID != jumbf.ManifestStoreUUID {
		return nil, ErrNotAManifestStore
	}

	root.AssignURIs("")

	store := &ManifestStore{}
	for _, c := range root.Children {
		sb, ok := c.(*jumbf.SuperBox)
		if !ok || sb.Description == nil || sb.Description.UUID != jumbf.ManifestUUID {
			continue
		}
		m, err := readManifest(sb)
		if err != nil {
			return nil, err
		}
		store.Manifests = append(store.Manifests, m)
	}
	if len(store.Manifests) == 0 {
		return nil, ErrNoActiveManifest
	}

	store.buildIndex(root)
	return store, nil
}

// buildIndex walks the already URI-assigned tree once, recording every
// SuperBox's URI → Box mapping and seeding the Bloom filter used by Resolve
// to short-circuit a definite miss without a map lookup.
func (s *ManifestStore) buildIndex(root *jumbf.SuperBox) {
	var uris []string
	s.uriIndex = make(map[string]jumbf.Box)

	var walk func(sb *jumbf.SuperBox)
	walk = func(sb *jumbf.SuperBox) {
		if sb.URI != "" {
			s.uriIndex[sb.URI] = sb
			uris = append(uris, sb.URI)
		}
		for _, c := range sb.Children {
			if child, ok := c.(*jumbf.SuperBox); ok {
				walk(child)
			}
		}
	}
	walk(root)

	n := len(uris)
	if n == 0 {
		n = 1
	}
	f, err := urifilter.New(n, urifilter.BitsPerElement, 7)
	if err != nil {
		return
	}
	for _, u := range uris {
		f.Insert(u)
	}
	s.filter = f
}

// Resolve looks up uri in the store's SuperBox URI index.
func (s *ManifestStore) Resolve(uri string) (jumbf.Box, error) {
	if s.filter != nil && !s.filter.MayContain(uri) {
		return nil, ErrURINotFound
	}
	box, ok := s.uriIndex[uri]
	if !ok {
		return nil, ErrURINotFound
	}
	return box, nil
}

// ResolveRaw resolves uri and returns the raw bytes a HashedURI's digest is
// computed over: the resolved SuperBox's serialized content, excluding its
// own 8-byte header.
func (s *ManifestStore) ResolveRaw(uri string) ([]byte, error) {
	box, err := s.Resolve(uri)
	if err != nil {
		return nil, err
	}
	full := box.Serialize()
	if len(full) < 8 {
		return nil, ErrURINotFound
	}
	return full[8:], nil
}

// Active returns the manifest whose Label matches, or the sole manifest if
// there is exactly one.
func (s *ManifestStore) Active(label string) (*Manifest, error) {
	if label == "" {
		if len(s.Manifests) == 1 {
			return s.Manifests[0], nil
		}
		return nil, ErrMultipleActiveManifests
	}
	for _, m := range s.Manifests {
		if m.Label == label {
			return m, nil
		}
	}
	return nil, ErrNoActiveManifest
}

// GenerateJUMBFBox assembles the full manifest store SuperBox from every
// owned Manifest, assigning URIs before returning so Resolve works
// immediately against freshly-built content.
func (s *ManifestStore) GenerateJUMBFBox() (*jumbf.SuperBox, error) {
	root := &jumbf.SuperBox{
		Description: &jumbf.DescriptionBox{UUID: jumbf.ManifestStoreUUID, Label: "c2pa", HasLabel: true},
	}
	for _, m := range s.Manifests {
		mb, err := m.GenerateJUMBFBox()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, mb)
	}
	root.AssignURIs("")
	s.buildIndex(root)
	return root, nil
}
