package jumbf

// C2PA-specific UUIDs and well-known box labels.
var (
	// ManifestStoreUUID identifies the outer SuperBox holding all manifests
	// ("c2cs" in ASCII as its first 4 bytes).
	ManifestStoreUUID = [16]byte{
		0x63, 0x32, 0x63, 0x73, 0x00, 0x11, 0x00, 0x10,
		0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
	}
	// AssertionStoreUUID identifies a manifest's c2pa.assertions SuperBox
	// ("c2as" in ASCII).
	AssertionStoreUUID = [16]byte{
		0x63, 0x32, 0x61, 0x73, 0x00, 0x11, 0x00, 0x10,
		0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
	}
	// BMFFUserType is the ISOBMFF UUID box user-type identifying a C2PA
	// manifest box: D8FEC3D6-1B0E-483C-9297-5828877EC481.
	BMFFUserType = [16]byte{
		0xD8, 0xFE, 0xC3, 0xD6, 0x1B, 0x0E, 0x48, 0x3C,
		0x92, 0x97, 0x58, 0x28, 0x87, 0x7E, 0xC4, 0x81,
	}
	// ManifestUUID identifies a top-level Manifest SuperBox inside the
	// manifest store ("c2pa" in ASCII as its first 4 bytes).
	ManifestUUID = [16]byte{
		0x63, 0x32, 0x70, 0x61, 0x00, 0x11, 0x00, 0x10,
		0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
	}
	// SignatureUUID identifies the UUIDBox carrying a manifest's
	// COSE_Sign1 bytes inside its c2pa.signature box ("c2sg" in ASCII).
	SignatureUUID = [16]byte{
		0x63, 0x32, 0x73, 0x67, 0x00, 0x11, 0x00, 0x10,
		0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
	}
)

const (
	LabelAssertionStore = "c2pa.assertions"
	LabelClaim          = "c2pa.claim"
	LabelSignature      = "c2pa.signature"
	LabelCredentials    = "c2pa.credentials"
)
