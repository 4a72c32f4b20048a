// Package cose builds and verifies the COSE_Sign1 envelope a C2PA manifest
// carries as its c2pa.signature box, and attaches RFC 3161 timestamp
// counter-signatures to it.
package cose

import "github.com/fxamacker/cbor/v2"

// sigStructure is the Sig_structure1 array COSE_Sign1 signs over:
// ["Signature1", protected_bucket_bytes, external_aad, payload] for the
// claim signature itself, or ["CounterSignature", ...] for a timestamp's
// counter-signature over the claim or the finished Signature bytes.
type sigStructure struct {
	_           struct{} `cbor:",toarray"`
	Context     string
	Protected   []byte
	ExternalAAD []byte
	Payload     []byte
}

func buildSigStructure(context string, protected, externalAAD, payload []byte) ([]byte, error) {
	if externalAAD == nil {
		externalAAD = []byte{}
	}
	return cbor.Marshal(sigStructure{
		Context:     context,
		Protected:   protected,
		ExternalAAD: externalAAD,
		Payload:     payload,
	})
}
