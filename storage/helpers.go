package storage

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// pairKey derives the issuance index key for a voter and an election. Only
// the hash is stored, so the index cannot be walked back to voter names.
func pairKey(voterRef string, electionID []byte) []byte {
	hash := sha256.New()
	hash.Write([]byte(voterRef))
	hash.Write(electionID)
	return hash.Sum(nil)
}
