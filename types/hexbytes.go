package types

import (
	"encoding/hex"
	"fmt"
)

// HexBytes is a byte slice that marshals to and from JSON as a hexadecimal
// string. The "0x" prefix is accepted but never produced.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// SetString decodes a hex string (with optional 0x prefix) into b.
func (b *HexBytes) SetString(s string) error {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = data
	return nil
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	enc := make([]byte, hex.EncodedLen(len(b))+2)
	enc[0] = '"'
	hex.Encode(enc[1:], b)
	enc[len(enc)-1] = '"'
	return enc, nil
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid JSON string: %q", data)
	}
	return b.SetString(string(data[1 : len(data)-1]))
}
