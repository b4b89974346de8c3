package common

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const HashLength = 32

type Hash [HashLength]byte

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// Blake2HashParts hashes parts with a length prefix per part, so that
// ("ab", "c") and ("a", "bc") differ.
func Blake2HashParts(parts ...string) Hash {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(Uint64ToBytes(uint64(len(p))))
		h.Write([]byte(p))
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
