// Package field implements the prime-field address arithmetic used when
// walking Cairo memory. Program counters and offsets are field elements, so
// every derived address is reduced modulo Prime before it is used as an index.
package field

import (
	"fmt"
	"math"

	"github.com/colorfulnotion/cairotrace/tracererrors"
	"github.com/holiman/uint256"
)

// FeltSize is the byte length of a serialized field element.
const FeltSize = 32

// Prime is the Stark field modulus 2^251 + 17*2^192 + 1.
var Prime = uint256.MustFromHex("0x800000000000011000000000000000000000000000000000000000000000001")

// Reduce returns x mod Prime as a new value.
func Reduce(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Mod(x, Prime)
}

// Index returns (base + offset) mod Prime as a memory index.
func Index(base, offset uint64) (int, error) {
	addr := new(uint256.Int).SetUint64(base)
	addr.Add(addr, uint256.NewInt(offset))
	idx, err := IndexOf(addr)
	if err != nil {
		return 0, fmt.Errorf("address %d+%d: %w", base, offset, err)
	}
	return idx, nil
}

// IndexOf reduces addr and converts it to a memory index.
func IndexOf(addr *uint256.Int) (int, error) {
	r := Reduce(addr)
	if !r.IsUint64() || r.Uint64() > math.MaxInt {
		return 0, fmt.Errorf("%w: %s", tracererrors.ErrAddressOutOfRange, r.Hex())
	}
	return int(r.Uint64()), nil
}

// FeltFromBytesLE decodes a 32-byte little-endian field element. Values at or
// above Prime are rejected.
func FeltFromBytesLE(b []byte) (*uint256.Int, error) {
	if len(b) != FeltSize {
		return nil, fmt.Errorf("felt must be %d bytes, got %d", FeltSize, len(b))
	}
	var be [FeltSize]byte
	for i := range b {
		be[FeltSize-1-i] = b[i]
	}
	v := new(uint256.Int).SetBytes32(be[:])
	if !v.Lt(Prime) {
		return nil, fmt.Errorf("felt %s is not below the field prime", v.Hex())
	}
	return v, nil
}

// FeltToBytesLE is the inverse of FeltFromBytesLE.
func FeltToBytesLE(v *uint256.Int) [FeltSize]byte {
	be := v.Bytes32()
	var le [FeltSize]byte
	for i := range be {
		le[FeltSize-1-i] = be[i]
	}
	return le
}

// Hex renders v as 0x-prefixed lowercase hex without leading zeros.
func Hex(v *uint256.Int) string {
	return v.Hex()
}

// Low64 returns the low 64 bits of v, the part that carries an instruction
// encoding.
func Low64(v *uint256.Int) uint64 {
	return v.Uint64()
}
