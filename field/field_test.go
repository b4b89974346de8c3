package field

import (
	"errors"
	"math"
	"testing"

	"github.com/colorfulnotion/cairotrace/tracererrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestIndexPlain(t *testing.T) {
	idx, err := Index(41, 1)
	require.NoError(t, err)
	require.Equal(t, 42, idx)
}

func TestIndexNoUint64Overflow(t *testing.T) {
	// 2^64 is far below the prime, so the sum must be rejected rather than
	// wrapped around in 64-bit arithmetic.
	_, err := Index(math.MaxUint64, 1)
	require.True(t, errors.Is(err, tracererrors.ErrAddressOutOfRange))
}

func TestIndexOfWrapsModuloPrime(t *testing.T) {
	addr := new(uint256.Int).Add(Prime, uint256.NewInt(5))
	idx, err := IndexOf(addr)
	require.NoError(t, err)
	require.Equal(t, 5, idx)

	minusOne := new(uint256.Int).Sub(Prime, uint256.NewInt(1))
	_, err = IndexOf(minusOne)
	require.ErrorIs(t, err, tracererrors.ErrAddressOutOfRange)
}

func TestFeltBytesRoundTrip(t *testing.T) {
	v := uint256.MustFromHex("0x480680017fff8000")
	le := FeltToBytesLE(v)
	require.Equal(t, byte(0x00), le[0])
	require.Equal(t, byte(0x80), le[1])

	got, err := FeltFromBytesLE(le[:])
	require.NoError(t, err)
	require.True(t, v.Eq(got))
	require.Equal(t, "0x480680017fff8000", Hex(got))
	require.Equal(t, uint64(0x480680017fff8000), Low64(got))
}

func TestFeltFromBytesRejectsNonCanonical(t *testing.T) {
	le := FeltToBytesLE(Prime)
	_, err := FeltFromBytesLE(le[:])
	require.Error(t, err)

	_, err = FeltFromBytesLE([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestHexZero(t *testing.T) {
	require.Equal(t, "0x0", Hex(uint256.NewInt(0)))
}
