package common

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexHelpers(t *testing.T) {
	assert.Equal(t, "0x1234", Prepend0xPrefix("1234"))
	assert.Equal(t, "0X1234", Prepend0xPrefix("0X1234"))
	assert.Equal(t, "1234", Trim0xPrefix("0x1234"))
	assert.Equal(t, big.NewInt(255), HexStrToBigInt("0xff"))
	assert.Nil(t, HexStrToBigInt("zz"))
	assert.Equal(t, "0x1234...cdef", Shorten("0x1234567890abcdef", 4))
	assert.Equal(t, "0x1234", Shorten("1234", 4))

	b := BigInt2Bytes32(big.NewInt(1))
	assert.Equal(t, byte(1), b[31])
	assert.Equal(t, "01", ByteSliceToPureHexStr([]byte{1}))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	assert.Equal(t, ethcommon.HexToAddress("0xaa"), addr)

	addr, err = ParseAddress(" 00000000000000000000000000000000000000bb ")
	require.NoError(t, err)
	assert.Equal(t, ethcommon.HexToAddress("0xbb"), addr)

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want *big.Int
	}{
		{"100", big.NewInt(100)},
		{"0x64", big.NewInt(100)},
		{"2 gwei", big.NewInt(2_000_000_000)},
		{"1.5ether", big.NewInt(1_500_000_000_000_000_000)},
		{"0", big.NewInt(0)},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, 0, tt.want.Cmp(got), tt.in)
	}

	for _, in := range []string{"-1", "1.5", "abc", "0xzz"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestParseSeconds(t *testing.T) {
	n, err := ParseSeconds("3600")
	require.NoError(t, err)
	assert.Equal(t, uint64(3600), n)

	n, err = ParseSeconds("90m")
	require.NoError(t, err)
	assert.Equal(t, uint64(5400), n)

	_, err = ParseSeconds("-1s")
	assert.Error(t, err)
	_, err = ParseSeconds("soon")
	assert.Error(t, err)
}
