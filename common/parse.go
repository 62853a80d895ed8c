package common

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// ParseAddress accepts a 20-byte hex address with or without 0x.
func ParseAddress(s string) (ethcommon.Address, error) {
	s = Prepend0xPrefix(strings.TrimSpace(s))
	if !ethcommon.IsHexAddress(s) {
		return ethcommon.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return ethcommon.HexToAddress(s), nil
}

// ParseAmount parses a non-negative amount in base units. It takes a
// decimal number, a 0x hex number, or a decimal followed by "ether" or
// "gwei".
func ParseAmount(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	unit := big.NewInt(1)
	switch {
	case strings.HasSuffix(s, "ether"):
		unit = big.NewInt(params.Ether)
		s = strings.TrimSpace(strings.TrimSuffix(s, "ether"))
	case strings.HasSuffix(s, "gwei"):
		unit = big.NewInt(params.GWei)
		s = strings.TrimSpace(strings.TrimSuffix(s, "gwei"))
	}

	if strings.HasPrefix(s, "0x") {
		v := HexStrToBigInt(s)
		if v == nil {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
		return v.Mul(v, unit), nil
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(unit))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q is not a whole number of base units", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// ParseSeconds reads either a plain number of seconds or a Go duration
// such as "90m".
func ParseSeconds(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return uint64(d / time.Second), nil
}
