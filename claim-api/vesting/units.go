package vesting

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/shopspring/decimal"

	"github.com/satlayer/vesting-claim/claim-api/claimerr"
)

// FormatUnits renders a base-unit amount with the token's decimals, e.g. 1.5 for 1500000 at 6 decimals.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// ParseUnits converts a human amount into base units. Amounts with more
// fractional digits than the token supports are rejected rather than rounded.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "invalid amount %q: %v", value, err)
	}
	if d.IsNegative() {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "negative amount %q", value)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errorsmod.Wrapf(claimerr.ErrEncoding, "amount %q has more than %d decimals", value, decimals)
	}
	return scaled.BigInt(), nil
}
