// Package convert moves token amounts between chain-native fixed-point
// integers and arbitrary-precision decimals without loss. Every amount the
// engine reports passes through here at least twice, so both directions
// must be exact inverses.
package convert

import (
	"math/big"

	"github.com/shopspring/decimal"

	"tradeScope/internal/model"
)

// maxUint256 = 2^256 - 1, the largest raw amount a token contract can hold.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ToDecimal scales a raw unsigned integer down by 10^decimals. The result
// is exact; no floating point is involved.
func ToDecimal(raw *big.Int, decimals uint8) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Decimal{}, model.NewError(model.ErrPrecisionLoss, model.StepConvert, "nil raw amount")
	}
	if raw.Sign() < 0 {
		return decimal.Decimal{}, model.NewError(model.ErrPrecisionLoss, model.StepConvert, "negative raw amount %s", raw)
	}
	if raw.Cmp(maxUint256) > 0 {
		return decimal.Decimal{}, model.NewError(model.ErrOverflow, model.StepConvert, "raw amount %s exceeds uint256", raw)
	}
	return decimal.NewFromBigInt(new(big.Int).Set(raw), -int32(decimals)), nil
}

// ToRaw scales a decimal up by 10^decimals and requires the result to be
// an exact non-negative integer within uint256 range.
func ToRaw(value decimal.Decimal, decimals uint8) (*big.Int, error) {
	if value.Sign() < 0 {
		return nil, model.NewError(model.ErrPrecisionLoss, model.StepConvert, "negative amount %s", value)
	}

	coeff := new(big.Int).Set(value.Coefficient())
	shift := int64(decimals) + int64(value.Exponent())

	raw := coeff
	if shift >= 0 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil)
		raw.Mul(raw, factor)
	} else {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
		rem := new(big.Int)
		raw.QuoRem(raw, factor, rem)
		if rem.Sign() != 0 {
			return nil, model.NewError(model.ErrPrecisionLoss, model.StepConvert,
				"amount %s has more fractional digits than %d decimals allow", value, decimals)
		}
	}

	if raw.Cmp(maxUint256) > 0 {
		return nil, model.NewError(model.ErrOverflow, model.StepConvert,
			"amount %s scaled by %d decimals exceeds uint256", value, decimals)
	}
	return raw, nil
}
