package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PoolQuote is one fee tier's quote for a fixed-input swap. PoolExists is
// false when the tier's pool is not deployed or its quote call reverted.
type PoolQuote struct {
	FeeTier    FeeTier
	AmountOut  *big.Int
	PoolExists bool
}

// PriceResult is a best-tier price for one whole unit of the input token,
// rendered in the counterpart token's decimals.
type PriceResult struct {
	Price   decimal.Decimal
	FeeTier FeeTier
}

// SwapSimulation is the outcome of a simulated swap. Never partial: both
// fields are set or the operation failed.
type SwapSimulation struct {
	AmountOut   decimal.Decimal
	GasEstimate uint64
	FeeTier     FeeTier
}
