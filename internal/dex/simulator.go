package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"tradeScope/internal/model"
)

const bpsDenominator = 10000

// mock token balances mapping lives at storage slot 0.
var balancesSlot = common.Hash{}

var maxUint256Word = common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

// OverrideCaller is the RPC surface the simulator depends on: a read-only
// call and a gas estimate, both under a per-call state override set.
type OverrideCaller interface {
	CallWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides model.StateOverrideSet) ([]byte, error)
	EstimateGasWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides model.StateOverrideSet) (uint64, error)
}

// SimulationOutcome carries raw simulator output before decimal rendering.
type SimulationOutcome struct {
	AmountOut    *big.Int
	MinAmountOut *big.Int
	GasEstimate  uint64
	FeeTier      model.FeeTier
}

// Simulator executes a swap against the real router and pools while faking
// only the caller's input-token custody through a state override.
type Simulator struct {
	caller OverrideCaller
	prober *Prober
	router common.Address
	logger *zap.Logger
}

// NewSimulator builds a Simulator against a swap router contract.
func NewSimulator(caller OverrideCaller, prober *Prober, router common.Address, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{caller: caller, prober: prober, router: router, logger: logger}
}

// SimulateSwap picks the best fee tier, then issues one overridden
// exact-input-single call plus a gas estimate under the same override.
// No real balance changes anywhere.
func (s *Simulator) SimulateSwap(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, maxSlippageBps int64, wallet common.Address) (SimulationOutcome, error) {
	if maxSlippageBps < 0 || maxSlippageBps >= bpsDenominator {
		return SimulationOutcome{}, model.NewError(model.ErrInvalidSlippage, model.StepProbe,
			"slippage %d bps out of range [0, %d)", maxSlippageBps, bpsDenominator)
	}

	best, err := s.prober.BestQuote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return SimulationOutcome{}, err
	}

	minOut := MinAmountOut(best.AmountOut, maxSlippageBps)
	overrides := BuildSwapOverrides(tokenIn, wallet)

	parsed, err := RouterABI()
	if err != nil {
		return SimulationOutcome{}, model.WrapError(model.ErrSimulationReverted, model.StepOverride, err, "parse router abi")
	}
	params := exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(int64(best.FeeTier)),
		Recipient:         wallet,
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}
	data, err := parsed.Pack("exactInputSingle", params)
	if err != nil {
		return SimulationOutcome{}, model.WrapError(model.ErrSimulationReverted, model.StepOverride, err, "pack exactInputSingle")
	}

	msg := ethereum.CallMsg{From: wallet, To: &s.router, Data: data}

	s.logger.Debug("simulate swap",
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.Uint32("fee_tier", uint32(best.FeeTier)),
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", minOut.String()),
	)

	resp, err := s.caller.CallWithOverrides(ctx, msg, overrides)
	if err != nil {
		return SimulationOutcome{}, model.WrapError(model.ErrSimulationReverted, model.StepCall, err,
			"swap simulation reverted for pair %s/%s", tokenIn.Hex(), tokenOut.Hex())
	}

	values, err := parsed.Unpack("exactInputSingle", resp)
	if err != nil {
		return SimulationOutcome{}, model.WrapError(model.ErrSimulationReverted, model.StepDecode, err, "decode swap output")
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return SimulationOutcome{}, model.NewError(model.ErrSimulationReverted, model.StepDecode, "unexpected output type %T", values[0])
	}
	if amountOut.Cmp(minOut) < 0 {
		return SimulationOutcome{}, model.NewError(model.ErrSlippageExceeded, model.StepDecode,
			"simulated output %s below minimum %s (quote %s, slippage %d bps)",
			amountOut, minOut, best.AmountOut, maxSlippageBps)
	}

	gas, err := s.caller.EstimateGasWithOverrides(ctx, msg, overrides)
	if err != nil {
		return SimulationOutcome{}, model.WrapError(model.ErrSimulationReverted, model.StepCall, err, "estimate swap gas")
	}

	return SimulationOutcome{
		AmountOut:    amountOut,
		MinAmountOut: minOut,
		GasEstimate:  gas,
		FeeTier:      best.FeeTier,
	}, nil
}

// MinAmountOut applies a basis-point slippage tolerance to a quoted
// output: floor(quoted * (10000 - bps) / 10000).
func MinAmountOut(quoted *big.Int, maxSlippageBps int64) *big.Int {
	minOut := new(big.Int).Mul(quoted, big.NewInt(bpsDenominator-maxSlippageBps))
	return minOut.Quo(minOut, big.NewInt(bpsDenominator))
}

// BuildSwapOverrides constructs the state override set for one simulated
// swap: the input token's code is replaced with the mock token runtime and
// the wallet's balance slot is set to the maximum uint256. Nothing else is
// overridden, so pool pricing runs against real state.
func BuildSwapOverrides(tokenIn, wallet common.Address) model.StateOverrideSet {
	return model.StateOverrideSet{
		tokenIn: {
			Code: MockTokenRuntime(),
			StateDiff: map[common.Hash]common.Hash{
				BalanceSlot(wallet): maxUint256Word,
			},
		},
	}
}

// BalanceSlot derives the mock token's balance storage slot for a holder:
// keccak256(pad32(holder) ++ pad32(0)).
func BalanceSlot(holder common.Address) common.Hash {
	return crypto.Keccak256Hash(
		common.LeftPadBytes(holder.Bytes(), 32),
		balancesSlot.Bytes(),
	)
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}
