// Package engine composes the resolver, prober, and simulator into the
// three public operations: balance, price, and simulated swap. The engine
// holds no mutable state; every request is computed fresh.
package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradeScope/internal/convert"
	"tradeScope/internal/dex"
	"tradeScope/internal/model"
	"tradeScope/internal/storage"
	"tradeScope/internal/token"
)

// Backend is the chain surface the engine itself touches; the prober and
// simulator carry their own callers.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds engine-wide settings.
type Config struct {
	ChainID uint64
	// Wallet is the simulated sender and recipient for swap simulations.
	// Only an address; the engine never holds a key.
	Wallet common.Address
}

// Engine exposes the public operations.
type Engine struct {
	cfg      Config
	backend  Backend
	resolver *token.Resolver
	prober   *dex.Prober
	sim      *dex.Simulator
	audit    storage.AuditSink
	logger   *zap.Logger
}

// New builds an Engine. audit may be nil to disable journaling.
func New(cfg Config, backend Backend, resolver *token.Resolver, prober *dex.Prober, sim *dex.Simulator, audit storage.AuditSink, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		backend:  backend,
		resolver: resolver,
		prober:   prober,
		sim:      sim,
		audit:    audit,
		logger:   logger,
	}
}

// GetBalance returns a wallet's balance of the given token, or of the
// native coin when tokenInput is empty, as an exact decimal amount.
func (e *Engine) GetBalance(ctx context.Context, walletAddress, tokenInput string) (decimal.Decimal, error) {
	amount, err := e.getBalance(ctx, walletAddress, tokenInput)
	e.record(ctx, model.AuditRecord{
		Operation: "get_balance",
		Wallet:    walletAddress,
		TokenIn:   tokenInput,
		AmountOut: amountString(amount, err),
		ErrorKind: errorKind(err),
	})
	return amount, err
}

func (e *Engine) getBalance(ctx context.Context, walletAddress, tokenInput string) (decimal.Decimal, error) {
	if !common.IsHexAddress(walletAddress) {
		return decimal.Decimal{}, model.NewError(model.ErrInvalidAddress, model.StepResolve,
			"invalid wallet address: %s", walletAddress)
	}
	wallet := common.HexToAddress(walletAddress)

	descriptor := e.resolver.Native()
	if tokenInput != "" {
		var err error
		descriptor, err = e.resolver.Resolve(ctx, tokenInput)
		if err != nil {
			return decimal.Decimal{}, err
		}
	}

	var raw *big.Int
	var err error
	if descriptor.Native {
		raw, err = e.backend.BalanceAt(ctx, wallet)
		if err != nil {
			return decimal.Decimal{}, model.WrapError(model.ErrTransportFailure, model.StepCall, err, "native balance")
		}
	} else {
		raw, err = token.BalanceOf(ctx, e.backend, descriptor.Address, wallet)
		if err != nil {
			return decimal.Decimal{}, err
		}
	}

	return convert.ToDecimal(raw, descriptor.Decimals)
}

// GetTokenPrice returns the best available price for one whole unit of
// the token, denominated in the currency token, along with the fee tier
// that produced it.
func (e *Engine) GetTokenPrice(ctx context.Context, tokenInput, currencyInput string) (model.PriceResult, error) {
	result, err := e.getTokenPrice(ctx, tokenInput, currencyInput)
	e.record(ctx, model.AuditRecord{
		Operation: "get_token_price",
		TokenIn:   tokenInput,
		TokenOut:  currencyInput,
		AmountOut: amountString(result.Price, err),
		FeeTier:   uint32(result.FeeTier),
		ErrorKind: errorKind(err),
	})
	return result, err
}

func (e *Engine) getTokenPrice(ctx context.Context, tokenInput, currencyInput string) (model.PriceResult, error) {
	tokenDesc, err := e.resolver.ResolveERC20(ctx, tokenInput)
	if err != nil {
		return model.PriceResult{}, err
	}
	currencyDesc, err := e.resolver.ResolveERC20(ctx, currencyInput)
	if err != nil {
		return model.PriceResult{}, err
	}

	// One whole unit of the input token, so amountOut is the price
	// directly in the currency's decimals.
	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDesc.Decimals)), nil)

	best, err := e.prober.BestQuote(ctx, tokenDesc.Address, currencyDesc.Address, amountIn)
	if err != nil {
		return model.PriceResult{}, err
	}

	price, err := convert.ToDecimal(best.AmountOut, currencyDesc.Decimals)
	if err != nil {
		return model.PriceResult{}, err
	}
	return model.PriceResult{Price: price, FeeTier: best.FeeTier}, nil
}

// SwapTokens simulates swapping amountFrom of the from-token into the
// to-token under the given slippage tolerance in percent. Nothing is
// broadcast; the result is the realized output and a gas estimate.
func (e *Engine) SwapTokens(ctx context.Context, fromInput, toInput, amountFrom, slippagePercent string) (model.SwapSimulation, error) {
	result, err := e.swapTokens(ctx, fromInput, toInput, amountFrom, slippagePercent)
	e.record(ctx, model.AuditRecord{
		Operation: "swap_tokens",
		TokenIn:   fromInput,
		TokenOut:  toInput,
		Wallet:    e.cfg.Wallet.Hex(),
		AmountIn:  amountFrom,
		AmountOut: amountString(result.AmountOut, err),
		FeeTier:   uint32(result.FeeTier),
		Gas:       result.GasEstimate,
		ErrorKind: errorKind(err),
	})
	return result, err
}

func (e *Engine) swapTokens(ctx context.Context, fromInput, toInput, amountFrom, slippagePercent string) (model.SwapSimulation, error) {
	fromDesc, err := e.resolver.ResolveERC20(ctx, fromInput)
	if err != nil {
		return model.SwapSimulation{}, err
	}
	toDesc, err := e.resolver.ResolveERC20(ctx, toInput)
	if err != nil {
		return model.SwapSimulation{}, err
	}

	amount, err := decimal.NewFromString(amountFrom)
	if err != nil {
		return model.SwapSimulation{}, model.WrapError(model.ErrPrecisionLoss, model.StepConvert, err,
			"invalid amount: %s", amountFrom)
	}
	rawIn, err := convert.ToRaw(amount, fromDesc.Decimals)
	if err != nil {
		return model.SwapSimulation{}, err
	}

	bps, err := slippageToBps(slippagePercent)
	if err != nil {
		return model.SwapSimulation{}, err
	}

	outcome, err := e.sim.SimulateSwap(ctx, fromDesc.Address, toDesc.Address, rawIn, bps, e.cfg.Wallet)
	if err != nil {
		return model.SwapSimulation{}, err
	}

	amountOut, err := convert.ToDecimal(outcome.AmountOut, toDesc.Decimals)
	if err != nil {
		return model.SwapSimulation{}, err
	}
	return model.SwapSimulation{
		AmountOut:   amountOut,
		GasEstimate: outcome.GasEstimate,
		FeeTier:     outcome.FeeTier,
	}, nil
}

// slippageToBps converts a percent string like "0.5" to whole basis
// points, truncating sub-bps precision.
func slippageToBps(slippagePercent string) (int64, error) {
	slippage, err := decimal.NewFromString(slippagePercent)
	if err != nil {
		return 0, model.WrapError(model.ErrInvalidSlippage, model.StepConvert, err,
			"invalid slippage: %s", slippagePercent)
	}
	if slippage.Sign() < 0 || !slippage.LessThan(decimal.New(100, 0)) {
		return 0, model.NewError(model.ErrInvalidSlippage, model.StepConvert,
			"slippage %s%% out of range [0, 100)", slippage)
	}
	return slippage.Mul(decimal.New(100, 0)).IntPart(), nil
}

func (e *Engine) record(ctx context.Context, record model.AuditRecord) {
	if e.audit == nil {
		return
	}
	record.Timestamp = time.Now().UTC()
	record.ChainID = e.cfg.ChainID
	if err := e.audit.PutAuditBatch(ctx, []model.AuditRecord{record}); err != nil {
		e.logger.Warn("audit write failed", zap.String("operation", record.Operation), zap.Error(err))
	}
}

func amountString(amount decimal.Decimal, err error) string {
	if err != nil {
		return ""
	}
	return amount.String()
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	return string(model.KindOf(err))
}
