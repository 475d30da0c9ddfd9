package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradeScope/internal/model"
)

// ContractCaller is the read-only call primitive the prober depends on.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Prober queries every supported fee tier for a quote and selects the best.
type Prober struct {
	caller ContractCaller
	quoter common.Address
	logger *zap.Logger

	// Prefer reports whether candidate should replace current as the best
	// quote. Nil selects greatest output, ties broken by lowest fee tier.
	Prefer func(current, candidate model.PoolQuote) bool
}

// NewProber builds a Prober against a quoter contract.
func NewProber(caller ContractCaller, quoter common.Address, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{caller: caller, quoter: quoter, logger: logger}
}

// BestQuote probes all fee tiers concurrently for swapping amountIn of
// tokenIn into tokenOut and returns the best candidate. Every tier
// completes (or fails as no-pool) before selection; a tier whose pool is
// missing or whose call reverts contributes no candidate.
func (p *Prober) BestQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (model.PoolQuote, error) {
	quotes, err := p.probeAll(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return model.PoolQuote{}, err
	}
	return p.selectBest(quotes, tokenIn, tokenOut)
}

func (p *Prober) probeAll(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]model.PoolQuote, error) {
	tiers := model.AllFeeTiers()
	quotes := make([]model.PoolQuote, len(tiers))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		i, tier := i, tier
		group.Go(func() error {
			amountOut, err := p.quoteTier(groupCtx, tokenIn, tokenOut, tier, amountIn)
			if err != nil {
				// Missing pool, revert, and transport timeout all count
				// the same: this tier offers no candidate.
				p.logger.Debug("tier quote failed",
					zap.Uint32("fee_tier", uint32(tier)),
					zap.String("token_in", tokenIn.Hex()),
					zap.String("token_out", tokenOut.Hex()),
					zap.Error(err),
				)
				quotes[i] = model.PoolQuote{FeeTier: tier}
				return nil
			}
			quotes[i] = model.PoolQuote{FeeTier: tier, AmountOut: amountOut, PoolExists: true}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, model.WrapError(model.ErrTransportFailure, model.StepProbe, err, "probe fan-out")
	}
	if err := ctx.Err(); err != nil {
		return nil, model.WrapError(model.ErrTransportFailure, model.StepProbe, err, "probe cancelled")
	}
	return quotes, nil
}

func (p *Prober) quoteTier(ctx context.Context, tokenIn, tokenOut common.Address, tier model.FeeTier, amountIn *big.Int) (*big.Int, error) {
	parsed, err := QuoterABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("quoteExactInputSingle",
		tokenIn, tokenOut, big.NewInt(int64(tier)), amountIn, big.NewInt(0))
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{To: &p.quoter, Data: data}
	resp, err := p.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	values, err := parsed.Unpack("quoteExactInputSingle", resp)
	if err != nil {
		return nil, err
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, model.NewError(model.ErrTransportFailure, model.StepDecode, "unexpected quote type %T", values[0])
	}
	return amountOut, nil
}

func (p *Prober) selectBest(quotes []model.PoolQuote, tokenIn, tokenOut common.Address) (model.PoolQuote, error) {
	prefer := p.Prefer
	if prefer == nil {
		prefer = preferGreatestOutput
	}

	var best model.PoolQuote
	for _, quote := range quotes {
		if !quote.PoolExists || quote.AmountOut == nil || quote.AmountOut.Sign() == 0 {
			continue
		}
		if !best.PoolExists || prefer(best, quote) {
			best = quote
		}
	}
	if !best.PoolExists {
		return model.PoolQuote{}, model.NewError(model.ErrNoLiquidity, model.StepProbe,
			"no liquidity for pair %s/%s in any fee tier", tokenIn.Hex(), tokenOut.Hex())
	}
	return best, nil
}

// preferGreatestOutput picks the strictly greater output; on equal output
// the lower fee tier wins.
func preferGreatestOutput(current, candidate model.PoolQuote) bool {
	switch candidate.AmountOut.Cmp(current.AmountOut) {
	case 1:
		return true
	case 0:
		return candidate.FeeTier < current.FeeTier
	default:
		return false
	}
}
