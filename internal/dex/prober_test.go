package dex

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"tradeScope/internal/model"
)

var (
	quoterAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenInA   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenOutB  = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

// fakeQuoter answers quoteExactInputSingle per fee tier; tiers absent from
// the map revert like a missing pool.
type fakeQuoter struct {
	quotes map[model.FeeTier]*big.Int
	calls  atomic.Int32
}

func (f *fakeQuoter) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls.Add(1)

	parsed, err := QuoterABI()
	if err != nil {
		return nil, err
	}
	method := parsed.Methods["quoteExactInputSingle"]
	values, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	fee := values[2].(*big.Int)

	amountOut, ok := f.quotes[model.FeeTier(fee.Uint64())]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return method.Outputs.Pack(amountOut)
}

func TestBestQuoteSelectsGreatestOutput(t *testing.T) {
	caller := &fakeQuoter{quotes: map[model.FeeTier]*big.Int{
		model.FeeTier100:   big.NewInt(900),
		model.FeeTier500:   big.NewInt(1200),
		model.FeeTier3000:  big.NewInt(1100),
		model.FeeTier10000: big.NewInt(400),
	}}
	prober := NewProber(caller, quoterAddr, nil)

	best, err := prober.BestQuote(context.Background(), tokenInA, tokenOutB, big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.FeeTier != model.FeeTier500 {
		t.Fatalf("tier mismatch: %d", best.FeeTier)
	}
	if best.AmountOut.Cmp(big.NewInt(1200)) != 0 {
		t.Fatalf("amount mismatch: %s", best.AmountOut)
	}
	if got := caller.calls.Load(); got != 4 {
		t.Fatalf("expected all four tiers probed, got %d", got)
	}
}

func TestBestQuoteTieBreaksToLowestFee(t *testing.T) {
	caller := &fakeQuoter{quotes: map[model.FeeTier]*big.Int{
		model.FeeTier500:  big.NewInt(1500),
		model.FeeTier3000: big.NewInt(1500),
	}}
	prober := NewProber(caller, quoterAddr, nil)

	best, err := prober.BestQuote(context.Background(), tokenInA, tokenOutB, big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.FeeTier != model.FeeTier500 {
		t.Fatalf("tie should pick lower fee, got %d", best.FeeTier)
	}
}

func TestBestQuoteNoLiquidity(t *testing.T) {
	prober := NewProber(&fakeQuoter{}, quoterAddr, nil)

	_, err := prober.BestQuote(context.Background(), tokenInA, tokenOutB, big.NewInt(1000))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !model.IsKind(err, model.ErrNoLiquidity) {
		t.Fatalf("kind mismatch: %v", err)
	}
}

func TestBestQuoteIgnoresZeroOutput(t *testing.T) {
	caller := &fakeQuoter{quotes: map[model.FeeTier]*big.Int{
		model.FeeTier100: big.NewInt(0),
	}}
	prober := NewProber(caller, quoterAddr, nil)

	_, err := prober.BestQuote(context.Background(), tokenInA, tokenOutB, big.NewInt(1000))
	if !model.IsKind(err, model.ErrNoLiquidity) {
		t.Fatalf("kind mismatch: %v", err)
	}
}

func TestBestQuotePreferenceOverride(t *testing.T) {
	caller := &fakeQuoter{quotes: map[model.FeeTier]*big.Int{
		model.FeeTier500:  big.NewInt(1500),
		model.FeeTier3000: big.NewInt(1500),
	}}
	prober := NewProber(caller, quoterAddr, nil)
	prober.Prefer = func(current, candidate model.PoolQuote) bool {
		switch candidate.AmountOut.Cmp(current.AmountOut) {
		case 1:
			return true
		case 0:
			return candidate.FeeTier > current.FeeTier
		default:
			return false
		}
	}

	best, err := prober.BestQuote(context.Background(), tokenInA, tokenOutB, big.NewInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.FeeTier != model.FeeTier3000 {
		t.Fatalf("override should pick higher fee, got %d", best.FeeTier)
	}
}
