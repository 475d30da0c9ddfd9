package engine

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"tradeScope/internal/dex"
	"tradeScope/internal/model"
	"tradeScope/internal/token"
)

var (
	testQuoter = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testRouter = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testWallet = common.HexToAddress("0x3000000000000000000000000000000000000000")
	testWETH   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testUSDC   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// fakeBackend serves native balances plus ERC-20 views (decimals, symbol,
// balanceOf) from in-memory tables.
type fakeBackend struct {
	native   map[common.Address]*big.Int
	decimals map[common.Address]uint8
	balances map[common.Address]map[common.Address]*big.Int
}

func (f *fakeBackend) BalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	if raw, ok := f.native[account]; ok {
		return raw, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := token.ERC20ABI()
	if err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("missing selector")
	}
	switch {
	case bytes.Equal(msg.Data[:4], parsed.Methods["decimals"].ID):
		decimals, ok := f.decimals[*msg.To]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return parsed.Methods["decimals"].Outputs.Pack(decimals)
	case bytes.Equal(msg.Data[:4], parsed.Methods["symbol"].ID):
		return nil, errors.New("execution reverted")
	case bytes.Equal(msg.Data[:4], parsed.Methods["balanceOf"].ID):
		values, err := parsed.Methods["balanceOf"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		holder := values[0].(common.Address)
		raw := big.NewInt(0)
		if table, ok := f.balances[*msg.To]; ok && table[holder] != nil {
			raw = table[holder]
		}
		return parsed.Methods["balanceOf"].Outputs.Pack(raw)
	}
	return nil, errors.New("execution reverted")
}

// fakeTierQuoter answers quoter calls from a fee-tier table; missing tiers
// revert like pool-less quotes do.
type fakeTierQuoter struct {
	quotes map[model.FeeTier]*big.Int
}

func (f *fakeTierQuoter) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := dex.QuoterABI()
	if err != nil {
		return nil, err
	}
	method := parsed.Methods["quoteExactInputSingle"]
	values, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	fee := values[2].(*big.Int)
	quote, ok := f.quotes[model.FeeTier(fee.Uint64())]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return method.Outputs.Pack(quote)
}

// fakeRouterCaller answers the overridden swap call with a fixed output.
type fakeRouterCaller struct {
	amountOut *big.Int
	gas       uint64
}

func (f *fakeRouterCaller) CallWithOverrides(_ context.Context, _ ethereum.CallMsg, _ model.StateOverrideSet) ([]byte, error) {
	parsed, err := dex.RouterABI()
	if err != nil {
		return nil, err
	}
	return parsed.Methods["exactInputSingle"].Outputs.Pack(f.amountOut)
}

func (f *fakeRouterCaller) EstimateGasWithOverrides(_ context.Context, _ ethereum.CallMsg, _ model.StateOverrideSet) (uint64, error) {
	return f.gas, nil
}

// memorySink records every audit batch in memory.
type memorySink struct {
	records []model.AuditRecord
}

func (s *memorySink) PutAuditBatch(_ context.Context, batch []model.AuditRecord) error {
	s.records = append(s.records, batch...)
	return nil
}

type engineFixture struct {
	engine  *Engine
	backend *fakeBackend
	sink    *memorySink
}

func newFixture(quotes map[model.FeeTier]*big.Int, router *fakeRouterCaller) *engineFixture {
	backend := &fakeBackend{
		native:   map[common.Address]*big.Int{},
		decimals: map[common.Address]uint8{testUSDC: 6},
		balances: map[common.Address]map[common.Address]*big.Int{},
	}
	dir := token.StaticDirectory{
		"USDC": {{Address: testUSDC, Decimals: 6, Symbol: "USDC"}},
	}
	resolver := token.NewResolver(dir, backend, testWETH, nil)
	prober := dex.NewProber(&fakeTierQuoter{quotes: quotes}, testQuoter, nil)
	sim := dex.NewSimulator(router, prober, testRouter, nil)
	sink := &memorySink{}

	eng := New(Config{ChainID: 1, Wallet: testWallet}, backend, resolver, prober, sim, sink, nil)
	return &engineFixture{engine: eng, backend: backend, sink: sink}
}

func TestGetBalanceNative(t *testing.T) {
	fx := newFixture(nil, nil)
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	fx.backend.native[testWallet] = raw

	amount, err := fx.engine.GetBalance(context.Background(), testWallet.Hex(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.String() != "1.5" {
		t.Fatalf("amount mismatch: %s", amount)
	}

	if len(fx.sink.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(fx.sink.records))
	}
	record := fx.sink.records[0]
	if record.Operation != "get_balance" || record.AmountOut != "1.5" || record.ErrorKind != "" {
		t.Fatalf("audit record mismatch: %+v", record)
	}
	if record.ChainID != 1 || record.Timestamp.IsZero() {
		t.Fatalf("audit envelope mismatch: %+v", record)
	}
}

func TestGetBalanceToken(t *testing.T) {
	fx := newFixture(nil, nil)
	fx.backend.balances[testUSDC] = map[common.Address]*big.Int{
		testWallet: big.NewInt(2_500_000),
	}

	amount, err := fx.engine.GetBalance(context.Background(), testWallet.Hex(), "USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.String() != "2.5" {
		t.Fatalf("amount mismatch: %s", amount)
	}
}

func TestGetBalanceInvalidWallet(t *testing.T) {
	fx := newFixture(nil, nil)

	_, err := fx.engine.GetBalance(context.Background(), "not-an-address", "")
	if !model.IsKind(err, model.ErrInvalidAddress) {
		t.Fatalf("kind mismatch: %v", err)
	}
	if len(fx.sink.records) != 1 || fx.sink.records[0].ErrorKind != string(model.ErrInvalidAddress) {
		t.Fatalf("failed operations must still be journaled: %+v", fx.sink.records)
	}
}

func TestGetTokenPrice(t *testing.T) {
	// One whole WETH quoted to 3000 USDC, only the 0.30% pool exists.
	fx := newFixture(map[model.FeeTier]*big.Int{
		model.FeeTier3000: big.NewInt(3_000_000_000),
	}, nil)

	result, err := fx.engine.GetTokenPrice(context.Background(), "ETH", "USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Price.String() != "3000" {
		t.Fatalf("price mismatch: %s", result.Price)
	}
	if result.FeeTier != model.FeeTier3000 {
		t.Fatalf("tier mismatch: %d", result.FeeTier)
	}
}

func TestGetTokenPriceNoLiquidity(t *testing.T) {
	fx := newFixture(nil, nil)

	_, err := fx.engine.GetTokenPrice(context.Background(), "ETH", "USDC")
	if !model.IsKind(err, model.ErrNoLiquidity) {
		t.Fatalf("kind mismatch: %v", err)
	}
}

func TestGetTokenPriceUnknownSymbol(t *testing.T) {
	fx := newFixture(nil, nil)

	_, err := fx.engine.GetTokenPrice(context.Background(), "NOPE", "USDC")
	if !model.IsKind(err, model.ErrUnknownSymbol) {
		t.Fatalf("kind mismatch: %v", err)
	}
}

func TestSwapTokens(t *testing.T) {
	fx := newFixture(map[model.FeeTier]*big.Int{
		model.FeeTier500:  big.NewInt(2_990_000_000),
		model.FeeTier3000: big.NewInt(3_000_000_000),
	}, &fakeRouterCaller{amountOut: big.NewInt(2_995_000_000), gas: 180_000})

	result, err := fx.engine.SwapTokens(context.Background(), "ETH", "USDC", "1", "0.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AmountOut.String() != "2995" {
		t.Fatalf("amount mismatch: %s", result.AmountOut)
	}
	if result.GasEstimate != 180_000 {
		t.Fatalf("gas mismatch: %d", result.GasEstimate)
	}
	if result.FeeTier != model.FeeTier3000 {
		t.Fatalf("tier mismatch: %d", result.FeeTier)
	}

	record := fx.sink.records[len(fx.sink.records)-1]
	if record.Operation != "swap_tokens" || record.Wallet != testWallet.Hex() || record.Gas != 180_000 {
		t.Fatalf("audit record mismatch: %+v", record)
	}
}

func TestSwapTokensRejectsFractionalDust(t *testing.T) {
	fx := newFixture(map[model.FeeTier]*big.Int{
		model.FeeTier3000: big.NewInt(1),
	}, &fakeRouterCaller{amountOut: big.NewInt(1), gas: 1})

	// USDC carries 6 decimals; 7 fractional digits cannot be represented.
	_, err := fx.engine.SwapTokens(context.Background(), "USDC", "ETH", "1.0000001", "0.5")
	if !model.IsKind(err, model.ErrPrecisionLoss) {
		t.Fatalf("kind mismatch: %v", err)
	}
}

func TestSwapTokensInvalidSlippage(t *testing.T) {
	fx := newFixture(map[model.FeeTier]*big.Int{
		model.FeeTier3000: big.NewInt(1),
	}, &fakeRouterCaller{amountOut: big.NewInt(1), gas: 1})

	for _, slippage := range []string{"-0.5", "100", "abc"} {
		_, err := fx.engine.SwapTokens(context.Background(), "ETH", "USDC", "1", slippage)
		if !model.IsKind(err, model.ErrInvalidSlippage) {
			t.Fatalf("%q: kind mismatch: %v", slippage, err)
		}
	}
}

func TestSlippageToBps(t *testing.T) {
	cases := []struct {
		percent string
		want    int64
	}{
		{"0", 0},
		{"0.5", 50},
		{"1", 100},
		{"0.001", 0}, // sub-bps precision truncates
		{"99.99", 9999},
	}
	for _, tc := range cases {
		got, err := slippageToBps(tc.percent)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.percent, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.percent, got, tc.want)
		}
	}
}
