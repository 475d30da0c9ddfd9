package token

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradeScope/internal/model"
)

// Resolver turns a symbol or address into a canonical TokenDescriptor.
// Resolution is side-effect-free; resolved descriptors are cached for the
// process lifetime keyed by canonical address.
type Resolver struct {
	dir           Directory
	caller        ContractCaller
	wrappedNative common.Address
	nativeSymbol  string
	wrappedSymbol string
	logger        *zap.Logger

	mu    sync.RWMutex
	cache map[common.Address]model.TokenDescriptor
}

// NewResolver builds a Resolver over an external directory and a chain
// caller used to fetch declared decimals for raw addresses.
func NewResolver(dir Directory, caller ContractCaller, wrappedNative common.Address, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		dir:           dir,
		caller:        caller,
		wrappedNative: wrappedNative,
		nativeSymbol:  "ETH",
		wrappedSymbol: "WETH",
		logger:        logger,
		cache:         make(map[common.Address]model.TokenDescriptor),
	}
}

// Native returns the descriptor for the chain's native coin: 18 decimals,
// no contract address.
func (r *Resolver) Native() model.TokenDescriptor {
	return model.TokenDescriptor{Decimals: 18, Symbol: r.nativeSymbol, Native: true}
}

// Wrapped returns the descriptor for the wrapped-native token.
func (r *Resolver) Wrapped() model.TokenDescriptor {
	return model.TokenDescriptor{Address: r.wrappedNative, Decimals: 18, Symbol: r.wrappedSymbol}
}

// Resolve maps an address or symbol to a descriptor. The native symbol
// yields the native descriptor; use ResolveERC20 where a contract address
// is required.
func (r *Resolver) Resolve(ctx context.Context, input string) (model.TokenDescriptor, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return model.TokenDescriptor{}, model.NewError(model.ErrInvalidAddress, model.StepResolve, "empty token input")
	}

	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		if !common.IsHexAddress(input) {
			return model.TokenDescriptor{}, model.NewError(model.ErrInvalidAddress, model.StepResolve, "invalid address: %s", input)
		}
		return r.byAddress(ctx, common.HexToAddress(input))
	}

	symbol := strings.ToUpper(input)
	switch symbol {
	case r.nativeSymbol:
		return r.Native(), nil
	case r.wrappedSymbol:
		return r.Wrapped(), nil
	}

	entries, err := r.dir.Lookup(ctx, symbol)
	if err != nil {
		return model.TokenDescriptor{}, err
	}
	entry, err := disambiguate(symbol, entries)
	if err != nil {
		return model.TokenDescriptor{}, err
	}

	descriptor := model.TokenDescriptor{
		Address:  entry.Address,
		Decimals: entry.Decimals,
		Symbol:   entry.Symbol,
	}
	r.store(descriptor)
	return descriptor, nil
}

// ResolveERC20 resolves like Resolve but maps the native coin to the
// wrapped-native contract, for venues that only trade ERC-20 pairs.
func (r *Resolver) ResolveERC20(ctx context.Context, input string) (model.TokenDescriptor, error) {
	descriptor, err := r.Resolve(ctx, input)
	if err != nil {
		return model.TokenDescriptor{}, err
	}
	if descriptor.Native {
		return r.Wrapped(), nil
	}
	return descriptor, nil
}

func (r *Resolver) byAddress(ctx context.Context, address common.Address) (model.TokenDescriptor, error) {
	r.mu.RLock()
	cached, ok := r.cache[address]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	decimals, err := FetchDecimals(ctx, r.caller, address)
	if err != nil {
		return model.TokenDescriptor{}, model.WrapError(model.ErrTransportFailure, model.StepResolve, err,
			"fetch decimals for %s", address.Hex())
	}

	descriptor := model.TokenDescriptor{
		Address:  address,
		Decimals: decimals,
		Symbol:   FetchSymbol(ctx, r.caller, address, r.logger),
	}
	r.store(descriptor)
	return descriptor, nil
}

func (r *Resolver) store(descriptor model.TokenDescriptor) {
	r.mu.Lock()
	r.cache[descriptor.Address] = descriptor
	r.mu.Unlock()
}

// disambiguate picks one listing for a symbol. A ranked directory wins by
// lowest positive rank; unranked duplicates with distinct addresses fail
// rather than guess.
func disambiguate(symbol string, entries []model.DirectoryEntry) (model.DirectoryEntry, error) {
	if len(entries) == 0 {
		return model.DirectoryEntry{}, model.NewError(model.ErrUnknownSymbol, model.StepResolve,
			"symbol %q not found in directory", symbol)
	}
	if len(entries) == 1 {
		return entries[0], nil
	}

	allSame := true
	for _, entry := range entries[1:] {
		if entry.Address != entries[0].Address {
			allSame = false
			break
		}
	}
	if allSame {
		return entries[0], nil
	}

	best := model.DirectoryEntry{}
	for _, entry := range entries {
		if entry.Rank <= 0 {
			continue
		}
		if best.Rank == 0 || entry.Rank < best.Rank {
			best = entry
		}
	}
	if best.Rank > 0 {
		return best, nil
	}

	return model.DirectoryEntry{}, model.NewError(model.ErrAmbiguousSymbol, model.StepResolve,
		"symbol %q has %d unranked listings", symbol, len(entries))
}
