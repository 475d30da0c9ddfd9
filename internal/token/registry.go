package token

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradeScope/internal/model"
)

// Directory is a symbol -> token listing lookup. Implementations may
// return multiple entries for one symbol; the resolver disambiguates.
type Directory interface {
	Lookup(ctx context.Context, symbol string) ([]model.DirectoryEntry, error)
}

// StaticDirectory serves a fixed symbol map. Symbols are matched
// case-insensitively.
type StaticDirectory map[string][]model.DirectoryEntry

func (d StaticDirectory) Lookup(_ context.Context, symbol string) ([]model.DirectoryEntry, error) {
	return d[strings.ToUpper(symbol)], nil
}

// TokenListDirectory loads a token-list JSON document over HTTP (the
// standard token-list schema), filtered by chain id. The list is fetched
// once per process and treated as eventually stale; Refresh re-fetches.
type TokenListDirectory struct {
	url     string
	chainID uint64
	client  *http.Client
	logger  *zap.Logger

	mu      sync.RWMutex
	entries map[string][]model.DirectoryEntry
}

// NewTokenListDirectory builds a directory backed by a token-list URL.
func NewTokenListDirectory(url string, chainID uint64, client *http.Client, logger *zap.Logger) *TokenListDirectory {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenListDirectory{url: url, chainID: chainID, client: client, logger: logger}
}

type tokenListDocument struct {
	Tokens []struct {
		ChainID  uint64 `json:"chainId"`
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	} `json:"tokens"`
}

// Lookup returns all listings for a symbol, fetching the list on first use.
func (d *TokenListDirectory) Lookup(ctx context.Context, symbol string) ([]model.DirectoryEntry, error) {
	d.mu.RLock()
	entries := d.entries
	d.mu.RUnlock()

	if entries == nil {
		if err := d.Refresh(ctx); err != nil {
			return nil, err
		}
		d.mu.RLock()
		entries = d.entries
		d.mu.RUnlock()
	}

	return entries[strings.ToUpper(symbol)], nil
}

// Refresh re-fetches the token list.
func (d *TokenListDirectory) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return model.WrapError(model.ErrTransportFailure, model.StepResolve, err, "build token list request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return model.WrapError(model.ErrTransportFailure, model.StepResolve, err, "fetch token list %s", d.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewError(model.ErrTransportFailure, model.StepResolve,
			"token list %s returned %s", d.url, resp.Status)
	}

	var doc tokenListDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return model.WrapError(model.ErrTransportFailure, model.StepResolve, err, "parse token list")
	}

	entries := make(map[string][]model.DirectoryEntry)
	for _, item := range doc.Tokens {
		if item.ChainID != d.chainID {
			continue
		}
		if !common.IsHexAddress(item.Address) {
			continue
		}
		key := strings.ToUpper(item.Symbol)
		entries[key] = append(entries[key], model.DirectoryEntry{
			Address:  common.HexToAddress(item.Address),
			Decimals: item.Decimals,
			Symbol:   item.Symbol,
		})
	}

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()

	d.logger.Info("token directory loaded",
		zap.String("url", d.url),
		zap.Uint64("chain_id", d.chainID),
		zap.Int("symbols", len(entries)),
	)
	return nil
}

var _ Directory = (*TokenListDirectory)(nil)
