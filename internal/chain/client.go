package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"tradeScope/internal/model"
)

// Client wraps go-ethereum RPC and provides the read-only call surface the
// engine needs, including per-call state overrides.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := withRetry(ctx, defaultMaxRetries, defaultRetryDelay, func(ctx context.Context) error {
		var err error
		id, err = c.ethClient.ChainID(ctx)
		return err
	})
	return id, err
}

// BalanceAt returns the native coin balance of an account at the latest
// block. A balance read never reverts, so any failure is transient and
// worth retrying.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := withRetry(ctx, defaultMaxRetries, defaultRetryDelay, func(ctx context.Context) error {
		var err error
		balance, err = c.ethClient.BalanceAt(ctx, account, nil)
		return err
	})
	return balance, err
}

// CallContract performs an eth_call without overrides.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// CallWithOverrides performs an eth_call with a state override set applied
// only for the duration of this call.
func (c *Client) CallWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides model.StateOverrideSet) ([]byte, error) {
	var result hexutil.Bytes
	err := c.rpcClient.CallContext(ctx, &result, "eth_call", toCallArg(msg), "latest", overrides)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EstimateGasWithOverrides estimates gas for the call under the same state
// override set.
func (c *Client) EstimateGasWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides model.StateOverrideSet) (uint64, error) {
	var result hexutil.Uint64
	err := c.rpcClient.CallContext(ctx, &result, "eth_estimateGas", toCallArg(msg), "latest", overrides)
	if err != nil {
		return 0, err
	}
	return uint64(result), nil
}

func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"from": msg.From,
		"to":   msg.To,
	}
	if len(msg.Data) > 0 {
		arg["input"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}
