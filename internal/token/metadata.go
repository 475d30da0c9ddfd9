package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradeScope/internal/model"
)

// ContractCaller is the read-only call primitive metadata fetches need.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FetchDecimals reads a token contract's declared decimal exponent.
func FetchDecimals(ctx context.Context, caller ContractCaller, token common.Address) (uint8, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callERC20(ctx, caller, token, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

// FetchSymbol reads a token contract's symbol, falling back to the legacy
// bytes32 encoding some old tokens use. Missing symbol is not an error.
func FetchSymbol(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) string {
	if parsed, err := ERC20ABI(); err == nil {
		if values, err := callERC20(ctx, caller, token, parsed, "symbol"); err == nil {
			if symbol, ok := values[0].(string); ok {
				return symbol
			}
		}
	}
	if parsed, err := erc20ABIBytes32Instance(); err == nil {
		if values, err := callERC20(ctx, caller, token, parsed, "symbol"); err == nil {
			if symbol, ok := bytes32ToString(values[0]); ok {
				return symbol
			}
		} else if logger != nil {
			logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
	}
	return ""
}

// BalanceOf reads a wallet's token balance.
func BalanceOf(ctx context.Context, caller ContractCaller, token, wallet common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("balanceOf", wallet)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, model.WrapError(model.ErrTransportFailure, model.StepCall, err, "call balanceOf on %s", token.Hex())
	}
	values, err := parsed.Unpack("balanceOf", resp)
	if err != nil {
		return nil, model.WrapError(model.ErrTransportFailure, model.StepDecode, err, "decode balanceOf")
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, model.NewError(model.ErrTransportFailure, model.StepDecode, "unexpected balance type %T", values[0])
	}
	return balance, nil
}

func callERC20(ctx context.Context, caller ContractCaller, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
