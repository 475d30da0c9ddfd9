// Package server exposes the engine's three operations as MCP tools over
// stdio. The tool layer only parses string arguments, applies the per-call
// timeout, and maps engine errors to tool error results.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"tradeScope/internal/engine"
	"tradeScope/internal/model"
)

const defaultSlippagePercent = "0.5"

// Server wires engine operations into an MCP tool server.
type Server struct {
	engine  *engine.Engine
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a Server. timeout bounds each tool invocation; zero disables
// the bound.
func New(eng *engine.Engine, timeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: eng, timeout: timeout, logger: logger}
}

// ServeStdio registers the tools and serves MCP over stdin/stdout until
// the stream closes.
func (s *Server) ServeStdio(version string) error {
	mcpServer := server.NewMCPServer("tradescope", version, server.WithToolCapabilities(false))

	mcpServer.AddTool(mcp.NewTool("get_balance",
		mcp.WithDescription("Query native coin and ERC20 token balances. "+
			"If token is not provided, the native asset balance is returned. "+
			"Output: balance as a decimal string."),
		mcp.WithString("wallet_address", mcp.Required(), mcp.Description("Wallet address (0x...)")),
		mcp.WithString("token", mcp.Description("Token symbol (e.g. 'UNI') or address (0x...); omit for the native asset")),
	), s.getBalance)

	mcpServer.AddTool(mcp.NewTool("get_token_price",
		mcp.WithDescription("Get the best available price of a token in the given currency "+
			"across all V3 fee tiers. Output: price as a decimal string plus the source fee tier."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token symbol (e.g. 'UNI') or address (0x...)")),
		mcp.WithString("currency", mcp.Required(), mcp.Description("Currency symbol (e.g. 'USDC', 'WETH') or address (0x...)")),
	), s.getTokenPrice)

	mcpServer.AddTool(mcp.NewTool("swap_tokens",
		mcp.WithDescription("Simulate a V3 token swap to estimate output amount and gas cost. "+
			"Simulation only; no transaction is ever broadcast. "+
			"Output: estimated amount_to and gas_estimate."),
		mcp.WithString("from_token", mcp.Required(), mcp.Description("From token symbol or address")),
		mcp.WithString("to_token", mcp.Required(), mcp.Description("To token symbol or address")),
		mcp.WithString("amount_from", mcp.Required(), mcp.Description("Amount to swap as a decimal string (e.g. '100.5')")),
		mcp.WithString("slippage_percent", mcp.Description("Slippage tolerance in percent as a decimal string (default '"+defaultSlippagePercent+"')")),
	), s.swapTokens)

	return server.ServeStdio(mcpServer)
}

func (s *Server) getBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := stringArg(request, "wallet_address")
	if wallet == "" {
		return mcp.NewToolResultError("wallet_address parameter is required"), nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	balance, err := s.engine.GetBalance(ctx, wallet, stringArg(request, "token"))
	if err != nil {
		return s.toolError("get_balance", err), nil
	}
	return jsonResult(map[string]string{"balance": balance.String()})
}

func (s *Server) getTokenPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenInput := stringArg(request, "token")
	currency := stringArg(request, "currency")
	if tokenInput == "" || currency == "" {
		return mcp.NewToolResultError("token and currency parameters are required"), nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	result, err := s.engine.GetTokenPrice(ctx, tokenInput, currency)
	if err != nil {
		return s.toolError("get_token_price", err), nil
	}
	return jsonResult(map[string]string{
		"price":    result.Price.String(),
		"fee_tier": result.FeeTier.Percent(),
	})
}

func (s *Server) swapTokens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromToken := stringArg(request, "from_token")
	toToken := stringArg(request, "to_token")
	amountFrom := stringArg(request, "amount_from")
	if fromToken == "" || toToken == "" || amountFrom == "" {
		return mcp.NewToolResultError("from_token, to_token and amount_from parameters are required"), nil
	}
	slippage := stringArg(request, "slippage_percent")
	if slippage == "" {
		slippage = defaultSlippagePercent
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	result, err := s.engine.SwapTokens(ctx, fromToken, toToken, amountFrom, slippage)
	if err != nil {
		return s.toolError("swap_tokens", err), nil
	}
	return jsonResult(map[string]interface{}{
		"amount_to":    result.AmountOut.String(),
		"gas_estimate": result.GasEstimate,
		"fee_tier":     result.FeeTier.Percent(),
	})
}

func (s *Server) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	kind := model.KindOf(err)
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.String("kind", string(kind)), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

func stringArg(request mcp.CallToolRequest, key string) string {
	if value, ok := request.GetArguments()[key].(string); ok {
		return value
	}
	return ""
}

func jsonResult(value interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
