package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tradeScope/internal/chain"
	"tradeScope/internal/config"
	"tradeScope/internal/dex"
	"tradeScope/internal/engine"
	"tradeScope/internal/model"
	"tradeScope/internal/server"
	"tradeScope/internal/storage"
	"tradeScope/internal/storage/postgres"
	"tradeScope/internal/token"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:          "tradescope",
		Short:        "Read-only token price and swap simulation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "Ethereum RPC URL")
	root.PersistentFlags().Uint64("chain-id", 1, "chain id")
	root.PersistentFlags().String("wallet", "", "simulation sender address")
	root.PersistentFlags().String("quoter", "", "V3 quoter contract address")
	root.PersistentFlags().String("router", "", "V3 swap router contract address")
	root.PersistentFlags().String("wrapped-native", "", "wrapped native token address")
	root.PersistentFlags().String("token-list", "", "token list URL")
	root.PersistentFlags().Duration("rpc-timeout", 30*time.Second, "per-operation timeout")
	root.PersistentFlags().String("audit-out", "", "optional JSONL audit journal path")
	root.PersistentFlags().String("pg-dsn", "", "optional Postgres DSN for the audit journal")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the three operations as MCP tools over stdio",
		RunE:  runServe,
	}
	root.AddCommand(serveCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <wallet> [token]",
		Short: "Query a wallet's native or token balance",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runBalance,
	}
	root.AddCommand(balanceCmd)

	priceCmd := &cobra.Command{
		Use:   "price <token> <currency>",
		Short: "Query a token's best-tier price in a currency",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrice,
	}
	root.AddCommand(priceCmd)

	swapCmd := &cobra.Command{
		Use:   "swap <from> <to> <amount>",
		Short: "Simulate a swap and report output and gas",
		RunE:  runSwap,
		Args:  cobra.ExactArgs(3),
	}
	swapCmd.Flags().String("slippage", "0.5", "slippage tolerance in percent")
	root.AddCommand(swapCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	chain  *chain.Client
	engine *engine.Engine
	pg     *postgres.Store
}

func (a *app) close() {
	if a.pg != nil {
		a.pg.Close()
	}
	if a.chain != nil {
		a.chain.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func buildApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	for name, value := range map[string]string{
		"wallet":         cfg.Wallet,
		"quoter":         cfg.Quoter,
		"router":         cfg.Router,
		"wrapped-native": cfg.WrappedNative,
	} {
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid %s address: %s", name, value)
		}
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, chain: chainClient}

	var sinks storage.MultiSink
	if cfg.AuditOut != "" {
		sinks = append(sinks, storage.NewJsonlAudit(cfg.AuditOut))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pg = store
		sinks = append(sinks, store)
	}
	var audit storage.AuditSink
	if len(sinks) > 0 {
		audit = sinks
	}

	directory := token.NewTokenListDirectory(cfg.TokenListURL, cfg.ChainID, nil, logger)
	resolver := token.NewResolver(directory, chainClient, common.HexToAddress(cfg.WrappedNative), logger)
	prober := dex.NewProber(chainClient, common.HexToAddress(cfg.Quoter), logger)
	simulator := dex.NewSimulator(chainClient, prober, common.HexToAddress(cfg.Router), logger)

	a.engine = engine.New(engine.Config{
		ChainID: cfg.ChainID,
		Wallet:  common.HexToAddress(cfg.Wallet),
	}, chainClient, resolver, prober, simulator, audit, logger)

	logger.Info("engine ready",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("quoter", cfg.Quoter),
		zap.String("router", cfg.Router),
		zap.String("token_list", cfg.TokenListURL),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.engine, a.cfg.RPCTimeout, a.logger)
	a.logger.Info("serving MCP tools on stdio", zap.String("version", version))
	return srv.ServeStdio(version)
}

func runBalance(cmd *cobra.Command, args []string) error {
	return runOnce(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		tokenInput := ""
		if len(args) == 2 {
			tokenInput = args[1]
		}
		balance, err := a.engine.GetBalance(ctx, args[0], tokenInput)
		if err != nil {
			return nil, err
		}
		return map[string]string{"balance": balance.String()}, nil
	})
}

func runPrice(cmd *cobra.Command, args []string) error {
	return runOnce(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		result, err := a.engine.GetTokenPrice(ctx, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"price":    result.Price.String(),
			"fee_tier": result.FeeTier.Percent(),
		}, nil
	})
}

func runSwap(cmd *cobra.Command, args []string) error {
	slippage, _ := cmd.Flags().GetString("slippage")
	return runOnce(cmd, func(ctx context.Context, a *app) (interface{}, error) {
		result, err := a.engine.SwapTokens(ctx, args[0], args[1], args[2], slippage)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"amount_to":    result.AmountOut.String(),
			"gas_estimate": result.GasEstimate,
			"fee_tier":     result.FeeTier.Percent(),
		}, nil
	})
}

func runOnce(cmd *cobra.Command, fn func(context.Context, *app) (interface{}, error)) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	opCtx := ctx
	if a.cfg.RPCTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, a.cfg.RPCTimeout)
		defer cancel()
	}

	result, err := fn(opCtx, a)
	if err != nil {
		return fmt.Errorf("%s: %w", model.KindOf(err), err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
