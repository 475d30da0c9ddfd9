package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	ChainID       uint64
	Wallet        string
	Quoter        string
	Router        string
	WrappedNative string
	TokenListURL  string
	RPCTimeout    time.Duration
	AuditOut      string
	PGDSN         string
	LogLevel      string
}

// Mainnet Uniswap V3 deployments; every venue address is overridable.
const (
	defaultQuoter        = "0xb27308f9F90D607463bb33ea1BeBb41C27CE5AB6"
	defaultRouter        = "0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45"
	defaultWrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	defaultTokenList     = "https://tokens.uniswap.org"

	// Simulation sender when no wallet is configured. Never a key holder;
	// any address works because the override funds it.
	defaultWallet = "0x000000000000000000000000000000000000dEaD"
)

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRADESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("wallet", defaultWallet)
	v.SetDefault("quoter", defaultQuoter)
	v.SetDefault("router", defaultRouter)
	v.SetDefault("wrapped-native", defaultWrappedNative)
	v.SetDefault("token-list", defaultTokenList)
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		ChainID:       v.GetUint64("chain-id"),
		Wallet:        v.GetString("wallet"),
		Quoter:        v.GetString("quoter"),
		Router:        v.GetString("router"),
		WrappedNative: v.GetString("wrapped-native"),
		TokenListURL:  v.GetString("token-list"),
		RPCTimeout:    v.GetDuration("rpc-timeout"),
		AuditOut:      v.GetString("audit-out"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
