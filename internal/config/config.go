// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string   `mapstructure:"listen_addr"`
	OracleURL       string   `mapstructure:"oracle_url"`
	DLMMAPIURL      string   `mapstructure:"dlmm_api_url"`
	TrackedWallet   string   `mapstructure:"tracked_wallet"`
	RefreshInterval int      `mapstructure:"refresh_interval"`  // seconds
	PriceCacheTTL   int      `mapstructure:"price_cache_ttl"`   // seconds
	OracleRateLimit int      `mapstructure:"oracle_rate_limit"` // requests per minute
	Retries         int      `mapstructure:"retries"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	DebugLogging    bool     `mapstructure:"debug_logging"`
}

const (
	DefaultListenAddr      = ":8080"
	DefaultOracleURL       = "https://price.jup.ag/v4"
	DefaultDLMMAPIURL      = "https://dlmm-api.meteora.ag"
	DefaultRefreshInterval = 60
	DefaultPriceCacheTTL   = 30
	DefaultOracleRateLimit = 300
	DefaultRetries         = 3
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":       DefaultListenAddr,
		"oracle_url":        DefaultOracleURL,
		"dlmm_api_url":      DefaultDLMMAPIURL,
		"refresh_interval":  DefaultRefreshInterval,
		"price_cache_ttl":   DefaultPriceCacheTTL,
		"oracle_rate_limit": DefaultOracleRateLimit,
		"retries":           DefaultRetries,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("missing listen_addr in configuration")
	}
	if err := validateURLWithCache(cfg.OracleURL, "http"); err != nil {
		return errors.New("invalid oracle URL protocol")
	}
	if err := validateURLWithCache(cfg.DLMMAPIURL, "http"); err != nil {
		return errors.New("invalid DLMM API URL protocol")
	}
	if cfg.TrackedWallet != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.TrackedWallet); err != nil {
			return errors.New("invalid tracked_wallet address")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.RefreshInterval <= 0 {
		return errors.New("invalid refresh_interval")
	}
	if cfg.PriceCacheTTL <= 0 {
		return errors.New("invalid price_cache_ttl")
	}
	if cfg.OracleRateLimit <= 0 {
		return errors.New("invalid oracle_rate_limit")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("DLMM_PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envOracle := v.GetString("ORACLE_URL"); envOracle != "" {
		cfg.OracleURL = envOracle
	}
	if envAPI := v.GetString("DLMM_API_URL"); envAPI != "" {
		cfg.DLMMAPIURL = envAPI
	}
	if envWallet := v.GetString("TRACKED_WALLET"); envWallet != "" {
		cfg.TrackedWallet = envWallet
	}
	return nil
}
