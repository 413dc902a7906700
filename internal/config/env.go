package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DBPath       string `envconfig:"WALLET_DB_PATH" default:"wallet.db"`
	DirectoryURL string `envconfig:"DIRECTORY_URL" required:"true"`
	SolanaRPCURL string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	EVMRPCURL    string `envconfig:"EVM_RPC_URL" default:"https://eth.llamarpc.com"`

	// ConfirmTimeoutSeconds bounds how long a transfer submission waits for
	// on-chain confirmation before classifying the outcome as unknown.
	ConfirmTimeoutSeconds int `envconfig:"CONFIRM_TIMEOUT_SECONDS" default:"60"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetDBPath returns path to the embedded wallet database
func GetDBPath() string {
	return Get().DBPath
}

// GetDirectoryURL returns the identity directory base URL
func GetDirectoryURL() string {
	return Get().DirectoryURL
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetEVMRPCURL returns EVM JSON-RPC URL from configuration
func GetEVMRPCURL() string {
	return Get().EVMRPCURL
}

// GetConfirmTimeoutSeconds returns the confirmation wait budget in seconds
func GetConfirmTimeoutSeconds() int {
	return Get().ConfirmTimeoutSeconds
}
