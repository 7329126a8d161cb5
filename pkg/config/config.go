package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Nodes    NodesConfig    `mapstructure:"nodes"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type StorageConfig struct {
	// Backend selects the durable store: "memory", "file" or "redis"
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WalletConfig struct {
	KeystorePath string `mapstructure:"keystore_path"`
	// AutolockHours re-locks an unlocked wallet after this many idle hours
	AutolockHours int `mapstructure:"autolock_hours"`
	// FirstPartyDomains may skip approval for selected methods
	FirstPartyDomains []string `mapstructure:"first_party_domains"`
}

type NodesConfig struct {
	// AvalancheURL is the avalanchego node base URL for X/P/C issueTx
	AvalancheURL string `mapstructure:"avalanche_url"`
	// BitcoinURL is an esplora-style API base URL for BTC broadcast
	BitcoinURL string `mapstructure:"bitcoin_url"`
}

type ApprovalConfig struct {
	// BaseRoute is prepended to handler approval routes when opening the popup
	BaseRoute string `mapstructure:"base_route"`
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.path", "wallet-state.json")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("wallet.keystore_path", "wallet.json")
	viper.SetDefault("wallet.autolock_hours", 12)
	viper.SetDefault("wallet.first_party_domains", []string{"core.app"})

	viper.SetDefault("approval.base_route", "/approve")

	viper.SetDefault("nodes.avalanche_url", "https://api.avax.network")
	viper.SetDefault("nodes.bitcoin_url", "https://blockstream.info/api")
}
