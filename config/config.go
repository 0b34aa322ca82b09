// Package config loads the gateway's runtime configuration: the signing
// key, response TTL, listen address, and record store backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// StoreBackend selects which record store implementation the gateway
// runs against.
type StoreBackend string

const (
	StoreBackendJSON     StoreBackend = "json"
	StoreBackendPostgres StoreBackend = "postgres"
)

// Config holds all gateway configuration.
type Config struct {
	// PrivateKey is the hex-encoded ECDSA key used to sign resolve()
	// responses.
	PrivateKey string

	// TTL is how long a signed response remains valid for the on-chain
	// verifier.
	TTL time.Duration

	// ListenIP and ListenPort are the HTTP bind address.
	ListenIP   string
	ListenPort int

	// Store selects which backend serves record lookups.
	Store StoreBackend

	// JSONStorePath is the file a StoreBackendJSON store loads from.
	JSONStorePath string

	// DatabaseURL is the Postgres connection string a StoreBackendPostgres
	// store connects to.
	DatabaseURL string
}

// Addr returns the HTTP listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenIP, c.ListenPort)
}

// Load reads configuration from environment variables. A .env file in
// the working directory is loaded if present (dev convenience).
func Load() (*Config, error) {
	_ = godotenv.Load() // no-op if .env absent (production uses real env vars)
	jsonPath := getEnv("JSON_STORE_PATH", "")
	databaseURL := getEnv("DATABASE_URL", "")

	cfg := &Config{
		PrivateKey:    getEnv("PRIVATE_KEY", ""),
		TTL:           time.Duration(getEnvInt("TTL", 300)) * time.Second,
		ListenIP:      getEnv("LISTEN_IP", "127.0.0.1"),
		ListenPort:    getEnvInt("LISTEN_PORT", 8080),
		JSONStorePath: jsonPath,
		DatabaseURL:   databaseURL,
	}
	cfg.Store = inferStoreBackend(jsonPath, databaseURL)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlags registers the gateway's flags on cmd, matching the CLI
// surface: --privatekey, --ttl, --ip, --port, and exactly one of --json
// <path> / --postgres <conn>. Each defaults to its environment variable
// (or built-in fallback) so flags and env vars are interchangeable.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("privatekey", getEnv("PRIVATE_KEY", ""), "hex-encoded ECDSA signing key (env PRIVATE_KEY)")
	flags.Int("ttl", getEnvInt("TTL", 300), "response validity window in seconds (env TTL)")
	flags.String("ip", getEnv("LISTEN_IP", "127.0.0.1"), "HTTP listen address (env LISTEN_IP)")
	flags.Int("port", getEnvInt("LISTEN_PORT", 8080), "HTTP listen port (env LISTEN_PORT)")
	flags.String("json", getEnv("JSON_STORE_PATH", ""), "path to a JSON record file")
	flags.String("postgres", getEnv("DATABASE_URL", ""), "Postgres connection string (env DATABASE_URL)")
}

// FromFlags builds a Config from cmd's parsed flags (see BindFlags).
func FromFlags(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()

	privateKey, err := flags.GetString("privatekey")
	if err != nil {
		return nil, err
	}
	ttl, err := flags.GetInt("ttl")
	if err != nil {
		return nil, err
	}
	listenIP, err := flags.GetString("ip")
	if err != nil {
		return nil, err
	}
	listenPort, err := flags.GetInt("port")
	if err != nil {
		return nil, err
	}
	jsonPath, err := flags.GetString("json")
	if err != nil {
		return nil, err
	}
	databaseURL, err := flags.GetString("postgres")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PrivateKey:    privateKey,
		TTL:           time.Duration(ttl) * time.Second,
		ListenIP:      listenIP,
		ListenPort:    listenPort,
		Store:         inferStoreBackend(jsonPath, databaseURL),
		JSONStorePath: jsonPath,
		DatabaseURL:   databaseURL,
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// inferStoreBackend picks the store from whichever of --json/--postgres
// was supplied; validate rejects the case where both or neither are set.
func inferStoreBackend(jsonPath, databaseURL string) StoreBackend {
	if databaseURL != "" {
		return StoreBackendPostgres
	}
	return StoreBackendJSON
}

func validate(cfg *Config) error {
	if cfg.PrivateKey == "" {
		return fmt.Errorf("a private key is required (--privatekey or PRIVATE_KEY)")
	}

	haveJSON := cfg.JSONStorePath != ""
	havePostgres := cfg.DatabaseURL != ""
	switch {
	case haveJSON && havePostgres:
		return fmt.Errorf("--json and --postgres are mutually exclusive, choose one store backend")
	case !haveJSON && !havePostgres:
		return fmt.Errorf("exactly one of --json <path> or --postgres <conn> is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
