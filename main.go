package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"

	"github.com/ethdenver2026/ens-gateway/clock"
	"github.com/ethdenver2026/ens-gateway/config"
	"github.com/ethdenver2026/ens-gateway/dispatch"
	"github.com/ethdenver2026/ens-gateway/httpapi"
	"github.com/ethdenver2026/ens-gateway/resolver"
	"github.com/ethdenver2026/ens-gateway/signer"
	"github.com/ethdenver2026/ens-gateway/store"
)

func main() {
	setupLogging()

	root := &cobra.Command{
		Use:   "ens-gateway",
		Short: "CCIP-Read offchain gateway for the ENS offchain resolver",
		RunE:  run,
	}
	config.BindFlags(root)

	if err := root.Execute(); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

// setupLogging configures the default slog handler. LOG_LEVEL takes
// precedence; RUST_LOG is honored for operators migrating config from
// the original Rust gateway.
func setupLogging() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = os.Getenv("RUST_LOG")
	}
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") || strings.EqualFold(level, "trace") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromFlags(cmd)
	if err != nil {
		return err
	}

	recordStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if closer, ok := recordStore.(interface{ Close() }); ok {
		defer closer.Close()
	}

	sg, err := signer.NewLocalSigner(cfg.PrivateKey)
	if err != nil {
		return err
	}

	res, err := resolver.New(recordStore, sg, clock.System{}, uint64(cfg.TTL.Seconds()))
	if err != nil {
		return err
	}

	outerABI, err := abi.JSON(strings.NewReader(resolver.ResolveABIJSON))
	if err != nil {
		return err
	}

	registry := dispatch.NewRegistry()
	if err := registry.Register(outerABI, resolver.ResolveFunctionName, res.Handle); err != nil {
		return err
	}

	server := httpapi.New(registry)

	slog.Info("gateway starting",
		"addr", cfg.Addr(),
		"signer", sg.Address().Hex(),
		"store", string(cfg.Store),
		"ttl", cfg.TTL,
	)

	return http.ListenAndServe(cfg.Addr(), server)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreBackendPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return store.NewJSONStore(cfg.JSONStorePath)
	}
}

