package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akavelink/akavelink"
	"github.com/akavelink/akavelink/config"
	linkhttp "github.com/akavelink/akavelink/http"
	"github.com/akavelink/akavelink/runner"
	"github.com/akavelink/akavelink/txlookup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long:  `Start the Akavelink HTTP gateway.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 4000, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var configFiles []string
	if cf, _ := cmd.Flags().GetString("config"); cf != "" {
		configFiles = append(configFiles, cf)
	}

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Log.Level)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := akavelink.DefaultRegistry()

	runnerOpts := []runner.Option{runner.WithLogger(slog.Default())}
	if cfg.Chain.Enrich {
		lookup, err := txlookup.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			// Enrichment is best-effort; a dead RPC endpoint must not
			// keep the gateway down.
			slog.Warn("tx lookup unavailable, uploads will not be enriched", "err", err)
		} else {
			defer lookup.Close()
			runnerOpts = append(runnerOpts, runner.WithLookup(lookup))
		}
	}

	svc := runner.New(runner.Config{
		Binary:      cfg.CLI.Binary,
		NodeAddress: cfg.Node.Address,
		PrivateKey:  cfg.Node.PrivateKey,
		Enrich:      cfg.Chain.Enrich,
	}, reg, runnerOpts...)

	handlerConfig := linkhttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}
	handler := linkhttp.NewHandler(&handlerConfig, reg, svc)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler.Router(),
		ReadTimeout: 30 * time.Second,
		// Uploads and downloads shell out to the CLI and can be slow;
		// no write timeout is imposed.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "binary", cfg.CLI.Binary, "node", cfg.Node.Address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
