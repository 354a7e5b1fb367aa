package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paperscope/paperscope/internal/semantic"
	"github.com/paperscope/paperscope/internal/server"
)

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the paperscope API over HTTP. On startup the embedding cache
is loaded from the store; it is refreshed in the background at the
configured interval, so papers ingested while the server runs become
searchable without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	logger, err := zap.NewProduction()
	if err != nil {
		exitWithError(ExitError, "creating logger: %v", err)
	}
	defer logger.Sync()

	db := mustOpenStore(cfg)
	defer db.Close()

	cache := semantic.NewCache(cfg.Ollama.Dimensions)
	engine := semantic.NewEngine(cache, newProvider(cfg), db, logger)
	srv := server.New(engine, db, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			exitWithError(ExitError, "server: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			exitWithError(ExitError, "shutdown: %v", err)
		}
	}
	return nil
}
