package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/config"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/lsp"
)

var (
	port int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio, or TCP with --port",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "TCP port for the LSP server (0 for stdio)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting mdb-lsp",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	server, err := lsp.NewServer(ctx, cfg, logger, lsp.WithVersion(version))
	if err != nil {
		return err
	}
	defer server.Close(context.WithoutCancel(ctx))

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger)
		if err != nil {
			logger.Warn("Configuration reload disabled", zap.Error(err))
		} else {
			watcher.OnReload(server.Reload)
			watcher.Start()
			defer watcher.Close()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if port > 0 {
		err = server.ServeTCP(ctx, port)
	} else {
		err = server.ServeStdio(ctx)
	}
	if err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
