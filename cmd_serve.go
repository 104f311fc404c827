package main

import (
	"fmt"

	"topics_go/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the categories/topics HTTP server",
	RunE:  runServe,
}

func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("port", "", "HTTP port (overrides PORT)")
	f.String("data-dir", "", "directory with categories.json and topics.json")
	f.String("driver", "", "storage driver: json, sqlite or postgres")
	f.String("dsn", "", "database DSN for sqlite/postgres")
	f.Bool("watch", false, "reload JSON data files when they change on disk")
	f.String("auth-token", "", "require this bearer token on API routes")
}

// applyServeFlags переносит явно заданные флаги поверх конфигурации
func applyServeFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	strFlags := map[string]*string{
		"port":       &cfg.Server.Port,
		"data-dir":   &cfg.Storage.DataDir,
		"driver":     &cfg.Storage.Driver,
		"dsn":        &cfg.Storage.DSN,
		"auth-token": &cfg.Server.AuthToken,
	}
	for name, dst := range strFlags {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if f.Changed("watch") {
		v, err := f.GetBool("watch")
		if err != nil {
			return err
		}
		cfg.Storage.Watch = v
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := applyServeFlags(cmd); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := cmd.Context()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("[SERVER WARN] failed to close storage", zap.Error(err))
		}
	}()

	logger.Info("[SERVER] starting",
		zap.String("addr", cfg.Addr()),
		zap.String("driver", cfg.Storage.Driver),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.Bool("watch", cfg.Storage.Watch),
	)
	return srv.ListenAndServe(ctx)
}
