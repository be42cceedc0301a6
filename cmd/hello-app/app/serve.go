package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iwishiwala/devops-task/internal/config"
	statusapp "github.com/iwishiwala/devops-task/internal/app"
	"github.com/iwishiwala/devops-task/internal/logger"
	"github.com/iwishiwala/devops-task/internal/versions"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(
		logger.WithLevel(cfg.Log.Level),
		logger.WithFormat(cfg.Log.Format),
	); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Infof("Starting hello-app %s (environment: %s, port: %d)",
		versions.ServiceVersion(), cfg.Environment, cfg.Port)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := statusapp.NewStatusApp(ctx, statusapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	return app.Start(ctx)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	opts := []config.Option{config.WithFlags(flags)}

	if envFile, err := flags.GetString(flagEnvFile); err == nil && envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	configPath, err := flags.GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
		logger.Infof("Loading configuration from %s", configPath)
	}

	return config.LoadConfig(opts...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
