// Package main is the entry point for the hello-app status server.
package main

import (
	"os"

	"github.com/spf13/viper"

	"github.com/iwishiwala/devops-task/cmd/hello-app/app"
	"github.com/iwishiwala/devops-task/internal/logger"
)

// bootstrapLogger configures logging from the environment so that messages
// emitted before the configuration is loaded are not lost. serve
// reconfigures it once the full configuration is known.
func bootstrapLogger() {
	v := viper.New()
	v.AutomaticEnv()

	err := logger.Initialize(
		logger.WithLevel(v.GetString("LOG_LEVEL")),
		logger.WithFormat(v.GetString("LOG_FORMAT")),
	)
	if err != nil {
		_ = logger.Initialize()
		logger.Warnf("Invalid logging environment, using defaults: %v", err)
	}
}

func main() {
	bootstrapLogger()
	defer func() {
		_ = logger.Sync()
	}()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Errorf("hello-app failed: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
