package main

import (
	"log/slog"
	"os"

	"github.com/echosight/echosight-go/cmd"
	"github.com/echosight/echosight-go/internal/conf"
	"github.com/echosight/echosight-go/internal/logging"
)

func main() {
	logging.Init(slog.LevelInfo)

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("failed to load configuration", "error", err)
	}

	if settings.Debug {
		logging.Init(slog.LevelDebug)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
