package main

import (
	"os"

	"github.com/sundown-sh/sundown/cmd/sundownctl/commands"
	"github.com/sundown-sh/sundown/internal/config"
	"github.com/sundown-sh/sundown/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Load configuration first; a missing file falls back to defaults.
	// The config only provides flag defaults: the logger and the socket
	// client are built inside the root command once flags are parsed.
	cfg, err := config.Load(config.ClientConfigFilename, "")
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	rootCmd := commands.NewRootCommand(cfg, version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
