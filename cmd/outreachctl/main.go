package main

import (
	"os"

	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
