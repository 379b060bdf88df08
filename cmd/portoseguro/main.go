// Command portoseguro runs the trigger analysis from the terminal, over a
// spreadsheet export or the configured record store.
package main

import (
	"os"

	"github.com/portoseguro/backend/internal/infrastructure/observability"
)

func main() {
	observability.InitLogger("portoseguro-cli", "development")
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	observability.SetLevel(level)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
