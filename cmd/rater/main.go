package main

import (
	"os"

	"github.com/Liszten/kpiComp/cmd/rater/commands"
)

// main is the entry point for the rater CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/rater [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
