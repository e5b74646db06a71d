package main

import (
	"os"

	"github.com/cardlens/statement-converter/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
