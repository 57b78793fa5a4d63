package main

import (
	"fmt"
	"os"

	"github.com/jizhang-dev/jizhang/internal/commands"
	"github.com/jizhang-dev/jizhang/internal/config"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
