package main

import (
	"os"

	"github.com/dukerupert/lojas/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
