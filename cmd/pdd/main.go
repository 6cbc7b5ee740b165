package main

import (
	"os"

	"github.com/GabrielNunesIT/pdd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
