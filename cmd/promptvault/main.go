package main

import (
	"os"

	"github.com/cadre-oss/promptvault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
