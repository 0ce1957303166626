package main

import (
	"os"

	"github.com/guiyumin/clipgrab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
