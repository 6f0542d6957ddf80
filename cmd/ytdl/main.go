package main

import (
	"os"

	"github.com/guiyumin/ytdl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
