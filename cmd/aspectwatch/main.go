package main

import (
	"os"

	"aspectwatch/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
