package main

import (
	"os"

	"cybercase/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args))
}
