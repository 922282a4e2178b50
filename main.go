package main

import (
	"os"

	"github.com/sadopc/lockin/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
