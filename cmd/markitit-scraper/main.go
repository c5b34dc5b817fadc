package main

import (
	"os"

	"github.com/MarkitIt/markitit-xc475/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
