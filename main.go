package main

import (
	"os"

	"github.com/kvesta/audit-guard/cli"
)

func main() {
	os.Exit(cli.Execute())
}
