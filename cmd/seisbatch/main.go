package main

import (
	"os"

	"github.com/halolab/seisbatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
