package main

import (
	"os"

	"github.com/parc-ccnx-archive/ccnfwd/cmd/ccnfwd/cmd"
)

func main() {
	if err := cmd.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
