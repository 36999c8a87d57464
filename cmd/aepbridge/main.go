package main

import (
	"os"

	"github.com/solatis/aepbridge/cmd/aepbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
