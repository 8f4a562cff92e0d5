package main

import (
	"os"

	"github.com/bicklebow/bicklebow/cmd/bicklebow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
