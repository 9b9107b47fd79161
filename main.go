package main

import (
	"os"

	"github.com/emberdate/matchkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
