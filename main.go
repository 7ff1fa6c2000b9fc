package main

import (
	"os"

	"github.com/RealRedbaron07/JobApplier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
