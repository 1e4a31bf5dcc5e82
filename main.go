package main

import (
	"fmt"
	"os"

	"mc-integrator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mcint:", err)
		os.Exit(1)
	}
}
