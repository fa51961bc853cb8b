package main

import (
	"fmt"
	"os"

	"github.com/FollowTheProcess/tapharness/cli/cmd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tapharness: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := cmd.BuildRootCmd()
	return rootCmd.Execute()
}
