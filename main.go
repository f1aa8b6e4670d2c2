package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/booklify/admin/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(fmt.Sprintf("%s (%s)", Version, Commit))
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
