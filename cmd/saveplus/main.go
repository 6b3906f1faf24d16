package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/roach88/saveplus/internal/cli"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	rootCmd := cli.NewRootCommand()
	rootCmd.Version = version
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
