package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/naming"
	"github.com/roach88/saveplus/internal/session"
)

// NextResult is the payload of the next command.
type NextResult struct {
	Path    string `json:"path"`
	Next    string `json:"next"`
	Lineage string `json:"lineage"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next <path>",
		Short: "Print the next available version of a file",
		Long: `Propose the next version name for a file without touching anything.

The version token is the rightmost run of digits in the name; its width is
preserved and collisions with files already in the directory are skipped.
Names without a token get the configured initial token ("02").

Examples:
  saveplus next scenes/shot01.ma
  saveplus next scenes/character.ma --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runNext(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, "failed to load config", err)
	}

	listing, err := listDir(opts.fs(), path)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to list directory", err)
	}
	f.VerboseLog("%d names in %s", len(listing), filepath.Dir(path))

	dir, base := filepath.Split(path)
	name, err := naming.New(cfg.NamingOptions()).Next(listing, base)
	if err != nil {
		return f.Fail(ExitFailure, "cannot propose a name", err)
	}

	result := NextResult{
		Path:    path,
		Next:    filepath.Join(dir, name),
		Lineage: session.LineageKey(cfg, path),
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Next)
	})
}
