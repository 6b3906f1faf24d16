package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/history"
)

// ExportCmdOptions holds flags for the export command.
type ExportCmdOptions struct {
	*RootOptions
	Out          string
	ExportFormat string
}

// ExportResult is the payload of the export command when --out is set.
type ExportResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full version history",
		Long: `Write every lineage and its events, grouped by lineage key.

Formats: text (a readable report), json, yaml. Without --out the export is
written to stdout as-is, regardless of --format.

Examples:
  saveplus export
  saveplus export --export-format json --out history.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.ExportFormat, "export-format", string(history.ExportText), "export format (text|json|yaml)")

	return cmd
}

func runExport(opts *ExportCmdOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	format := history.ExportFormat(opts.ExportFormat)
	if !slices.Contains(history.ExportFormats, format) {
		return f.Fail(ExitCommandError, fmt.Sprintf("invalid export format %q: must be one of %v", format, history.ExportFormats), nil)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	if opts.Out == "" {
		if err := s.Export(cmd.Context(), cmd.OutOrStdout(), format); err != nil {
			return f.Fail(exitCodeFor(err), "failed to export history", err)
		}
		return nil
	}

	out, err := opts.fs().OpenFile(opts.Out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to create export file", err)
	}
	if err := s.Export(cmd.Context(), out, format); err != nil {
		out.Close()
		return f.Fail(exitCodeFor(err), "failed to export history", err)
	}
	if err := out.Close(); err != nil {
		return f.Fail(ExitCommandError, "failed to write export file", err)
	}

	result := ExportResult{Path: opts.Out, Format: string(format)}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "History exported to %s\n", opts.Out)
	})
}
