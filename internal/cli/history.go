package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/session"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Key string
}

// HistoryResult is the payload of the history command.
type HistoryResult struct {
	Lineage string          `json:"lineage"`
	Events  []history.Event `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show every recorded version of a file's lineage",
		Long: `Show the lineage a file belongs to, oldest event first.

Any version of the file selects the same lineage: shot01.ma, shot_v007.ma
and shot12.ma all resolve to "shot.ma". Use --key to query a lineage key
directly.

Examples:
  saveplus history scenes/shot05.ma
  saveplus history --key shot.ma --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "lineage key to show instead of a path")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if (len(args) == 0) == (opts.Key == "") {
		return f.Fail(ExitCommandError, "give either a path or --key", nil)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	key := opts.Key
	if key == "" {
		key = s.LineageFor(args[0])
	}

	events, err := s.HistoryByKey(cmd.Context(), key)
	if err != nil {
		return f.Fail(exitCodeFor(err), "failed to read history", err)
	}

	return f.Success(HistoryResult{Lineage: key, Events: events}, func(w io.Writer) {
		fmt.Fprintf(w, "Lineage: %s\n", key)
		writeEvents(w, events)
	})
}

// RecentOptions holds flags for the recent command.
type RecentOptions struct {
	*RootOptions
	Limit int
}

// NewRecentCommand creates the recent command.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent events across all files",
		Long: `List recent events from every lineage, newest first.

Examples:
  saveplus recent
  saveplus recent --limit 25 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 10, "maximum number of events")

	return cmd
}

func runRecent(opts *RecentOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	events, err := s.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return f.Fail(exitCodeFor(err), "failed to read history", err)
	}

	return f.Success(events, func(w io.Writer) {
		writeEvents(w, events)
	})
}

// LineageOptions holds flags for the lineage command.
type LineageOptions struct {
	*RootOptions
	All bool
}

// LineageResult is the payload of the lineage command for a single path.
type LineageResult struct {
	Path    string `json:"path"`
	Lineage string `json:"lineage"`
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LineageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lineage [path]",
		Short: "Print the lineage key of a file, or list all lineages",
		Long: `Print the key that groups a file with its other versions. The key drops
the version token and its marker, keeps the extension, and is normalized
(NFC, case-folded).

With --all, list every lineage in the history with its event count and
latest file.

Examples:
  saveplus lineage scenes/Shot_v012.MA
  saveplus lineage --all`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "list all lineages in the history")

	return cmd
}

func runLineage(opts *LineageOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.All {
		if len(args) > 0 {
			return f.Fail(ExitCommandError, "--all takes no path", nil)
		}
		return runLineageList(opts, cmd, f)
	}
	if len(args) == 0 {
		return f.Fail(ExitCommandError, "give a path or --all", nil)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, "failed to load config", err)
	}

	result := LineageResult{Path: args[0], Lineage: session.LineageKey(cfg, args[0])}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Lineage)
	})
}

func runLineageList(opts *LineageOptions, cmd *cobra.Command, f *OutputFormatter) error {
	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	lineages, err := s.Lineages(cmd.Context())
	if err != nil {
		return f.Fail(exitCodeFor(err), "failed to read history", err)
	}

	return f.Success(lineages, func(w io.Writer) {
		if len(lineages) == 0 {
			fmt.Fprintln(w, "No history found.")
			return
		}
		for _, l := range lineages {
			fmt.Fprintf(w, "%-30s  %3d  %s  %s\n",
				l.Key, l.Events, l.LatestAt.UTC().Format(eventTimeLayout), l.LatestFile)
		}
	})
}
