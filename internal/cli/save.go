package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/history"
)

// SaveOptions holds flags for the save and backup commands.
type SaveOptions struct {
	*RootOptions
	Note string
}

// SaveResult is the payload of the save and backup commands.
type SaveResult struct {
	Source string        `json:"source"`
	Target string        `json:"target"`
	Event  history.Event `json:"event"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Copy a file to its next version and record the save",
		Long: `Copy a file to the next available version in the same directory and
append a save_plus event to its lineage.

Examples:
  saveplus save scenes/shot01.ma
  saveplus save scenes/shot01.ma --note "blocking pass"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "note to attach to the save")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	listing, err := listDir(opts.fs(), path)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to list directory", err)
	}

	target, err := s.NextName(path, listing)
	if err != nil {
		return f.Fail(ExitFailure, "cannot propose a name", err)
	}

	if err := copyFile(opts.fs(), path, target); err != nil {
		return f.Fail(ExitCommandError, "failed to write new version", err)
	}

	ev, err := s.RecordSave(cmd.Context(), target, history.KindSavePlus, opts.Note)
	if err != nil {
		return f.Fail(exitCodeFor(err), "saved but failed to record history", err)
	}

	result := SaveResult{Source: path, Target: target, Event: ev}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Saved %s\n", target)
	})
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup <path>",
		Short: "Copy a file to a timestamped backup and record it",
		Long: `Copy a file to <name>_backup_<YYYYMMDD_HHMMSS><ext> next to it and
append a backup event to the source file's lineage.

Examples:
  saveplus backup scenes/shot02.ma
  saveplus backup scenes/shot02.ma --note "before retime"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "note to attach (default \"Automatic backup\")")

	return cmd
}

func runBackup(opts *SaveOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	target := s.BackupName(path)
	if err := copyFile(opts.fs(), path, target); err != nil {
		return f.Fail(ExitCommandError, "failed to write backup", err)
	}

	ev, err := s.RecordBackup(cmd.Context(), path, target, opts.Note)
	if err != nil {
		return f.Fail(exitCodeFor(err), "backed up but failed to record history", err)
	}

	result := SaveResult{Source: path, Target: target, Event: ev}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Backup created: %s\n", target)
	})
}
