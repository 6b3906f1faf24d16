package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/history"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Kind string
	Note string
	At   string // RFC 3339; empty means now
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <path>",
		Short: "Append a history event without copying anything",
		Long: `Record that path was saved by something else (a host application's own
save, a manual copy). Kinds: save_plus, save_as_new, backup, manual.

If --at is earlier than the lineage's latest event the timestamp is moved
just past it so the lineage stays ordered.

Examples:
  saveplus record scenes/shot03.ma --kind save_as_new
  saveplus record scenes/shot03.ma --kind manual --at 2025-03-14T09:00:00Z`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "event kind (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "note to attach")
	cmd.Flags().StringVar(&opts.At, "at", "", "event time (RFC 3339, default now)")

	return cmd
}

func runRecord(opts *RecordOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	kind, err := history.ParseKind(opts.Kind)
	if err != nil {
		return f.Fail(ExitFailure, "invalid --kind", err)
	}

	var at time.Time
	if opts.At != "" {
		at, err = time.Parse(time.RFC3339, opts.At)
		if err != nil {
			return f.Fail(ExitFailure, "invalid --at", err)
		}
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	var ev history.Event
	if at.IsZero() {
		ev, err = s.RecordSave(cmd.Context(), path, kind, opts.Note)
	} else {
		ev, err = s.RecordAt(cmd.Context(), path, kind, opts.Note, at)
	}
	if err != nil {
		return f.Fail(exitCodeFor(err), "failed to record event", err)
	}

	return f.Success(ev, func(w io.Writer) {
		fmt.Fprintf(w, "Recorded %s\n", ev.ID)
		writeEvent(w, ev)
	})
}

// NoteResult is the payload of the note command.
type NoteResult struct {
	ID   history.EventID `json:"id"`
	Note string          `json:"note"`
}

// NewNoteCommand creates the note command.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <event-id> <note>",
		Short: "Attach a note to a recorded event",
		Long: `Set the note on an existing event, replacing any previous note.

Example:
  saveplus note 01957c3e-8a2b-7c4d-9e1f-2a3b4c5d6e7f "approved by lead"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNote(rootOpts, history.EventID(args[0]), args[1], cmd)
		},
	}
	return cmd
}

func runNote(opts *RootOptions, id history.EventID, note string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := opts.openSession(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to open history", err)
	}
	defer s.Close()

	if err := s.AttachNote(cmd.Context(), id, note); err != nil {
		return f.Fail(exitCodeFor(err), "failed to attach note", err)
	}

	return f.Success(NoteResult{ID: id, Note: note}, func(w io.Writer) {
		fmt.Fprintf(w, "Note attached to %s\n", id)
	})
}
