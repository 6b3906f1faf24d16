package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/naming"
)

// AssignmentOptions holds flags for the assignment command.
type AssignmentOptions struct {
	*RootOptions
	naming.Assignment
	Ext   string
	Parse string
}

// AssignmentResult is the payload of the assignment command.
type AssignmentResult struct {
	FileName   string            `json:"file_name"`
	Assignment naming.Assignment `json:"assignment"`
}

// NewAssignmentCommand creates the assignment command.
func NewAssignmentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssignmentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Generate or parse an assignment file name",
		Long: `Build a name of the form X##_LastName_FirstName_stage_##, or split one
apart with --parse.

Examples:
  saveplus assignment --letter A --number 1 --last Smith --first John --stage wip --version 1
  saveplus assignment --parse A01_Smith_John_wip_01.ma`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssignment(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Letter, "letter", "A", "assignment letter (A-Z)")
	cmd.Flags().IntVar(&opts.Number, "number", 1, "assignment number")
	cmd.Flags().StringVar(&opts.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&opts.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&opts.Stage, "stage", "wip", "pipeline stage")
	cmd.Flags().IntVar(&opts.Version, "version", 1, "starting version")
	cmd.Flags().StringVar(&opts.Ext, "ext", ".ma", "file extension")
	cmd.Flags().StringVar(&opts.Parse, "parse", "", "parse an existing name instead of generating one")

	return cmd
}

func runAssignment(opts *AssignmentOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Parse != "" {
		a, ok := naming.ParseAssignment(opts.Parse)
		if !ok {
			return f.Fail(ExitFailure, fmt.Sprintf("%q is not an assignment name", opts.Parse), naming.ErrInvalidAssignment)
		}
		return f.Success(AssignmentResult{FileName: opts.Parse, Assignment: a}, func(w io.Writer) {
			fmt.Fprintf(w, "Assignment: %s%02d\n", a.Letter, a.Number)
			fmt.Fprintf(w, "Name:       %s %s\n", a.FirstName, a.LastName)
			fmt.Fprintf(w, "Stage:      %s\n", a.Stage)
			fmt.Fprintf(w, "Version:    %02d\n", a.Version)
		})
	}

	name, err := opts.Assignment.FileName(opts.Ext)
	if err != nil {
		return f.Fail(ExitFailure, "cannot generate name", err)
	}
	return f.Success(AssignmentResult{FileName: name, Assignment: opts.Assignment}, func(w io.Writer) {
		fmt.Fprintln(w, name)
	})
}
