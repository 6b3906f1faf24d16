package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/naming"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused (no version token, unknown event, invalid input)
	ExitCommandError = 2 // Environment error (config, database, filesystem)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in JSON error envelopes.
const (
	CodeUnknown        = "E001"
	CodeNoVersionToken = "E101"
	CodeExhausted      = "E102"
	CodeBadAssignment  = "E103"
	CodeInvalidEvent   = "E201"
	CodeNotFound       = "E202"
	CodePersistence    = "E203"
	CodeCommandFailure = "E301"
)

// ErrorCode classifies err for the JSON envelope.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, naming.ErrNoVersionToken):
		return CodeNoVersionToken
	case errors.Is(err, naming.ErrVersionSpaceExhausted):
		return CodeExhausted
	case errors.Is(err, naming.ErrInvalidAssignment):
		return CodeBadAssignment
	case errors.Is(err, history.ErrInvalidEvent):
		return CodeInvalidEvent
	case errors.Is(err, history.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, history.ErrPersistence):
		return CodePersistence
	case GetExitCode(err) == ExitCommandError:
		return CodeCommandFailure
	default:
		return CodeUnknown
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E101", "E202", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs data in the configured format. In text mode text is
// called to render it; a nil text prints data with Println.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if text != nil {
		text(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail wraps err with an exit code. In JSON mode the error envelope is also
// written so scripted hosts always get a parseable document; in text mode
// the returned error is reported by the caller.
func (f *OutputFormatter) Fail(code int, message string, err error) error {
	exitErr := WrapExitError(code, message, err)
	if f.Format == "json" {
		_ = f.Error(ErrorCode(exitErr), exitErr.Error(), nil)
	}
	return exitErr
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// exitCodeFor picks the exit code for a domain error: refusals are
// failures, storage problems are command errors.
func exitCodeFor(err error) int {
	if errors.Is(err, history.ErrPersistence) {
		return ExitCommandError
	}
	return ExitFailure
}
