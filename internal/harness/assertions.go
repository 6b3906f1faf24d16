package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/session"
)

// AssertionContext gives assertions read access to the scenario's history.
type AssertionContext struct {
	Session *session.Session
	Ctx     context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure. An empty slice means all passed.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(a, actx); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return msgs
}

func evaluate(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertHistoryCount:
		return assertHistoryCount(a, actx)
	case AssertHistoryFiles:
		return assertHistoryFiles(a, actx)
	case AssertRecentFiles:
		return assertRecentFiles(a, actx)
	case AssertEventNote:
		return assertEventNote(a, actx)
	case AssertLineageCount:
		return assertLineageCount(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertHistoryCount(a Assertion, actx *AssertionContext) error {
	events, err := actx.Session.HistoryByKey(actx.Ctx, a.Lineage)
	if err != nil {
		return err
	}
	if len(events) != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d events in %s", a.Count, a.Lineage),
			Actual:   fmt.Sprintf("%d events: %v", len(events), fileNames(events)),
		}
	}
	return nil
}

func assertHistoryFiles(a Assertion, actx *AssertionContext) error {
	events, err := actx.Session.HistoryByKey(actx.Ctx, a.Lineage)
	if err != nil {
		return err
	}
	if got := fileNames(events); !slices.Equal(got, a.Files) {
		return &AssertionError{
			Type:     AssertHistoryFiles,
			Expected: fmt.Sprintf("%s files %v", a.Lineage, a.Files),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertRecentFiles(a Assertion, actx *AssertionContext) error {
	events, err := actx.Session.Recent(actx.Ctx, len(a.Files))
	if err != nil {
		return err
	}
	if got := fileNames(events); !slices.Equal(got, a.Files) {
		return &AssertionError{
			Type:     AssertRecentFiles,
			Expected: fmt.Sprintf("newest files %v", a.Files),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertEventNote(a Assertion, actx *AssertionContext) error {
	ev, err := actx.Session.Event(actx.Ctx, history.EventID(a.Event))
	if errors.Is(err, history.ErrNotFound) {
		return &AssertionError{
			Type:     AssertEventNote,
			Expected: fmt.Sprintf("event %s with note %q", a.Event, a.Note),
			Actual:   "event not found",
		}
	}
	if err != nil {
		return err
	}
	if ev.Note != a.Note {
		return &AssertionError{
			Type:     AssertEventNote,
			Expected: fmt.Sprintf("note %q on %s", a.Note, a.Event),
			Actual:   fmt.Sprintf("note %q", ev.Note),
		}
	}
	return nil
}

func assertLineageCount(a Assertion, actx *AssertionContext) error {
	lineages, err := actx.Session.Lineages(actx.Ctx)
	if err != nil {
		return err
	}
	if len(lineages) != a.Count {
		keys := make([]string, len(lineages))
		for i, l := range lineages {
			keys[i] = l.Key
		}
		return &AssertionError{
			Type:     AssertLineageCount,
			Expected: fmt.Sprintf("%d lineages", a.Count),
			Actual:   fmt.Sprintf("%d lineages: %v", len(lineages), keys),
		}
	}
	return nil
}

func fileNames(events []history.Event) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.FileName
	}
	return names
}
