package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/roach88/saveplus/internal/config"
	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/naming"
	"github.com/roach88/saveplus/internal/session"
	"github.com/roach88/saveplus/internal/testutil"
)

// DefaultStart is the first clock reading when a scenario sets none.
var DefaultStart = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// ClockStep is how far the deterministic clock moves per reading.
const ClockStep = time.Minute

// Error classes reported in traces and matched by expect.error.
const (
	ErrClassNoVersionToken = "no_version_token"
	ErrClassExhausted      = "version_space_exhausted"
	ErrClassInvalidEvent   = "invalid_event"
	ErrClassNotFound       = "not_found"
	ErrClassPersistence    = "persistence"
	ErrClassOther          = "error"
)

// ErrorClass maps an error onto the names scenarios use.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, naming.ErrNoVersionToken):
		return ErrClassNoVersionToken
	case errors.Is(err, naming.ErrVersionSpaceExhausted):
		return ErrClassExhausted
	case errors.Is(err, history.ErrInvalidEvent):
		return ErrClassInvalidEvent
	case errors.Is(err, history.ErrNotFound):
		return ErrClassNotFound
	case errors.Is(err, history.ErrPersistence):
		return ErrClassPersistence
	default:
		return ErrClassOther
	}
}

// Harness executes one scenario against one session.
type Harness struct {
	session *session.Session
	listing []string
	logger  *slog.Logger
}

// Run executes a scenario with its history database under dir and returns
// the result. A non-nil error means the scenario could not be run at all;
// failed expectations and assertions are reported in Result.Errors.
//
// Execution flow:
// 1. Build config from defaults plus scenario overrides
// 2. Open a session with deterministic clock and ids
// 3. Execute steps, checking each expect clause
// 4. Evaluate assertions against the final history
func Run(scenario *Scenario, dir string) (*Result, error) {
	cfg, err := scenarioConfig(scenario, filepath.Join(dir, scenario.Name+".db"))
	if err != nil {
		return nil, err
	}

	start := DefaultStart
	if scenario.Start != nil {
		start = *scenario.Start
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	s, err := session.Open(cfg,
		session.WithClock(testutil.NewDeterministicClock(start, ClockStep)),
		session.WithIDGenerator(testutil.NewSequenceGenerator("evt")),
		session.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()

	h := &Harness{
		session: s,
		listing: append([]string{}, scenario.Files...),
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	actx := &AssertionContext{Session: s, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	result.Listing = h.listing
	return result, nil
}

func scenarioConfig(scenario *Scenario, dbPath string) (config.Config, error) {
	cfg := config.Default()
	cfg.History.Path = dbPath

	o := scenario.Config
	if o.CaseInsensitive != nil {
		cfg.Naming.CaseInsensitive = *o.CaseInsensitive
	}
	if o.MaxAttempts != 0 {
		cfg.Naming.MaxAttempts = o.MaxAttempts
	}
	if o.InitialToken != "" {
		cfg.Naming.InitialToken = o.InitialToken
	}
	if o.DefaultExtension != "" {
		cfg.Naming.DefaultExtension = o.DefaultExtension
	}
	if o.AppendWhenMissing != nil {
		cfg.Naming.AppendWhenMissing = *o.AppendWhenMissing
	}
	if o.LineageScope != "" {
		cfg.Lineage.Scope = o.LineageScope
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return cfg, nil
}

// executeStep runs one step, appends its trace entry and checks its expect
// clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	te := TraceEvent{Step: i, Op: step.Op, Path: step.Path}

	var (
		ev  history.Event
		err error
	)
	switch step.Op {
	case OpNext:
		te.Name, err = h.session.NextName(step.Path, h.names(step.Path))
		if err == nil {
			te.Lineage = h.session.LineageFor(step.Path)
		}

	case OpSave:
		te.Name, err = h.session.NextName(step.Path, h.names(step.Path))
		if err == nil {
			h.listing = append(h.listing, te.Name)
			ev, err = h.session.RecordSave(ctx, te.Name, history.KindSavePlus, step.Note)
		}

	case OpBackup:
		te.Name = h.session.BackupName(step.Path)
		h.listing = append(h.listing, te.Name)
		ev, err = h.session.RecordBackup(ctx, step.Path, te.Name, step.Note)

	case OpRecord:
		var kind history.Kind
		kind, err = history.ParseKind(step.Kind)
		if err == nil {
			if step.At != nil {
				ev, err = h.session.RecordAt(ctx, step.Path, kind, step.Note, *step.At)
			} else {
				ev, err = h.session.RecordSave(ctx, step.Path, kind, step.Note)
			}
		}

	case OpNote:
		err = h.session.AttachNote(ctx, history.EventID(step.Event), step.Note)
		if err == nil {
			ev, err = h.session.Event(ctx, history.EventID(step.Event))
		}
	}

	if err != nil {
		te.Error = ErrorClass(err)
		h.logger.Debug("step failed", "step", i, "op", step.Op, "error", err)
	} else if ev.ID != "" {
		te.EventID = string(ev.ID)
		te.Lineage = ev.LineageKey
		te.Kind = string(ev.Kind)
		te.Note = ev.Note
		te.Timestamp = ev.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	result.Trace = append(result.Trace, te)

	for _, msg := range checkExpect(te, step.Expect, err) {
		result.AddError(fmt.Sprintf("step %d (%s %s): %s", i, step.Op, step.Path, msg))
	}
}

// names returns the listing entries in path's directory, as bare names.
func (h *Harness) names(path string) []string {
	dir := filepath.Dir(path)
	var out []string
	for _, p := range h.listing {
		if filepath.Dir(p) == dir {
			out = append(out, filepath.Base(p))
		}
	}
	return out
}

func checkExpect(te TraceEvent, expect *Expect, err error) []string {
	if expect == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	var msgs []string
	if expect.Error != "" {
		if te.Error != expect.Error {
			msgs = append(msgs, fmt.Sprintf("expected error %q, got %q", expect.Error, te.Error))
		}
		return msgs
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	if expect.Name != "" && te.Name != expect.Name {
		msgs = append(msgs, fmt.Sprintf("expected name %q, got %q", expect.Name, te.Name))
	}
	if expect.Lineage != "" && te.Lineage != expect.Lineage {
		msgs = append(msgs, fmt.Sprintf("expected lineage %q, got %q", expect.Lineage, te.Lineage))
	}
	if expect.Event != "" && te.EventID != expect.Event {
		msgs = append(msgs, fmt.Sprintf("expected event %q, got %q", expect.Event, te.EventID))
	}
	return msgs
}
