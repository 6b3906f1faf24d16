// Package session ties a Namer and a history Store to one explicitly
// opened, explicitly closed unit of work. Hosts open a Session at startup
// and pass it to whatever needs naming or history; there is no package
// level state.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/roach88/saveplus/internal/config"
	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/naming"
)

// DefaultBackupNote is attached to backup events recorded without a note.
const DefaultBackupNote = "Automatic backup"

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type options struct {
	clock  Clock
	logger *slog.Logger
	ids    history.IDGenerator
}

// Option configures Open.
type Option func(*options)

// WithClock overrides the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator overrides event id generation (for testing).
func WithIDGenerator(gen history.IDGenerator) Option {
	return func(o *options) { o.ids = gen }
}

// Session owns the history store for its lifetime.
type Session struct {
	cfg    config.Config
	namer  *naming.Namer
	store  *history.Store
	clock  Clock
	logger *slog.Logger
}

// Open validates cfg, builds the namer and opens the store at
// cfg.History.Path.
func Open(cfg config.Config, opts ...Option) (*Session, error) {
	o := options{clock: systemClock{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var storeOpts []history.Option
	if o.ids != nil {
		storeOpts = append(storeOpts, history.WithIDGenerator(o.ids))
	}
	st, err := history.Open(cfg.History.Path, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	o.logger.Debug("session opened", "history", cfg.History.Path, "scope", cfg.Lineage.Scope)

	return &Session{
		cfg:    cfg,
		namer:  naming.New(cfg.NamingOptions()),
		store:  st,
		clock:  o.clock,
		logger: o.logger,
	}, nil
}

// Close releases the store.
func (s *Session) Close() error {
	return s.store.Close()
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() config.Config {
	return s.cfg
}

// NextName proposes the next version of path given the names already in
// its directory. The result keeps path's directory.
func (s *Session) NextName(path string, listing []string) (string, error) {
	dir, base := filepath.Split(path)
	name, err := s.namer.Next(listing, base)
	if err != nil {
		return "", err
	}
	next := filepath.Join(dir, name)
	s.logger.Debug("proposed name", "from", path, "to", next, "listing", len(listing))
	return next, nil
}

// LineageFor returns the history key for path under the session's scope.
func (s *Session) LineageFor(path string) string {
	return scopedKey(s.cfg.Lineage.Scope, path, s.namer.LineageKey(filepath.Base(path)))
}

// LineageKey returns the history key cfg assigns to path. With the
// directory scope the cleaned, slash-separated directory is prepended.
func LineageKey(cfg config.Config, filePath string) string {
	key := naming.New(cfg.NamingOptions()).LineageKey(filepath.Base(filePath))
	return scopedKey(cfg.Lineage.Scope, filePath, key)
}

func scopedKey(scope, filePath, key string) string {
	if scope != config.ScopeDirectory {
		return key
	}
	return path.Join(filepath.ToSlash(filepath.Dir(filePath)), key)
}

// BackupName returns the timestamped backup path for path, next to it.
func (s *Session) BackupName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, naming.BackupName(base, s.clock.Now()))
}

// RecordSave records a save of path stamped with the session clock.
func (s *Session) RecordSave(ctx context.Context, path string, kind history.Kind, note string) (history.Event, error) {
	return s.RecordAt(ctx, path, kind, note, s.clock.Now())
}

// RecordAt records a save of path at an explicit time. The store may move
// the timestamp forward to keep the lineage ordered.
func (s *Session) RecordAt(ctx context.Context, path string, kind history.Kind, note string, at time.Time) (history.Event, error) {
	return s.record(ctx, history.Event{
		LineageKey: s.LineageFor(path),
		FileName:   filepath.Base(path),
		Path:       path,
		Timestamp:  at,
		Kind:       kind,
		Note:       note,
	})
}

// RecordBackup records backupPath as a backup in sourcePath's lineage.
// An empty note becomes DefaultBackupNote.
func (s *Session) RecordBackup(ctx context.Context, sourcePath, backupPath, note string) (history.Event, error) {
	if note == "" {
		note = DefaultBackupNote
	}
	return s.record(ctx, history.Event{
		LineageKey: s.LineageFor(sourcePath),
		FileName:   filepath.Base(backupPath),
		Path:       backupPath,
		Timestamp:  s.clock.Now(),
		Kind:       history.KindBackup,
		Note:       note,
	})
}

func (s *Session) record(ctx context.Context, ev history.Event) (history.Event, error) {
	recorded, err := s.store.Record(ctx, ev)
	if err != nil {
		s.logger.Error("record failed", "file", ev.FileName, "kind", ev.Kind, "error", err)
		return history.Event{}, err
	}
	s.logger.Info("recorded",
		"id", recorded.ID,
		"lineage", recorded.LineageKey,
		"file", recorded.FileName,
		"kind", recorded.Kind,
	)
	return recorded, nil
}

// History returns path's lineage, oldest first.
func (s *Session) History(ctx context.Context, path string) ([]history.Event, error) {
	return s.HistoryByKey(ctx, s.LineageFor(path))
}

// HistoryByKey returns the lineage stored under key, oldest first.
func (s *Session) HistoryByKey(ctx context.Context, key string) ([]history.Event, error) {
	return history.Collect(s.store.HistoryFor(ctx, key))
}

// Recent returns up to limit events across all lineages, newest first.
func (s *Session) Recent(ctx context.Context, limit int) ([]history.Event, error) {
	return history.Collect(s.store.Recent(ctx, limit))
}

// Lineages summarizes every lineage, most recently touched first.
func (s *Session) Lineages(ctx context.Context) ([]history.LineageSummary, error) {
	return s.store.Lineages(ctx)
}

// Event looks up a single event.
func (s *Session) Event(ctx context.Context, id history.EventID) (history.Event, error) {
	return s.store.Get(ctx, id)
}

// AttachNote sets the note on an existing event.
func (s *Session) AttachNote(ctx context.Context, id history.EventID, note string) error {
	if err := s.store.AttachNote(ctx, id, note); err != nil {
		return err
	}
	s.logger.Info("note attached", "id", id)
	return nil
}

// Export writes the full history to w, stamped with the session clock.
func (s *Session) Export(ctx context.Context, w io.Writer, format history.ExportFormat) error {
	return s.store.Export(ctx, w, history.ExportOptions{
		Format:      format,
		GeneratedAt: s.clock.Now(),
	})
}
