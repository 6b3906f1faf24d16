package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/saveplus/internal/config"
	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/naming"
	"github.com/roach88/saveplus/internal/testutil"
)

var start = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func openTestSession(t *testing.T, mutate func(*config.Config)) (*Session, *testutil.DeterministicClock) {
	t.Helper()
	cfg := config.Default()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	if mutate != nil {
		mutate(&cfg)
	}

	clock := testutil.NewDeterministicClock(start, time.Minute)
	s, err := Open(cfg,
		WithClock(clock),
		WithIDGenerator(testutil.NewSequenceGenerator("evt")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Lineage.Scope = "everywhere"

	_, err := Open(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestOpen_BadPath(t *testing.T) {
	cfg := config.Default()
	cfg.History.Path = "/nonexistent/dir/history.db"

	_, err := Open(cfg)
	require.Error(t, err)
	assert.True(t, history.IsPersistenceError(err))
}

func TestNextName(t *testing.T) {
	s, _ := openTestSession(t, nil)

	next, err := s.NextName("/proj/scenes/shot01.ma", []string{"shot01.ma", "shot02.ma"})
	require.NoError(t, err)
	assert.Equal(t, "/proj/scenes/shot03.ma", next)

	next, err = s.NextName("character.ma", nil)
	require.NoError(t, err)
	assert.Equal(t, "character02.ma", next)
}

func TestNextName_UsesConfiguredPolicy(t *testing.T) {
	s, _ := openTestSession(t, func(c *config.Config) {
		c.Naming.CaseInsensitive = true
		c.Naming.DefaultExtension = ".ma"
		c.Naming.AppendWhenMissing = false
	})

	next, err := s.NextName("shot01", []string{"SHOT02.MA"})
	require.NoError(t, err)
	assert.Equal(t, "shot03.ma", next)

	_, err = s.NextName("character.ma", nil)
	assert.ErrorIs(t, err, naming.ErrNoVersionToken)
}

func TestLineageFor(t *testing.T) {
	s, _ := openTestSession(t, nil)
	assert.Equal(t, "shot.ma", s.LineageFor("/a/shot01.ma"))
	assert.Equal(t, s.LineageFor("/a/shot01.ma"), s.LineageFor("/b/shot_v002.ma"))

	scoped, _ := openTestSession(t, func(c *config.Config) {
		c.Lineage.Scope = config.ScopeDirectory
	})
	assert.Equal(t, "/a/shot.ma", scoped.LineageFor("/a/shot01.ma"))
	assert.Equal(t, "/a/shot.ma", scoped.LineageFor("/a/./shot02.ma"))
	assert.NotEqual(t, scoped.LineageFor("/a/shot01.ma"), scoped.LineageFor("/b/shot01.ma"))
}

func TestLineageFor_FollowsFirstSave(t *testing.T) {
	s, _ := openTestSession(t, func(c *config.Config) {
		c.Naming.DefaultExtension = ".ma"
	})

	for _, source := range []string{"/a/shot", "/a/character_.ma", "/a/prop_v.mb"} {
		next, err := s.NextName(source, nil)
		require.NoError(t, err)
		assert.Equal(t, s.LineageFor(source), s.LineageFor(next), "%s -> %s", source, next)
	}
	assert.Equal(t, "shot.ma", s.LineageFor("/a/shot"))
	assert.Equal(t, "shot.ma", LineageKey(s.Config(), "/a/shot"))
}

func TestRecordSave_UsesClock(t *testing.T) {
	s, _ := openTestSession(t, nil)
	ctx := context.Background()

	first, err := s.RecordSave(ctx, "/proj/shot01.ma", history.KindSaveAsNew, "")
	require.NoError(t, err)
	second, err := s.RecordSave(ctx, "/proj/shot02.ma", history.KindSavePlus, "blocking")
	require.NoError(t, err)

	assert.Equal(t, history.EventID("evt-1"), first.ID)
	assert.Equal(t, start, first.Timestamp)
	assert.Equal(t, start.Add(time.Minute), second.Timestamp)
	assert.Equal(t, "shot.ma", second.LineageKey)
	assert.Equal(t, "shot02.ma", second.FileName)
	assert.Equal(t, "/proj/shot02.ma", second.Path)

	events, err := s.History(ctx, "/proj/shot05.ma")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "blocking", events[1].Note)
}

func TestRecordAt_ClampsBackwardsTime(t *testing.T) {
	s, _ := openTestSession(t, nil)
	ctx := context.Background()

	_, err := s.RecordAt(ctx, "shot01.ma", history.KindManual, "", start.Add(time.Hour))
	require.NoError(t, err)
	ev, err := s.RecordAt(ctx, "shot02.ma", history.KindManual, "", start)
	require.NoError(t, err)

	assert.Equal(t, start.Add(time.Hour+time.Nanosecond), ev.Timestamp)
}

func TestRecordSave_InvalidKind(t *testing.T) {
	s, _ := openTestSession(t, nil)
	_, err := s.RecordSave(context.Background(), "shot01.ma", history.Kind("autosave"), "")
	assert.ErrorIs(t, err, history.ErrInvalidEvent)
}

func TestBackup(t *testing.T) {
	s, clock := openTestSession(t, nil)
	ctx := context.Background()
	clock.Set(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))

	backup := s.BackupName("/proj/shot02.ma")
	assert.Equal(t, "/proj/shot02_backup_20250314_100000.ma", backup)

	ev, err := s.RecordBackup(ctx, "/proj/shot02.ma", backup, "")
	require.NoError(t, err)
	assert.Equal(t, history.KindBackup, ev.Kind)
	assert.Equal(t, DefaultBackupNote, ev.Note)
	assert.Equal(t, "shot.ma", ev.LineageKey, "backups join the source lineage")
	assert.Equal(t, "shot02_backup_20250314_100000.ma", ev.FileName)

	ev, err = s.RecordBackup(ctx, "/proj/shot02.ma", backup, "before retime")
	require.NoError(t, err)
	assert.Equal(t, "before retime", ev.Note)
}

func TestRecentAndLineages(t *testing.T) {
	s, _ := openTestSession(t, nil)
	ctx := context.Background()

	for _, p := range []string{"shot01.ma", "character_v001.ma", "shot02.ma"} {
		_, err := s.RecordSave(ctx, p, history.KindSavePlus, "")
		require.NoError(t, err)
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "shot02.ma", recent[0].FileName)
	assert.Equal(t, "character_v001.ma", recent[1].FileName)

	lineages, err := s.Lineages(ctx)
	require.NoError(t, err)
	require.Len(t, lineages, 2)
	assert.Equal(t, "shot.ma", lineages[0].Key)
	assert.Equal(t, 2, lineages[0].Events)
	assert.Equal(t, "shot02.ma", lineages[0].LatestFile)
}

func TestAttachNote(t *testing.T) {
	s, _ := openTestSession(t, nil)
	ctx := context.Background()

	ev, err := s.RecordSave(ctx, "shot01.ma", history.KindSavePlus, "")
	require.NoError(t, err)

	require.NoError(t, s.AttachNote(ctx, ev.ID, "approved"))
	got, err := s.Event(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Note)

	err = s.AttachNote(ctx, "missing", "x")
	assert.True(t, errors.Is(err, history.ErrNotFound))
}

func TestExport_StampsClock(t *testing.T) {
	s, clock := openTestSession(t, nil)
	ctx := context.Background()

	_, err := s.RecordSave(ctx, "shot01.ma", history.KindSaveAsNew, "")
	require.NoError(t, err)
	stamp := clock.Peek()

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf, history.ExportJSON))

	var doc history.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.NotNil(t, doc.GeneratedAt)
	assert.True(t, stamp.Equal(*doc.GeneratedAt))
	require.Len(t, doc.Lineages, 1)
	assert.Equal(t, "shot.ma", doc.Lineages[0].Key)
}
