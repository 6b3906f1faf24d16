package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// at returns a fixed UTC time on 2025-03-14.
func at(hour, min, sec int) time.Time {
	return time.Date(2025, 3, 14, hour, min, sec, 0, time.UTC)
}

func testEvent(lineage, file string, ts time.Time, kind Kind) Event {
	return Event{
		LineageKey: lineage,
		FileName:   file,
		Timestamp:  ts,
		Kind:       kind,
	}
}

// seedFixture writes the four events used by the export golden files.
func seedFixture(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	events := []Event{
		{LineageKey: "shot.ma", FileName: "shot01.ma", Path: "/proj/scenes/shot01.ma", Timestamp: at(9, 0, 0), Kind: KindSaveAsNew},
		{LineageKey: "shot.ma", FileName: "shot02.ma", Path: "/proj/scenes/shot02.ma", Timestamp: at(9, 30, 0), Kind: KindSavePlus, Note: "blocking pass"},
		{LineageKey: "character.ma", FileName: "character_v001.ma", Timestamp: at(9, 45, 0), Kind: KindManual},
		{LineageKey: "shot.ma", FileName: "shot02_backup_20250314_100000.ma", Path: "/proj/scenes/shot02_backup_20250314_100000.ma", Timestamp: at(10, 0, 0), Kind: KindBackup, Note: "Automatic backup"},
	}
	for _, ev := range events {
		_, err := s.Append(ctx, ev)
		require.NoError(t, err)
	}
}
