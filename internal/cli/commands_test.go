package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/saveplus/internal/history"
	"github.com/roach88/saveplus/internal/naming"
)

func TestNext(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot01.ma", "a")
	env.writeScene("shot02.ma", "b")

	out, err := env.run("next", env.scene("shot01.ma"))
	require.NoError(t, err)
	assert.Equal(t, "/proj/scenes/shot03.ma\n", out)

	out, err = env.run("next", env.scene("character.ma"))
	require.NoError(t, err)
	assert.Equal(t, "/proj/scenes/character02.ma\n", out)
}

func TestNext_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot_v009.ma", "a")

	out, err := env.run("--format", "json", "next", env.scene("shot_v009.ma"))
	require.NoError(t, err)

	var result NextResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "/proj/scenes/shot_v010.ma", result.Next)
	assert.Equal(t, "shot.ma", result.Lineage)
}

func TestNext_MissingDirectoryIsEmptyListing(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("next", "/elsewhere/shot07.ma")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/shot08.ma\n", out)
}

func TestNext_NoTokenWithoutAppend(t *testing.T) {
	env := newTestEnv(t)
	cfg := writeConfig(t, "naming:\n  append_when_missing: false\n")

	_, err := env.run("--config", cfg, "next", env.scene("character.ma"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, naming.ErrNoVersionToken)
}

func TestNext_BadConfig(t *testing.T) {
	env := newTestEnv(t)
	cfg := writeConfig(t, "lineage:\n  scope: galaxy\n")

	_, err := env.run("--config", cfg, "next", env.scene("shot01.ma"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSave(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot01.ma", "scene data")

	out, err := env.run("save", env.scene("shot01.ma"), "--note", "blocking pass")
	require.NoError(t, err)
	assert.Equal(t, "Saved /proj/scenes/shot02.ma\n", out)
	assert.Equal(t, "scene data", env.readScene("shot02.ma"))

	out, err = env.run("save", env.scene("shot02.ma"))
	require.NoError(t, err)
	assert.Equal(t, "Saved /proj/scenes/shot03.ma\n", out)

	out, err = env.run("--format", "json", "history", env.scene("shot01.ma"))
	require.NoError(t, err)

	var result HistoryResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "shot.ma", result.Lineage)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "shot02.ma", result.Events[0].FileName)
	assert.Equal(t, "blocking pass", result.Events[0].Note)
	assert.Equal(t, history.KindSavePlus, result.Events[0].Kind)
	assert.Equal(t, "/proj/scenes/shot03.ma", result.Events[1].Path)
}

func TestSave_TokenlessSourceSharesHistory(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("character_.ma", "rig")

	out, err := env.run("save", env.scene("character_.ma"))
	require.NoError(t, err)
	assert.Equal(t, "Saved /proj/scenes/character_02.ma\n", out)

	out, err = env.run("--format", "json", "history", env.scene("character_.ma"))
	require.NoError(t, err)

	var result HistoryResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "character.ma", result.Lineage)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "character_02.ma", result.Events[0].FileName)
}

func TestSave_SkipsExistingVersions(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot01.ma", "one")
	env.writeScene("shot02.ma", "two")
	env.writeScene("shot03.ma", "three")

	out, err := env.run("save", env.scene("shot01.ma"))
	require.NoError(t, err)
	assert.Equal(t, "Saved /proj/scenes/shot04.ma\n", out)
	assert.Equal(t, "one", env.readScene("shot04.ma"))
	assert.Equal(t, "two", env.readScene("shot02.ma"), "existing versions are never overwritten")
}

func TestSave_MissingSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("save", env.scene("ghost01.ma"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := env.run("recent")
	require.NoError(t, err)
	assert.Equal(t, "No history found.\n", out, "failed copies record nothing")
}

func TestSave_BadDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.dbPath = "/nonexistent/dir/history.db"
	env.writeScene("shot01.ma", "x")

	_, err := env.run("save", env.scene("shot01.ma"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, history.ErrPersistence)
}

func TestBackup(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot02.ma", "precious")

	out, err := env.run("--format", "json", "backup", env.scene("shot02.ma"))
	require.NoError(t, err)

	var result SaveResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "/proj/scenes/shot02_backup_20250314_090000.ma", result.Target)
	assert.Equal(t, history.KindBackup, result.Event.Kind)
	assert.Equal(t, "Automatic backup", result.Event.Note)
	assert.Equal(t, "shot.ma", result.Event.LineageKey)
	assert.Equal(t, "precious", env.readScene("shot02_backup_20250314_090000.ma"))
}

func TestBackup_WithNote(t *testing.T) {
	env := newTestEnv(t)
	env.writeScene("shot02.ma", "x")

	out, err := env.run("backup", env.scene("shot02.ma"), "-n", "before retime")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Backup created: /proj/scenes/shot02_backup_"))

	out, err = env.run("history", "--key", "shot.ma")
	require.NoError(t, err)
	assert.Contains(t, out, "note: before retime")
}

func TestRecordAndNote(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("record", "/proj/scenes/shot05.ma", "--kind", "save-as-new", "--at", "2025-03-14T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded evt-1")
	assert.Contains(t, out, "2025-03-14 12:00:00  save_as_new  shot05.ma  [evt-1]")

	// Earlier than the lineage head: moved just past it.
	out, err = env.run("--format", "json", "record", "/proj/scenes/shot06.ma", "--kind", "manual", "--at", "2025-03-14T08:00:00Z")
	require.NoError(t, err)
	var ev history.Event
	decodeResponse(t, out, &ev)
	assert.Equal(t, time.Date(2025, 3, 14, 12, 0, 0, 1, time.UTC), ev.Timestamp)

	out, err = env.run("note", "evt-1", "approved by lead")
	require.NoError(t, err)
	assert.Equal(t, "Note attached to evt-1\n", out)

	out, err = env.run("history", "/proj/scenes/shot99.ma")
	require.NoError(t, err)
	assert.Contains(t, out, "Lineage: shot.ma")
	assert.Contains(t, out, "note: approved by lead")
}

func TestRecord_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("record", "shot01.ma", "--kind", "autosave")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, history.ErrInvalidEvent)

	_, err = env.run("record", "shot01.ma", "--kind", "manual", "--at", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = env.run("record", "shot01.ma", "--kind", "manual", "--at", "2300-01-01T00:00:00Z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, history.ErrInvalidEvent)

	out, err := env.run("history", "shot01.ma")
	require.NoError(t, err)
	assert.Contains(t, out, "No history found.")

	_, err = env.run("record", "shot01.ma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestNote_UnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("--format", "json", "note", "evt-404", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, history.ErrNotFound)

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestHistory_RequiresExactlyOneSelector(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = env.run("history", "shot01.ma", "--key", "shot.ma")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("history", "shot01.ma")
	require.NoError(t, err)
	assert.Equal(t, "Lineage: shot.ma\nNo history found.\n", out)
}

func TestRecent(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"shot01.ma", "character_v001.ma", "prop01.mb"} {
		_, err := env.run("record", env.scene(name), "--kind", "manual")
		require.NoError(t, err)
	}

	out, err := env.run("--format", "json", "recent", "--limit", "2")
	require.NoError(t, err)

	var events []history.Event
	decodeResponse(t, out, &events)
	require.Len(t, events, 2)
	assert.Equal(t, "prop01.mb", events[0].FileName)
	assert.Equal(t, "character_v001.ma", events[1].FileName)

	out, err = env.run("recent", "-l", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "prop01.mb")
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("record", env.scene("shot01.ma"), "--kind", "save_as_new", "--note", "first")
	require.NoError(t, err)

	out, err := env.run("export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "SavePlus Version History Export\n"))
	assert.Contains(t, out, "Group: shot.ma")
	assert.Contains(t, out, "Version 1: shot01.ma")

	out, err = env.run("--format", "json", "export", "--export-format", "yaml", "--out", "/exports/history.yaml")
	require.NoError(t, err)

	var result ExportResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "/exports/history.yaml", result.Path)
	assert.Equal(t, "yaml", result.Format)

	data, err := afero.ReadFile(env.fs, "/exports/history.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "key: shot.ma")
	assert.Contains(t, string(data), "note: first")
}

func TestExport_InvalidFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("export", "--export-format", "csv")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid export format")
}

func TestLineage(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("lineage", "/proj/scenes/Shot_v012.MA")
	require.NoError(t, err)
	assert.Equal(t, "shot.ma\n", out)

	cfg := writeConfig(t, "lineage:\n  scope: directory\n")
	out, err = env.run("--config", cfg, "lineage", "/proj/scenes/shot01.ma")
	require.NoError(t, err)
	assert.Equal(t, "/proj/scenes/shot.ma\n", out)

	_, err = env.run("lineage")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLineage_All(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("lineage", "--all")
	require.NoError(t, err)
	assert.Equal(t, "No history found.\n", out)

	for _, name := range []string{"shot01.ma", "shot02.ma", "character_v001.ma"} {
		_, err := env.run("record", env.scene(name), "--kind", "manual")
		require.NoError(t, err)
	}

	out, err = env.run("--format", "json", "lineage", "--all")
	require.NoError(t, err)

	var lineages []history.LineageSummary
	decodeResponse(t, out, &lineages)
	require.Len(t, lineages, 2)
	assert.Equal(t, "character.ma", lineages[0].Key)
	assert.Equal(t, 1, lineages[0].Events)
	assert.Equal(t, "shot.ma", lineages[1].Key)
	assert.Equal(t, 2, lineages[1].Events)
	assert.Equal(t, "shot02.ma", lineages[1].LatestFile)
}

func TestAssignment(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("assignment", "--letter", "B", "--number", "3", "--last", "Smith", "--first", "John", "--stage", "blocking", "--version", "1")
	require.NoError(t, err)
	assert.Equal(t, "B03_Smith_John_blocking_01.ma\n", out)

	out, err = env.run("--format", "json", "assignment", "--parse", "A01_Smith_John_wip_07.mb")
	require.NoError(t, err)
	var result AssignmentResult
	decodeResponse(t, out, &result)
	assert.Equal(t, naming.Assignment{
		Letter: "A", Number: 1, LastName: "Smith", FirstName: "John", Stage: "wip", Version: 7,
	}, result.Assignment)

	_, err = env.run("assignment", "--last", "Smith")
	require.Error(t, err)
	assert.ErrorIs(t, err, naming.ErrInvalidAssignment)

	_, err = env.run("assignment", "--parse", "shot01.ma")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
