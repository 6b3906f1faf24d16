package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/roach88/saveplus/internal/testutil"
)

var start = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

const sceneDir = "/proj/scenes"

// testEnv runs commands against an in-memory scene directory and a real
// SQLite history in t.TempDir(). Ids and the clock carry over between runs.
type testEnv struct {
	t      *testing.T
	fs     afero.Fs
	dbPath string
	clock  *testutil.DeterministicClock
	ids    *testutil.SequenceGenerator
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(sceneDir, 0o755))
	return &testEnv{
		t:      t,
		fs:     fs,
		dbPath: filepath.Join(t.TempDir(), "history.db"),
		clock:  testutil.NewDeterministicClock(start, time.Minute),
		ids:    testutil.NewSequenceGenerator("evt"),
		stderr: &bytes.Buffer{},
	}
}

func (e *testEnv) scene(name string) string {
	return filepath.Join(sceneDir, name)
}

func (e *testEnv) writeScene(name, content string) string {
	e.t.Helper()
	path := e.scene(name)
	require.NoError(e.t, afero.WriteFile(e.fs, path, []byte(content), 0o644))
	return path
}

func (e *testEnv) readScene(name string) string {
	e.t.Helper()
	data, err := afero.ReadFile(e.fs, e.scene(name))
	require.NoError(e.t, err)
	return string(data)
}

// run executes the root command with --db prepended and returns stdout.
func (e *testEnv) run(args ...string) (string, error) {
	opts := &RootOptions{Fs: e.fs, Clock: e.clock, IDs: e.ids}
	cmd := newRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(e.stderr)
	cmd.SetArgs(append([]string{"--db", e.dbPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// writeConfig writes a YAML config to the real filesystem.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saveplus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// decodeResponse parses a JSON envelope and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
