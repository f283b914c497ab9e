package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/patientbook/internal/config"
	"github.com/roach88/patientbook/internal/engine"
	"github.com/roach88/patientbook/internal/merge"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/testutil"
)

// testEnv is an isolated working directory with its own data file and
// environment.
type testEnv struct {
	dir      string
	dataFile string
	env      map[string]string
	clock    *testutil.FixedClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:      dir,
		dataFile: filepath.Join(dir, "patients.db"),
		env: map[string]string{
			config.EnvPhotoDir: filepath.Join(dir, "photos"),
		},
		clock: testutil.NewFixedClock(time.Time{}),
	}
}

// seed writes patients to the data file through the engine.
func (e *testEnv) seed(t *testing.T, patients ...record.Patient) {
	t.Helper()
	cfg := config.Default()
	cfg.DataFile = e.dataFile
	cfg.PhotoDir = e.env[config.EnvPhotoDir]

	eng, err := engine.Open(cfg,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithGenerationSource(testutil.NewFixedGeneration("seed")),
	)
	require.NoError(t, err)
	_, err = eng.ImportMerge(patients, merge.Options{})
	require.NoError(t, err)
}

// execute runs the root command with args exactly as given.
func (e *testEnv) execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	opts := &RootOptions{
		ConfigDir: e.dir,
		LookupEnv: func(key string) (string, bool) {
			v, ok := e.env[key]
			return v, ok
		},
		EngineOptions: []engine.Option{
			engine.WithClock(e.clock.Now),
			engine.WithGenerationSource(testutil.NewFixedGeneration("test")),
		},
	}
	cmd := newRootCommand(opts)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// run runs the root command against the environment's data file.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.execute(t, append([]string{"--data", e.dataFile}, args...)...)
}

// runJSON runs with --format json and decodes the envelope.
func (e *testEnv) runJSON(t *testing.T, args ...string) (rawResponse, error) {
	t.Helper()
	stdout, _, err := e.run(t, append([]string{"--format", "json"}, args...)...)

	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	return resp, err
}

// rawResponse is CLIResponse with the payload left undecoded.
type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeData[T any](t *testing.T, resp rawResponse) T {
	t.Helper()
	require.Equal(t, "ok", resp.Status, "error: %+v", resp.Error)
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}
