package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stepgen/pkg/domain"
)

const testdata = "../../internal/core/testdata"

type cliOutput struct {
	RunID       string             `json:"runId"`
	Name        string             `json:"name"`
	OK          bool               `json:"ok"`
	Halted      bool               `json:"halted"`
	Commands    domain.CommandList `json:"commands"`
	Errors      []struct {
		StepIndex int `json:"stepIndex"`
		Errors    []struct {
			Type string `json:"type"`
		} `json:"errors"`
	} `json:"errors"`
	ArtifactKey string `json:"artifactKey"`
	HistoryID   int64  `json:"historyId"`
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STEPGEN_STORAGE_DRIVER", "sqlite")
	t.Setenv("STEPGEN_SQLITE_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("STEPGEN_BLOB_DRIVER", "fs")
	t.Setenv("STEPGEN_BLOB_FS_ROOT", filepath.Join(dir, "artifacts"))
}

func TestSimulateSuccess(t *testing.T) {
	isolateEnv(t)
	code, stdout, stderr := runCLI(t, "simulate", "--log-level", "error", filepath.Join(testdata, "simple_transfer.json"))
	require.Equal(t, exitOK, code, stderr)

	var out cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.True(t, out.OK)
	require.False(t, out.Halted)
	require.Equal(t, "simple transfer", out.Name)
	require.Len(t, out.Commands, 4)
	require.Equal(t, domain.CommandPickUpTip, out.Commands[0].CommandType())
	require.Equal(t, domain.CommandDropTip, out.Commands[3].CommandType())
	require.NotEmpty(t, out.RunID)
}

func TestSimulateYAML(t *testing.T) {
	isolateEnv(t)
	code, stdout, stderr := runCLI(t, "simulate", "--log-level", "error", filepath.Join(testdata, "simple_transfer.yaml"))
	require.Equal(t, exitOK, code, stderr)
	var out cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Commands, 4)
}

func TestSimulateStepErrorsExitTwo(t *testing.T) {
	isolateEnv(t)
	code, stdout, _ := runCLI(t, "simulate", "--log-level", "error", filepath.Join(testdata, "failing.json"))
	require.Equal(t, exitStepErrors, code)

	var out cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.False(t, out.OK)
	require.True(t, out.Halted)
	require.Len(t, out.Errors, 1)
	require.Equal(t, 1, out.Errors[0].StepIndex)
	require.Equal(t, "NO_TIP_ON_PIPETTE", out.Errors[0].Errors[0].Type)
	require.Len(t, out.Commands, 1, "the delay before the failure still produced its command")
}

func TestSimulateContinueOnError(t *testing.T) {
	isolateEnv(t)
	code, stdout, _ := runCLI(t, "simulate", "--log-level", "error", "--continue-on-error", filepath.Join(testdata, "failing.json"))
	require.Equal(t, exitStepErrors, code)

	var out cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.False(t, out.Halted)
	require.Len(t, out.Errors, 2)
	require.Equal(t, "UNKNOWN_STEP_TYPE", out.Errors[1].Errors[0].Type)
}

func TestSimulateRecordExportAndHistory(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(testdata, "simple_transfer.json")
	code, stdout, stderr := runCLI(t, "simulate", "--log-level", "error", "--record", "--export", path)
	require.Equal(t, exitOK, code, stderr)

	var out cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Equal(t, "timelines/"+out.RunID+".json", out.ArtifactKey)
	require.Positive(t, out.HistoryID)

	artifact := filepath.Join(os.Getenv("STEPGEN_BLOB_FS_ROOT"), "timelines", out.RunID+".json")
	_, err := os.Stat(artifact)
	require.NoError(t, err)

	code, stdout, stderr = runCLI(t, "history", "list", "--log-level", "error")
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, stdout, out.RunID)
	require.Contains(t, stdout, "simple transfer")

	code, stdout, _ = runCLI(t, "history", "list", "--log-level", "error", "--name", "other")
	require.Equal(t, exitOK, code)
	require.NotContains(t, stdout, out.RunID)
}

func TestSimulateBatchPrintsArray(t *testing.T) {
	isolateEnv(t)
	code, stdout, _ := runCLI(t, "simulate", "--log-level", "error", "--parallel", "2",
		filepath.Join(testdata, "simple_transfer.json"),
		filepath.Join(testdata, "failing.json"))
	require.Equal(t, exitStepErrors, code)

	var outs []cliOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &outs))
	require.Len(t, outs, 2)
	require.True(t, outs[0].OK)
	require.False(t, outs[1].OK)
}

func TestSimulateMissingFile(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCLI(t, "simulate", "--log-level", "error", "does-not-exist.json")
	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "read protocol")
}

func TestBadLogLevel(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCLI(t, "steps", "--log-level", "loud")
	require.Equal(t, exitFailure, code)
	require.Contains(t, stderr, "unknown log level")
}

func TestStepsListsRegisteredTypes(t *testing.T) {
	isolateEnv(t)
	code, stdout, _ := runCLI(t, "steps")
	require.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Contains(t, lines, "transfer")
	require.Contains(t, lines, "thermocyclerRunProfile")
}

func TestLogFileAndTraceOut(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "stepgen.log")
	traceFile := filepath.Join(dir, "trace.jsonl")
	code, _, stderr := runCLI(t, "simulate", "--log-level", "debug", "--log-file", logFile, "--trace-out", traceFile,
		filepath.Join(testdata, "simple_transfer.json"))
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, stderr, "protocol simulated")

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(logs), `"msg":"protocol simulated"`)

	trace, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	require.Contains(t, string(trace), `"operation":"simulate"`)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchResimulatesOnChange(t *testing.T) {
	isolateEnv(t)
	src, err := os.ReadFile(filepath.Join(testdata, "simple_transfer.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "protocol.json")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "--log-level", "error", "--debounce", "50ms", path}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Count(stdout.String(), `"runId"`) == 1
	}, 5*time.Second, 20*time.Millisecond, "initial simulation")

	// give the watcher time to register before touching the file
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, src, 0o644))
	require.Eventually(t, func() bool {
		return strings.Count(stdout.String(), `"runId"`) >= 2
	}, 5*time.Second, 20*time.Millisecond, "re-simulation after write")

	cancel()
	select {
	case code := <-done:
		require.Equal(t, exitOK, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
