package runner_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/fen/internal/runner"
)

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fen")
	require.NoError(t, os.WriteFile(path, []byte(`System.print(1 + 2)`), 0o644))

	var stdout, stderr bytes.Buffer
	err := runner.RunFile(context.Background(), &stdout, &stderr, path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunFileCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fen")
	require.NoError(t, os.WriteFile(path, []byte(`var = `), 0o644))

	var stdout, stderr bytes.Buffer
	err := runner.RunFile(context.Background(), &stdout, &stderr, path)
	require.Error(t, err)
	assert.NotEmpty(t, stderr.String())
}

func TestRunFileResolvesRelativeImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.fen"), []byte(`
		System.print("loaded helper")
	`), 0o644))
	mainPath := filepath.Join(dir, "main.fen")
	require.NoError(t, os.WriteFile(mainPath, []byte(`
		import "helper"
		System.print("loaded main")
	`), 0o644))

	var stdout, stderr bytes.Buffer
	err := runner.RunFile(context.Background(), &stdout, &stderr, mainPath)
	require.NoError(t, err)
	assert.Equal(t, "loaded helper\nloaded main\n", stdout.String())
}

func TestRunFileReimportIsANoOp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.fen"), []byte(`
		System.print("loaded helper")
	`), 0o644))
	mainPath := filepath.Join(dir, "main.fen")
	require.NoError(t, os.WriteFile(mainPath, []byte(`
		import "helper"
		import "helper"
	`), 0o644))

	var stdout, stderr bytes.Buffer
	err := runner.RunFile(context.Background(), &stdout, &stderr, mainPath)
	require.NoError(t, err)
	assert.Equal(t, "loaded helper\n", stdout.String())
}

func TestREPLEvaluatesLinesAgainstPersistentModule(t *testing.T) {
	in := strings.NewReader("var x = 1\nx = x + 2\nSystem.print(x)\nquit\n")
	var stdout, stderr bytes.Buffer
	err := runner.REPL(context.Background(), in, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "3\n")
	assert.Empty(t, stderr.String())
}

func TestREPLStopsAtQuit(t *testing.T) {
	in := strings.NewReader("quit\nSystem.print(\"never\")\n")
	var stdout, stderr bytes.Buffer
	err := runner.REPL(context.Background(), in, &stdout, &stderr)
	require.NoError(t, err)
	assert.NotContains(t, stdout.String(), "never")
}

func TestREPLReportsLineErrorsAndContinues(t *testing.T) {
	in := strings.NewReader("var = \nSystem.print(1)\nquit\n")
	var stdout, stderr bytes.Buffer
	err := runner.REPL(context.Background(), in, &stdout, &stderr)
	require.NoError(t, err)
	assert.NotEmpty(t, stderr.String())
	assert.Contains(t, stdout.String(), "1\n")
}
