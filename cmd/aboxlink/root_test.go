package aboxlink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink/pkg/vocab"
)

var (
	batchPath = filepath.Join("..", "..", "testdata", "batch.json")
	vocabPath = filepath.Join("..", "..", "testdata", "tunnel.yaml")
)

// isolate keeps a developer's config files and environment out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{"OPENAI_API_KEY", "NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "ABOXLINK_VOCABULARY"} {
		t.Setenv(k, "")
	}
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := isolate(t)
	batch, err := filepath.Abs(batchPath)
	require.NoError(t, err)
	vocabulary, err := filepath.Abs(vocabPath)
	require.NoError(t, err)
	out := filepath.Join(dir, "abox.ttl")
	summary := filepath.Join(dir, "summary.json")

	_, stderr, err := execute(t, "", "run",
		"--vocabulary", vocabulary,
		"--input", batch,
		"--output", out,
		"--summary", summary,
		"--embedder", "hash",
		"--log-level", "error")
	require.NoError(t, err, stderr)

	graph, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(graph), "@prefix ex: <http://example.org/aec#> .")
	assert.Contains(t, string(graph), "ex:tunnelLength")

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	var s map[string]any
	require.NoError(t, json.Unmarshal(data, &s))
	assert.EqualValues(t, 5, s["total"])
	assert.EqualValues(t, 1, s["unusable"])
	assert.NotEmpty(t, s["run_id"])
}

func TestRunStdinToStdout(t *testing.T) {
	isolate(t)

	stdout, stderr, err := execute(t,
		`{"subject": "Tunnel_1", "predicate": "tunnelLength", "object": 1200, "object_is_literal": true}`,
		"run", "--embedder", "hash", "--format", "ntriples", "--log-level", "error")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout,
		`<http://example.org/aec#Tunnel_1> <http://example.org/aec#tunnelLength> "1200.0"^^<http://www.w3.org/2001/XMLSchema#float> .`)
	assert.NotContains(t, stdout, "@prefix")
}

func TestRunEmptyBatchWritesEmptyGraph(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "[]", "run", "--embedder", "hash", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@prefix ex:")
	assert.NotContains(t, stdout, " a ")
}

func TestRunFailures(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name     string
		stdin    string
		args     []string
		exitCode int
	}{
		{
			name:     "missing vocabulary",
			stdin:    "[]",
			args:     []string{"run", "--vocabulary", filepath.Join(dir, "missing.yaml")},
			exitCode: ExitVocabularyError,
		},
		{
			name:     "unknown builtin",
			stdin:    "[]",
			args:     []string{"run", "--vocabulary", "builtin:nope"},
			exitCode: ExitVocabularyError,
		},
		{
			name:     "unreadable input",
			args:     []string{"run", "--embedder", "hash", "--input", filepath.Join(dir, "missing.json")},
			exitCode: ExitFailure,
		},
		{
			name:     "malformed input",
			stdin:    "not json\n",
			args:     []string{"run", "--embedder", "hash"},
			exitCode: ExitFailure,
		},
		{
			name:     "bad format",
			stdin:    "[]",
			args:     []string{"run", "--embedder", "hash", "--format", "xml"},
			exitCode: ExitFailure,
		},
		{
			name:     "unwritable output",
			stdin:    "[]",
			args:     []string{"run", "--embedder", "hash", "--output", filepath.Join(dir, "no", "such", "dir.ttl")},
			exitCode: ExitFailure,
		},
		{
			name:     "persist without database",
			stdin:    "[]",
			args:     []string{"run", "--embedder", "hash", "--persist"},
			exitCode: ExitFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--log-level", "error")
			_, _, err := execute(t, tt.stdin, args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, ExitCode(err))
		})
	}
}

func TestExtractRules(t *testing.T) {
	isolate(t)

	stdout, stderr, err := execute(t,
		"Tunnel specification. The tunnel length: 800 m. Number of cross passages: 4.",
		"extract", "--extractor", "rules", "--subject-id", "Tunnel_9",
		"--vocabulary", "builtin:aec", "--embedder", "hash", "--log-level", "error")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "ex:Tunnel_9_Spec ex:tunnelLength")
	assert.Contains(t, stdout, "ex:Tunnel_9_Spec ex:numberOfCrossPassages")
}

func TestExtractUnknownExtractor(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "text", "extract", "--extractor", "oracle", "--embedder", "hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extractor")
}

func TestVocabInspect(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "vocab", "inspect", "--list", "data_property", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "namespace: http://example.org/aec#")
	assert.Contains(t, stdout, "LABEL ROWS")
	assert.Contains(t, stdout, "tunnelLength")
	assert.Contains(t, stdout, "numberOfCrossPassages")

	stdout, _, err = execute(t, "", "vocab", "inspect", "--json", "--log-level", "error")
	require.NoError(t, err)
	var resp struct {
		Prefix string      `json:"prefix"`
		Stats  vocab.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ex", resp.Prefix)
	assert.Equal(t, 8, resp.Stats.ObjectProperties)
	assert.Equal(t, 7, resp.Stats.DataProperties)

	_, _, err = execute(t, "", "vocab", "inspect", "--list", "widgets", "--log-level", "error")
	assert.Error(t, err)
}

func TestVocabInspectMalformed(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: [broken"), 0o644))

	_, stderr, err := execute(t, "", "vocab", "inspect", "--vocabulary", path)
	require.Error(t, err)
	assert.Equal(t, ExitVocabularyError, ExitCode(err))
	assert.Contains(t, stderr, "vocabulary load failed")
}

func TestConfigFileFlag(t *testing.T) {
	dir := isolate(t)
	vocabulary, err := filepath.Abs(vocabPath)
	require.NoError(t, err)
	cfg := filepath.Join(dir, "aboxlink.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(fmt.Sprintf(`
vocabulary:
  path: %q
embedding:
  provider: hash
output:
  format: ntriples
log:
  level: error
`, vocabulary)), 0o644))

	stdout, stderr, err := execute(t, `[["Tunnel_1", "has safety measure", "Hydrant_1", "object"]]`, "run", "--config", cfg)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "<http://example.org/aec#Tunnel_1> <http://example.org/aec#hasSafetyMeasure> <http://example.org/aec#Hydrant_1> .")

	// Flags beat the file.
	stdout, _, err = execute(t, "[]", "run", "--config", cfg, "--format", "turtle")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@prefix")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitVocabularyError, ExitCode(fmt.Errorf("wrapped: %w", &vocab.LoadError{Source: "x", Err: errors.New("bad")})))
}
