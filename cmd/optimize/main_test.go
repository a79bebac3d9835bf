package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/annealhive/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestObjectivesCommand(t *testing.T) {
	out, err := execute(t, "objectives")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "rosenbrock")
	assert.Contains(t, out, "shifted_sphere")
}

func TestAnnealCommand(t *testing.T) {
	trace := filepath.Join(t.TempDir(), "anneal.jsonl")
	out, err := execute(t, "anneal", "--objective", "sphere", "--seed", "5", "--json", "--trace", trace)
	require.NoError(t, err)

	var view resultView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "annealing", view.Algorithm)
	assert.Equal(t, "temperature", view.StopReason)
	assert.Len(t, view.Best, 2)

	f, err := os.Open(trace)
	require.NoError(t, err)
	defer f.Close()
	entries, err := store.ReadTrace(f)
	require.NoError(t, err)
	assert.Len(t, entries, view.Iterations+1)
	assert.Equal(t, view.Value, entries[len(entries)-1].Value)
}

func TestColonyCommand(t *testing.T) {
	out, err := execute(t, "colony", "--objective", "booth", "--seed", "9", "--population", "20",
		"--max-iterations", "300", "--threshold", "0", "--json", "--trace", "")
	require.NoError(t, err)

	var view resultView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "colony", view.Algorithm)
	assert.Equal(t, 300, view.Iterations)
	assert.Equal(t, "max_iterations", view.StopReason)
	assert.Less(t, view.Value, 0.5)
}

func TestBenchCommand(t *testing.T) {
	out, err := execute(t, "bench", "--objective", "sphere", "--runs", "4", "--workers", "2",
		"--seed", "1", "--max-iterations", "200", "--json")
	require.NoError(t, err)

	var sum map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, float64(4), sum["runs"])
	assert.Len(t, sum["values"], 4)
}

func TestUnknownObjective(t *testing.T) {
	_, err := execute(t, "anneal", "--objective", "nope", "--json")
	assert.Error(t, err)
}
