// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestInitAndDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")

	out, err := execute(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = execute(t, "init", path)
	assert.Error(t, err)
	_, err = execute(t, "init", "--force", path)
	require.NoError(t, err)

	out, err = execute(t, "decode", "-o", "json", path)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, []int{-1, 2, 0, 4, 2}, r.Heads)
	assert.Equal(t, "certified", r.Status)
	assert.Equal(t, "optimal", r.Class)
	assert.Equal(t, "grand-sibling", r.Mode)
	assert.InDelta(t, 20.0, r.Score, 1e-9)
	assert.NotEmpty(t, r.RunID)

	out, err = execute(t, "certify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "class optimal")
	assert.Contains(t, out, "books")
}

func TestDecode_Errors(t *testing.T) {
	_, err := execute(t, "decode")
	assert.Error(t, err)

	_, err = execute(t, "decode", filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "s.json")
	_, err = execute(t, "init", path)
	require.NoError(t, err)
	_, err = execute(t, "decode", "--beta", "3", path)
	assert.Error(t, err)
	_, err = execute(t, "decode", "-o", "xml", path)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "depdual dev")
}

func TestWatchFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("arcs: []\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, zap.NewNop(), []string{path}, func(p string) { calls <- p })
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for got := false; !got; {
		select {
		case p := <-calls:
			assert.Equal(t, path, p)
			got = true
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("arcs: [[0]]\n"), 0o600))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
