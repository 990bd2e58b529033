package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systemshift/memex-vc/internal/dag"
)

// setup points HOME at a temp dir and writes a config using a file store.
func setup(t *testing.T) string {
	t.Helper()
	return setupBackend(t, "file")
}

func setupBackend(t *testing.T, backend string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() {
		homedir.DisableCache = false
		homedir.Reset()
	})

	cfg := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
data_dir = "~/data"

[store]
backend = "`+backend+`"

[identity]
path = "~/identity.json"
`), 0644))
	return cfg
}

func run(t *testing.T, cfg string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd, e := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := execute(cmd, e)
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, "", args...)
	require.NoError(t, err, "memex-vc %v: %s", args, out)
	return strings.TrimSpace(out)
}

func TestIdentity(t *testing.T) {
	cfg := setup(t)
	out := mustRun(t, cfg, "identity")
	assert.Contains(t, out, "did:    did:key:z")
	assert.Contains(t, out, "author: b")
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg), "identity.json"))

	again := mustRun(t, cfg, "identity")
	assert.Equal(t, out, again)
}

func TestPutBlobCommitCat(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "hello", "put-blob", "-")
	require.NoError(t, err)
	blob := strings.TrimSpace(out)
	_, err = dag.ParseAddress(blob)
	require.NoError(t, err)

	ctxAddr := mustRun(t, cfg, "put-tree", t.TempDir())
	first := mustRun(t, cfg, "commit", "-c", ctxAddr, "-m", "init", "--content", blob)
	second := mustRun(t, cfg, "commit", "-c", ctxAddr, "-m", "second", "--content", blob, "-p", first)

	info := mustRun(t, cfg, "cat-commit", second)
	assert.Contains(t, info, `"message": "second"`)
	assert.Contains(t, info, first)

	assert.Equal(t, "hello", mustRun(t, cfg, "cat-content", blob))
	assert.Equal(t, "hello", mustRun(t, cfg, "cat-content", second))

	log := mustRun(t, cfg, "log", second)
	assert.Less(t, strings.Index(log, "    second"), strings.Index(log, "    init"))
	assert.NotContains(t, mustRun(t, cfg, "log", "-n", "1", second), "    init")
}

func TestPutTree(t *testing.T) {
	cfg := setup(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main"), 0644))

	root := mustRun(t, cfg, "put-tree", dir)
	listing := mustRun(t, cfg, "cat-content", root)
	lines := strings.Split(listing, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "blob"))
	assert.True(t, strings.HasSuffix(lines[0], "\tREADME"))
	assert.True(t, strings.HasPrefix(lines[1], "tree"))
	assert.True(t, strings.HasSuffix(lines[1], "\tsrc"))

	assert.Equal(t, root, mustRun(t, cfg, "put-tree", dir), "same directory, same address")
}

func TestErrors(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "", "cat-commit", "not-an-address")
	assert.Error(t, err)

	blob := mustRun(t, cfg, "put-blob", "-")
	_, err = run(t, cfg, "", "cat-commit", blob)
	assert.ErrorIs(t, err, dag.ErrSerialization)

	_, err = run(t, cfg, "", "commit", "-m", "no content")
	assert.Error(t, err)

	ghost, err := dag.NewBlob([]byte("never stored")).Entry()
	require.NoError(t, err)
	ghostAddr, err := ghost.Address()
	require.NoError(t, err)
	_, err = run(t, cfg, "", "log", ghostAddr.String())
	assert.ErrorIs(t, err, dag.ErrNotFound)
}

func TestFailedCommandClosesStore(t *testing.T) {
	cfg := setupBackend(t, "bolt")
	blob := mustRun(t, cfg, "put-blob", "-")

	// cat-commit on a blob fails inside RunE. The bolt file lock must still
	// be released, or the next open blocks forever.
	for i := 0; i < 2; i++ {
		_, err := run(t, cfg, "", "cat-commit", blob)
		require.ErrorIs(t, err, dag.ErrSerialization)
	}

	done := make(chan string, 1)
	go func() {
		out, _ := run(t, cfg, "", "cat-content", blob)
		done <- out
	}()
	select {
	case out := <-done:
		assert.Equal(t, "", out)
	case <-time.After(10 * time.Second):
		t.Fatal("store left open after a failed command")
	}
}

func TestPutTree_InvalidUTF8Name(t *testing.T) {
	cfg := setup(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a\xff"), []byte("x"), 0644); err != nil {
		t.Skipf("filesystem rejects non-UTF-8 names: %v", err)
	}

	_, err := run(t, cfg, "", "put-tree", dir)
	assert.ErrorIs(t, err, dag.ErrSerialization)
}
