package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenfs/warden/internal/sandbox"
)

// newTestProvider builds a provider confined to a fresh temp directory.
func newTestProvider(t *testing.T) (*Provider, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	roots, err := sandbox.BuildRootSet([]string{dir})
	require.NoError(t, err)

	gate := sandbox.NewGate(roots, sandbox.DefaultConfig())
	return New(gate, nil, 0), dir
}

func exec(t *testing.T, p *Provider, toolID string, params map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.Success, "tool %s failed: %v", toolID, result.Error)
	return result.Data
}

func execFail(t *testing.T, p *Provider, toolID string, params map[string]interface{}) string {
	t.Helper()
	result, err := p.Execute(context.Background(), toolID, params)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	return *result.Error
}

func TestReadFile(t *testing.T) {
	p, dir := newTestProvider(t)

	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	data := exec(t, p, "fs.read", map[string]interface{}{"path": path})
	assert.Equal(t, "hello world", data["content"])
	assert.Equal(t, false, data["truncated"])
}

func TestReadOutsideRootsDenied(t *testing.T) {
	p, dir := newTestProvider(t)

	msg := execFail(t, p, "fs.read", map[string]interface{}{
		"path": filepath.Join(dir, "..", "..", "etc", "passwd"),
	})
	assert.Contains(t, msg, "access denied")
	assert.Contains(t, msg, "outside_allowed_roots")
}

func TestReadCapped(t *testing.T) {
	_, dir := newTestProvider(t)

	roots, err := sandbox.BuildRootSet([]string{dir})
	require.NoError(t, err)
	p := New(sandbox.NewGate(roots, sandbox.DefaultConfig()), nil, 4)

	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	data := exec(t, p, "fs.read", map[string]interface{}{"path": path})
	assert.Equal(t, "0123", data["content"])
	assert.Equal(t, true, data["truncated"])
}

func TestReadBatch(t *testing.T) {
	p, dir := newTestProvider(t)

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("bbb"), 0o644))

	data := exec(t, p, "fs.read_batch", map[string]interface{}{
		"paths": []interface{}{a, b},
	})
	files := data["files"].(map[string]interface{})
	assert.Len(t, files, 2)
	assert.Equal(t, "aaa", files[a])
	assert.Equal(t, "bbb", files[b])
}

func TestReadBatchDeniedBeforeIO(t *testing.T) {
	p, dir := newTestProvider(t)

	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("aaa"), 0o644))

	msg := execFail(t, p, "fs.read_batch", map[string]interface{}{
		"paths": []interface{}{a, "/etc/passwd"},
	})
	assert.Contains(t, msg, "access denied")
}

func TestWriteStatuses(t *testing.T) {
	p, dir := newTestProvider(t)
	path := filepath.Join(dir, "note.txt")

	data := exec(t, p, "fs.write", map[string]interface{}{"path": path, "content": "one"})
	assert.Equal(t, "created", data["status"])

	data = exec(t, p, "fs.write", map[string]interface{}{"path": path, "content": "two"})
	assert.Equal(t, "exists, no action taken", data["status"])
	assert.Equal(t, false, data["written"])

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(onDisk))

	data = exec(t, p, "fs.write", map[string]interface{}{"path": path, "content": "two", "overwrite": true})
	assert.Equal(t, "overwritten", data["status"])

	onDisk, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(onDisk))
}

func TestEditApply(t *testing.T) {
	p, dir := newTestProvider(t)
	path := filepath.Join(dir, "code.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo bar foo"), 0o644))

	data := exec(t, p, "fs.edit", map[string]interface{}{
		"path": path, "old": "foo", "new": "baz",
	})
	assert.Equal(t, true, data["applied"])
	assert.Equal(t, 2, data["replacements"])

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "baz bar baz", string(onDisk))
}

func TestEditDryRun(t *testing.T) {
	p, dir := newTestProvider(t)
	path := filepath.Join(dir, "code.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

	data := exec(t, p, "fs.edit", map[string]interface{}{
		"path": path, "old": "two", "new": "three", "dry_run": true,
	})
	assert.Equal(t, false, data["applied"])
	diff := data["diff"].(string)
	assert.True(t, strings.Contains(diff, "-line two"))
	assert.True(t, strings.Contains(diff, "+line three"))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(onDisk))
}

func TestWriteThroughSymlinkEscapeDenied(t *testing.T) {
	p, dir := newTestProvider(t)

	outside := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(outside, link))

	msg := execFail(t, p, "fs.write", map[string]interface{}{
		"path": filepath.Join(link, "evil.txt"), "content": "x",
	})
	assert.Contains(t, msg, "access denied")
	assert.NoFileExists(t, filepath.Join(outside, "evil.txt"))
}
