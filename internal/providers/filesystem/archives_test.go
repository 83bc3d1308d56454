package filesystem

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenfs/warden/internal/shared/types"
)

func TestArchiveRoundTripZip(t *testing.T) {
	p, dir := newTestProvider(t)

	src := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("beta"), 0o644))

	out := filepath.Join(dir, "project.zip")
	data := exec(t, p, "fs.archive", map[string]interface{}{
		"source": src, "output": out,
	})
	assert.Equal(t, "zip", data["format"])
	assert.Equal(t, 2, data["files"])

	dest := filepath.Join(dir, "restored")
	require.NoError(t, os.Mkdir(dest, 0o755))
	data = exec(t, p, "fs.extract", map[string]interface{}{
		"archive": out, "destination": dest,
	})
	assert.Equal(t, 2, data["files"])

	restored, err := os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(restored))
}

func TestArchiveRoundTripTarGz(t *testing.T) {
	p, dir := newTestProvider(t)

	src := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "payload.txt"), []byte("compress me"), 0o644))

	out := filepath.Join(dir, "data.tar.gz")
	data := exec(t, p, "fs.archive", map[string]interface{}{
		"source": src, "output": out,
	})
	assert.Equal(t, "tar.gz", data["format"])

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))
	exec(t, p, "fs.extract", map[string]interface{}{
		"archive": out, "destination": dest,
	})

	restored, err := os.ReadFile(filepath.Join(dest, "payload.txt"))
	require.NoError(t, err)
	assert.Equal(t, "compress me", string(restored))
}

func TestArchiveList(t *testing.T) {
	p, dir := newTestProvider(t)

	src := filepath.Join(dir, "stuff")
	require.NoError(t, os.Mkdir(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "one.txt"), []byte("1"), 0o644))

	out := filepath.Join(dir, "stuff.zip")
	exec(t, p, "fs.archive", map[string]interface{}{"source": src, "output": out})

	data := exec(t, p, "fs.archive.list", map[string]interface{}{"archive": out})
	entries := data["entries"].([]map[string]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "one.txt", entries[0]["name"])
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	p, dir := newTestProvider(t)

	// Hand-build a zip with a traversal entry name.
	evil := filepath.Join(dir, "evil.zip")
	f, err := os.Create(evil)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("../../escaped.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("gotcha"))
	require.NoError(t, err)

	w, err = zw.Create("safe.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("fine"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "unpack")
	require.NoError(t, os.Mkdir(dest, 0o755))

	data := exec(t, p, "fs.extract", map[string]interface{}{
		"archive": evil, "destination": dest,
	})
	assert.Equal(t, 1, data["files"])
	assert.Equal(t, 1, data["skipped"])

	assert.FileExists(t, filepath.Join(dest, "safe.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "..", "escaped.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "escaped.txt"))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	p, dir := newTestProvider(t)

	blob := filepath.Join(dir, "file.rar")
	require.NoError(t, os.WriteFile(blob, []byte("???"), 0o644))

	msg := execFail(t, p, "fs.extract", map[string]interface{}{
		"archive": blob, "destination": dir,
	})
	assert.Contains(t, msg, "unsupported archive format")
}

func corruptTarGz(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(bytes.Repeat([]byte("garbage!"), 200))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	path := filepath.Join(dir, "bad.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// runWithDeadline fails the test if the tool call does not return promptly,
// which is how a latched tar read error shows up.
func runWithDeadline(t *testing.T, p *Provider, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()

	done := make(chan *types.Result, 1)
	go func() {
		result, _ := p.Execute(context.Background(), toolID, params)
		done <- result
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(3 * time.Second):
		t.Fatalf("%s did not return on a corrupt tar", toolID)
		return nil
	}
}

func TestExtractCorruptTarFails(t *testing.T) {
	p, dir := newTestProvider(t)

	bad := corruptTarGz(t, dir)
	dest := filepath.Join(dir, "unpack")
	require.NoError(t, os.Mkdir(dest, 0o755))

	result := runWithDeadline(t, p, "fs.extract", map[string]interface{}{
		"archive": bad, "destination": dest,
	})
	require.NotNil(t, result)
	require.False(t, result.Success)
	assert.Contains(t, *result.Error, "corrupt archive")
}

func TestArchiveListCorruptTarFails(t *testing.T) {
	p, dir := newTestProvider(t)

	bad := corruptTarGz(t, dir)

	result := runWithDeadline(t, p, "fs.archive.list", map[string]interface{}{
		"archive": bad,
	})
	require.NotNil(t, result)
	require.False(t, result.Success)
	assert.Contains(t, *result.Error, "corrupt archive")
}
