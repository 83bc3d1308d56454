package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonDir(t *testing.T, dir string) string {
	t.Helper()
	canon, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return canon
}

func TestBuildRootSetEmpty(t *testing.T) {
	_, err := BuildRootSet(nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, EmptyAllowList, cfgErr.Kind)
}

func TestBuildRootSetRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := BuildRootSet([]string{file})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, NotADirectory, cfgErr.Kind)
	assert.Equal(t, file, cfgErr.Dir)
}

func TestBuildRootSetRejectsMissing(t *testing.T) {
	_, err := BuildRootSet([]string{filepath.Join(t.TempDir(), "nope")})
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, NotADirectory, cfgErr.Kind)
}

func TestBuildRootSetCanonicalizes(t *testing.T) {
	dir := canonDir(t, t.TempDir())

	// Trailing separator is stripped, a symlinked alias collapses onto the
	// canonical target.
	link := filepath.Join(canonDir(t, t.TempDir()), "alias")
	require.NoError(t, os.Symlink(dir, link))

	rs, err := BuildRootSet([]string{dir + "/", link})
	require.NoError(t, err)

	assert.Equal(t, 1, rs.Len())
	assert.Equal(t, Root(dir), rs.Primary())
}

func TestBuildRootSetPreservesOrder(t *testing.T) {
	a := canonDir(t, t.TempDir())
	b := canonDir(t, t.TempDir())

	rs, err := BuildRootSet([]string{a, b, a})
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []Root{Root(a), Root(b)}, rs.Roots())
}

func TestRootSetRootsIsACopy(t *testing.T) {
	a := canonDir(t, t.TempDir())
	rs, err := BuildRootSet([]string{a})
	require.NoError(t, err)

	roots := rs.Roots()
	roots[0] = Root("/clobbered")
	assert.Equal(t, Root(a), rs.Primary())
}
