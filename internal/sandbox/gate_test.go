package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, dirs ...string) *Gate {
	t.Helper()
	rs, err := BuildRootSet(dirs)
	require.NoError(t, err)
	return NewGate(rs, Config{LinkBudget: DefaultLinkBudget})
}

func TestAuthorizeInsideRoot(t *testing.T) {
	root := canonDir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644))
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "f.txt"), ModeRead)
	require.True(t, v.Allowed)
	assert.Equal(t, filepath.Join(root, "f.txt"), v.Path)
	assert.Equal(t, Root(root), v.Root)
	assert.Equal(t, ReasonNone, v.Reason)
}

func TestAuthorizeRelativeCandidate(t *testing.T) {
	root := canonDir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644))
	g := newTestGate(t, root)

	v := g.Authorize("f.txt", ModeRead)
	require.True(t, v.Allowed)
	assert.Equal(t, filepath.Join(root, "f.txt"), v.Path)
}

func TestAuthorizeTraversalDenied(t *testing.T) {
	root := canonDir(t, t.TempDir())
	g := newTestGate(t, root)

	v := g.Authorize(root+"/../../etc/passwd", ModeRead)
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonOutsideAllowedRoots, v.Reason)
	assert.Empty(t, v.Path)
}

func TestAuthorizeSymlinkEscapeDenied(t *testing.T) {
	root := canonDir(t, t.TempDir())
	outside := canonDir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(outside, "passwd"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "link", "passwd"), ModeRead)
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonOutsideAllowedRoots, v.Reason)
}

func TestAuthorizeInternalSymlinkAllowed(t *testing.T) {
	root := canonDir(t, t.TempDir())
	require.NoError(t, os.Mkdir(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real", "f"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "alias", "f"), ModeRead)
	require.True(t, v.Allowed)
	assert.Equal(t, filepath.Join(root, "real", "f"), v.Path)
}

func TestAuthorizePrefixConfusionDenied(t *testing.T) {
	parent := canonDir(t, t.TempDir())
	root := filepath.Join(parent, "allowed")
	sibling := filepath.Join(parent, "allowed-other")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.Mkdir(sibling, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sibling, "secret"), []byte("x"), 0o644))
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(sibling, "secret"), ModeRead)
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonOutsideAllowedRoots, v.Reason)
}

func TestAuthorizeWriteToNewFile(t *testing.T) {
	root := canonDir(t, t.TempDir())
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "newfile.txt"), ModeWrite)
	require.True(t, v.Allowed)
	assert.Equal(t, filepath.Join(root, "newfile.txt"), v.Path)
}

func TestAuthorizeWriteEscapeViaMissingSuffixDenied(t *testing.T) {
	root := canonDir(t, t.TempDir())
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "sub", "..", "..", "evil.txt"), ModeWrite)
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonOutsideAllowedRoots, v.Reason)
}

func TestAuthorizeInvalidInput(t *testing.T) {
	g := newTestGate(t, canonDir(t, t.TempDir()))

	for _, candidate := range []string{"", "bad\x00path"} {
		v := g.Authorize(candidate, ModeRead)
		require.False(t, v.Allowed)
		assert.Equal(t, ReasonInvalidInput, v.Reason)
	}
}

func TestAuthorizeResolutionFailure(t *testing.T) {
	root := canonDir(t, t.TempDir())
	require.NoError(t, os.Symlink(filepath.Join(root, "b"), filepath.Join(root, "a")))
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "b")))
	g := newTestGate(t, root)

	v := g.Authorize(filepath.Join(root, "a", "f"), ModeRead)
	require.False(t, v.Allowed)
	assert.Equal(t, ReasonResolutionFailed, v.Reason)
}

func TestAuthorizeIdempotent(t *testing.T) {
	root := canonDir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644))
	g := newTestGate(t, root)

	first := g.Authorize(filepath.Join(root, "f.txt"), ModeRead)
	second := g.Authorize(filepath.Join(root, "f.txt"), ModeRead)
	assert.Equal(t, first, second)
}

func TestAuthorizeMultipleRoots(t *testing.T) {
	a := canonDir(t, t.TempDir())
	b := canonDir(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(b, "f"), []byte("x"), 0o644))
	g := newTestGate(t, a, b)

	v := g.Authorize(filepath.Join(b, "f"), ModeRead)
	require.True(t, v.Allowed)
	assert.Equal(t, Root(b), v.Root)
}
