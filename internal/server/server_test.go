package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenfs/warden/internal/infrastructure/config"
	"github.com/wardenfs/warden/internal/logging"
	"github.com/wardenfs/warden/internal/sandbox"
)

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	log, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)
	return log
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Sandbox.AllowedDirs = config.DirList{dir}
	cfg.RateLimit.Enabled = false

	srv, err := New(cfg, newTestLogger(t))
	require.NoError(t, err)
	return srv, dir
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestRootEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w, data := doRequest(t, srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", data["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint(t *testing.T) {
	srv, dir := newTestServer(t)

	w, data := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", data["status"])

	roots, ok := data["allowed_roots"].([]interface{})
	require.True(t, ok)
	require.Len(t, roots, 1)
	assert.Equal(t, dir, roots[0])
}

func TestListServicesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w, data := doRequest(t, srv, http.MethodGet, "/services", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	services, ok := data["services"].([]interface{})
	require.True(t, ok)
	assert.Len(t, services, 1)
}

func TestExecuteEndpoint(t *testing.T) {
	srv, dir := newTestServer(t)

	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	body, err := sonic.Marshal(map[string]interface{}{
		"tool_id": "fs.read",
		"params":  map[string]interface{}{"path": path},
	})
	require.NoError(t, err)

	w, data := doRequest(t, srv, http.MethodPost, "/services/execute", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, data["success"])
}

func TestExecuteDeniedOutsideRoots(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := sonic.Marshal(map[string]interface{}{
		"tool_id": "fs.read",
		"params":  map[string]interface{}{"path": "/etc/hostname"},
	})
	require.NoError(t, err)

	w, data := doRequest(t, srv, http.MethodPost, "/services/execute", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, data["success"])
	assert.Contains(t, data["error"], "outside_allowed_roots")
}

func TestExecuteMissingToolID(t *testing.T) {
	srv, _ := newTestServer(t)

	w, _ := doRequest(t, srv, http.MethodPost, "/services/execute", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewRejectsEmptyAllowList(t *testing.T) {
	cfg := config.Default()
	cfg.Sandbox.AllowedDirs = nil

	_, err := New(cfg, newTestLogger(t))
	require.Error(t, err)

	var cfgErr *sandbox.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, sandbox.EmptyAllowList, cfgErr.Kind)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "warden_uptime_seconds")
}
