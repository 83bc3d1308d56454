package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.mkdir",
			Name:        "Create Directory",
			Description: "Create a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "parents", Type: "boolean", Description: "Create parent directories (default true)", Required: false},
				{Name: "exist_ok", Type: "boolean", Description: "Tolerate an existing directory (default true)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "fs.list",
			Name:        "List Directory",
			Description: "List immediate children of a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "fs.walk",
			Name:        "Walk Directory",
			Description: "Walk directory recursively",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "max_depth", Type: "number", Description: "Max depth (0=unlimited)", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "fs.tree",
			Name:        "Directory Tree",
			Description: "Get directory tree structure",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "max_depth", Type: "number", Description: "Max depth (0=unlimited)", Required: false},
			},
			Returns: "string",
		},
	}
}

// Mkdir creates a directory
func (d *DirectoryOps) Mkdir(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	parents := true
	if p, ok := params["parents"].(bool); ok {
		parents = p
	}
	existOK := true
	if e, ok := params["exist_ok"].(bool); ok {
		existOK = e
	}

	canon, denied := d.authorize(path, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	if info, err := os.Stat(canon); err == nil {
		if info.IsDir() && existOK {
			return Success(map[string]interface{}{"path": canon, "created": false})
		}
		return Failure(fmt.Sprintf("path already exists: %s", path))
	}

	var err error
	if parents {
		err = os.MkdirAll(canon, 0o755)
	} else {
		err = os.Mkdir(canon, 0o755)
	}
	if err != nil {
		return Failure(fmt.Sprintf("mkdir failed: %s", path))
	}

	return Success(map[string]interface{}{"path": canon, "created": true})
}

// List lists immediate children of a directory, tagging each as dir or file.
func (d *DirectoryOps) List(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	canon, denied := d.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	dirEntries, err := os.ReadDir(canon)
	if err != nil {
		return Failure(fmt.Sprintf("list failed: %s", path))
	}

	entries := make([]map[string]interface{}, 0, len(dirEntries))
	for _, e := range dirEntries {
		kind := "file"
		if e.IsDir() {
			kind = "dir"
		}
		entries = append(entries, map[string]interface{}{
			"name": e.Name(),
			"type": kind,
		})
	}

	return Success(map[string]interface{}{
		"path":    canon,
		"entries": entries,
		"count":   len(entries),
	})
}

// Walk walks a directory recursively using fastwalk.
func (d *DirectoryOps) Walk(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	maxDepth := 0
	if depth, ok := params["max_depth"].(float64); ok {
		maxDepth = int(depth)
	}

	canon, denied := d.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	var mu sync.Mutex
	entries := []map[string]interface{}{}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, canon, func(p string, de os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || p == canon {
			return nil
		}

		relPath, _ := filepath.Rel(canon, p)
		depth := len(strings.Split(relPath, string(os.PathSeparator))) - 1
		if maxDepth > 0 && depth > maxDepth {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := de.Info()
		if err != nil {
			return nil
		}

		mu.Lock()
		entries = append(entries, map[string]interface{}{
			"path":     relPath,
			"is_dir":   de.IsDir(),
			"size":     info.Size(),
			"modified": info.ModTime().Unix(),
		})
		mu.Unlock()
		return nil
	})

	if err != nil {
		return Failure(fmt.Sprintf("walk failed: %s", path))
	}

	return Success(map[string]interface{}{"path": canon, "entries": entries, "count": len(entries)})
}

// Tree generates directory tree structure
func (d *DirectoryOps) Tree(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	maxDepth := 0
	if depth, ok := params["max_depth"].(float64); ok {
		maxDepth = int(depth)
	}

	canon, denied := d.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	var tree strings.Builder
	tree.WriteString(filepath.Base(canon) + "/\n")

	// Single worker keeps the rendered tree deterministic.
	conf := fastwalk.Config{Follow: false, Sort: fastwalk.SortLexical, NumWorkers: 1}
	err := fastwalk.Walk(&conf, canon, func(p string, de os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || p == canon {
			return nil
		}

		relPath, _ := filepath.Rel(canon, p)
		depth := len(strings.Split(relPath, string(os.PathSeparator))) - 1
		if maxDepth > 0 && depth > maxDepth {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		indent := strings.Repeat("  ", depth+1)
		name := filepath.Base(p)
		if de.IsDir() {
			tree.WriteString(indent + name + "/\n")
		} else {
			tree.WriteString(indent + name + "\n")
		}
		return nil
	})

	if err != nil {
		return Failure(fmt.Sprintf("tree failed: %s", path))
	}

	return Success(map[string]interface{}{"path": canon, "tree": tree.String()})
}
