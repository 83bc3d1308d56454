package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// BasicOps handles basic file operations
type BasicOps struct {
	*FilesystemOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.read",
			Name:        "Read File",
			Description: "Read file contents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "fs.read_batch",
			Name:        "Read Files",
			Description: "Read multiple files concurrently",
			Parameters: []types.Parameter{
				{Name: "paths", Type: "array", Description: "File paths", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.write",
			Name:        "Write File",
			Description: "Create a file with content, optionally overwriting",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to write", Required: true},
				{Name: "overwrite", Type: "boolean", Description: "Overwrite if file exists", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "fs.edit",
			Name:        "Edit File",
			Description: "Replace a string in a file, with dry-run diff support",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "old", Type: "string", Description: "String to replace", Required: true},
				{Name: "new", Type: "string", Description: "Replacement string", Required: true},
				{Name: "dry_run", Type: "boolean", Description: "Return a diff instead of applying", Required: false},
			},
			Returns: "object",
		},
	}
}

// Read reads a single file's contents, capped at MaxReadBytes.
func (b *BasicOps) Read(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	canon, denied := b.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	content, truncated, err := b.readCapped(canon)
	if err != nil {
		return Failure(fmt.Sprintf("read failed: %s", path))
	}

	return Success(map[string]interface{}{
		"path":      canon,
		"content":   content,
		"size":      len(content),
		"truncated": truncated,
	})
}

// ReadBatch reads multiple files concurrently. Every path is authorized
// up front; a single denial fails the whole batch before any I/O starts.
func (b *BasicOps) ReadBatch(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	rawPaths, ok := params["paths"].([]interface{})
	if !ok || len(rawPaths) == 0 {
		return Failure("paths parameter required")
	}

	canonical := make([]string, 0, len(rawPaths))
	for _, raw := range rawPaths {
		path, ok := raw.(string)
		if !ok {
			return Failure("paths must be strings")
		}
		canon, denied := b.authorize(path, sandbox.ModeRead)
		if denied != nil {
			return denied, nil
		}
		canonical = append(canonical, canon)
	}

	type readResult struct {
		path    string
		content string
		err     error
	}

	results := make([]readResult, len(canonical))
	var wg sync.WaitGroup
	for i, canon := range canonical {
		wg.Add(1)
		go func(i int, canon string) {
			defer wg.Done()
			if ctx.Err() != nil {
				results[i] = readResult{path: canon, err: ctx.Err()}
				return
			}
			content, _, err := b.readCapped(canon)
			results[i] = readResult{path: canon, content: content, err: err}
		}(i, canon)
	}
	wg.Wait()

	files := make(map[string]interface{}, len(results))
	for _, r := range results {
		if r.err != nil {
			return Failure(fmt.Sprintf("read failed: %s", r.path))
		}
		files[r.path] = r.content
	}

	return Success(map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// Write creates a file with content. An existing file is left untouched
// unless overwrite is set.
func (b *BasicOps) Write(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	content, ok := params["content"].(string)
	if !ok {
		return Failure("content parameter required")
	}
	overwrite, _ := params["overwrite"].(bool)

	canon, denied := b.authorize(path, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	existed := false
	if _, err := os.Lstat(canon); err == nil {
		existed = true
	}

	if existed && !overwrite {
		return Success(map[string]interface{}{
			"path":    canon,
			"written": false,
			"status":  "exists, no action taken",
		})
	}

	if err := os.WriteFile(canon, []byte(content), 0o644); err != nil {
		return Failure(fmt.Sprintf("write failed: %s", path))
	}

	status := "created"
	if existed {
		status = "overwritten"
	}
	return Success(map[string]interface{}{
		"path":    canon,
		"written": true,
		"status":  status,
		"size":    len(content),
	})
}

// Edit replaces occurrences of a string in a file. With dry_run the change
// is not applied and a unified diff of the would-be edit is returned.
func (b *BasicOps) Edit(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	oldStr, ok := params["old"].(string)
	if !ok {
		return Failure("old parameter required")
	}
	newStr, ok := params["new"].(string)
	if !ok {
		return Failure("new parameter required")
	}
	dryRun, _ := params["dry_run"].(bool)

	canon, denied := b.authorize(path, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	before, err := os.ReadFile(canon)
	if err != nil {
		return Failure(fmt.Sprintf("read failed: %s", path))
	}
	after := strings.ReplaceAll(string(before), oldStr, newStr)

	if dryRun {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(before)),
			B:        difflib.SplitLines(after),
			FromFile: "before",
			ToFile:   "after",
			Context:  3,
		})
		if err != nil {
			return Failure("diff failed")
		}
		return Success(map[string]interface{}{
			"path":    canon,
			"applied": false,
			"diff":    diff,
		})
	}

	if err := os.WriteFile(canon, []byte(after), 0o644); err != nil {
		return Failure(fmt.Sprintf("write failed: %s", path))
	}

	return Success(map[string]interface{}{
		"path":         canon,
		"applied":      true,
		"replacements": strings.Count(string(before), oldStr),
	})
}

// readCapped reads a file honoring MaxReadBytes.
func (b *BasicOps) readCapped(canon string) (string, bool, error) {
	f, err := os.Open(canon)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	if b.MaxReadBytes <= 0 {
		data, err := io.ReadAll(f)
		return string(data), false, err
	}

	data, err := io.ReadAll(io.LimitReader(f, b.MaxReadBytes))
	if err != nil {
		return "", false, err
	}
	truncated := false
	if int64(len(data)) == b.MaxReadBytes {
		// One more byte decides whether the cap actually cut anything off.
		extra := make([]byte, 1)
		if n, _ := f.Read(extra); n > 0 {
			truncated = true
		}
	}
	return string(data), truncated, nil
}
