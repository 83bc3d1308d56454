package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// SearchOps handles search and filtering operations
type SearchOps struct {
	*FilesystemOps
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.search",
			Name:        "Glob Search",
			Description: "Search for files matching a glob pattern (supports **)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "pattern", Type: "string", Description: "Glob pattern (e.g., '**/*.go')", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "fs.find",
			Name:        "Find Files",
			Description: "Find files by name pattern (fast recursive)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "pattern", Type: "string", Description: "File pattern (e.g., '*.go')", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "fs.grep",
			Name:        "Search Content",
			Description: "Search text in files under a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "query", Type: "string", Description: "Text to search", Required: true},
				{Name: "extensions", Type: "array", Description: "File extensions to search", Required: false},
			},
			Returns: "array",
		},
	}
}

// Search performs glob matching rooted at an authorized directory
func (s *SearchOps) Search(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}

	canon, denied := s.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	// Symlinked directories are not descended into, so a link pointing
	// outside the root cannot leak foreign filenames.
	matches, err := doublestar.Glob(os.DirFS(canon), pattern, doublestar.WithNoFollow())
	if err != nil {
		return Failure(fmt.Sprintf("invalid pattern: %s", pattern))
	}

	if matches == nil {
		matches = []string{}
	}
	return Success(map[string]interface{}{"path": canon, "matches": matches, "count": len(matches)})
}

// Find finds files by name pattern
func (s *SearchOps) Find(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	pattern, ok := params["pattern"].(string)
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}

	canon, denied := s.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	var mu sync.Mutex
	matches := []string{}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, canon, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		matched, _ := filepath.Match(pattern, filepath.Base(p))
		if matched {
			relPath, _ := filepath.Rel(canon, p)
			mu.Lock()
			matches = append(matches, relPath)
			mu.Unlock()
		}
		return nil
	})

	if err != nil {
		return Failure(fmt.Sprintf("find failed in: %s", path))
	}

	return Success(map[string]interface{}{"path": canon, "matches": matches, "count": len(matches)})
}

// Grep searches text in files
func (s *SearchOps) Grep(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return Failure("query parameter required")
	}

	extensions := make(map[string]bool)
	if extArr, ok := params["extensions"].([]interface{}); ok {
		for _, ext := range extArr {
			if e, ok := ext.(string); ok {
				if !strings.HasPrefix(e, ".") {
					e = "." + e
				}
				extensions[e] = true
			}
		}
	}

	canon, denied := s.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	queryBytes := []byte(query)
	var mu sync.Mutex
	matches := []map[string]interface{}{}
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, canon, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		if len(extensions) > 0 && !extensions[filepath.Ext(p)] {
			return nil
		}

		file, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		lineNum := 1
		matchLines := []map[string]interface{}{}

		for scanner.Scan() {
			if bytes.Contains(scanner.Bytes(), queryBytes) {
				matchLines = append(matchLines, map[string]interface{}{
					"line":    lineNum,
					"content": scanner.Text(),
				})
			}
			lineNum++
			if len(matchLines) > 100 { // Limit matches per file
				break
			}
		}

		if len(matchLines) > 0 {
			relPath, _ := filepath.Rel(canon, p)
			mu.Lock()
			matches = append(matches, map[string]interface{}{
				"path":    relPath,
				"matches": matchLines,
				"count":   len(matchLines),
			})
			mu.Unlock()
		}

		return nil
	})

	if err != nil {
		return Failure(fmt.Sprintf("search failed in: %s", path))
	}

	return Success(map[string]interface{}{"path": canon, "query": query, "results": matches, "files": len(matches)})
}
