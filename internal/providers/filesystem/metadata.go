package filesystem

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// MetadataOps handles file metadata operations
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata operation tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.stat",
			Name:        "File Stats",
			Description: "Get detailed file metadata",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.du",
			Name:        "Directory Size",
			Description: "Calculate total size of a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "human", Type: "boolean", Description: "Return human-readable format", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "fs.mime",
			Name:        "MIME Type",
			Description: "Detect file MIME type",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
	}
}

// Stat gets file metadata
func (m *MetadataOps) Stat(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	canon, denied := m.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	info, err := os.Stat(canon)
	if err != nil {
		return Failure(fmt.Sprintf("stat failed: %s", path))
	}

	entryType := "file"
	if info.IsDir() {
		entryType = "dir"
	}

	result := map[string]interface{}{
		"path":        canon,
		"type":        entryType,
		"size":        info.Size(),
		"modified":    info.ModTime().Unix(),
		"permissions": fmt.Sprintf("%o", info.Mode().Perm()),
	}

	if accessed, created, ok := statTimes(info); ok {
		result["accessed"] = accessed
		result["created"] = created
	}

	return Success(result)
}

// Du calculates directory size
func (m *MetadataOps) Du(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	human := false
	if h, ok := params["human"].(bool); ok {
		human = h
	}

	canon, denied := m.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	var mu sync.Mutex
	var totalSize int64
	fileCount := 0
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

		info, err := d.Info()
		if err != nil {
			return nil
		}

		mu.Lock()
		totalSize += info.Size()
		fileCount++
		mu.Unlock()
		return nil
	})

	if err != nil {
		return Failure(fmt.Sprintf("size calculation failed: %s", path))
	}

	result := map[string]interface{}{
		"path":  canon,
		"bytes": totalSize,
		"files": fileCount,
	}

	if human {
		result["size"] = formatBytes(totalSize)
	}

	return Success(result)
}

// MIMEType detects file MIME type
func (m *MetadataOps) MIMEType(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return Failure("path parameter required")
	}

	canon, denied := m.authorize(path, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	mtype, err := mimetype.DetectFile(canon)
	if err != nil {
		return Failure(fmt.Sprintf("mime detection failed: %s", path))
	}

	isText := strings.HasPrefix(mtype.String(), "text/") ||
		mtype.String() == "application/json" ||
		mtype.String() == "application/xml" ||
		mtype.String() == "application/javascript"

	return Success(map[string]interface{}{
		"path":      canon,
		"mime_type": mtype.String(),
		"extension": mtype.Extension(),
		"is_text":   isText,
	})
}

// formatBytes formats bytes to human-readable size
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
