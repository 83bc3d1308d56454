package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// OperationsOps handles file manipulation (move, copy)
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns file operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.move",
			Name:        "Move/Rename",
			Description: "Move or rename a file or directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.copy",
			Name:        "Copy File",
			Description: "Copy a file",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "object",
		},
	}
}

// Move moves or renames a file or directory. The destination must not
// already exist.
func (o *OperationsOps) Move(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}

	// Moving removes the source, so both ends need write access.
	srcCanon, denied := o.authorize(source, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}
	dstCanon, denied := o.authorize(destination, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	if _, err := os.Lstat(dstCanon); err == nil {
		return Failure(fmt.Sprintf("destination already exists: %s", destination))
	}

	if err := os.Rename(srcCanon, dstCanon); err != nil {
		return Failure(fmt.Sprintf("move failed: %s", source))
	}

	return Success(map[string]interface{}{
		"moved":       true,
		"source":      srcCanon,
		"destination": dstCanon,
	})
}

// Copy copies a single file
func (o *OperationsOps) Copy(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}

	srcCanon, denied := o.authorize(source, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}
	dstCanon, denied := o.authorize(destination, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	in, err := os.Open(srcCanon)
	if err != nil {
		return Failure(fmt.Sprintf("copy failed: %s", source))
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil || info.IsDir() {
		return Failure(fmt.Sprintf("copy failed: %s", source))
	}

	out, err := os.OpenFile(dstCanon, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return Failure(fmt.Sprintf("copy failed: %s", destination))
	}

	written, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Failure(fmt.Sprintf("copy failed: %s", destination))
	}

	return Success(map[string]interface{}{
		"copied":      true,
		"source":      srcCanon,
		"destination": dstCanon,
		"size":        written,
	})
}
