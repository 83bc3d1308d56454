package filesystem

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wardenfs/warden/internal/logging"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// FilesystemOps provides common filesystem operation helpers. Every
// operation authorizes its path through the Gate and then performs I/O on
// the canonical path from the verdict, never on the caller's raw string.
type FilesystemOps struct {
	Gate         *sandbox.Gate
	Log          *logging.Logger
	MaxReadBytes int64

	// OnDecision observes every gate decision with the access mode and
	// outcome ("allowed" or a denial reason). Optional.
	OnDecision func(mode, outcome string)
}

// authorize clears path for the given mode. On denial it returns a failure
// Result carrying only the coarse denial reason.
func (ops *FilesystemOps) authorize(path string, mode sandbox.Mode) (string, *types.Result) {
	verdict := ops.Gate.Authorize(path, mode)
	if !verdict.Allowed {
		if ops.OnDecision != nil {
			ops.OnDecision(mode.String(), verdict.Reason.String())
		}
		if ops.Log != nil {
			ops.Log.Warn("access denied",
				zap.String("mode", mode.String()),
				zap.String("reason", verdict.Reason.String()))
		}
		msg := fmt.Sprintf("access denied: %s", verdict.Reason)
		return "", &types.Result{Success: false, Error: &msg}
	}
	if ops.OnDecision != nil {
		ops.OnDecision(mode.String(), "allowed")
	}
	return verdict.Path, nil
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
