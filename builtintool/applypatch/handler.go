package applypatch

import (
	"context"
	"fmt"

	"github.com/sagentic-ai/sagentic-af/builtintool"
	"github.com/sagentic-ai/sagentic-af/fsharness"
)

// Options configures the apply_patch builtin tool handler.
type Options struct {
	// CreateBackups writes a path+".bak" sibling before update_file/
	// delete_file mutate an existing file.
	CreateBackups bool
	// DryRun skips all mutations; success output is annotated "[DRY RUN] ".
	DryRun bool
}

// NewHandler builds a builtintool.Handler for the apply_patch call type,
// operating against fs.
func NewHandler(fs fsharness.Harness, opts Options) builtintool.Handler {
	return func(_ context.Context, call builtintool.Call) builtintool.Result {
		out, err := dispatch(fs, call.Operation.Type, call.Operation.Path, call.Operation.Diff, opts)
		if err != nil {
			return builtintool.Result{CallID: call.CallID, Status: "failed", Output: err.Error()}
		}
		if opts.DryRun {
			out = "[DRY RUN] " + out
		}
		return builtintool.Result{CallID: call.CallID, Status: "completed", Output: out}
	}
}

func dispatch(fs fsharness.Harness, opType, path, diff string, opts Options) (string, error) {
	switch opType {
	case "create_file":
		return createFile(fs, path, diff, opts)
	case "update_file":
		return updateFile(fs, path, diff, opts)
	case "delete_file":
		return deleteFile(fs, path, opts)
	default:
		return "", fmt.Errorf("applypatch: unknown operation %q", opType)
	}
}

func createFile(fs fsharness.Harness, path, diff string, opts Options) (string, error) {
	exists, err := fs.FileExists(path)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("applypatch: create_file: %s already exists", path)
	}
	content := Apply("", diff)
	if opts.DryRun {
		return fmt.Sprintf("would create %s (%d bytes)", path, len(content)), nil
	}
	if err := fs.WriteFile(path, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s", path), nil
}

func updateFile(fs fsharness.Harness, path, diff string, opts Options) (string, error) {
	current, err := fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("applypatch: update_file: %w", err)
	}
	content := Apply(current, diff)
	if opts.DryRun {
		return fmt.Sprintf("would update %s (%d bytes)", path, len(content)), nil
	}
	if opts.CreateBackups {
		if err := fs.WriteFile(path+".bak", current); err != nil {
			return "", err
		}
	}
	if err := fs.WriteFile(path, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s", path), nil
}

func deleteFile(fs fsharness.Harness, path string, opts Options) (string, error) {
	exists, err := fs.FileExists(path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("applypatch: delete_file: %s does not exist", path)
	}
	if opts.DryRun {
		return fmt.Sprintf("would delete %s", path), nil
	}
	if opts.CreateBackups {
		current, err := fs.ReadFile(path)
		if err != nil {
			return "", err
		}
		if err := fs.WriteFile(path+".bak", current); err != nil {
			return "", err
		}
	}
	if err := fs.DeleteFile(path); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %s", path), nil
}
