package applypatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/builtintool"
	"github.com/sagentic-ai/sagentic-af/fsharness"
	"github.com/sagentic-ai/sagentic-af/provider"
)

// TestHandler_CreateFile is end-to-end scenario 6: an empty virtual FS, a
// create_file operation with a bare-content diff, resolving with a
// completed status and the expected file content.
func TestHandler_CreateFile(t *testing.T) {
	fs := fsharness.NewMemory()
	reg := builtintool.NewRegistry()
	reg.Register("apply_patch", NewHandler(fs, Options{}))

	result := reg.Dispatch(context.Background(), builtintool.Call{
		CallID: "call-1",
		Type:   "apply_patch",
		Operation: provider.BuiltinOperation{
			Type: "create_file",
			Path: "hello.txt",
			Diff: "+Hello, World!",
		},
	})

	require.Equal(t, "completed", result.Status)
	content, ok := fs.Get("hello.txt")
	require.True(t, ok)
	require.Equal(t, "Hello, World!", content)
}

func TestHandler_CreateFile_AlreadyExistsFails(t *testing.T) {
	fs := fsharness.NewMemory()
	fs.Seed("hello.txt", "already here")
	h := NewHandler(fs, Options{})

	result := h(context.Background(), builtintool.Call{
		CallID:    "call-1",
		Type:      "apply_patch",
		Operation: provider.BuiltinOperation{Type: "create_file", Path: "hello.txt", Diff: "+new"},
	})

	require.Equal(t, "failed", result.Status)
	content, _ := fs.Get("hello.txt")
	require.Equal(t, "already here", content)
}

func TestHandler_UpdateFile_EmptyDiffPreservesContent(t *testing.T) {
	fs := fsharness.NewMemory()
	fs.Seed("hello.txt", "original content")
	h := NewHandler(fs, Options{})

	result := h(context.Background(), builtintool.Call{
		CallID:    "call-1",
		Type:      "apply_patch",
		Operation: provider.BuiltinOperation{Type: "update_file", Path: "hello.txt", Diff: ""},
	})

	require.Equal(t, "completed", result.Status)
	content, ok := fs.Get("hello.txt")
	require.True(t, ok)
	require.Equal(t, "original content", content)
}

func TestHandler_UpdateFile_CreatesBackupWhenConfigured(t *testing.T) {
	fs := fsharness.NewMemory()
	fs.Seed("hello.txt", "v1")
	h := NewHandler(fs, Options{CreateBackups: true})

	result := h(context.Background(), builtintool.Call{
		CallID:    "call-1",
		Type:      "apply_patch",
		Operation: provider.BuiltinOperation{Type: "update_file", Path: "hello.txt", Diff: "@@ -1,1 +1,1 @@\n-v1\n+v2"},
	})

	require.Equal(t, "completed", result.Status)
	backup, ok := fs.Get("hello.txt.bak")
	require.True(t, ok)
	require.Equal(t, "v1", backup)
	current, _ := fs.Get("hello.txt")
	require.Equal(t, "v2", current)
}

func TestHandler_DeleteFile_AbsentFails(t *testing.T) {
	fs := fsharness.NewMemory()
	h := NewHandler(fs, Options{})

	result := h(context.Background(), builtintool.Call{
		CallID:    "call-1",
		Type:      "apply_patch",
		Operation: provider.BuiltinOperation{Type: "delete_file", Path: "missing.txt"},
	})

	require.Equal(t, "failed", result.Status)
}

func TestHandler_DryRun_SkipsMutation(t *testing.T) {
	fs := fsharness.NewMemory()
	h := NewHandler(fs, Options{DryRun: true})

	result := h(context.Background(), builtintool.Call{
		CallID:    "call-1",
		Type:      "apply_patch",
		Operation: provider.BuiltinOperation{Type: "create_file", Path: "new.txt", Diff: "+content"},
	})

	require.Equal(t, "completed", result.Status)
	_, ok := fs.Get("new.txt")
	require.False(t, ok)
}
