package builtintool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/provider"
)

func TestDispatch_UnknownCallTypeFails(t *testing.T) {
	r := NewRegistry()

	result := r.Dispatch(context.Background(), Call{CallID: "1", Type: "unregistered"})
	require.Equal(t, "failed", result.Status)
	require.Equal(t, "1", result.CallID)
}

func TestDispatch_RoutesToRegisteredHandler(t *testing.T) {
	r := NewRegistry()
	r.Register("echo", func(ctx context.Context, call Call) Result {
		return Result{CallID: call.CallID, Status: "completed", Output: call.Operation.Path}
	})

	result := r.Dispatch(context.Background(), Call{
		CallID:    "1",
		Type:      "echo",
		Operation: provider.BuiltinOperation{Path: "hello.txt"},
	})

	require.Equal(t, "completed", result.Status)
	require.Equal(t, "hello.txt", result.Output)
}

func TestRegister_ReplacesPriorHandler(t *testing.T) {
	r := NewRegistry()
	r.Register("op", func(context.Context, Call) Result { return Result{Status: "completed", Output: "v1"} })
	r.Register("op", func(context.Context, Call) Result { return Result{Status: "completed", Output: "v2"} })

	result := r.Dispatch(context.Background(), Call{Type: "op"})
	require.Equal(t, "v2", result.Output)
}
