package thread

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/provider"
)

type fakeOwner struct {
	id             string
	supportsImages bool
	systemPrompt   string
	hasPrompt      bool
}

func (o *fakeOwner) ID() string                   { return o.id }
func (o *fakeOwner) SupportsImages() bool         { return o.supportsImages }
func (o *fakeOwner) SystemPrompt() (string, bool) { return o.systemPrompt, o.hasPrompt }

func TestThread_CompleteIffTailAssistantSet(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	th := New(owner)

	th, err := th.AppendUserMessage("hi")
	require.NoError(t, err)
	require.False(t, th.Complete())

	th, err = th.AppendAssistantMessage("hello")
	require.NoError(t, err)
	require.True(t, th.Complete())
	require.NotNil(t, th.Tail().Assistant)
}

func TestThread_AppendUserMessage_MutatesInPlaceWhileIncomplete(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	th := New(owner)

	th1, err := th.AppendUserMessage("hello ")
	require.NoError(t, err)
	th2, err := th1.AppendUserMessage("world")
	require.NoError(t, err)

	require.Same(t, th1, th2)
	require.Equal(t, "hello world", th2.Tail().User.Text)
}

func TestThread_AppendUserMessage_ReallocatesWhileComplete(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	th, _ := New(owner).AppendUserMessage("hi")
	th, _ = th.AppendAssistantMessage("hello")

	next, err := th.AppendUserMessage("again")
	require.NoError(t, err)
	require.NotSame(t, th, next)
	require.Same(t, th.Tail(), next.Tail().Previous)
}

func TestThread_Materialize_PrependsSystemPromptOnceInPreOrder(t *testing.T) {
	owner := &fakeOwner{id: "a", systemPrompt: "be terse", hasPrompt: true}
	th, _ := New(owner).AppendUserMessage("one")
	th, _ = th.AppendAssistantMessage("first reply")
	th, _ = th.AppendUserMessage("two")
	th, _ = th.AppendAssistantMessage("second reply")

	msgs, err := th.Materialize()
	require.NoError(t, err)

	require.Equal(t, provider.RoleSystem, msgs[0].Role)
	require.Equal(t, "be terse", msgs[0].Text)

	var systemCount int
	for _, m := range msgs {
		if m.Role == provider.RoleSystem {
			systemCount++
		}
	}
	require.Equal(t, 1, systemCount)

	require.Equal(t, []string{"one", "first reply", "two", "second reply"}, texts(msgs[1:]))
}

func texts(msgs []provider.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestThread_AppendUserImage_RequiresImageCapability(t *testing.T) {
	owner := &fakeOwner{id: "a", supportsImages: false}
	th := New(owner)

	_, err := th.AppendUserImage("https://example.com/x.png", provider.ImageDetailAuto)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestThread_AppendUserImage_RejectsDataURL(t *testing.T) {
	owner := &fakeOwner{id: "a", supportsImages: true}
	th := New(owner)

	_, err := th.AppendUserImage("data:image/png;base64,AAAA", provider.ImageDetailAuto)
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestThread_Rollup_SelfRaises(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	th, _ := New(owner).AppendUserMessage("hi")
	th, _ = th.AppendAssistantMessage("hello")

	_, err := th.Rollup(th, "note")
	require.ErrorIs(t, err, ErrSelfRollup)
}

func TestThread_Rollup_IncompleteThreadRaises(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	complete, _ := New(owner).AppendUserMessage("hi")
	complete, _ = complete.AppendAssistantMessage("hello")

	incomplete, _ := New(owner).AppendUserMessage("pending")

	_, err := complete.Rollup(incomplete, "note")
	require.ErrorIs(t, err, ErrIncompleteRollup)

	_, err = incomplete.Rollup(complete, "note")
	require.ErrorIs(t, err, ErrIncompleteRollup)
}

func TestThread_Rollup_MergesUserNoteAndAssistantReply(t *testing.T) {
	owner := &fakeOwner{id: "a"}
	toolSide, _ := New(owner).AppendUserMessage("compute something")
	toolSide, _ = toolSide.AppendAssistantToolCalls([]provider.ToolCall{{ID: "1", Kind: "function"}})
	toolSide, _ = toolSide.AppendToolResult("1", "42")
	toolSide, _ = toolSide.AppendAssistantMessage("the answer is 42")

	visible, _ := New(owner).AppendUserMessage("what is the answer?")
	visible, _ = visible.AppendAssistantMessage("placeholder")

	rolled, err := toolSide.Rollup(visible, "(computed via tool)")
	require.NoError(t, err)
	require.Equal(t, "what is the answer?\n(computed via tool)", rolled.Tail().User.Text)
	require.Equal(t, "the answer is 42", rolled.Tail().Assistant.Text)
}
