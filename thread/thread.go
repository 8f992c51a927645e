// Package thread implements the append-only interaction chain: a linked
// list of user<->assistant turns with multimodal content and tool calls,
// immutable once an Interaction is complete.
package thread

import (
	"strings"

	"github.com/sagentic-ai/sagentic-af/provider"
)

// Owner is the capability set Thread needs from whatever owns it. Agent
// implements this; Thread never imports package agent, avoiding a cycle —
// this is the "weak back-reference" the data model calls for.
type Owner interface {
	ID() string
	SupportsImages() bool
	SystemPrompt() (string, bool)
}

// UserKind tags the variant stored in a UserContent.
type UserKind string

const (
	UserText        UserKind = "text"
	UserImage       UserKind = "image"
	UserToolResults UserKind = "tool_results"
)

// AssistantKind tags the variant stored in an AssistantContent.
type AssistantKind string

const (
	AssistantText      AssistantKind = "text"
	AssistantToolCalls AssistantKind = "tool_calls"
)

// ImageRef is one image attached to a UserContent of kind UserImage.
type ImageRef struct {
	URL    string
	Detail provider.ImageDetail
}

// ToolResult is one tool's reply, keyed by the tool call it answers.
type ToolResult struct {
	ToolCallID string
	Content    string
}

// UserContent is the user side of one Interaction.
type UserContent struct {
	Kind        UserKind
	Text        string
	Images      []ImageRef
	ToolResults []ToolResult
}

// AssistantContent is the assistant side of one Interaction, present only
// once the Interaction is complete.
type AssistantContent struct {
	Kind      AssistantKind
	Text      string
	ToolCalls []provider.ToolCall
}

// Interaction is one user->assistant exchange, possibly multimodal,
// possibly with tool calls.
type Interaction struct {
	Previous  *Interaction
	User      UserContent
	Assistant *AssistantContent
}

// Complete reports whether the Interaction has an assistant response.
func (i *Interaction) Complete() bool { return i != nil && i.Assistant != nil }

// ExpectsToolResponse reports whether the assistant side is a set of tool
// calls awaiting results.
func (i *Interaction) ExpectsToolResponse() bool {
	return i.Complete() && i.Assistant.Kind == AssistantToolCalls
}

// Thread points to the tail Interaction and is owned by exactly one Agent.
//
// Value-semantics invariant: appending content while the tail is incomplete
// mutates this Thread in place (same identity, same tail pointer target
// reassigned); appending while the tail is complete reallocates into a new
// Thread whose tail's Previous is the old tail. Once an Interaction is
// complete it is never mutated again, even under aliasing.
type Thread struct {
	owner Owner
	tail  *Interaction
}

// New constructs an empty Thread (no interactions yet) owned by owner.
func New(owner Owner) *Thread {
	return &Thread{owner: owner}
}

// Owner returns the thread's owning Agent.
func (t *Thread) Owner() Owner { return t.owner }

// Tail returns the thread's tail Interaction, or nil if the thread is empty.
func (t *Thread) Tail() *Interaction { return t.tail }

// Empty reports whether the thread has no interactions yet.
func (t *Thread) Empty() bool { return t.tail == nil }

// Complete reports whether the tail Interaction has an assistant response.
func (t *Thread) Complete() bool { return t.tail.Complete() }

// ExpectsToolResponse reports whether the tail is complete with tool calls
// awaiting results.
func (t *Thread) ExpectsToolResponse() bool { return t.tail.ExpectsToolResponse() }

func isDataURL(url string) bool { return strings.HasPrefix(url, "data:") }

// AppendUserMessage concatenates text onto the tail's user content when the
// tail is incomplete (or the thread is empty, starting the first
// Interaction), or starts a new Interaction when the tail is complete and
// not awaiting a tool response.
func (t *Thread) AppendUserMessage(text string) (*Thread, error) {
	if t.Empty() {
		t.tail = &Interaction{User: UserContent{Kind: UserText, Text: text}}
		return t, nil
	}
	if !t.Complete() {
		t.tail.User.Text += text
		return t, nil
	}
	if t.ExpectsToolResponse() {
		return nil, ErrInvalidArgument
	}
	return &Thread{owner: t.owner, tail: &Interaction{
		Previous: t.tail,
		User:     UserContent{Kind: UserText, Text: text},
	}}, nil
}

// AppendUserImage promotes the tail's user content to carry an image, or
// starts a new Interaction, following the same incomplete/complete guard as
// AppendUserMessage. It fails if owner's model lacks image capability, or
// if url uses the unsupported "data:" (base64) scheme.
func (t *Thread) AppendUserImage(url string, detail provider.ImageDetail) (*Thread, error) {
	if isDataURL(url) {
		return nil, ErrNotImplemented
	}
	if !t.owner.SupportsImages() {
		return nil, ErrInvalidArgument
	}
	img := ImageRef{URL: url, Detail: detail}

	if t.Empty() {
		t.tail = &Interaction{User: UserContent{Kind: UserImage, Images: []ImageRef{img}}}
		return t, nil
	}
	if !t.Complete() {
		t.tail.User.Kind = UserImage
		t.tail.User.Images = append(t.tail.User.Images, img)
		return t, nil
	}
	if t.ExpectsToolResponse() {
		return nil, ErrInvalidArgument
	}
	return &Thread{owner: t.owner, tail: &Interaction{
		Previous: t.tail,
		User:     UserContent{Kind: UserImage, Images: []ImageRef{img}},
	}}, nil
}

// AppendToolResult appends one tool's result, either starting a new
// Interaction (tail complete, awaiting tool response) or appending in place
// (tail incomplete with a tool-results user content already started).
func (t *Thread) AppendToolResult(toolCallID, result string) (*Thread, error) {
	tr := ToolResult{ToolCallID: toolCallID, Content: result}

	if t.Complete() && t.ExpectsToolResponse() {
		return &Thread{owner: t.owner, tail: &Interaction{
			Previous: t.tail,
			User:     UserContent{Kind: UserToolResults, ToolResults: []ToolResult{tr}},
		}}, nil
	}
	if !t.Complete() && !t.Empty() && t.tail.User.Kind == UserToolResults {
		t.tail.User.ToolResults = append(t.tail.User.ToolResults, tr)
		return t, nil
	}
	return nil, ErrInvalidArgument
}

// AppendAssistantMessage sets the tail's assistant content to text. Legal
// only on a non-empty, incomplete thread.
func (t *Thread) AppendAssistantMessage(text string) (*Thread, error) {
	if t.Empty() || t.Complete() {
		return nil, ErrInvalidArgument
	}
	t.tail.Assistant = &AssistantContent{Kind: AssistantText, Text: text}
	return t, nil
}

// AppendAssistantToolCalls sets the tail's assistant content to a set of
// tool calls. Legal only on a non-empty, incomplete thread, with at least
// one call.
func (t *Thread) AppendAssistantToolCalls(calls []provider.ToolCall) (*Thread, error) {
	if t.Empty() || t.Complete() || len(calls) == 0 {
		return nil, ErrInvalidArgument
	}
	t.tail.Assistant = &AssistantContent{Kind: AssistantToolCalls, ToolCalls: calls}
	return t, nil
}

// Undo returns a new Thread whose tail drops the assistant response,
// preserving the user content. Legal only on a complete thread.
func (t *Thread) Undo() (*Thread, error) {
	if !t.Complete() {
		return nil, ErrInvalidArgument
	}
	return &Thread{owner: t.owner, tail: &Interaction{Previous: t.tail.Previous, User: t.tail.User}}, nil
}

// Edit returns a new Thread replacing the tail's user text. Legal only on a
// non-empty, incomplete thread.
func (t *Thread) Edit(text string) (*Thread, error) {
	if t.Empty() || t.Complete() {
		return nil, ErrInvalidArgument
	}
	return &Thread{owner: t.owner, tail: &Interaction{
		Previous: t.tail.Previous,
		User:     UserContent{Kind: UserText, Text: text},
	}}, nil
}

// Rollup elides a tool-call/result pair in favor of a single user-visible
// note: it builds a new Thread whose user content comes from to (with an
// optional appended note) and whose assistant content comes from t. Both
// threads must be complete and nonempty, and to must not be t.
//
// If to's user content is not plain text, the note (if any) is still
// appended to its text field, but any images or tool results it carries are
// preserved rather than discarded — a strict generalization of the
// documented text-only case.
func (t *Thread) Rollup(to *Thread, note string) (*Thread, error) {
	if to == t {
		return nil, ErrSelfRollup
	}
	if !t.Complete() || t.Empty() || !to.Complete() || to.Empty() {
		return nil, ErrIncompleteRollup
	}
	user := to.tail.User
	if note != "" {
		if user.Text != "" {
			user.Text += "\n" + note
		} else {
			user.Text = note
		}
	}
	return &Thread{owner: to.owner, tail: &Interaction{
		Previous:  to.tail.Previous,
		User:      user,
		Assistant: t.tail.Assistant,
	}}, nil
}
