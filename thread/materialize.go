package thread

import "github.com/sagentic-ai/sagentic-af/provider"

// Materialize walks the Previous chain from root to tail and produces the
// provider-neutral message list, prepending the owner's system prompt (if
// any) exactly once. Base64 ("data:") image URLs fail loudly rather than
// being silently dropped.
func (t *Thread) Materialize() ([]provider.Message, error) {
	var chain []*Interaction
	for i := t.tail; i != nil; i = i.Previous {
		chain = append(chain, i)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}

	var msgs []provider.Message
	if prompt, ok := t.owner.SystemPrompt(); ok && prompt != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Text: prompt})
	}

	for _, inter := range chain {
		userMsgs, err := materializeUser(inter.User)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, userMsgs...)
		if inter.Complete() {
			msgs = append(msgs, materializeAssistant(*inter.Assistant))
		}
	}
	return msgs, nil
}

func materializeUser(u UserContent) ([]provider.Message, error) {
	switch u.Kind {
	case UserText:
		return []provider.Message{{Role: provider.RoleUser, Text: u.Text}}, nil

	case UserImage:
		var parts []provider.ContentPart
		if u.Text != "" {
			parts = append(parts, provider.TextPart(u.Text))
		}
		for _, img := range u.Images {
			if isDataURL(img.URL) {
				return nil, ErrNotImplemented
			}
			parts = append(parts, provider.ImagePart(img.URL, img.Detail))
		}
		return []provider.Message{{Role: provider.RoleUser, Parts: parts, IsMultipart: true}}, nil

	case UserToolResults:
		msgs := make([]provider.Message, 0, len(u.ToolResults))
		for _, tr := range u.ToolResults {
			msgs = append(msgs, provider.Message{Role: provider.RoleTool, Text: tr.Content, ToolCallID: tr.ToolCallID})
		}
		return msgs, nil

	default:
		return nil, ErrInvalidArgument
	}
}

func materializeAssistant(a AssistantContent) provider.Message {
	if a.Kind == AssistantToolCalls {
		return provider.Message{Role: provider.RoleAssistant, ToolCalls: a.ToolCalls}
	}
	return provider.Message{Role: provider.RoleAssistant, Text: a.Text}
}
