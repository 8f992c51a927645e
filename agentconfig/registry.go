package agentconfig

import (
	"github.com/sagentic-ai/sagentic-af/agent"
	"github.com/sagentic-ai/sagentic-af/clientmux"
	"github.com/sagentic-ai/sagentic-af/ledger"
	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/session"
)

// ModelRegistry builds an agent.ModelRegistry from the config-declared model
// list, the bridge between a config file and the in-process descriptors the
// runtime consults.
func (c *Config) ModelRegistry() *agent.ModelRegistry {
	descriptors := make([]agent.ModelDescriptor, 0, len(c.Models))
	for _, m := range c.Models {
		descriptors = append(descriptors, agent.ModelDescriptor{
			ID:         m.ID,
			ProviderID: m.ProviderID,
			ClientKind: m.ClientKind,
			Pricing: ledger.Pricing{
				PromptUSDPer1M:     m.PromptUSDPer1M,
				CompletionUSDPer1M: m.CompletionUSDPer1M,
			},
			Limits: agent.Limits{
				RPM:             m.RPM,
				TPM:             m.TPM,
				ContextTokens:   m.ContextTokens,
				MaxOutputTokens: m.MaxOutputTokens,
			},
			Capabilities: agent.Capabilities{
				Images:    m.SupportsImages,
				Reasoning: m.SupportsReasoning,
			},
			DefaultReasoningEffort: provider.ReasoningEffort(m.DefaultReasoningEffort),
		})
	}
	return agent.NewModelRegistry(descriptors...)
}

// APIKey resolves the credential for providerID, as named by a model's
// provider_id config field ("anthropic" | "openai" | "bedrock").
func (p ProvidersConfig) APIKey(providerID string) (string, bool) {
	switch providerID {
	case "anthropic":
		return p.Anthropic.APIKey, p.Anthropic.APIKey != ""
	case "openai":
		return p.OpenAI.APIKey, p.OpenAI.APIKey != ""
	case "bedrock":
		return p.Bedrock.Region, p.Bedrock.Region != ""
	default:
		return "", false
	}
}

// ModelResolver builds a session.ModelResolver from the config-declared
// model list, so Session.InvokeModel can lazily call clientmux.EnsureClient
// for a model that was not keyed (and thus not eagerly instantiated) when
// the Mux was constructed.
func (c *Config) ModelResolver() session.ModelResolver {
	byID := make(map[string]ModelConfig, len(c.Models))
	for _, m := range c.Models {
		byID[m.ID] = m
	}
	return func(modelID string) (clientmux.ModelConfig, string, bool) {
		m, ok := byID[modelID]
		if !ok {
			return clientmux.ModelConfig{}, "", false
		}
		apiKey, ok := c.Providers.APIKey(m.ProviderID)
		if !ok {
			return clientmux.ModelConfig{}, "", false
		}
		return clientmux.ModelConfig{
			ModelID:        m.ID,
			ClientKind:     m.ClientKind,
			ProviderKey:    m.ProviderID,
			TokenPoolMax:   m.TPM,
			RequestPoolMax: m.RPM,
		}, apiKey, true
	}
}
