package agentconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Anthropic: ProviderCredentials{APIKey: "anthropic-key"},
			Bedrock:   BedrockCredentials{Region: "us-east-1"},
		},
		Models: []ModelConfig{
			{ID: "claude", ProviderID: "anthropic", ClientKind: "anthropic", RPM: 60, TPM: 100_000},
			{ID: "titan", ProviderID: "bedrock", ClientKind: "bedrock", RPM: 10, TPM: 10_000},
			{ID: "gpt", ProviderID: "openai", ClientKind: "openai", RPM: 60, TPM: 100_000},
		},
	}
}

func TestProvidersConfig_APIKey(t *testing.T) {
	p := testConfig().Providers

	key, ok := p.APIKey("anthropic")
	require.True(t, ok)
	require.Equal(t, "anthropic-key", key)

	key, ok = p.APIKey("bedrock")
	require.True(t, ok)
	require.Equal(t, "us-east-1", key)

	_, ok = p.APIKey("openai")
	require.False(t, ok)

	_, ok = p.APIKey("unknown")
	require.False(t, ok)
}

func TestModelRegistry_BuildsDescriptorsFromModels(t *testing.T) {
	cfg := testConfig()
	reg := cfg.ModelRegistry()

	d, ok := reg.Get("claude")
	require.True(t, ok)
	require.Equal(t, "anthropic", d.ProviderID)
	require.Equal(t, 60, d.Limits.RPM)
}

func TestModelResolver_ResolvesKnownModelWithCredential(t *testing.T) {
	cfg := testConfig()
	resolve := cfg.ModelResolver()

	mc, apiKey, ok := resolve("claude")
	require.True(t, ok)
	require.Equal(t, "anthropic-key", apiKey)
	require.Equal(t, "claude", mc.ModelID)
	require.Equal(t, "anthropic", mc.ClientKind)
	require.Equal(t, 100_000, mc.TokenPoolMax)
	require.Equal(t, 60, mc.RequestPoolMax)
}

func TestModelResolver_FalseForUnknownModel(t *testing.T) {
	resolve := testConfig().ModelResolver()
	_, _, ok := resolve("nonexistent")
	require.False(t, ok)
}

func TestModelResolver_FalseWhenProviderCredentialMissing(t *testing.T) {
	resolve := testConfig().ModelResolver()
	_, _, ok := resolve("gpt") // openai has no api_key set
	require.False(t, ok)
}
