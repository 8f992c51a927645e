// Package agentconfig loads runtime configuration (provider credentials,
// scheduler limits, model pricing, budgets) via viper, layering environment
// variables over a config file over built-in defaults.
package agentconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration tree.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Session   SessionConfig   `mapstructure:"session"`
	Models    []ModelConfig   `mapstructure:"models"`
}

// LogConfig configures the zap-backed logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | console
}

// ProvidersConfig holds per-vendor API credentials.
type ProvidersConfig struct {
	Anthropic ProviderCredentials `mapstructure:"anthropic"`
	OpenAI    ProviderCredentials `mapstructure:"openai"`
	Bedrock   BedrockCredentials  `mapstructure:"bedrock"`
}

// ProviderCredentials is a simple API-key credential.
type ProviderCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// BedrockCredentials names the AWS region; credentials themselves come from
// the default AWS credential chain.
type BedrockCredentials struct {
	Region string `mapstructure:"region"`
}

// SchedulerConfig bounds the per-model rate-limited scheduler.
type SchedulerConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	FallbackPeriod time.Duration `mapstructure:"fallback_period"`
}

// SessionConfig bounds a session's spend and concurrency.
type SessionConfig struct {
	DefaultBudgetUSD float64 `mapstructure:"default_budget_usd"`
}

// ModelConfig describes one callable model and its pricing/limits, mirroring
// agent.ModelDescriptor for config-driven registration.
type ModelConfig struct {
	ID                     string  `mapstructure:"id"`
	ProviderID             string  `mapstructure:"provider_id"`
	ClientKind             string  `mapstructure:"client_kind"`
	PromptUSDPer1M         float64 `mapstructure:"prompt_usd_per_1m"`
	CompletionUSDPer1M     float64 `mapstructure:"completion_usd_per_1m"`
	RPM                    int     `mapstructure:"rpm"`
	TPM                    int     `mapstructure:"tpm"`
	ContextTokens          int     `mapstructure:"context_tokens"`
	MaxOutputTokens        int     `mapstructure:"max_output_tokens"`
	SupportsImages         bool    `mapstructure:"supports_images"`
	SupportsReasoning      bool    `mapstructure:"supports_reasoning"`
	DefaultReasoningEffort string  `mapstructure:"default_reasoning_effort"`
}

// Load reads configuration from (in increasing priority order) built-in
// defaults, a config file named "sagentic" (yaml/json/toml, resolved by
// viper) on the given search paths, and SAGENTIC_-prefixed environment
// variables.
func Load(searchPaths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("sagentic")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", filepath.Join(os.Getenv("HOME"), ".sagentic")}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("agentconfig: read config: %w", err)
		}
	}

	v.SetEnvPrefix("SAGENTIC")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("agentconfig: unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.max_retries", 3)
	v.SetDefault("scheduler.request_timeout", "2m")
	v.SetDefault("scheduler.fallback_period", "1m")

	v.SetDefault("session.default_budget_usd", 5.0)
}
