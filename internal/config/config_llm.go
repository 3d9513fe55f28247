package config

import "time"

type LLMConfig struct {
	DefaultProvider string                       `toml:"default_provider"`
	Providers       map[string]LLMProviderConfig `toml:"providers"`

	// FallbackChain specifies provider IDs to try if the default provider fails.
	// Providers are tried in order until one succeeds.
	// Example: ["openai", "google"] - try OpenAI first, then Google.
	FallbackChain []string `toml:"fallback_chain"`

	// Bedrock configures AWS Bedrock model discovery.
	Bedrock BedrockConfig `toml:"bedrock"`

	// Routing configures intelligent provider routing.
	Routing LLMRoutingConfig `toml:"routing"`

	// AutoDiscover configures local provider discovery.
	AutoDiscover LLMAutoDiscoverConfig `toml:"auto_discover"`
}

type LLMProviderConfig struct {
	APIKey       string                              `toml:"api_key"`
	DefaultModel string                              `toml:"default_model"`
	BaseURL      string                              `toml:"base_url"`
	APIVersion   string                              `toml:"api_version"`
	Profiles     map[string]LLMProviderProfileConfig `toml:"profiles"`
}

type LLMProviderProfileConfig struct {
	APIKey       string `toml:"api_key"`
	DefaultModel string `toml:"default_model"`
	BaseURL      string `toml:"base_url"`
	APIVersion   string `toml:"api_version"`
}

// LLMRoutingConfig configures provider routing rules.
type LLMRoutingConfig struct {
	Enabled           bool          `toml:"enabled"`
	Classifier        string        `toml:"classifier"`
	PreferLocal       bool          `toml:"prefer_local"`
	UnhealthyCooldown time.Duration `toml:"unhealthy_cooldown"`
	Rules             []RoutingRule `toml:"rules"`
	Fallback          RoutingTarget `toml:"fallback"`
}

// RoutingRule defines a routing rule.
type RoutingRule struct {
	Name   string        `toml:"name"`
	Match  RoutingMatch  `toml:"match"`
	Target RoutingTarget `toml:"target"`
}

// RoutingMatch defines rule matching criteria.
type RoutingMatch struct {
	Patterns []string `toml:"patterns"`
	Tags     []string `toml:"tags"`
}

// RoutingTarget defines a routing destination.
type RoutingTarget struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

// LLMAutoDiscoverConfig configures local provider discovery.
type LLMAutoDiscoverConfig struct {
	Ollama OllamaDiscoverConfig `toml:"ollama"`
}

// OllamaDiscoverConfig configures Ollama discovery.
type OllamaDiscoverConfig struct {
	Enabled        bool     `toml:"enabled"`
	PreferLocal    bool     `toml:"prefer_local"`
	ProbeLocations []string `toml:"probe_locations"`
}

// BedrockConfig configures AWS Bedrock model discovery.
type BedrockConfig struct {
	// Enabled enables automatic discovery of Bedrock foundation models.
	Enabled bool `toml:"enabled"`

	// Region is the AWS region to query for models. Default: us-east-1.
	Region string `toml:"region"`

	// RefreshInterval is how often to refresh the model list (e.g., "1h", "30m").
	// Default: 1h. Set to "0" to disable caching.
	RefreshInterval string `toml:"refresh_interval"`

	// ProviderFilter limits discovery to specific model providers.
	// Example: ["anthropic", "amazon", "meta"]
	// Empty means all providers.
	ProviderFilter []string `toml:"provider_filter"`

	// DefaultContextWindow is used when the model doesn't report context size.
	// Default: 32000.
	DefaultContextWindow int `toml:"default_context_window"`

	// DefaultMaxTokens is used when the model doesn't report max output.
	// Default: 4096.
	DefaultMaxTokens int `toml:"default_max_tokens"`
}
