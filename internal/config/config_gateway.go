package config

// GatewayConfig configures gateway-level message routing and processing.
type GatewayConfig struct {
	Broadcast BroadcastConfig `toml:"broadcast"`
	// WebhookHooks configures inbound webhook handlers.
	WebhookHooks WebhookHooksConfig `toml:"webhook_hooks"`
}

// AttentionConfig controls the attention feed integration.
type AttentionConfig struct {
	// Enabled turns on the attention feed and tools.
	Enabled bool `toml:"enabled"`
	// InjectInPrompt adds a summary of active items to the system prompt.
	InjectInPrompt bool `toml:"inject_in_prompt"`
	// MaxItems limits how many items are injected into the prompt.
	MaxItems int `toml:"max_items"`
}

// SteeringConfig controls conditional prompt injection rules.
type SteeringConfig struct {
	// Enabled toggles steering rule evaluation.
	Enabled bool `toml:"enabled"`
	// Rules define conditional prompt injections.
	Rules []SteeringRule `toml:"rules"`
}

// SteeringRule defines a conditional prompt injection.
type SteeringRule struct {
	// ID is an optional stable identifier for the rule.
	ID string `toml:"id"`
	// Name is a human-readable label for observability.
	Name string `toml:"name"`
	// Prompt is the injected text when the rule matches.
	Prompt string `toml:"prompt"`
	// Enabled toggles this rule. Defaults to true when omitted.
	Enabled *bool `toml:"enabled"`
	// Priority controls ordering when multiple rules match (higher first).
	Priority int `toml:"priority"`
	// Roles restrict matches to specific message roles.
	Roles []string `toml:"roles"`
	// Channels restrict matches to specific channel types.
	Channels []string `toml:"channels"`
	// Agents restrict matches to specific agent IDs.
	Agents []string `toml:"agents"`
	// Tags restrict matches to metadata tags (any match).
	Tags []string `toml:"tags"`
	// Contains restricts matches to messages containing any of the substrings.
	Contains []string `toml:"contains"`
	// Metadata requires specific metadata key/value pairs.
	Metadata map[string]string `toml:"metadata"`
	// TimeWindow restricts matches to a time range.
	TimeWindow SteeringTimeWindow `toml:"time_window"`
}

// SteeringTimeWindow restricts rule matching by absolute time.
type SteeringTimeWindow struct {
	// After is an RFC3339 timestamp; now must be after this to match.
	After string `toml:"after"`
	// Before is an RFC3339 timestamp; now must be before this to match.
	Before string `toml:"before"`
}

// CommandsConfig configures gateway command handling.
type CommandsConfig struct {
	// Enabled toggles text command handling. Defaults to true.
	Enabled *bool `toml:"enabled"`

	// AllowFrom restricts command-only messages by channel/provider.
	// Example: {"telegram": ["12345", "67890"], "discord": ["*"]}
	AllowFrom map[string][]string `toml:"allow_from"`

	// InlineAllowFrom restricts inline command shortcuts by channel/provider.
	// When empty, inline commands are disabled by default.
	InlineAllowFrom map[string][]string `toml:"inline_allow_from"`

	// InlineCommands lists command names that can run inline (without leading slash).
	InlineCommands []string `toml:"inline_commands"`
}

// BroadcastConfig configures broadcast groups for message routing.
type BroadcastConfig struct {
	// Strategy defines how messages are processed: "parallel" or "sequential".
	Strategy string `toml:"strategy"`

	// Groups maps peer_id to a list of agent_ids that should process messages.
	// When a message arrives from a peer in this map, it will be routed to all
	// specified agents instead of the default single agent.
	Groups map[string][]string `toml:"groups"`
}

// WebhookHooksConfig configures inbound webhook hook handling.
type WebhookHooksConfig struct {
	// Enabled turns on webhook hooks.
	Enabled bool `toml:"enabled"`

	// BasePath is the URL path prefix for webhook hooks (default: /hooks).
	BasePath string `toml:"base_path"`

	// Token is the required authentication token.
	Token string `toml:"token"`

	// MaxBodyBytes limits the request body size (default: 256KB).
	MaxBodyBytes int64 `toml:"max_body_bytes"`

	// Mappings define webhook endpoints and their handlers.
	Mappings []WebhookHookMapping `toml:"mappings"`
}

// WebhookHookMapping defines a webhook hook endpoint.
type WebhookHookMapping struct {
	// Path is the endpoint path (appended to BasePath).
	Path string `toml:"path"`

	// Name is a human-readable name for this webhook.
	Name string `toml:"name"`

	// Handler is the handler type (agent, wake, custom).
	Handler string `toml:"handler"`

	// AgentID targets a specific agent (optional).
	AgentID string `toml:"agent_id"`

	// ChannelID targets a specific channel (optional).
	ChannelID string `toml:"channel_id"`
}
