package config

import "time"

type ToolsConfig struct {
	Sandbox      SandboxConfig       `toml:"sandbox"`
	Browser      BrowserConfig       `toml:"browser"`
	ComputerUse  ComputerUseConfig   `toml:"computer_use"`
	WebSearch    WebSearchConfig     `toml:"websearch"`
	WebFetch     WebFetchConfig      `toml:"web_fetch"`
	MemorySearch MemorySearchConfig  `toml:"memory_search"`
	FactExtract  FactExtractConfig   `toml:"fact_extraction"`
	Links        LinksConfig         `toml:"links"`
	Policies     ToolPoliciesConfig  `toml:"policies"`
	Notes        string              `toml:"notes"`
	NotesFile    string              `toml:"notes_file"`
	Execution    ToolExecutionConfig `toml:"execution"`
	Elevated     ElevatedConfig      `toml:"elevated"`
	Jobs         ToolJobsConfig      `toml:"jobs"`
	ServiceNow   ServiceNowConfig    `toml:"servicenow"`
}

// ToolPoliciesConfig defines default allow/deny policies for tools.
type ToolPoliciesConfig struct {
	// Default policy behavior: "allow" or "deny".
	Default string `toml:"default"`
	// Rules define per-tool allow/deny behavior.
	Rules []ToolPolicyRule `toml:"rules"`
}

// ToolPolicyRule defines a policy action for a tool, optionally scoped by channel.
type ToolPolicyRule struct {
	Tool     string   `toml:"tool"`
	Action   string   `toml:"action"`   // "allow" | "deny"
	Channels []string `toml:"channels"` // optional channel filters
}

// ToolExecutionConfig controls runtime tool execution behavior.
type ToolExecutionConfig struct {
	MaxIterations   int                   `toml:"max_iterations"`
	Parallelism     int                   `toml:"parallelism"`
	Timeout         time.Duration         `toml:"timeout"`
	MaxAttempts     int                   `toml:"max_attempts"`
	RetryBackoff    time.Duration         `toml:"retry_backoff"`
	DisableEvents   bool                  `toml:"disable_events"`
	MaxToolCalls    int                   `toml:"max_tool_calls"`
	RequireApproval []string              `toml:"require_approval"`
	Async           []string              `toml:"async"`
	Approval        ApprovalConfig        `toml:"approval"`
	ResultGuard     ToolResultGuardConfig `toml:"result_guard"`
}

// ApprovalConfig controls tool approval behavior.
type ApprovalConfig struct {
	// Profile is a pre-configured tool access level.
	// Valid profiles: "coding", "messaging", "readonly", "full", "minimal".
	// When set, the profile's default tools are included in the allowlist.
	Profile string `toml:"profile"`

	// Allowlist contains tools that are always allowed (no approval needed).
	// Supports patterns like "mcp:*", "read_*", "*" (all).
	// Also supports group references like "group:fs", "group:runtime".
	Allowlist []string `toml:"allowlist"`

	// Denylist contains tools that are always denied.
	// Supports patterns and group references like Allowlist.
	Denylist []string `toml:"denylist"`

	// SafeBins are stdin-only tools that are safe to auto-allow.
	SafeBins []string `toml:"safe_bins"`

	// SkillAllowlist auto-allows tools defined by enabled skills.
	SkillAllowlist *bool `toml:"skill_allowlist"`

	// AskFallback queues approval when UI is unavailable instead of denying.
	AskFallback *bool `toml:"ask_fallback"`

	// DefaultDecision when no rule matches: "allowed", "denied", or "pending".
	DefaultDecision string `toml:"default_decision"`

	// RequestTTL is how long approval requests remain valid.
	RequestTTL time.Duration `toml:"request_ttl"`
}

// ToolResultGuardConfig controls redaction of tool results before persistence.
type ToolResultGuardConfig struct {
	Enabled         bool     `toml:"enabled"`
	MaxChars        int      `toml:"max_chars"`
	Denylist        []string `toml:"denylist"`
	RedactPatterns  []string `toml:"redact_patterns"`
	RedactionText   string   `toml:"redaction_text"`
	TruncateSuffix  string   `toml:"truncate_suffix"`
	SanitizeSecrets bool     `toml:"sanitize_secrets"` // Applies builtin secret detection patterns
}

// ElevatedConfig controls elevated tool execution behavior and allowlists.
type ElevatedConfig struct {
	// Enabled gates elevated execution. When nil, elevated is disabled by default.
	Enabled *bool `toml:"enabled"`

	// AllowFrom maps channel/provider to allowed sender identifiers.
	// Example: {"telegram": ["12345", "67890"], "discord": ["*"]}
	AllowFrom map[string][]string `toml:"allow_from"`

	// Tools lists tool patterns that elevated-full can bypass approvals for.
	// If empty, defaults to ["execute_code"] in gateway logic.
	Tools []string `toml:"tools"`
}

type SandboxConfig struct {
	Enabled        bool                  `toml:"enabled"`
	Backend        string                `toml:"backend"`
	PoolSize       int                   `toml:"pool_size"`
	MaxPoolSize    int                   `toml:"max_pool_size"`
	MinIdle        int                   `toml:"min_idle"`
	MaxIdleTime    time.Duration         `toml:"max_idle_time"`
	Timeout        time.Duration         `toml:"timeout"`
	NetworkEnabled bool                  `toml:"network_enabled"`
	Limits         ResourceLimits        `toml:"limits"`
	Snapshots      SandboxSnapshotConfig `toml:"snapshots"`
	Daytona        SandboxDaytonaConfig  `toml:"daytona"`

	// Mode controls which agents use sandboxing:
	// - "off": sandboxing disabled (default when enabled=false)
	// - "all": all agents use sandboxing
	// - "non-main": only non-main agents use sandboxing (main agent unsandboxed)
	Mode string `toml:"mode"`

	// Scope controls sandbox isolation level:
	// - "agent": one sandbox container per agent (default)
	// - "session": one sandbox per session
	// - "shared": all agents share one sandbox
	Scope string `toml:"scope"`

	// WorkspaceRoot is the root directory for sandboxed workspaces.
	WorkspaceRoot string `toml:"workspace_root"`

	// WorkspaceAccess controls workspace access mode: "readonly", "readwrite", "ro", "rw", or "none".
	WorkspaceAccess string `toml:"workspace_access"`
}

// SandboxDaytonaConfig configures the Daytona sandbox backend.
type SandboxDaytonaConfig struct {
	APIKey         string         `toml:"api_key"`
	JWTToken       string         `toml:"jwt_token"`
	OrganizationID string         `toml:"organization_id"`
	APIURL         string         `toml:"api_url"`
	Target         string         `toml:"target"`
	Snapshot       string         `toml:"snapshot"`
	Image          string         `toml:"image"`
	SandboxClass   string         `toml:"class"`
	WorkspaceDir   string         `toml:"workspace_dir"`
	NetworkAllow   string         `toml:"network_allow_list"`
	ReuseSandbox   bool           `toml:"reuse_sandbox"`
	AutoStop       *time.Duration `toml:"auto_stop_interval"`
	AutoArchive    *time.Duration `toml:"auto_archive_interval"`
	AutoDelete     *time.Duration `toml:"auto_delete_interval"`
}

// SandboxSnapshotConfig controls Firecracker snapshot behavior.
type SandboxSnapshotConfig struct {
	Enabled         bool          `toml:"enabled"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	MaxAge          time.Duration `toml:"max_age"`
}

type ResourceLimits struct {
	MaxCPU    int    `toml:"max_cpu"`
	MaxMemory string `toml:"max_memory"`
}

// ComputerUseConfig controls the Claude computer use tool routing.
type ComputerUseConfig struct {
	// Enabled registers the computer use tool in the runtime.
	Enabled bool `toml:"enabled"`
	// EdgeID selects the default edge to target for computer use.
	EdgeID string `toml:"edge_id"`
	// DisplayWidthPx overrides the display width in pixels when metadata is unavailable.
	DisplayWidthPx int `toml:"display_width_px"`
	// DisplayHeightPx overrides the display height in pixels when metadata is unavailable.
	DisplayHeightPx int `toml:"display_height_px"`
	// DisplayNumber overrides the display number (0-based) when metadata is unavailable.
	DisplayNumber int `toml:"display_number"`
}

// FactExtractConfig controls the structured fact extraction tool.
type FactExtractConfig struct {
	Enabled  bool `toml:"enabled"`
	MaxFacts int  `toml:"max_facts"`
}

type BrowserConfig struct {
	Enabled  bool   `toml:"enabled"`
	Headless bool   `toml:"headless"`
	URL      string `toml:"url"`
}

type WebSearchConfig struct {
	Enabled     bool   `toml:"enabled"`
	Provider    string `toml:"provider"`
	URL         string `toml:"url"`
	BraveAPIKey string `toml:"brave_api_key"`
}

type WebFetchConfig struct {
	Enabled  bool `toml:"enabled"`
	MaxChars int  `toml:"max_chars"`
}

// ToolJobsConfig controls async tool job persistence.
type ToolJobsConfig struct {
	// Retention is how long to keep completed jobs. Default: 24h.
	Retention time.Duration `toml:"retention"`
	// PruneInterval is how often to prune old jobs. Default: 1h.
	PruneInterval time.Duration `toml:"prune_interval"`
}

// LinksConfig configures link understanding for extracting and processing URLs.
type LinksConfig struct {
	// Enabled enables link understanding.
	Enabled bool `toml:"enabled"`

	// MaxLinks is the maximum number of links to extract from a message.
	// Default: 5.
	MaxLinks int `toml:"max_links"`

	// MaxOutputChars caps the number of characters injected into the prompt.
	// Default: 2000.
	MaxOutputChars int `toml:"max_output_chars"`

	// TimeoutSeconds is the default timeout for link processing.
	// Default: 30.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// Models are the link processing model configurations.
	Models []LinkModelConfig `toml:"models"`

	// Scope controls which channels can use link understanding.
	Scope *LinkScopeConfig `toml:"scope"`
}

// LinkModelConfig defines a link processing model.
type LinkModelConfig struct {
	// Type is the model type: "cli".
	Type string `toml:"type"`

	// Command is the CLI command to execute.
	Command string `toml:"command"`

	// Args are the command arguments. Supports template variables:
	// {{LinkUrl}}, {{URL}}, {{url}} - the URL to process
	// {{Channel}}, {{SessionID}}, {{PeerID}}, {{AgentID}} - context info
	Args []string `toml:"args"`

	// TimeoutSeconds overrides the default timeout for this model.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// LinkScopeConfig controls which channels can use link understanding.
type LinkScopeConfig struct {
	// Mode is the scope mode: "all", "allowlist", "denylist".
	// Default: "all".
	Mode string `toml:"mode"`

	// Allowlist is the list of channels to allow when mode is "allowlist".
	// Supports channel names ("telegram"), channel:peer_id ("telegram:123"), or "*".
	Allowlist []string `toml:"allowlist"`

	// Denylist is the list of channels to deny when mode is "denylist".
	Denylist []string `toml:"denylist"`
}

type MemorySearchConfig struct {
	Enabled       bool                         `toml:"enabled"`
	Directory     string                       `toml:"directory"`
	MemoryFile    string                       `toml:"memory_file"`
	MaxResults    int                          `toml:"max_results"`
	MaxSnippetLen int                          `toml:"max_snippet_len"`
	Mode          string                       `toml:"mode"`
	Embeddings    MemorySearchEmbeddingsConfig `toml:"embeddings"`
}

type MemorySearchEmbeddingsConfig struct {
	Provider string        `toml:"provider"`
	APIKey   string        `toml:"api_key"`
	BaseURL  string        `toml:"base_url"`
	Model    string        `toml:"model"`
	CacheDir string        `toml:"cache_dir"`
	CacheTTL time.Duration `toml:"cache_ttl"`
	Timeout  time.Duration `toml:"timeout"`
}

type ServiceNowConfig struct {
	Enabled     bool   `toml:"enabled"`
	InstanceURL string `toml:"instance_url"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
}
