package config

import "time"

type SessionConfig struct {
	DefaultAgentID string               `toml:"default_agent_id"`
	SlackScope     string               `toml:"slack_scope"`
	DiscordScope   string               `toml:"discord_scope"`
	Memory         MemoryConfig         `toml:"memory"`
	Heartbeat      HeartbeatConfig      `toml:"heartbeat"`
	MemoryFlush    MemoryFlushConfig    `toml:"memory_flush"`
	ContextPruning ContextPruningConfig `toml:"context_pruning"`
	Scoping        SessionScopeConfig   `toml:"scoping"`
}

// SessionScopeConfig controls advanced session scoping behavior.
type SessionScopeConfig struct {
	// DMScope controls how DM sessions are scoped:
	// - "main": all DMs share one session (default)
	// - "per-peer": separate session per peer
	// - "per-channel-peer": separate session per channel+peer combination
	DMScope string `toml:"dm_scope"`

	// IdentityLinks maps canonical IDs to platform-specific peer IDs.
	// Format: canonical_id -> ["provider:peer_id", "provider:peer_id", ...]
	// This allows cross-channel identity resolution for unified sessions.
	IdentityLinks map[string][]string `toml:"identity_links"`

	// Reset configures default session reset behavior.
	Reset ResetConfig `toml:"reset"`

	// ResetByType configures reset behavior per conversation type (dm, group, thread).
	ResetByType map[string]ResetConfig `toml:"reset_by_type"`

	// ResetByChannel configures reset behavior per channel (slack, discord, etc).
	ResetByChannel map[string]ResetConfig `toml:"reset_by_channel"`
}

// ResetConfig controls when sessions are automatically reset.
type ResetConfig struct {
	// Mode is the reset mode: "daily", "idle", "daily+idle", or "never" (default).
	Mode string `toml:"mode"`

	// AtHour is the hour (0-23) to reset sessions when mode includes "daily".
	AtHour int `toml:"at_hour"`

	// IdleMinutes is the number of minutes of inactivity before reset when mode includes "idle".
	IdleMinutes int `toml:"idle_minutes"`
}

type MemoryConfig struct {
	Enabled   bool   `toml:"enabled"`
	Directory string `toml:"directory"`
	MaxLines  int    `toml:"max_lines"`
	Days      int    `toml:"days"`
	Scope     string `toml:"scope"`
}

type HeartbeatConfig struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
	Mode    string `toml:"mode"`
}

type MemoryFlushConfig struct {
	Enabled   bool   `toml:"enabled"`
	Threshold int    `toml:"threshold"`
	Prompt    string `toml:"prompt"`
}

// ContextPruningConfig controls in-memory tool result pruning for sessions.
type ContextPruningConfig struct {
	Mode                 string                  `toml:"mode"`
	TTL                  *time.Duration          `toml:"ttl"`
	KeepLastAssistants   *int                    `toml:"keep_last_assistants"`
	SoftTrimRatio        *float64                `toml:"soft_trim_ratio"`
	HardClearRatio       *float64                `toml:"hard_clear_ratio"`
	MinPrunableToolChars *int                    `toml:"min_prunable_tool_chars"`
	Tools                ContextPruningToolMatch `toml:"tools"`
	SoftTrim             ContextPruningSoftTrim  `toml:"soft_trim"`
	HardClear            ContextPruningHardClear `toml:"hard_clear"`
}

// ContextPruningToolMatch selects which tool results can be trimmed.
type ContextPruningToolMatch struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// ContextPruningSoftTrim configures soft trimming of tool result content.
type ContextPruningSoftTrim struct {
	MaxChars  *int `toml:"max_chars"`
	HeadChars *int `toml:"head_chars"`
	TailChars *int `toml:"tail_chars"`
}

// ContextPruningHardClear configures hard clearing of tool result content.
type ContextPruningHardClear struct {
	Enabled     *bool  `toml:"enabled"`
	Placeholder string `toml:"placeholder"`
}
