package config

import (
	"time"

	"github.com/lucidframe/conversa/internal/audit"
	"github.com/lucidframe/conversa/internal/ratelimit"
)

type ServerConfig struct {
	Host        string `toml:"host"`
	GRPCPort    int    `toml:"grpc_port"`
	HTTPPort    int    `toml:"http_port"`
	MetricsPort int    `toml:"metrics_port"`
}

type DatabaseConfig struct {
	URL             string        `toml:"url"`
	MaxConnections  int           `toml:"max_connections"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

// ClusterConfig controls multi-gateway behavior.
type ClusterConfig struct {
	// Enabled turns on cluster-aware behavior.
	Enabled bool `toml:"enabled"`

	// NodeID uniquely identifies this gateway instance.
	NodeID string `toml:"node_id"`

	// AllowMultipleGateways bypasses the singleton gateway lock.
	AllowMultipleGateways bool `toml:"allow_multiple_gateways"`

	// SessionLocks controls distributed session locking.
	SessionLocks SessionLockConfig `toml:"session_locks"`
}

// SessionLockConfig configures distributed session locks.
type SessionLockConfig struct {
	// Enabled uses DB-backed session locks.
	Enabled bool `toml:"enabled"`

	// TTL is the lock lease duration.
	TTL time.Duration `toml:"ttl"`

	// RefreshInterval is how often leases are renewed.
	RefreshInterval time.Duration `toml:"refresh_interval"`

	// AcquireTimeout is how long to wait for a lock.
	AcquireTimeout time.Duration `toml:"acquire_timeout"`

	// PollInterval controls backoff when lock is held by another owner.
	PollInterval time.Duration `toml:"poll_interval"`
}

// CanvasHostConfig configures the dedicated canvas host.
type CanvasHostConfig struct {
	Enabled      *bool  `toml:"enabled"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Root         string `toml:"root"`
	Namespace    string `toml:"namespace"`
	LiveReload   *bool  `toml:"live_reload"`
	InjectClient *bool  `toml:"inject_client"`
	AutoIndex    *bool  `toml:"auto_index"`
	A2UIRoot     string `toml:"a2ui_root"`
}

// CanvasConfig configures canvas persistence and retention.
type CanvasConfig struct {
	Retention CanvasRetentionConfig `toml:"retention"`
	Tokens    CanvasTokenConfig     `toml:"tokens"`
	Actions   CanvasActionConfig    `toml:"actions"`
	Audit     audit.Config          `toml:"audit"`
}

// CanvasRetentionConfig controls how long canvas state and events are retained.
type CanvasRetentionConfig struct {
	StateMaxAge   time.Duration `toml:"state_max_age"`
	EventMaxAge   time.Duration `toml:"event_max_age"`
	StateMaxBytes int64         `toml:"state_max_bytes"`
	EventMaxBytes int64         `toml:"event_max_bytes"`
}

// CanvasTokenConfig controls signed canvas access tokens.
type CanvasTokenConfig struct {
	Secret string        `toml:"secret"`
	TTL    time.Duration `toml:"ttl"`
}

// CanvasActionConfig configures canvas UI action handling.
type CanvasActionConfig struct {
	RateLimit   ratelimit.Config `toml:"rate_limit"`
	DefaultRole string           `toml:"default_role"`
}
