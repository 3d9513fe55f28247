package config

import "time"

type ChannelsConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
	Discord  DiscordConfig  `toml:"discord"`
	Slack    SlackConfig    `toml:"slack"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Signal   SignalConfig   `toml:"signal"`
	IMessage IMessageConfig `toml:"imessage"`
	Matrix   MatrixConfig   `toml:"matrix"`
	Teams    TeamsConfig    `toml:"teams"`
	Email    EmailConfig    `toml:"email"`

	Mattermost    MattermostConfig    `toml:"mattermost"`
	NextcloudTalk NextcloudTalkConfig `toml:"nextcloud_talk"`
	Zalo          ZaloConfig          `toml:"zalo"`
	BlueBubbles   BlueBubblesConfig   `toml:"bluebubbles"`

	HomeAssistant HomeAssistantConfig `toml:"homeassistant"`
}

type ChannelPolicyConfig struct {
	// Policy controls access: "open", "allowlist", "pairing", or "disabled".
	Policy string `toml:"policy"`
	// AllowFrom is a list of sender identifiers allowed for this policy.
	AllowFrom []string `toml:"allow_from"`
}

// ChannelMarkdownConfig configures markdown processing for a channel.
type ChannelMarkdownConfig struct {
	// Tables specifies how to handle markdown tables: "off", "bullets", or "code".
	// - "off": Leave tables unchanged (for channels that support markdown tables)
	// - "bullets": Convert tables to bullet lists (for channels like Signal, WhatsApp)
	// - "code": Wrap tables in code blocks (for channels like Slack, Discord)
	// Default depends on channel type.
	Tables string `toml:"tables"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	Webhook  string `toml:"webhook"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`

	Markdown ChannelMarkdownConfig `toml:"markdown"`
}

type DiscordConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	AppID    string `toml:"app_id"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`

	Markdown ChannelMarkdownConfig `toml:"markdown"`
}

type SlackConfig struct {
	Enabled       bool   `toml:"enabled"`
	BotToken      string `toml:"bot_token"`
	AppToken      string `toml:"app_token"`
	SigningSecret string `toml:"signing_secret"`
	// UploadAttachments enables Slack file uploads for outbound attachments.
	UploadAttachments bool `toml:"upload_attachments"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`

	Markdown ChannelMarkdownConfig `toml:"markdown"`
	Canvas   SlackCanvasConfig     `toml:"canvas"`
}

type SlackCanvasConfig struct {
	Enabled           bool                         `toml:"enabled"`
	Command           string                       `toml:"command"`
	ShortcutCallback  string                       `toml:"shortcut_callback"`
	AllowedWorkspaces []string                     `toml:"allowed_workspaces"`
	Role              string                       `toml:"role"`
	DefaultRole       string                       `toml:"default_role"`
	WorkspaceRoles    map[string]string            `toml:"workspace_roles"`
	UserRoles         map[string]map[string]string `toml:"user_roles"`
}

type WhatsAppConfig struct {
	Enabled      bool   `toml:"enabled"`
	SessionPath  string `toml:"session_path"`
	MediaPath    string `toml:"media_path"`
	SyncContacts bool   `toml:"sync_contacts"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`

	Presence WhatsAppPresenceConfig `toml:"presence"`
	Markdown ChannelMarkdownConfig  `toml:"markdown"`
}

type WhatsAppPresenceConfig struct {
	SendReadReceipts bool `toml:"send_read_receipts"`
	SendTyping       bool `toml:"send_typing"`
	BroadcastOnline  bool `toml:"broadcast_online"`
}

type SignalConfig struct {
	Enabled       bool   `toml:"enabled"`
	Account       string `toml:"account"`
	SignalCLIPath string `toml:"signal_cli_path"`
	ConfigDir     string `toml:"config_dir"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`

	Presence SignalPresenceConfig  `toml:"presence"`
	Markdown ChannelMarkdownConfig `toml:"markdown"`
}

type SignalPresenceConfig struct {
	SendReadReceipts bool `toml:"send_read_receipts"`
	SendTyping       bool `toml:"send_typing"`
}

type IMessageConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
	PollInterval string `toml:"poll_interval"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type MatrixConfig struct {
	Enabled      bool     `toml:"enabled"`
	Homeserver   string   `toml:"homeserver"`
	UserID       string   `toml:"user_id"`
	AccessToken  string   `toml:"access_token"`
	DeviceID     string   `toml:"device_id"`
	AllowedRooms []string `toml:"allowed_rooms"`
	AllowedUsers []string `toml:"allowed_users"`
	JoinOnInvite bool     `toml:"join_on_invite"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type TeamsConfig struct {
	Enabled      bool   `toml:"enabled"`
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	// WebhookURL is the public URL for receiving Teams notifications
	WebhookURL string `toml:"webhook_url"`
	// PollInterval for checking messages when webhooks unavailable (default: 5s)
	PollInterval string `toml:"poll_interval"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type EmailConfig struct {
	Enabled      bool   `toml:"enabled"`
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	// UserEmail is the email address to monitor (for app-only auth)
	UserEmail string `toml:"user_email"`
	// FolderID specifies which folder to monitor (default: inbox)
	FolderID string `toml:"folder_id"`
	// IncludeRead determines whether to process already-read messages
	IncludeRead bool `toml:"include_read"`
	// AutoMarkRead marks messages as read after processing
	AutoMarkRead bool `toml:"auto_mark_read"`
	// PollInterval for checking new emails (default: 30s)
	PollInterval string `toml:"poll_interval"`
}

type MattermostConfig struct {
	Enabled bool `toml:"enabled"`

	// ServerURL is the Mattermost server URL (required).
	ServerURL string `toml:"server_url"`

	// Token is the bot token for API calls (optional).
	// Either Token or (Username + Password) must be provided.
	Token string `toml:"token"`

	// Username for login-based authentication (optional).
	Username string `toml:"username"`

	// Password for login-based authentication (optional).
	Password string `toml:"password"`

	// TeamName is the default team to operate in (optional).
	TeamName string `toml:"team_name"`

	// RateLimit configures rate limiting for API calls (ops/sec).
	RateLimit float64 `toml:"rate_limit"`

	// RateBurst configures burst capacity for rate limiting.
	RateBurst int `toml:"rate_burst"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type NextcloudTalkConfig struct {
	Enabled bool `toml:"enabled"`

	// BaseURL is the Nextcloud server base URL (required).
	BaseURL string `toml:"base_url"`

	// BotSecret is the bot secret for webhook verification (required).
	BotSecret string `toml:"bot_secret"`

	// WebhookPort is the port for the webhook server (default: 8788).
	WebhookPort int `toml:"webhook_port"`

	// WebhookHost is the host for the webhook server (default: 0.0.0.0).
	WebhookHost string `toml:"webhook_host"`

	// WebhookPath is the path for the webhook endpoint (default: /nextcloud-talk-webhook).
	WebhookPath string `toml:"webhook_path"`

	// RateLimit configures rate limiting for API calls (ops/sec).
	RateLimit float64 `toml:"rate_limit"`

	// RateBurst configures burst capacity for rate limiting.
	RateBurst int `toml:"rate_burst"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type ZaloConfig struct {
	Enabled bool `toml:"enabled"`

	// Token is the Zalo bot token (required).
	Token string `toml:"token"`

	// WebhookURL is the public URL for webhook callbacks (optional).
	WebhookURL string `toml:"webhook_url"`

	// WebhookSecret is the secret for validating webhook signatures (optional).
	WebhookSecret string `toml:"webhook_secret"`

	// WebhookPath is the path for the webhook endpoint (default: /webhook/zalo).
	WebhookPath string `toml:"webhook_path"`

	// PollTimeout is the long-polling timeout in seconds (default: 30).
	PollTimeout int `toml:"poll_timeout"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type BlueBubblesConfig struct {
	Enabled bool `toml:"enabled"`

	// ServerURL is the BlueBubbles server URL (required).
	ServerURL string `toml:"server_url"`

	// Password is the API password (required).
	Password string `toml:"password"`

	// WebhookPath is the path for webhook callbacks (default: /webhook/bluebubbles).
	WebhookPath string `toml:"webhook_path"`

	// Timeout is the HTTP timeout (default: 10s).
	Timeout string `toml:"timeout"`

	DM    ChannelPolicyConfig `toml:"dm"`
	Group ChannelPolicyConfig `toml:"group"`
}

type HomeAssistantConfig struct {
	Enabled bool `toml:"enabled"`

	// BaseURL is the Home Assistant instance URL (e.g., http://homeassistant:8123).
	BaseURL string `toml:"base_url"`

	// Token is a long-lived access token.
	Token string `toml:"token"`

	// Timeout is the request timeout when calling Home Assistant APIs.
	Timeout time.Duration `toml:"timeout"`
}
