package config

import "time"

type AuthConfig struct {
	JWTSecret   string         `toml:"jwt_secret"`
	TokenExpiry time.Duration  `toml:"token_expiry"`
	APIKeys     []APIKeyConfig `toml:"api_keys"`
	OAuth       OAuthConfig    `toml:"oauth"`
}

type APIKeyConfig struct {
	Key    string `toml:"key"`
	UserID string `toml:"user_id"`
	Email  string `toml:"email"`
	Name   string `toml:"name"`
}

type OAuthConfig struct {
	Google OAuthProviderConfig `toml:"google"`
	GitHub OAuthProviderConfig `toml:"github"`
}

type OAuthProviderConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}
