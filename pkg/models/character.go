package models

import "time"

// Character is a persistent roleplay persona metadata record. Character
// CRUD itself is out of scope (spec.md §1); this type exists because
// Message.VisibleForCharacters, Period.CharacterID and Relation.CharacterID
// all reference a Character by ID.
type Character struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	ModelID      string    `json:"model_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Model is an LLM provider configuration record. APIKeySecret holds the
// envelope-encrypted provider secret (see internal/secrets); plaintext
// keys never reach persistence.
type Model struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"` // openai, anthropic, ...
	BaseURL       string    `json:"base_url,omitempty"`
	DefaultModel  string    `json:"default_model"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	Temperature   float64   `json:"temperature,omitempty"`
	APIKeySecret  []byte    `json:"-"` // enveloped ciphertext, never serialized
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
