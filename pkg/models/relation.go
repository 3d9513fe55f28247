package models

import "time"

// RelationKeyType is the fixed key_type value used for relation rows in the
// typed KV space, distinguishing them from other KV uses of the same table.
const RelationKeyType = "relation"

// Relation captures a character's standing knowledge of or progress with
// some subject. Stored as a typed KV row: key = "relation:"+RelationID,
// key_type = RelationKeyType, metadata = serialized RelationMetadata.
// Unique per (session_id, key, character_id-or-NULL).
type Relation struct {
	ID          string   `json:"id"`
	SessionID   string   `json:"session_id"`
	RelationID  string   `json:"relation_id"` // business id
	CharacterID string   `json:"character_id,omitempty"`
	Metadata    RelationMetadata `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RelationMetadata is the typed payload stored in a relation's KV metadata.
type RelationMetadata struct {
	Name      string    `json:"name"`
	Knowledge string    `json:"knowledge,omitempty"`
	Progress  string    `json:"progress,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KVKey returns the typed-KV key for this relation.
func (r Relation) KVKey() string {
	return "relation:" + r.RelationID
}
