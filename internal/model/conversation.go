package model

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is a single user or assistant message within a session.
// Turns are append-only and ordered by (created_at, id).
type ConversationTurn struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID string         `gorm:"size:64;not null;index:idx_conversation_turns_session" json:"session_id"`
	Role      string         `gorm:"size:16;not null" json:"role"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// TurnMetadata is stored on assistant turns.
type TurnMetadata struct {
	RecipeIDs []uint `json:"recipe_ids"`
}
