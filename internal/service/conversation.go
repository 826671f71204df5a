package service

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/model"
)

// DefaultHistoryTurns is used when a caller asks for zero or fewer turns.
const DefaultHistoryTurns = 5

// ConversationService is the append-only log of chat turns.
type ConversationService struct {
	db           *gorm.DB
	defaultTurns int
}

// NewConversationService creates a log; defaultTurns <= 0 uses DefaultHistoryTurns.
func NewConversationService(db *gorm.DB, defaultTurns int) *ConversationService {
	if defaultTurns <= 0 {
		defaultTurns = DefaultHistoryTurns
	}
	return &ConversationService{db: db, defaultTurns: defaultTurns}
}

// Append stores a turn. metadata, when non-nil, is stored as JSON.
func (s *ConversationService) Append(ctx context.Context, sessionID, role, content string, metadata interface{}) (*model.ConversationTurn, error) {
	turn := &model.ConversationTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		turn.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(turn).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return turn, nil
}

// RecentTurns returns up to maxTurns of the newest turns, oldest first.
func (s *ConversationService) RecentTurns(ctx context.Context, sessionID string, maxTurns int) ([]model.ConversationTurn, error) {
	if maxTurns <= 0 {
		maxTurns = s.defaultTurns
	}

	var turns []model.ConversationTurn
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(maxTurns).
		Find(&turns).Error
	if err != nil {
		return nil, apperror.Storage(err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
