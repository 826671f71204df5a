package service

import (
	"context"

	"github.com/recipick/backend/internal/model"
)

// IRecipeService is the recipe store.
type IRecipeService interface {
	SearchByName(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error)
	SearchByIngredient(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error)
	Insert(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Get(ctx context.Context, id uint) (*model.Recipe, error)
	List(ctx context.Context, limit, offset int) ([]model.Recipe, error)
	FilterByRange(ctx context.Context, q model.RangeQuery) ([]model.Recipe, error)
	CreateBatch(ctx context.Context, recipes []model.Recipe, batchSize int) error
}

// IConversationService is the append-only conversation log.
type IConversationService interface {
	Append(ctx context.Context, sessionID, role, content string, metadata interface{}) (*model.ConversationTurn, error)
	RecentTurns(ctx context.Context, sessionID string, maxTurns int) ([]model.ConversationTurn, error)
}

// IRecommendationService collects and backfills recommendations.
type IRecommendationService interface {
	Recommend(ctx context.Context, query string, filter model.Filter) (*Recommendation, error)
	Refresh(ctx context.Context, filter model.Filter) (*Recommendation, error)
}

// IChatService handles one chatbot message end to end.
type IChatService interface {
	HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// IInstructionService lazily generates cooking instructions.
type IInstructionService interface {
	GenerateInstructions(ctx context.Context, id uint) (string, error)
}
