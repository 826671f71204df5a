package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/recipick/backend/internal/model"
)

// MockRecipeService is a mock implementation of the recipe store
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) SearchByName(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error) {
	args := m.Called(ctx, text, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecipeService) SearchByIngredient(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error) {
	args := m.Called(ctx, text, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecipeService) Insert(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	args := m.Called(ctx, recipe)
	if fn, ok := args.Get(0).(func(context.Context, *model.Recipe) *model.Recipe); ok {
		return fn(ctx, recipe), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRecipeService) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeService) List(ctx context.Context, limit, offset int) ([]model.Recipe, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecipeService) FilterByRange(ctx context.Context, q model.RangeQuery) ([]model.Recipe, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecipeService) CreateBatch(ctx context.Context, recipes []model.Recipe, batchSize int) error {
	args := m.Called(ctx, recipes, batchSize)
	return args.Error(0)
}

// MockConversationService is a mock implementation of the conversation log
type MockConversationService struct {
	mock.Mock
}

func (m *MockConversationService) Append(ctx context.Context, sessionID, role, content string, metadata interface{}) (*model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID, role, content, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConversationTurn), args.Error(1)
}

func (m *MockConversationService) RecentTurns(ctx context.Context, sessionID string, maxTurns int) ([]model.ConversationTurn, error) {
	args := m.Called(ctx, sessionID, maxTurns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConversationTurn), args.Error(1)
}
