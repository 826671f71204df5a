package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/metrics"
	"github.com/recipick/backend/internal/model"
)

const instructionSystemPrompt = `당신은 요리 전문가입니다. 주어진 레시피의 조리 방법을 번호를 붙인 단계로 간결하게 한국어로 설명하세요.`

// InstructionService generates cooking instructions on first request and
// stores them on the recipe.
type InstructionService struct {
	store  IRecipeService
	client llm.Client
	logger *zap.Logger
}

func NewInstructionService(store IRecipeService, client llm.Client, logger *zap.Logger) *InstructionService {
	return &InstructionService{store: store, client: client, logger: logger}
}

// GenerateInstructions returns the stored instructions for a recipe,
// generating and persisting them when missing.
func (s *InstructionService) GenerateInstructions(ctx context.Context, id uint) (string, error) {
	recipe, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if recipe.HasInstructions() {
		return recipe.Instructions, nil
	}

	instructions, err := generateInstructions(ctx, s.client, recipe)
	if err != nil {
		s.logger.Warn("instruction generation failed",
			zap.Uint("recipe_id", id),
			zap.Error(err))
		return "", apperror.Generation(err)
	}

	if err := s.store.Update(ctx, id, map[string]interface{}{"instructions": instructions}); err != nil {
		return "", err
	}
	return instructions, nil
}

func generateInstructions(ctx context.Context, client llm.Client, recipe *model.Recipe) (string, error) {
	text, err := client.Complete(ctx, instructionMessages(recipe))
	if err != nil {
		metrics.GenerationCalls.WithLabelValues("instructions", "error").Inc()
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.GenerationCalls.WithLabelValues("instructions", "invalid").Inc()
		return "", llm.ErrEmptyResponse
	}
	metrics.GenerationCalls.WithLabelValues("instructions", "success").Inc()
	return text, nil
}

func instructionMessages(recipe *model.Recipe) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "요리명: %s\n", recipe.Name)
	fmt.Fprintf(&b, "재료: %s\n", strings.Join(recipe.IngredientList(), ", "))
	if s := recipe.ServingSizeText(); s != "" {
		fmt.Fprintf(&b, "인분: %s\n", s)
	}
	if t := recipe.CookTimeText(); t != "" {
		fmt.Fprintf(&b, "조리시간: %s\n", t)
	}
	b.WriteString("위 레시피의 조리 방법을 알려주세요.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: instructionSystemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}
