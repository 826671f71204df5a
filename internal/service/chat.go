package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/metrics"
	"github.com/recipick/backend/internal/model"
)

const chatSystemPrompt = `당신은 친절한 한국어 레시피 추천 챗봇입니다.
사용자의 요청과 이전 대화를 참고해 아래에 주어진 추천 레시피를 짧고 자연스럽게 소개하세요.
목록에 없는 요리는 새로 지어내지 마세요.`

// ChatRequest is one user message with its optional filters.
type ChatRequest struct {
	Message   string
	SessionID string
	Filter    model.Filter
}

// ChatResponse is returned to the client.
type ChatResponse struct {
	SessionID string
	Response  string
	Recipes   []model.Recipe
}

// ChatService ties recommendation, reply generation and the conversation log
// together for a chatbot message.
type ChatService struct {
	recommender  IRecommendationService
	log          IConversationService
	client       llm.Client
	historyTurns int
	logger       *zap.Logger
}

func NewChatService(recommender IRecommendationService, log IConversationService, client llm.Client, historyTurns int, logger *zap.Logger) *ChatService {
	return &ChatService{
		recommender:  recommender,
		log:          log,
		client:       client,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

// HandleMessage recommends recipes for the message, writes an assistant reply
// and records both turns.
func (s *ChatService) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperror.Validation(apperror.MsgEmptyMessage)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := s.log.RecentTurns(ctx, sessionID, s.historyTurns)
	if err != nil {
		return nil, err
	}

	rec, err := s.recommender.Recommend(ctx, message, req.Filter)
	if err != nil {
		return nil, err
	}

	reply := s.reply(ctx, history, message, rec.Recipes)

	if _, err := s.log.Append(ctx, sessionID, model.RoleUser, message, nil); err != nil {
		return nil, err
	}
	ids := make([]uint, len(rec.Recipes))
	for i, r := range rec.Recipes {
		ids[i] = r.ID
	}
	if _, err := s.log.Append(ctx, sessionID, model.RoleAssistant, reply, model.TurnMetadata{RecipeIDs: ids}); err != nil {
		return nil, err
	}

	return &ChatResponse{
		SessionID: sessionID,
		Response:  reply,
		Recipes:   rec.Recipes,
	}, nil
}

func (s *ChatService) reply(ctx context.Context, history []model.ConversationTurn, message string, recipes []model.Recipe) string {
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: chatSystemPrompt})
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == model.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: message + "\n\n추천 레시피: " + strings.Join(names, ", "),
	})

	text, err := s.client.Complete(ctx, messages)
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		metrics.GenerationCalls.WithLabelValues("reply", "error").Inc()
		if err != nil {
			s.logger.Warn("chat reply generation failed, using default reply", zap.Error(err))
		}
		return DefaultReply(names)
	}
	metrics.GenerationCalls.WithLabelValues("reply", "success").Inc()
	return text
}

// DefaultReply is the assistant reply used when generation is unavailable.
func DefaultReply(names []string) string {
	if len(names) == 0 {
		return "조건에 맞는 레시피를 찾지 못했어요. 다른 재료나 요리 이름으로 다시 물어봐주세요."
	}
	return "요청하신 내용으로 추천 레시피를 준비했어요: " + strings.Join(names, ", ")
}
