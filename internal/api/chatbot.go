package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/service"
)

// ChatbotHandler serves the chatbot endpoints.
type ChatbotHandler struct {
	chat         service.IChatService
	log          service.IConversationService
	instructions service.IInstructionService
	images       ImageResolver
	logger       *zap.Logger
}

func NewChatbotHandler(chat service.IChatService, log service.IConversationService, instructions service.IInstructionService, images ImageResolver, logger *zap.Logger) *ChatbotHandler {
	return &ChatbotHandler{
		chat:         chat,
		log:          log,
		instructions: instructions,
		images:       images,
		logger:       logger,
	}
}

func (h *ChatbotHandler) RegisterRoutes(router *gin.RouterGroup, limit ...gin.HandlerFunc) {
	chatbot := router.Group("/chatbot")
	{
		chatbot.POST("/message", append(limit, h.SendMessage)...)
		chatbot.GET("/sessions/:session_id/turns", h.ListTurns)
		chatbot.GET("/generate-instructions/:id", h.GenerateInstructions)
	}
}

// SendMessage handles POST /chatbot/message.
func (h *ChatbotHandler) SendMessage(c *gin.Context) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.InvalidInput(err))
		return
	}
	filter, err := parseFilter(req.TimeFilters, req.ServingSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.chat.HandleMessage(ctx, service.ChatRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		Filter:    filter,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"response": gin.H{
			"response":   resp.Response,
			"recipes":    toRecipeResponses(ctx, h.images, resp.Recipes),
			"session_id": resp.SessionID,
		},
	})
}

// ListTurns returns the recent turns of a session, oldest first.
func (h *ChatbotHandler) ListTurns(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sessionID := c.Param("session_id")
	turns, err := h.log.RecentTurns(c.Request.Context(), sessionID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]TurnResponse, len(turns))
	for i, turn := range turns {
		out[i] = toTurnResponse(turn)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"session_id": sessionID,
		"turns":      out,
	})
}

// GenerateInstructions returns cooking instructions, generating them on first
// request.
func (h *ChatbotHandler) GenerateInstructions(c *gin.Context) {
	generateInstructions(c, h.instructions, h.logger)
}

func generateInstructions(c *gin.Context, svc service.IInstructionService, logger *zap.Logger) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, logger, err)
		return
	}
	instructions, err := svc.GenerateInstructions(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"instructions": instructions,
	})
}

func toTurnResponse(turn model.ConversationTurn) TurnResponse {
	resp := TurnResponse{
		ID:        turn.ID,
		Role:      turn.Role,
		Content:   turn.Content,
		CreatedAt: turn.CreatedAt,
	}
	if len(turn.Metadata) > 0 {
		var meta model.TurnMetadata
		if err := json.Unmarshal(turn.Metadata, &meta); err == nil {
			resp.RecipeIDs = meta.RecipeIDs
		}
	}
	return resp
}
