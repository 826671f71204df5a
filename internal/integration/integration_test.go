package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/recipick/backend/internal/api"
	"github.com/recipick/backend/internal/importer"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/middleware"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/router"
	"github.com/recipick/backend/internal/service"
	"github.com/recipick/backend/internal/storage"
	"github.com/recipick/backend/internal/testhelpers"
)

const catalogCSV = "name,ingredients,cook_time,servings,image,instructions\n" +
	"김치찌개,김치|돼지고기|두부,30분,2인분,,\n" +
	"김치전,김치|부침가루,15분,2인분,https://cdn.example.com/jeon.jpg,\n" +
	"미역국,미역|소고기,40분,4인분,,1. 미역을 불린다\n" +
	",이름없는|행,10분,1인분,,\n"

// completionServer fakes the chat-completions API. Recipe requests get
// numbered dishes, instruction requests get steps and chat requests a reply.
type completionServer struct {
	*httptest.Server
	hits    atomic.Int32
	recipes atomic.Int32
	fail    bool
}

func newCompletionServer(t *testing.T, fail bool) *completionServer {
	t.Helper()
	cs := &completionServer{fail: fail}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *completionServer) handle(w http.ResponseWriter, r *http.Request) {
	cs.hits.Add(1)
	if cs.fail {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Messages []llm.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	last := req.Messages[len(req.Messages)-1].Content
	var content string
	switch {
	case strings.Contains(req.Messages[0].Content, "네 줄로만"):
		n := cs.recipes.Add(1)
		content = fmt.Sprintf("**요리명**: 생성 요리 %d\n재료: 김치|두부|대파\n인분: 2인분\n조리시간: 20분", n)
	case strings.Contains(last, "조리 방법"):
		content = "1. 재료를 손질한다.\n2. 냄비에 넣고 끓인다."
	default:
		content = "오늘은 따뜻한 김치 요리를 추천드려요."
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

type stack struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newStack(t *testing.T, db *gorm.DB, redisClient *redis.Client, baseURL string, breaker llm.BreakerSettings) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))

	apiClient, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	client := llm.NewBreakerClient(apiClient, breaker, logger)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewChatRateLimiter(redisClient, 3, time.Hour, logger)
	}

	store := service.NewRecipeService(db)
	backfill := service.NewBackfillService(store, client, service.BackfillOptions{
		DefaultImageURL:   "/static/images/default.png",
		EagerInstructions: true,
	}, logger)
	recommender := service.NewRecommendationService(store, backfill, logger)
	conversations := service.NewConversationService(db, service.DefaultHistoryTurns)
	chat := service.NewChatService(recommender, conversations, client, service.DefaultHistoryTurns, logger)
	instructions := service.NewInstructionService(store, client, logger)
	images := storage.NewImageResolver("/static/images/default.png", "", nil, 0, logger)

	engine := router.SetupRouter(router.Handlers{
		Chatbot: api.NewChatbotHandler(chat, conversations, instructions, images, logger),
		Recipes: api.NewRecipeHandler(store, recommender, instructions, images, logger),
		Health:  api.NewHealthHandler(db, redisClient, logger),
	}, router.Options{
		CORSOrigins: []string{"*"},
		RateLimiter: limiter,
		Logger:      logger,
	})
	return &stack{engine: engine, db: db}
}

func (s *stack) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *stack) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

type messageResponse struct {
	Status   string `json:"status"`
	Response struct {
		Response  string               `json:"response"`
		SessionID string               `json:"session_id"`
		Recipes   []api.RecipeResponse `json:"recipes"`
	} `json:"response"`
}

func TestChatFlow_PostgresAndRedis(t *testing.T) {
	db := testhelpers.SetupPostgresDB(t)
	redisClient := testhelpers.SetupRedis(t)
	completions := newCompletionServer(t, false)
	s := newStack(t, db, redisClient, completions.URL, llm.DefaultBreakerSettings())
	ctx := context.Background()

	result, err := importer.Import(ctx, strings.NewReader(catalogCSV), importer.EncodingUTF8, 2, service.NewRecipeService(db), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Rows: 4, Imported: 3, Skipped: 1}, result)

	w := s.post(t, "/api/chatbot/message", gin.H{"message": "김치 요리 추천해줘"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "오늘은 따뜻한 김치 요리를 추천드려요.", resp.Response.Response)
	require.Len(t, resp.Response.Recipes, 5)
	assert.Equal(t, "김치찌개", resp.Response.Recipes[0].Name)
	assert.Equal(t, "김치전", resp.Response.Recipes[1].Name)
	assert.Equal(t, "https://cdn.example.com/jeon.jpg", resp.Response.Recipes[1].ImageURL)
	for i, r := range resp.Response.Recipes[2:] {
		assert.Equal(t, fmt.Sprintf("생성 요리 %d", i+1), r.Name)
		assert.Equal(t, "20분", r.CookTime)
	}

	var generated []model.Recipe
	require.NoError(t, db.Where("source = ?", model.SourceGenerated).Order("id").Find(&generated).Error)
	require.Len(t, generated, 3)
	for _, r := range generated {
		assert.Equal(t, "1. 재료를 손질한다.\n2. 냄비에 넣고 끓인다.", r.Instructions)
	}

	w = s.get(t, fmt.Sprintf("/api/chatbot/generate-instructions/%d", resp.Response.Recipes[0].ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored model.Recipe
	require.NoError(t, db.First(&stored, resp.Response.Recipes[0].ID).Error)
	assert.NotEmpty(t, stored.Instructions)

	w = s.get(t, "/api/chatbot/sessions/"+resp.Response.SessionID+"/turns")
	require.Equal(t, http.StatusOK, w.Code)
	var turns struct {
		Turns []api.TurnResponse `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turns))
	require.Len(t, turns.Turns, 2)
	assert.Len(t, turns.Turns[1].RecipeIDs, 5)

	w = s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	// the first message used one of three allowed requests
	for i := 0; i < 2; i++ {
		w = s.post(t, "/api/chatbot/message", gin.H{"message": "미역국", "session_id": resp.Response.SessionID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = s.post(t, "/api/chatbot/message", gin.H{"message": "미역국"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), middleware.CodeRateLimited)
}

func TestChatFlow_BreakerOpensAndFallsBack(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	completions := newCompletionServer(t, true)
	settings := llm.DefaultBreakerSettings()
	settings.Name = "llm-integration"
	settings.ConsecutiveFailures = 2
	s := newStack(t, db, nil, completions.URL, settings)

	w := s.post(t, "/api/chatbot/message", gin.H{"message": "비빔밥"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Response.Recipes, 5)
	for i, r := range resp.Response.Recipes {
		assert.Equal(t, fmt.Sprintf("비빔밥 추천 레시피 %d", i+1), r.Name)
	}
	assert.True(t, strings.HasPrefix(resp.Response.Response, "요청하신 내용으로 추천 레시피를 준비했어요"))

	// two failures open the circuit; every later call is rejected locally
	assert.Equal(t, int32(2), completions.hits.Load())

	var fallbacks int64
	require.NoError(t, db.Model(&model.Recipe{}).Where("source = ?", model.SourceFallback).Count(&fallbacks).Error)
	assert.Equal(t, int64(5), fallbacks)
}
