package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/recipick/backend/internal/api"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/service"
	"github.com/recipick/backend/internal/storage"
	"github.com/recipick/backend/internal/testhelpers"
)

const defaultImage = "/static/images/default.png"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine  *gin.Engine
	db      *gorm.DB
	chatbot *api.ChatbotHandler
}

// newTestServer wires the full handler stack over an in-memory database.
func newTestServer(t *testing.T, client llm.Client) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := testhelpers.NewSQLiteDB(t)

	store := service.NewRecipeService(db)
	backfill := service.NewBackfillService(store, client, service.BackfillOptions{
		DefaultImageURL: defaultImage,
		Intn:            func(int) int { return 0 },
	}, logger)
	recommender := service.NewRecommendationService(store, backfill, logger)
	conversations := service.NewConversationService(db, service.DefaultHistoryTurns)
	chat := service.NewChatService(recommender, conversations, client, service.DefaultHistoryTurns, logger)
	instructions := service.NewInstructionService(store, client, logger)
	images := storage.NewImageResolver(defaultImage, "", nil, 0, logger)

	chatbot := api.NewChatbotHandler(chat, conversations, instructions, images, logger)

	engine := gin.New()
	group := engine.Group("/api")
	chatbot.RegisterRoutes(group)
	api.NewRecipeHandler(store, recommender, instructions, images, logger).RegisterRoutes(group)
	engine.GET("/healthz", api.NewHealthHandler(db, nil, logger).HealthCheck)

	return &testServer{engine: engine, db: db, chatbot: chatbot}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.engine, method, path, body)
}

func serve(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func seedKorean(t *testing.T, db *gorm.DB) []model.Recipe {
	return testhelpers.SeedRecipes(t, db,
		model.Recipe{Name: "김치찌개", Ingredients: "김치|돼지고기|두부", CookMinutes: 30, Servings: 2},
		model.Recipe{Name: "김치볶음밥", Ingredients: "김치|밥|계란", CookMinutes: 15, Servings: 1, ImageURL: "https://cdn.example.com/kimchi-rice.jpg"},
		model.Recipe{Name: "된장찌개", Ingredients: "된장|두부|애호박", CookMinutes: 25, Servings: 2},
		model.Recipe{Name: "계란말이", Ingredients: "계란|대파", CookMinutes: 10, Servings: 2},
	)
}
