package api_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/recipick/backend/internal/api"
	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/mocks"
	"github.com/recipick/backend/internal/storage"
)

func recipeNames(t *testing.T, raw interface{}) []string {
	t.Helper()
	list, ok := raw.([]interface{})
	require.True(t, ok, "expected a list, got %T", raw)
	names := make([]string, len(list))
	for i, item := range list {
		names[i] = item.(map[string]interface{})["name"].(string)
	}
	return names
}

func TestListRecipes(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	seedKorean(t, srv.db)

	w := srv.do(t, http.MethodGet, "/api/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"김치찌개", "김치볶음밥", "된장찌개", "계란말이"}, recipeNames(t, decode(t, w)["recipes"]))

	w = srv.do(t, http.MethodGet, "/api/recipes?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"김치볶음밥", "된장찌개"}, recipeNames(t, decode(t, w)["recipes"]))

	w = srv.do(t, http.MethodGet, "/api/recipes?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecipe(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	recipes := seedKorean(t, srv.db)

	w := srv.do(t, http.MethodGet, "/api/recipes/"+idString(recipes[2].ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recipe := decode(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, "된장찌개", recipe["name"])
	assert.Equal(t, "된장|두부|애호박", recipe["ingredients"])
	assert.Equal(t, "25분", recipe["cook_time"])

	w = srv.do(t, http.MethodGet, "/api/recipes/424242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	got := decodeError(t, w)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, "해당 레시피를 찾을 수 없습니다.", got.Message)

	for _, bad := range []string{"abc", "0", "-3"} {
		w = srv.do(t, http.MethodGet, "/api/recipes/"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	seedKorean(t, srv.db)

	query := url.Values{"q": {"두부"}}
	w := srv.do(t, http.MethodGet, "/api/recipes/recommend?"+query.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	names := recipeNames(t, decode(t, w)["recipes"])
	require.Len(t, names, 5)
	assert.Equal(t, []string{"김치찌개", "된장찌개"}, names[:2])

	query = url.Values{"q": {"찌개"}, "time": {"30분 이상"}}
	w = srv.do(t, http.MethodGet, "/api/recipes/recommend?"+query.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "김치찌개", recipeNames(t, decode(t, w)["recipes"])[0])

	query = url.Values{"q": {"찌개"}, "serving": {"10인분"}}
	w = srv.do(t, http.MethodGet, "/api/recipes/recommend?"+query.Encode(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	seedKorean(t, srv.db)

	w := srv.do(t, http.MethodPost, "/api/recipes/recommend/refresh", gin.H{"user_id": "u-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "새로운 추천 레시피입니다.", body["message"])
	assert.Equal(t,
		[]string{"한식 추천 레시피 1", "중식 추천 레시피 2", "양식 추천 레시피 3", "일식 추천 레시피 4", "분식 추천 레시피 5"},
		recipeNames(t, body["recipes"]))

	w = srv.do(t, http.MethodPost, "/api/recipes/recommend/refresh", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "잘못된 입력값입니다.", decodeError(t, w).Message)

	w = srv.do(t, http.MethodPost, "/api/recipes/recommend/refresh", gin.H{"user_id": "u-1", "time_filters": []string{"하루"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInputIngredients(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	seedKorean(t, srv.db)

	w := srv.do(t, http.MethodPost, "/api/recipes/input", gin.H{
		"ingredients": []string{"계란", " "},
		"preferences": "간단한",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "입력하신 재료로 추천한 레시피입니다.", body["message"])
	names := recipeNames(t, body["recipes"])
	require.Len(t, names, 5)
	assert.Equal(t, []string{"계란말이", "김치볶음밥"}, names[:2])

	tests := []struct {
		name string
		body interface{}
	}{
		{"no ingredients", gin.H{"ingredients": []string{}}},
		{"missing ingredients", gin.H{"preferences": "매운"}},
		{"blank ingredients", gin.H{"ingredients": []string{" ", ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/recipes/input", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, w).Code)
		})
	}
}

func TestFilterRecipes(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})
	seedKorean(t, srv.db)

	w := srv.do(t, http.MethodGet, "/api/recipes/filter?cook_time=10-25&servings=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"된장찌개", "계란말이"}, recipeNames(t, decode(t, w)["filtered_recipes"]))

	w = srv.do(t, http.MethodGet, "/api/recipes/filter?cook_time=0-15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"김치볶음밥", "계란말이"}, recipeNames(t, decode(t, w)["filtered_recipes"]))

	for _, raw := range []string{"cook_time=abc", "cook_time=30-10", "servings=two", "servings=0"} {
		w = srv.do(t, http.MethodGet, "/api/recipes/filter?"+raw, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestRecipeHandler_RedactsInternalErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store := new(mocks.MockRecipeService)
	store.On("Get", mock.Anything, uint(7)).
		Return(nil, apperror.Storage(errors.New("pq: password authentication failed for user \"svc\"")))
	store.On("List", mock.Anything, 20, 0).
		Return(nil, errors.New("dial tcp 10.1.2.3:5432: connection refused"))

	images := storage.NewImageResolver(defaultImage, "", nil, 0, logger)
	engine := gin.New()
	api.NewRecipeHandler(store, nil, nil, images, logger).RegisterRoutes(engine.Group("/api"))

	w := serve(t, engine, http.MethodGet, "/api/recipes/7", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	got := decodeError(t, w)
	assert.Equal(t, "STORAGE_ERROR", got.Code)
	assert.Equal(t, "데이터 처리 중 오류가 발생했습니다.", got.Message)
	assert.NotContains(t, w.Body.String(), "password")

	w = serve(t, engine, http.MethodGet, "/api/recipes", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	got = decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", got.Code)
	assert.Equal(t, "서버 내부 오류가 발생했습니다.", got.Message)
	assert.NotContains(t, w.Body.String(), "10.1.2.3")

	store.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, llm.Unavailable{})

	w := srv.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])

	sqlDB, err := srv.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = srv.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode(t, w)["status"])
}
