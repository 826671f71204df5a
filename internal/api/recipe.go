package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/service"
)

const (
	msgRefreshed      = "새로운 추천 레시피입니다."
	msgIngredientsRec = "입력하신 재료로 추천한 레시피입니다."
)

type RecipeHandler struct {
	store        service.IRecipeService
	recommender  service.IRecommendationService
	instructions service.IInstructionService
	images       ImageResolver
	logger       *zap.Logger
}

func NewRecipeHandler(store service.IRecipeService, recommender service.IRecommendationService, instructions service.IInstructionService, images ImageResolver, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		store:        store,
		recommender:  recommender,
		instructions: instructions,
		images:       images,
		logger:       logger,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/recommend", h.Recommend)
		recipes.POST("/recommend/refresh", h.Refresh)
		recipes.POST("/input", h.InputIngredients)
		recipes.GET("/filter", h.FilterRecipes)
		recipes.GET("/generate-instructions/:id", h.GenerateInstructions)
		recipes.GET("/:id", h.GetRecipe)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	recipes, err := h.store.List(ctx, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"recipes": toRecipeResponses(ctx, h.images, recipes),
	})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	recipe, err := h.store.Get(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"recipe": toRecipeResponse(ctx, h.images, *recipe, true),
	})
}

// Recommend handles GET /recipes/recommend?q=&time=&serving=.
func (h *RecipeHandler) Recommend(c *gin.Context) {
	filter, err := parseFilter(c.QueryArray("time"), c.Query("serving"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.recommender.Recommend(ctx, c.Query("q"), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"recipes": toRecipeResponses(ctx, h.images, rec.Recipes),
	})
}

func (h *RecipeHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
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
	rec, err := h.recommender.Refresh(ctx, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": msgRefreshed,
		"recipes": toRecipeResponses(ctx, h.images, rec.Recipes),
	})
}

// InputIngredients recommends from the ingredients on hand, treating them and
// the free-text preferences as one query.
func (h *RecipeHandler) InputIngredients(c *gin.Context) {
	var req IngredientInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperror.InvalidInput(err))
		return
	}

	parts := make([]string, 0, len(req.Ingredients)+2)
	for _, ing := range req.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			parts = append(parts, ing)
		}
	}
	if len(parts) == 0 {
		respondError(c, h.logger, apperror.Validation(apperror.MsgInvalidInput))
		return
	}
	for _, extra := range []string{req.Preferences, req.CookingMethod} {
		if extra = strings.TrimSpace(extra); extra != "" {
			parts = append(parts, extra)
		}
	}

	ctx := c.Request.Context()
	rec, err := h.recommender.Recommend(ctx, strings.Join(parts, " "), model.Filter{})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": msgIngredientsRec,
		"recipes": toRecipeResponses(ctx, h.images, rec.Recipes),
	})
}

// FilterRecipes handles GET /recipes/filter?cook_time=min-max&servings=N.
func (h *RecipeHandler) FilterRecipes(c *gin.Context) {
	var q model.RangeQuery
	if raw := c.Query("cook_time"); raw != "" {
		r, err := model.ParseRange(raw)
		if err != nil {
			respondError(c, h.logger, apperror.InvalidInput(err))
			return
		}
		q.CookTime = &r
	}
	if raw := c.Query("servings"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, h.logger, apperror.InvalidInput(err))
			return
		}
		q.Servings = n
	}

	ctx := c.Request.Context()
	recipes, err := h.store.FilterByRange(ctx, q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"filtered_recipes": toRecipeResponses(ctx, h.images, recipes),
	})
}

func (h *RecipeHandler) GenerateInstructions(c *gin.Context) {
	generateInstructions(c, h.instructions, h.logger)
}
