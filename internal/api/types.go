package api

import (
	"context"
	"time"

	"github.com/recipick/backend/internal/model"
)

// RecipeResponse represents the response structure for recipe-related API endpoints
type RecipeResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Ingredients  string `json:"ingredients"`
	ServingSize  string `json:"serving_size"`
	CookTime     string `json:"cook_time"`
	Servings     int    `json:"servings"`
	CookMinutes  int    `json:"cook_minutes"`
	ImageURL     string `json:"image_url"`
	Instructions string `json:"instructions,omitempty"`
}

// ChatMessageRequest is the chatbot message body.
type ChatMessageRequest struct {
	Message     string   `json:"message"`
	SessionID   string   `json:"session_id"`
	TimeFilters []string `json:"time_filters"`
	ServingSize string   `json:"serving_size"`
}

// RefreshRequest asks for a fresh set of recommendations.
type RefreshRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	TimeFilters []string `json:"time_filters"`
	ServingSize string   `json:"serving_size"`
}

// IngredientInputRequest recommends from a list of ingredients on hand.
type IngredientInputRequest struct {
	Ingredients   []string `json:"ingredients" binding:"required,min=1"`
	Preferences   string   `json:"preferences"`
	CookingMethod string   `json:"cooking_method"`
}

// TurnResponse is one conversation turn.
type TurnResponse struct {
	ID        uint      `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	RecipeIDs []uint    `json:"recipe_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageResolver maps stored image references to client URLs.
type ImageResolver interface {
	Resolve(ctx context.Context, raw string) string
}

func toRecipeResponse(ctx context.Context, images ImageResolver, r model.Recipe, withInstructions bool) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Ingredients: r.Ingredients,
		ServingSize: r.ServingSizeText(),
		CookTime:    r.CookTimeText(),
		Servings:    r.Servings,
		CookMinutes: r.CookMinutes,
		ImageURL:    images.Resolve(ctx, r.ImageURL),
	}
	if withInstructions {
		resp.Instructions = r.Instructions
	}
	return resp
}

func toRecipeResponses(ctx context.Context, images ImageResolver, recipes []model.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = toRecipeResponse(ctx, images, r, false)
	}
	return out
}
