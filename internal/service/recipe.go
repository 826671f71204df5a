package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/model"
)

const defaultListLimit = 20

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user text safe inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *RecipeService) search(ctx context.Context, column, text string, filter model.Filter) ([]model.Recipe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	var recipes []model.Recipe
	err := s.db.WithContext(ctx).
		Scopes(filter.Scope).
		Where("LOWER("+column+`) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return recipes, nil
}

// SearchByName returns recipes whose name contains text, case-insensitively.
func (s *RecipeService) SearchByName(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error) {
	return s.search(ctx, "name", text, filter)
}

// SearchByIngredient returns recipes whose ingredient list contains text.
func (s *RecipeService) SearchByIngredient(ctx context.Context, text string, filter model.Filter) ([]model.Recipe, error) {
	return s.search(ctx, "ingredients", text, filter)
}

// Insert creates a recipe; the id is assigned by storage.
func (s *RecipeService) Insert(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	recipe.ID = 0
	if recipe.Source == "" {
		recipe.Source = model.SourceManual
	}
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return recipe, nil
}

// Update sets the given columns on a recipe.
func (s *RecipeService) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return apperror.Storage(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(apperror.MsgRecipeNotFound)
	}
	return nil
}

// Get retrieves a recipe by ID
func (s *RecipeService) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.MsgRecipeNotFound)
		}
		return nil, apperror.Storage(err)
	}
	return &recipe, nil
}

// List pages through recipes in id order.
func (s *RecipeService) List(ctx context.Context, limit, offset int) ([]model.Recipe, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&recipes).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return recipes, nil
}

// FilterByRange returns recipes within a numeric cook-time range and/or with
// an exact serving count.
func (s *RecipeService) FilterByRange(ctx context.Context, q model.RangeQuery) ([]model.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{})
	if q.CookTime != nil {
		query = query.Where("cook_minutes >= ?", q.CookTime.Min)
		if q.CookTime.Max > 0 {
			query = query.Where("cook_minutes <= ?", q.CookTime.Max)
		}
	}
	if q.Servings > 0 {
		query = query.Where("servings = ?", q.Servings)
	}

	var recipes []model.Recipe
	if err := query.Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	return recipes, nil
}

// CreateBatch inserts recipes in batches inside one transaction.
func (s *RecipeService) CreateBatch(ctx context.Context, recipes []model.Recipe, batchSize int) error {
	if len(recipes) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(recipes, batchSize).Error
	})
	if err != nil {
		return apperror.Storage(err)
	}
	return nil
}
