package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/recipick/backend/internal/metrics"
	"github.com/recipick/backend/internal/model"
)

// Quota is the number of recipes in every recommendation.
const Quota = 5

// minTermRunes drops single-character particles and noise from queries.
const minTermRunes = 2

// Recommendation is the outcome of one recommendation run, in working-set
// order.
type Recommendation struct {
	Recipes   []model.Recipe
	FromStore int
	Generated int
	Fallbacks int
}

// Filler tops up a working set to its quota.
type Filler interface {
	Fill(ctx context.Context, ws *WorkingSet, query string, filter model.Filter) (FillResult, error)
}

// RecommendationService collects stored recipes for a query and backfills the
// rest.
type RecommendationService struct {
	store    IRecipeService
	backfill Filler
	quota    int
	logger   *zap.Logger
}

func NewRecommendationService(store IRecipeService, backfill Filler, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		store:    store,
		backfill: backfill,
		quota:    Quota,
		logger:   logger,
	}
}

// SplitTerms splits a query on whitespace and keeps terms of at least two
// characters.
func SplitTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(query) {
		if utf8.RuneCountInString(f) >= minTermRunes {
			terms = append(terms, f)
		}
	}
	return terms
}

// Collect fills a working set from storage only: first by the whole query
// against names, then per term by name and by ingredient. It stops as soon as
// the quota is reached. An empty query collects nothing.
func (s *RecommendationService) Collect(ctx context.Context, query string, filter model.Filter) (*WorkingSet, error) {
	ws := NewWorkingSet(s.quota)

	query = strings.TrimSpace(query)
	if query == "" {
		return ws, nil
	}

	matches, err := s.store.SearchByName(ctx, query, filter)
	if err != nil {
		return nil, err
	}
	ws.AddAll(matches)

	for _, term := range SplitTerms(query) {
		if ws.Full() {
			break
		}
		byName, err := s.store.SearchByName(ctx, term, filter)
		if err != nil {
			return nil, err
		}
		ws.AddAll(byName)
		if ws.Full() {
			break
		}

		byIngredient, err := s.store.SearchByIngredient(ctx, term, filter)
		if err != nil {
			return nil, err
		}
		ws.AddAll(byIngredient)
	}

	return ws, nil
}

// Recommend returns exactly Quota recipes for the query: stored matches first,
// then generated or fallback recipes.
func (s *RecommendationService) Recommend(ctx context.Context, query string, filter model.Filter) (*Recommendation, error) {
	ws, err := s.Collect(ctx, query, filter)
	if err != nil {
		return nil, err
	}

	rec := &Recommendation{FromStore: ws.Len()}
	if !ws.Full() {
		result, err := s.backfill.Fill(ctx, ws, query, filter)
		if err != nil {
			return nil, err
		}
		rec.Generated = result.Generated
		rec.Fallbacks = result.Fallbacks
	}
	rec.Recipes = ws.Items()

	metrics.RecommendedRecipes.WithLabelValues("store").Add(float64(rec.FromStore))
	metrics.RecommendedRecipes.WithLabelValues("generated").Add(float64(rec.Generated))
	metrics.RecommendedRecipes.WithLabelValues("fallback").Add(float64(rec.Fallbacks))

	s.logger.Debug("recommendation complete",
		zap.String("query", query),
		zap.Int("from_store", rec.FromStore),
		zap.Int("generated", rec.Generated),
		zap.Int("fallbacks", rec.Fallbacks))

	return rec, nil
}

// Refresh recommends without a query, so every slot is backfilled from
// rotating categories.
func (s *RecommendationService) Refresh(ctx context.Context, filter model.Filter) (*Recommendation, error) {
	return s.Recommend(ctx, "", filter)
}
