package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/mocks"
	"github.com/recipick/backend/internal/model"
	"github.com/recipick/backend/internal/service"
	"github.com/recipick/backend/internal/testhelpers"
)

func TestInstructionService_GenerateInstructions(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	seeded := testhelpers.SeedRecipes(t, db,
		model.Recipe{Name: "김치찌개", Ingredients: "김치|두부", CookMinutes: 30, Servings: 2},
		model.Recipe{Name: "비빔밥", Ingredients: "밥|나물", CookMinutes: 15, Servings: 1, Instructions: "1. 비빈다"},
	)
	store := service.NewRecipeService(db)
	ctx := context.Background()

	t.Run("generates and persists", func(t *testing.T) {
		client := mocks.NewScriptedClient("1. 김치를 볶는다\n2. 물을 붓고 끓인다")
		svc := service.NewInstructionService(store, client, zaptest.NewLogger(t))

		got, err := svc.GenerateInstructions(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "1. 김치를 볶는다\n2. 물을 붓고 끓인다", got)

		prompt := client.Calls()[0][1].Content
		assert.Contains(t, prompt, "요리명: 김치찌개")
		assert.Contains(t, prompt, "재료: 김치, 두부")
		assert.Contains(t, prompt, "조리시간: 30분")

		stored, err := store.Get(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored.Instructions)

		// second request reads the stored text
		again, err := svc.GenerateInstructions(ctx, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, got, again)
		assert.Equal(t, 1, client.CallCount())
	})

	t.Run("existing instructions returned as-is", func(t *testing.T) {
		client := mocks.NewScriptedClient()
		svc := service.NewInstructionService(store, client, zaptest.NewLogger(t))

		got, err := svc.GenerateInstructions(ctx, seeded[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "1. 비빈다", got)
		assert.Zero(t, client.CallCount())
	})

	t.Run("not found", func(t *testing.T) {
		svc := service.NewInstructionService(store, mocks.NewScriptedClient(), zaptest.NewLogger(t))
		_, err := svc.GenerateInstructions(ctx, 9999)
		assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	})

	t.Run("generation failure", func(t *testing.T) {
		fresh := testhelpers.SeedRecipes(t, db, model.Recipe{Name: "잡채", Ingredients: "당면", CookMinutes: 40, Servings: 4})
		svc := service.NewInstructionService(store, llm.Unavailable{}, zaptest.NewLogger(t))

		_, err := svc.GenerateInstructions(ctx, fresh[0].ID)
		assert.True(t, apperror.IsCode(err, apperror.CodeGeneration))
		assert.ErrorIs(t, err, llm.ErrNotConfigured)

		stored, err := store.Get(ctx, fresh[0].ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Instructions)
	})
}
