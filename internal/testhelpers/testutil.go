package testhelpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/recipick/backend/internal/model"
)

// SeedRecipes inserts recipes in order and returns them with assigned ids.
func SeedRecipes(t *testing.T, db *gorm.DB, recipes ...model.Recipe) []model.Recipe {
	t.Helper()
	for i := range recipes {
		if recipes[i].Source == "" {
			recipes[i].Source = model.SourceImport
		}
		if err := db.Create(&recipes[i]).Error; err != nil {
			t.Fatalf("failed to seed recipe %q: %v", recipes[i].Name, err)
		}
	}
	return recipes
}

// CountRecipes returns the number of rows in the recipes table.
func CountRecipes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Recipe{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count recipes: %v", err)
	}
	return n
}
