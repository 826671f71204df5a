package model

import (
	"fmt"
	"strings"
	"time"
)

// Recipe sources.
const (
	SourceImport    = "import"
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
	SourceManual    = "manual"
)

// Recipe is one dish in the catalog. Cook time and servings are stored as
// integers; zero means unknown.
type Recipe struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"size:200;not null;index" json:"name"`
	Ingredients  string    `gorm:"type:text;not null;default:''" json:"ingredients"`
	CookMinutes  int       `gorm:"not null;default:0;index" json:"cook_minutes"`
	Servings     int       `gorm:"not null;default:0;index" json:"servings"`
	ImageURL     string    `gorm:"size:500;not null;default:''" json:"image_url"`
	Instructions string    `gorm:"type:text;not null;default:''" json:"instructions,omitempty"`
	Source       string    `gorm:"size:20;not null;default:'import'" json:"source"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// CookTimeText renders the cook time for display, e.g. "30분".
func (r Recipe) CookTimeText() string {
	if r.CookMinutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d분", r.CookMinutes)
}

// ServingSizeText renders the serving count for display, e.g. "2인분".
func (r Recipe) ServingSizeText() string {
	if r.Servings <= 0 {
		return ""
	}
	return fmt.Sprintf("%d인분", r.Servings)
}

// IngredientList splits the pipe-delimited ingredients column.
func (r Recipe) IngredientList() []string {
	return SplitIngredients(r.Ingredients)
}

// HasInstructions reports whether instructions were already generated or imported.
func (r Recipe) HasInstructions() bool {
	return strings.TrimSpace(r.Instructions) != ""
}

// SplitIngredients splits on "|" and drops blank entries.
func SplitIngredients(s string) []string {
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinIngredients is the inverse of SplitIngredients.
func JoinIngredients(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return strings.Join(out, "|")
}
