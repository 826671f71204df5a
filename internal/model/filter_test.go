package model

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func recipesWithTimes(minutes ...int) []Recipe {
	out := make([]Recipe, 0, len(minutes))
	for i, m := range minutes {
		out = append(out, Recipe{ID: uint(i + 1), Name: fmt.Sprintf("r%d", i+1), CookMinutes: m})
	}
	return out
}

func ids(records []Recipe) []uint {
	out := make([]uint, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterByTimeBuckets(t *testing.T) {
	records := recipesWithTimes(0, 1, 5, 10, 15, 20, 30, 45)

	tests := []struct {
		name    string
		buckets []TimeBucket
		want    []uint
	}{
		{"no buckets keeps everything", nil, []uint{1, 2, 3, 4, 5, 6, 7, 8}},
		{"up to 5", []TimeBucket{TimeUpTo5}, []uint{2, 3}},
		{"5 to 15 is inclusive", []TimeBucket{Time5To15}, []uint{3, 4, 5}},
		{"15 to 30", []TimeBucket{Time15To30}, []uint{5, 6, 7}},
		{"over 30", []TimeBucket{TimeOver30}, []uint{7, 8}},
		{"union of buckets", []TimeBucket{TimeUpTo5, TimeOver30}, []uint{2, 3, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterByTimeBuckets(records, tt.buckets)))
		})
	}
}

func TestFilterByServingBucket(t *testing.T) {
	records := []Recipe{
		{ID: 1, Servings: 0},
		{ID: 2, Servings: 1},
		{ID: 3, Servings: 2},
		{ID: 4, Servings: 3},
		{ID: 5, Servings: 4},
		{ID: 6, Servings: 6},
		{ID: 7, Servings: 10},
	}

	assert.Equal(t, []uint{2}, ids(FilterByServingBucket(records, ServingOne)))
	assert.Equal(t, []uint{3}, ids(FilterByServingBucket(records, ServingTwo)))
	assert.Equal(t, []uint{5}, ids(FilterByServingBucket(records, ServingFour)))
	assert.Equal(t, []uint{6, 7}, ids(FilterByServingBucket(records, ServingSixPlus)))
	assert.Len(t, FilterByServingBucket(records, ""), len(records))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"15~30분", "30분이상", "15~30분", ""}, "6인분이상")
	require.NoError(t, err)
	assert.Equal(t, []TimeBucket{Time15To30, TimeOver30}, f.TimeBuckets)
	assert.Equal(t, ServingSixPlus, f.ServingBucket)
	assert.True(t, f.Active())

	target, ok := f.TimeTarget()
	assert.True(t, ok)
	assert.Equal(t, Time15To30, target)

	_, err = ParseFilter([]string{"3시간"}, "")
	assert.ErrorIs(t, err, ErrUnknownBucket)

	_, err = ParseFilter(nil, "3인분")
	assert.ErrorIs(t, err, ErrUnknownBucket)

	empty, err := ParseFilter(nil, " ")
	require.NoError(t, err)
	assert.False(t, empty.Active())
}

func TestRangeClamp(t *testing.T) {
	assert.Equal(t, 15, Time15To30.Range().Clamp(10))
	assert.Equal(t, 30, Time15To30.Range().Clamp(45))
	assert.Equal(t, 20, Time15To30.Range().Clamp(20))
	assert.Equal(t, 30, TimeOver30.Range().Clamp(10))
	assert.Equal(t, 90, TimeOver30.Range().Clamp(90))
	assert.Equal(t, 6, ServingSixPlus.Range().Clamp(2))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("10-30")
	require.NoError(t, err)
	assert.Equal(t, Range{Min: 10, Max: 30}, r)

	for _, bad := range []string{"", "10", "a-b", "30-10", "-5-3"} {
		_, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCookMinutes(t *testing.T) {
	cases := map[string]int{
		"30분":      30,
		"30분이내":    30,
		"5분 이내":    5,
		"1시간이내":    60,
		"2시간이상":    120,
		"1시간 30분":  90,
		"90":       90,
		"약 20분 소요": 20,
		"10~40분":   10,
		"1시간~2시간":  60,
		"30~60":    30,
		"":         0,
		"모름":       0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseCookMinutes(in), in)
	}
}

func TestParseServings(t *testing.T) {
	assert.Equal(t, 2, ParseServings("2인분"))
	assert.Equal(t, 6, ParseServings("6인분이상"))
	assert.Equal(t, 2, ParseServings("2~3인분"))
	assert.Equal(t, 0, ParseServings("인분"))
}

func TestRecipeDisplayText(t *testing.T) {
	r := Recipe{CookMinutes: 30, Servings: 2, Ingredients: "감자| 양파 ||소금 "}
	assert.Equal(t, "30분", r.CookTimeText())
	assert.Equal(t, "2인분", r.ServingSizeText())
	assert.Equal(t, []string{"감자", "양파", "소금"}, r.IngredientList())
	assert.Equal(t, "감자|양파|소금", JoinIngredients(r.IngredientList()))

	assert.Empty(t, Recipe{}.CookTimeText())
	assert.Empty(t, Recipe{}.ServingSizeText())
}

// The SQL compilation of a filter must select exactly the rows the in-memory
// predicates keep.
func TestFilterScopeAgreesWithPredicates(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Recipe{}))

	var all []Recipe
	for _, minutes := range []int{0, 1, 3, 5, 10, 15, 20, 30, 60} {
		for _, servings := range []int{0, 1, 2, 3, 4, 6, 8} {
			all = append(all, Recipe{
				Name:        fmt.Sprintf("%d-%d", minutes, servings),
				CookMinutes: minutes,
				Servings:    servings,
			})
		}
	}
	require.NoError(t, db.Create(&all).Error)

	filters := []Filter{
		{},
		{TimeBuckets: []TimeBucket{TimeUpTo5}},
		{TimeBuckets: []TimeBucket{Time5To15, TimeOver30}},
		{ServingBucket: ServingTwo},
		{ServingBucket: ServingSixPlus},
		{TimeBuckets: []TimeBucket{Time15To30}, ServingBucket: ServingFour},
		{TimeBuckets: TimeBuckets, ServingBucket: ServingOne},
	}

	for _, f := range filters {
		var fromSQL []Recipe
		require.NoError(t, db.Scopes(f.Scope).Order("id ASC").Find(&fromSQL).Error)

		inMemory := FilterByServingBucket(FilterByTimeBuckets(all, f.TimeBuckets), f.ServingBucket)
		assert.Equal(t, ids(inMemory), ids(fromSQL), "filter %+v", f)
	}
}
