package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/recipick/backend/internal/llm"
	"github.com/recipick/backend/internal/metrics"
	"github.com/recipick/backend/internal/model"
)

const (
	// DefaultMaxAttempts is the number of generation attempts per slot before
	// falling back.
	DefaultMaxAttempts = 3

	keywordRuneLimit   = 10
	defaultGenServings = 2
	defaultGenMinutes  = 30
)

var refreshCategories = []string{"한식", "중식", "양식", "일식", "분식", "디저트"}

// FallbackFunc builds the deterministic recipe for a slot whose generation
// attempts all failed. position is the 1-based position in the response and
// taken reports names already used in it.
type FallbackFunc func(keyword string, position int, filter model.Filter, taken func(string) bool) model.Recipe

// RetryPolicy controls how hard a slot is retried before falling back.
type RetryPolicy struct {
	MaxAttempts int
	Fallback    FallbackFunc
}

// DefaultRetryPolicy makes three attempts and then uses DefaultFallback.
func DefaultRetryPolicy(intn func(int) int) RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Fallback: DefaultFallback(intn)}
}

// DefaultFallback names recipes "{keyword} 추천 레시피 {position}", adding a
// random four-digit suffix when the name is already taken.
func DefaultFallback(intn func(int) int) FallbackFunc {
	if intn == nil {
		intn = rand.Intn
	}
	return func(keyword string, position int, filter model.Filter, taken func(string) bool) model.Recipe {
		base := fmt.Sprintf("%s 추천 레시피 %d", keyword, position)
		name := base
		for taken(name) {
			name = fmt.Sprintf("%s-%d", base, 1000+intn(9000))
		}
		return model.Recipe{
			Name:         name,
			Ingredients:  model.JoinIngredients([]string{keyword, "기본 양념"}),
			CookMinutes:  clampMinutes(filter, defaultGenMinutes),
			Servings:     clampServings(filter, defaultGenServings),
			Instructions: fmt.Sprintf("%s 재료를 손질한 뒤 기본 양념으로 간을 맞춰 조리하세요.", keyword),
			Source:       model.SourceFallback,
		}
	}
}

// BackfillOptions configures BackfillService.
type BackfillOptions struct {
	Policy            RetryPolicy
	DefaultImageURL   string
	EagerInstructions bool
	// Intn picks keywords and category offsets; nil uses math/rand.
	Intn func(int) int
}

// FillResult counts how the missing slots were filled.
type FillResult struct {
	Generated int
	Fallbacks int
}

// BackfillService generates recipes for the slots the store could not fill.
type BackfillService struct {
	store  IRecipeService
	client llm.Client
	opts   BackfillOptions
	logger *zap.Logger
}

func NewBackfillService(store IRecipeService, client llm.Client, opts BackfillOptions, logger *zap.Logger) *BackfillService {
	if opts.Intn == nil {
		opts.Intn = rand.Intn
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Policy.Fallback == nil {
		opts.Policy.Fallback = DefaultFallback(opts.Intn)
	}
	return &BackfillService{
		store:  store,
		client: client,
		opts:   opts,
		logger: logger,
	}
}

// Fill generates one recipe per missing slot. Generation failures are logged
// and end in a fallback recipe; storage failures abort the fill.
func (b *BackfillService) Fill(ctx context.Context, ws *WorkingSet, query string, filter model.Filter) (FillResult, error) {
	var result FillResult

	query = strings.TrimSpace(query)
	terms := SplitTerms(query)
	missing := ws.Missing()
	offset := b.opts.Intn(len(refreshCategories))

	for slot := 0; slot < missing; slot++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		keyword := b.keyword(terms, query, offset+slot)

		recipe, err := b.generate(ctx, ws, keyword, filter)
		if err != nil {
			return result, err
		}
		if recipe != nil {
			ws.Add(*recipe)
			result.Generated++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fallback := b.opts.Policy.Fallback(keyword, ws.Len()+1, filter, ws.HasName)
		fallback.Source = model.SourceFallback
		if fallback.ImageURL == "" {
			fallback.ImageURL = b.opts.DefaultImageURL
		}
		saved, err := b.store.Insert(ctx, &fallback)
		if err != nil {
			return result, err
		}
		ws.Add(*saved)
		result.Fallbacks++

		b.logger.Info("used fallback recipe",
			zap.String("keyword", keyword),
			zap.String("name", saved.Name))
	}

	return result, nil
}

func (b *BackfillService) keyword(terms []string, query string, slot int) string {
	if len(terms) > 0 {
		return terms[b.opts.Intn(len(terms))]
	}
	if query != "" {
		return truncateRunes(query, keywordRuneLimit)
	}
	return refreshCategories[slot%len(refreshCategories)]
}

// generate makes up to MaxAttempts generation calls. It returns nil without
// an error when every attempt failed.
func (b *BackfillService) generate(ctx context.Context, ws *WorkingSet, keyword string, filter model.Filter) (*model.Recipe, error) {
	messages := recipeMessages(keyword, filter, ws.Names())

	for attempt := 1; attempt <= b.opts.Policy.MaxAttempts; attempt++ {
		text, err := b.client.Complete(ctx, messages)
		if err != nil {
			metrics.GenerationCalls.WithLabelValues("recipe", "error").Inc()
			b.logger.Warn("recipe generation failed",
				zap.String("keyword", keyword),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if ctx.Err() != nil || llm.FailFast(err) {
				return nil, nil
			}
			continue
		}

		parsed := ParseRecipeReply(text)
		if parsed.Name == "" {
			metrics.GenerationCalls.WithLabelValues("recipe", "invalid").Inc()
			b.logger.Warn("generated recipe has no name",
				zap.String("keyword", keyword),
				zap.Int("attempt", attempt))
			continue
		}
		if ws.HasName(parsed.Name) {
			metrics.GenerationCalls.WithLabelValues("recipe", "duplicate").Inc()
			b.logger.Debug("generated recipe duplicates working set",
				zap.String("name", parsed.Name),
				zap.Int("attempt", attempt))
			continue
		}
		metrics.GenerationCalls.WithLabelValues("recipe", "success").Inc()

		recipe := parsed.Recipe(filter)
		recipe.ImageURL = b.opts.DefaultImageURL
		saved, err := b.store.Insert(ctx, &recipe)
		if err != nil {
			return nil, err
		}

		if b.opts.EagerInstructions {
			instructions, err := generateInstructions(ctx, b.client, saved)
			if err != nil {
				b.logger.Warn("eager instruction generation failed",
					zap.Uint("recipe_id", saved.ID),
					zap.Error(err))
			} else {
				if err := b.store.Update(ctx, saved.ID, map[string]interface{}{"instructions": instructions}); err != nil {
					return nil, err
				}
				saved.Instructions = instructions
			}
		}

		return saved, nil
	}

	return nil, nil
}

// GeneratedRecipe is a parsed generation reply.
type GeneratedRecipe struct {
	Name        string
	Ingredients string
	Servings    int
	CookMinutes int
}

// Recipe converts the reply into a storable recipe, clamping cook time and
// servings into the filter's target ranges.
func (g GeneratedRecipe) Recipe(filter model.Filter) model.Recipe {
	return model.Recipe{
		Name:        g.Name,
		Ingredients: g.Ingredients,
		CookMinutes: clampMinutes(filter, g.CookMinutes),
		Servings:    clampServings(filter, g.Servings),
		Source:      model.SourceGenerated,
	}
}

type replyField int

const (
	fieldUnknown replyField = iota
	fieldName
	fieldIngredients
	fieldServings
	fieldTime
)

var replyKeys = map[string]replyField{
	"요리명":         fieldName,
	"요리이름":        fieldName,
	"이름":          fieldName,
	"name":        fieldName,
	"recipe":      fieldName,
	"recipename":  fieldName,
	"title":       fieldName,
	"dish":        fieldName,
	"재료":          fieldIngredients,
	"ingredients": fieldIngredients,
	"ingredient":  fieldIngredients,
	"인분":          fieldServings,
	"인분수":         fieldServings,
	"servings":    fieldServings,
	"serving":     fieldServings,
	"servingsize": fieldServings,
	"조리시간":        fieldTime,
	"시간":          fieldTime,
	"cooktime":    fieldTime,
	"cookingtime": fieldTime,
	"time":        fieldTime,
}

var (
	markdownStripper = strings.NewReplacer("**", "", "__", "", "#", "", "`", "")
	keyNormalizer    = strings.NewReplacer(" ", "", "_", "", "\t", "")
)

// ParseRecipeReply reads "key: value" lines. Keys are matched in Korean or
// English regardless of case; the first occurrence of a key wins. Missing
// servings default to 2 and missing cook time to 30 minutes.
func ParseRecipeReply(text string) GeneratedRecipe {
	out := GeneratedRecipe{}
	seen := make(map[replyField]bool)

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitReplyLine(line)
		if !ok {
			continue
		}
		field := replyKeys[keyNormalizer.Replace(strings.ToLower(key))]
		if field == fieldUnknown || seen[field] {
			continue
		}
		seen[field] = true

		switch field {
		case fieldName:
			out.Name = strings.Trim(value, `"'「」『』 `)
		case fieldIngredients:
			out.Ingredients = model.JoinIngredients(strings.FieldsFunc(value, func(r rune) bool {
				return r == '|' || r == ','
			}))
		case fieldServings:
			out.Servings = model.ParseServings(value)
		case fieldTime:
			out.CookMinutes = model.ParseCookMinutes(value)
		}
	}

	if out.Servings <= 0 {
		out.Servings = defaultGenServings
	}
	if out.CookMinutes <= 0 {
		out.CookMinutes = defaultGenMinutes
	}
	return out
}

func splitReplyLine(line string) (string, string, bool) {
	line = stripListMarker(markdownStripper.Replace(strings.TrimSpace(line)))
	idx := strings.IndexAny(line, ":：")
	if idx < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	rest := line[idx:]
	if strings.HasPrefix(rest, "：") {
		rest = rest[len("："):]
	} else {
		rest = rest[1:]
	}
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(rest), true
}

func stripListMarker(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•· ")
	// numbered markers: "1." or "1)"
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func clampMinutes(filter model.Filter, minutes int) int {
	if filter.MatchesTime(minutes) {
		return minutes
	}
	target, ok := filter.TimeTarget()
	if !ok {
		return minutes
	}
	return target.Range().Clamp(minutes)
}

func clampServings(filter model.Filter, servings int) int {
	if filter.MatchesServing(servings) {
		return servings
	}
	return filter.ServingBucket.Range().Clamp(servings)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

const recipeSystemPrompt = `당신은 한국 가정식 레시피를 추천하는 요리 도우미입니다.
반드시 아래 형식의 네 줄로만 답하고 다른 설명은 덧붙이지 마세요.
요리명: <요리 이름>
재료: <재료1>|<재료2>|<재료3>
인분: <숫자>인분
조리시간: <숫자>분`

// recipeMessages builds the generation request for one slot.
func recipeMessages(keyword string, filter model.Filter, avoid []string) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s'와(과) 어울리는 요리 레시피를 하나 추천해주세요.", keyword)
	for _, c := range constraintPhrases(filter) {
		b.WriteString("\n")
		b.WriteString(c)
		b.WriteString(".")
	}
	if len(avoid) > 0 {
		fmt.Fprintf(&b, "\n다음 요리는 이미 추천했으니 제외해주세요: %s", strings.Join(avoid, ", "))
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: recipeSystemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	}
}

// constraintPhrases renders the filter as explicit numeric constraints for the
// generation prompt, using the target bucket for cook time.
func constraintPhrases(filter model.Filter) []string {
	var out []string
	if target, ok := filter.TimeTarget(); ok {
		r := target.Range()
		switch {
		case r.Max == 0:
			out = append(out, fmt.Sprintf("조리 시간은 %d분 이상", r.Min))
		case r.Min <= 1:
			out = append(out, fmt.Sprintf("조리 시간은 %d분 이내", r.Max))
		default:
			out = append(out, fmt.Sprintf("조리 시간은 %d분 이상 %d분 이내", r.Min, r.Max))
		}
	}
	if filter.ServingBucket != "" {
		r := filter.ServingBucket.Range()
		if r.Max == 0 {
			out = append(out, fmt.Sprintf("인분 수는 %d인분 이상", r.Min))
		} else {
			out = append(out, fmt.Sprintf("인분 수는 정확히 %d인분", r.Min))
		}
	}
	return out
}
