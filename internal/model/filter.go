package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// TimeBucket is a named cook-time range selectable by the client.
type TimeBucket string

const (
	TimeUpTo5  TimeBucket = "5분 이내"
	Time5To15  TimeBucket = "5~15분"
	Time15To30 TimeBucket = "15~30분"
	TimeOver30 TimeBucket = "30분 이상"
)

// ServingBucket is a named serving-count range selectable by the client.
type ServingBucket string

const (
	ServingOne     ServingBucket = "1인분"
	ServingTwo     ServingBucket = "2인분"
	ServingFour    ServingBucket = "4인분"
	ServingSixPlus ServingBucket = "6인분 이상"
)

// Canonical bucket order. The first selected bucket in this order is used as
// the generation target.
var (
	TimeBuckets    = []TimeBucket{TimeUpTo5, Time5To15, Time15To30, TimeOver30}
	ServingBuckets = []ServingBucket{ServingOne, ServingTwo, ServingFour, ServingSixPlus}
)

var ErrUnknownBucket = errors.New("unknown filter bucket")

// Range is an inclusive integer range. Max of zero means unbounded.
type Range struct {
	Min int
	Max int
}

func (r Range) Contains(v int) bool {
	if v < r.Min {
		return false
	}
	return r.Max == 0 || v <= r.Max
}

// Clamp moves v into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if r.Max > 0 && v > r.Max {
		return r.Max
	}
	return v
}

func (r Range) String() string {
	if r.Max == 0 {
		return fmt.Sprintf("%d-", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func (b TimeBucket) Range() Range {
	switch b {
	case TimeUpTo5:
		return Range{Min: 1, Max: 5}
	case Time5To15:
		return Range{Min: 5, Max: 15}
	case Time15To30:
		return Range{Min: 15, Max: 30}
	case TimeOver30:
		return Range{Min: 30}
	}
	return Range{}
}

func (b ServingBucket) Range() Range {
	switch b {
	case ServingOne:
		return Range{Min: 1, Max: 1}
	case ServingTwo:
		return Range{Min: 2, Max: 2}
	case ServingFour:
		return Range{Min: 4, Max: 4}
	case ServingSixPlus:
		return Range{Min: 6}
	}
	return Range{}
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ParseTimeBucket accepts a bucket label with or without inner spaces.
func ParseTimeBucket(s string) (TimeBucket, error) {
	key := compact(s)
	for _, b := range TimeBuckets {
		if compact(string(b)) == key {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: time %q", ErrUnknownBucket, s)
}

// ParseServingBucket accepts a bucket label with or without inner spaces.
func ParseServingBucket(s string) (ServingBucket, error) {
	key := compact(s)
	for _, b := range ServingBuckets {
		if compact(string(b)) == key {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: serving %q", ErrUnknownBucket, s)
}

// Filter holds the structured constraints of one recommendation request.
// The zero value matches everything.
type Filter struct {
	TimeBuckets   []TimeBucket
	ServingBucket ServingBucket
}

// ParseFilter builds a Filter from raw labels. Blank labels are ignored.
func ParseFilter(times []string, serving string) (Filter, error) {
	var f Filter
	seen := make(map[TimeBucket]bool)
	for _, t := range times {
		if strings.TrimSpace(t) == "" {
			continue
		}
		b, err := ParseTimeBucket(t)
		if err != nil {
			return Filter{}, err
		}
		if !seen[b] {
			seen[b] = true
			f.TimeBuckets = append(f.TimeBuckets, b)
		}
	}
	if strings.TrimSpace(serving) != "" {
		b, err := ParseServingBucket(serving)
		if err != nil {
			return Filter{}, err
		}
		f.ServingBucket = b
	}
	return f, nil
}

func (f Filter) Active() bool {
	return len(f.TimeBuckets) > 0 || f.ServingBucket != ""
}

// MatchesTime reports whether minutes falls in at least one selected bucket.
// Unknown time (0) never matches an active time filter.
func (f Filter) MatchesTime(minutes int) bool {
	if len(f.TimeBuckets) == 0 {
		return true
	}
	for _, b := range f.TimeBuckets {
		if b.Range().Contains(minutes) {
			return true
		}
	}
	return false
}

func (f Filter) MatchesServing(servings int) bool {
	if f.ServingBucket == "" {
		return true
	}
	return f.ServingBucket.Range().Contains(servings)
}

func (f Filter) Matches(r Recipe) bool {
	return f.MatchesTime(r.CookMinutes) && f.MatchesServing(r.Servings)
}

// TimeTarget returns the first selected time bucket in canonical order.
func (f Filter) TimeTarget() (TimeBucket, bool) {
	for _, b := range TimeBuckets {
		for _, sel := range f.TimeBuckets {
			if sel == b {
				return b, true
			}
		}
	}
	return "", false
}

// Scope compiles the filter into WHERE clauses over cook_minutes and
// servings. Use with db.Scopes(filter.Scope).
func (f Filter) Scope(db *gorm.DB) *gorm.DB {
	if len(f.TimeBuckets) > 0 {
		clauses := make([]string, 0, len(f.TimeBuckets))
		args := make([]interface{}, 0, len(f.TimeBuckets)*2)
		for _, b := range f.TimeBuckets {
			sql, vars := rangeSQL("cook_minutes", b.Range())
			clauses = append(clauses, sql)
			args = append(args, vars...)
		}
		db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	if f.ServingBucket != "" {
		sql, vars := rangeSQL("servings", f.ServingBucket.Range())
		db = db.Where(sql, vars...)
	}
	return db
}

func rangeSQL(column string, r Range) (string, []interface{}) {
	if r.Max == 0 {
		return "(" + column + " >= ?)", []interface{}{r.Min}
	}
	return "(" + column + " >= ? AND " + column + " <= ?)", []interface{}{r.Min, r.Max}
}

// FilterByTimeBuckets keeps records whose cook time falls in at least one bucket.
func FilterByTimeBuckets(records []Recipe, buckets []TimeBucket) []Recipe {
	f := Filter{TimeBuckets: buckets}
	out := make([]Recipe, 0, len(records))
	for _, r := range records {
		if f.MatchesTime(r.CookMinutes) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByServingBucket keeps records whose serving count matches the bucket.
func FilterByServingBucket(records []Recipe, bucket ServingBucket) []Recipe {
	f := Filter{ServingBucket: bucket}
	out := make([]Recipe, 0, len(records))
	for _, r := range records {
		if f.MatchesServing(r.Servings) {
			out = append(out, r)
		}
	}
	return out
}

// RangeQuery backs the numeric /filter endpoint.
type RangeQuery struct {
	CookTime *Range
	Servings int
}

// ParseRange parses "min-max".
func ParseRange(s string) (Range, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if from < 0 || to < from {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	return Range{Min: from, Max: to}, nil
}

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*시간`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*분`)
	numberPattern  = regexp.MustCompile(`\d+`)
)

// ParseCookMinutes extracts minutes from text such as "30분", "30분이내",
// "1시간 30분" or "90". A range such as "10~40분" yields its lower end.
// Returns 0 when no number is present.
func ParseCookMinutes(s string) int {
	if head, _, ok := strings.Cut(s, "~"); ok && numberPattern.MatchString(head) {
		s = head
	}
	total := 0
	matched := false
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
		matched = true
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
		matched = true
	}
	if matched {
		return total
	}
	return leadingNumber(s)
}

// ParseServings extracts the serving count from text such as "2인분" or
// "6인분이상". Returns 0 when no number is present.
func ParseServings(s string) int {
	return leadingNumber(s)
}

func leadingNumber(s string) int {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
