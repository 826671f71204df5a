// Package importer loads recipe catalogs from CSV exports, including the
// CP949-encoded public recipe dataset.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/recipick/backend/internal/model"
)

const (
	EncodingCP949 = "cp949"
	EncodingUTF8  = "utf-8"

	DefaultBatchSize = 500
)

var ErrMissingNameColumn = errors.New("importer: no recipe name column in header")

// Loader persists parsed recipes.
type Loader interface {
	CreateBatch(ctx context.Context, recipes []model.Recipe, batchSize int) error
}

type column int

const (
	colName column = iota
	colIngredients
	colCookTime
	colServings
	colImage
	colInstructions
)

// Header aliases: the simple export format and the public dataset's columns.
var headerAliases = map[string]column{
	"name":         colName,
	"ckg_nm":       colName,
	"rcp_ttl":      colName,
	"ingredients":  colIngredients,
	"ckg_mtrl_cn":  colIngredients,
	"cook_time":    colCookTime,
	"ckg_time_nm":  colCookTime,
	"servings":     colServings,
	"ckg_inbun_nm": colServings,
	"image":        colImage,
	"image_url":    colImage,
	"rcp_img_url":  colImage,
	"instructions": colInstructions,
}

var sectionLabel = regexp.MustCompile(`\[[^\]]*\]`)

// Result summarizes an import.
type Result struct {
	Rows     int
	Imported int
	Skipped  int
}

// Decode wraps r so it yields UTF-8 text.
func Decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingCP949, "euc-kr", "euckr":
		return transform.NewReader(r, korean.EUCKR.NewDecoder()), nil
	case EncodingUTF8, "utf8", "":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("importer: unsupported encoding %q", encoding)
	}
}

// Parse reads all recipes from a UTF-8 CSV stream. Rows without a name are
// skipped and counted.
func Parse(r io.Reader) ([]model.Recipe, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("importer: failed to read header: %w", err)
	}

	index := make(map[column]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headerAliases[key]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	if _, ok := index[colName]; !ok {
		return nil, 0, ErrMissingNameColumn
	}

	field := func(record []string, col column) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		recipes []model.Recipe
		skipped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("importer: failed to read row: %w", err)
		}

		name := field(record, colName)
		if name == "" {
			skipped++
			continue
		}
		recipes = append(recipes, model.Recipe{
			Name:         name,
			Ingredients:  CleanIngredients(field(record, colIngredients)),
			CookMinutes:  model.ParseCookMinutes(field(record, colCookTime)),
			Servings:     model.ParseServings(field(record, colServings)),
			ImageURL:     field(record, colImage),
			Instructions: field(record, colInstructions),
			Source:       model.SourceImport,
		})
	}

	return recipes, skipped, nil
}

// CleanIngredients drops "[재료]"-style section labels and normalizes the
// separator to "|".
func CleanIngredients(s string) string {
	s = sectionLabel.ReplaceAllString(s, "|")
	return model.JoinIngredients(strings.Split(s, "|"))
}

// Import decodes, parses and loads a CSV file.
func Import(ctx context.Context, r io.Reader, encoding string, batchSize int, loader Loader, logger *zap.Logger) (Result, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	decoded, err := Decode(r, encoding)
	if err != nil {
		return Result{}, err
	}

	recipes, skipped, err := Parse(decoded)
	if err != nil {
		return Result{}, err
	}
	result := Result{Rows: len(recipes) + skipped, Skipped: skipped}

	for start := 0; start < len(recipes); start += batchSize {
		end := start + batchSize
		if end > len(recipes) {
			end = len(recipes)
		}
		if err := loader.CreateBatch(ctx, recipes[start:end], batchSize); err != nil {
			return result, fmt.Errorf("importer: failed to load rows %d-%d: %w", start+1, end, err)
		}
		result.Imported += end - start
		logger.Info("imported batch",
			zap.Int("from", start+1),
			zap.Int("to", end),
			zap.Int("total", len(recipes)))
	}

	return result, nil
}
