package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	WordColumn        string // Column with the English word
	TranslationColumn string // Column with the translation
	LevelColumn       string // Column with the level (1-4)
	LessonColumn      string // Column with the lesson tag
	SynonymsColumn    string // Column with comma separated synonyms
	AntonymsColumn    string // Column with comma separated antonyms
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
	SortOffset        int    // Added to the row number to form the catalog order
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		TranslationColumn: "B",
		LevelColumn:       "C",
		LessonColumn:      "D",
		SynonymsColumn:    "E",
		AntonymsColumn:    "F",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Errors         []string
}

// Importer loads words into the catalog, upserting by English text
type Importer struct {
	words *database.WordRepository
}

// NewImporter creates an importer
func NewImporter(db *database.DB) *Importer {
	return &Importer{words: database.NewWordRepository(db)}
}

// ImportFile imports words from an Excel or CSV file
func (im *Importer) ImportFile(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		return im.ImportCSV(ctx, file, config)
	}

	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return im.ImportWorkbook(ctx, f, config)
}

// ImportWorkbook imports words from an opened Excel workbook
func (im *Importer) ImportWorkbook(ctx context.Context, f *excelize.File, config ImportConfig) (*ImportResult, error) {
	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		im.processRow(ctx, row, config, result, i+1)
	}
	return result, nil
}

// ImportCSV imports words from CSV laid out like the workbook columns
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, config ImportConfig) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		if rowNum < config.StartRow {
			continue
		}
		im.processRow(ctx, row, config, result, rowNum)
	}
	return result, nil
}

func (im *Importer) processRow(ctx context.Context, row []string, config ImportConfig, result *ImportResult, rowNum int) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	english := cleanWord(cell(config.WordColumn))
	translation := strings.TrimSpace(cell(config.TranslationColumn))
	if english == "" && translation == "" {
		return // blank line
	}
	result.TotalProcessed++

	if english == "" || translation == "" {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: word and translation are required", rowNum))
		return
	}

	word := models.Word{
		EnglishWord: english,
		Translation: translation,
		Level:       parseIntOrDefault(cell(config.LevelColumn), 1, 4, 1),
		Lesson:      cell(config.LessonColumn),
		Synonyms:    normalizeList(cell(config.SynonymsColumn)),
		Antonyms:    normalizeList(cell(config.AntonymsColumn)),
		SortOrder:   config.SortOffset + rowNum,
		Active:      true,
	}
	if _, err := im.words.Upsert(ctx, &word); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	result.Imported++
}

// cleanWord drops trailing details in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

// normalizeList rewrites "a; b ,c" as "a,b,c"
func normalizeList(s string) string {
	s = strings.ReplaceAll(s, ";", ",")
	return strings.Join(models.Word{Synonyms: s}.SynonymList(), ",")
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
