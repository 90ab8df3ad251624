package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// Header aliases for each results column, in order of preference.
var resultColumns = map[string][]string{
	"time":      {"off", "time", "race_time"},
	"course":    {"course", "track"},
	"horse":     {"horse", "name"},
	"position":  {"pos", "position"},
	"runners":   {"ran", "runners", "num"},
	"race_name": {"race_name", "race"},
	"race_type": {"type", "race_type"},
}

var requiredResultColumns = []string{"time", "course", "horse", "position"}

// FileResultSource reads results from the day's CSV file.
type FileResultSource struct {
	layout Layout
}

// NewFileResultSource creates a result source.
func NewFileResultSource(layout Layout) *FileResultSource {
	return &FileResultSource{layout: layout}
}

// LoadResults implements ResultSource.
func (s *FileResultSource) LoadResults(ctx context.Context, date time.Time) (*ResultBatch, error) {
	path := s.layout.Results(date)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.NewMissingInputError(models.InputResults, date, path, err)
		}
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	results, stats, err := ReadResults(ctx, f, path)
	if err != nil {
		return nil, err
	}
	return &ResultBatch{Date: date, Results: results, Stats: stats}, nil
}

// ReadResults parses a results CSV. Header names are matched case-insensitively
// against known aliases. Rows with the wrong number of fields or no horse are
// skipped and counted; unparsable positions and runner counts degrade to
// Unknown and missing.
func ReadResults(ctx context.Context, r io.Reader, source string) ([]models.ResultRecord, ReadStats, error) {
	stats := ReadStats{Source: source}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.ResultRecord{}, stats, nil
		}
		return nil, stats, models.NewParseError(source, 1, err)
	}

	cols, err := mapResultColumns(header)
	if err != nil {
		return nil, stats, models.NewParseError(source, 1, err)
	}

	results := make([]models.ResultRecord, 0)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if line%1000 == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, stats, ctxErr
			}
		}
		if err != nil {
			stats.skip(models.NewParseError(source, line, err))
			continue
		}
		if len(row) != len(header) {
			stats.skip(models.NewParseError(source, line, fmt.Errorf("expected %d fields, got %d", len(header), len(row))))
			continue
		}

		rec := models.ResultRecord{
			Time:      field(row, cols, "time"),
			Course:    field(row, cols, "course"),
			Horse:     field(row, cols, "horse"),
			Position:  models.ParsePosition(field(row, cols, "position")),
			RaceName:  field(row, cols, "race_name"),
			RaceType:  field(row, cols, "race_type"),
			SourceRow: line,
		}
		if rec.Horse == "" {
			stats.skip(models.NewParseError(source, line, errors.New("row has no horse")))
			continue
		}
		if n, err := strconv.Atoi(field(row, cols, "runners")); err == nil && n > 0 {
			rec.Runners = &n
		}
		results = append(results, rec)
		stats.Records++
	}
	return results, stats, nil
}

func mapResultColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, exists := positions[name]; !exists {
			positions[name] = i
		}
	}

	cols := make(map[string]int, len(resultColumns))
	for key, aliases := range resultColumns {
		for _, alias := range aliases {
			if idx, ok := positions[alias]; ok {
				cols[key] = idx
				break
			}
		}
	}
	for _, key := range requiredResultColumns {
		if _, ok := cols[key]; !ok {
			return nil, fmt.Errorf("results header has no %s column", key)
		}
	}
	return cols, nil
}

func field(row []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
