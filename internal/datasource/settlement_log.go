package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

// SettlementHeader is the column layout of a settlement log.
var SettlementHeader = []string{
	"Date", "Race Time", "Course", "Horse", "Odds", "Confidence",
	"Position", "Mode", "Stake", "Profit", "Outcome", "Tags", "NAP",
}

const tagSeparator = "|"

// WriteSettlementLog writes a day's settlements, replacing any existing file.
func WriteSettlementLog(path string, settlements []models.Settlement) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return EncodeSettlements(w, settlements)
	})
}

// EncodeSettlements writes settlements as CSV with a header row.
func EncodeSettlements(w io.Writer, settlements []models.Settlement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SettlementHeader); err != nil {
		return fmt.Errorf("failed to write settlement header: %w", err)
	}
	for i := range settlements {
		if err := cw.Write(settlementRow(&settlements[i])); err != nil {
			return fmt.Errorf("failed to write settlement row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func settlementRow(s *models.Settlement) []string {
	odds := ""
	if s.PriceValid {
		odds = strconv.FormatFloat(s.Price, 'f', -1, 64)
	}
	conf := ""
	if c, ok := s.GetConfidence(); ok {
		conf = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return []string{
		s.Date.Format(models.DateLayout),
		s.Time,
		s.Course,
		s.Horse,
		odds,
		conf,
		s.Position.String(),
		string(s.Mode),
		strconv.FormatFloat(s.Stake, 'f', 2, 64),
		strconv.FormatFloat(s.Profit, 'f', 2, 64),
		string(s.Outcome),
		strings.Join(s.Tags, tagSeparator),
		strconv.FormatBool(s.NAP),
	}
}

// ReadSettlementLog reads one settlement log. Malformed rows are skipped and
// counted.
func ReadSettlementLog(r io.Reader, source string) ([]models.Settlement, ReadStats, error) {
	stats := ReadStats{Source: source}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Settlement{}, stats, nil
		}
		return nil, stats, models.NewParseError(source, 1, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"Date", "Course", "Horse", "Position", "Stake", "Profit"} {
		if _, ok := cols[required]; !ok {
			return nil, stats, models.NewParseError(source, 1, fmt.Errorf("settlement log has no %s column", required))
		}
	}

	out := make([]models.Settlement, 0)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			stats.skip(models.NewParseError(source, line, err))
			continue
		}
		s, err := parseSettlementRow(row, cols)
		if err != nil {
			stats.skip(models.NewParseError(source, line, err))
			continue
		}
		out = append(out, s)
		stats.Records++
	}
	return out, stats, nil
}

func parseSettlementRow(row []string, cols map[string]int) (models.Settlement, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := time.Parse(models.DateLayout, get("Date"))
	if err != nil {
		return models.Settlement{}, fmt.Errorf("invalid date: %w", err)
	}

	s := models.Settlement{
		Date:     date,
		Time:     get("Race Time"),
		Course:   get("Course"),
		Horse:    get("Horse"),
		Position: models.ParsePosition(get("Position")),
		Mode:     models.StakeMode(get("Mode")),
		Outcome:  models.Outcome(get("Outcome")),
		Matched:  true,
	}
	if s.Outcome == models.OutcomeNonRunner {
		s.Position = models.NotRun()
	}

	// invalid numerics degrade instead of failing the row
	if price, err := strconv.ParseFloat(get("Odds"), 64); err == nil && price > 1.0 {
		s.Price = price
		s.PriceValid = true
	}
	if conf, err := strconv.ParseFloat(get("Confidence"), 64); err == nil {
		s.Confidence = &conf
	}
	if stake, err := strconv.ParseFloat(get("Stake"), 64); err == nil {
		s.Stake = stake
	}
	if profit, err := strconv.ParseFloat(get("Profit"), 64); err == nil {
		s.Profit = profit
	}
	if tags := get("Tags"); tags != "" {
		s.Tags = strings.Split(tags, tagSeparator)
	}
	s.NAP, _ = strconv.ParseBool(get("NAP"))
	if s.Outcome == "" {
		s.Outcome = outcomeFromPosition(s.Position)
	}

	s.ID = settlement.RowID(&s)
	return s, nil
}

func outcomeFromPosition(p models.Position) models.Outcome {
	switch {
	case p.IsNonRunner():
		return models.OutcomeNonRunner
	case p.IsWin():
		return models.OutcomeWin
	default:
		return models.OutcomeLoss
	}
}

// LogReader loads accumulated settlement logs for aggregation.
type LogReader struct {
	layout Layout
}

// NewLogReader creates a settlement log reader.
func NewLogReader(layout Layout) *LogReader {
	return &LogReader{layout: layout}
}

// LoadSettlements reads every settlement log for mode, keeping rows dated
// within [from, to]. Zero bounds are open. Files are read in name order.
func (r *LogReader) LoadSettlements(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, ReadStats, error) {
	total := ReadStats{Source: r.layout.SettlementGlob(mode)}

	paths, err := filepath.Glob(total.Source)
	if err != nil {
		return nil, total, fmt.Errorf("invalid settlement log pattern: %w", err)
	}
	sort.Strings(paths)

	out := make([]models.Settlement, 0)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, total, err
		}

		rows, stats, err := readSettlementFile(path)
		if err != nil {
			total.skip(err)
			continue
		}
		total.Records += stats.Records
		total.Skipped += stats.Skipped
		if total.FirstErr == nil {
			total.FirstErr = stats.FirstErr
		}

		for _, s := range rows {
			if !from.IsZero() && s.Date.Before(from) {
				continue
			}
			if !to.IsZero() && s.Date.After(to) {
				continue
			}
			out = append(out, s)
		}
	}
	return out, total, nil
}

func readSettlementFile(path string) ([]models.Settlement, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("failed to open settlement log: %w", err)
	}
	defer f.Close()
	return ReadSettlementLog(f, path)
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
