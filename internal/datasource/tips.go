package datasource

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

const maxTipLineBytes = 1 << 20

// FileTipSource reads tips from the day's JSONL file.
type FileTipSource struct {
	layout  Layout
	useSent bool
}

// NewFileTipSource creates a tip source. When useSent is set the dispatched
// tips file is read instead of the full predictions file.
func NewFileTipSource(layout Layout, useSent bool) *FileTipSource {
	return &FileTipSource{layout: layout, useSent: useSent}
}

// Path returns the file read for date.
func (s *FileTipSource) Path(date time.Time) string {
	if s.useSent {
		return s.layout.SentTips(date)
	}
	return s.layout.Tips(date)
}

// LoadTips implements TipSource.
func (s *FileTipSource) LoadTips(ctx context.Context, date time.Time) (*TipBatch, error) {
	path := s.Path(date)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.NewMissingInputError(models.InputTips, date, path, err)
		}
		return nil, fmt.Errorf("failed to open tips file: %w", err)
	}
	defer f.Close()

	tips, stats, err := ReadTips(ctx, f, path)
	if err != nil {
		return nil, err
	}
	return &TipBatch{Date: date, Tips: tips, Stats: stats}, nil
}

// ReadTips decodes one tip per line. Blank lines are ignored. Lines that fail
// to decode, or lack a race or horse name, are skipped and counted.
func ReadTips(ctx context.Context, r io.Reader, source string) ([]models.Tip, ReadStats, error) {
	stats := ReadStats{Source: source}
	tips := make([]models.Tip, 0)

	br := bufio.NewReaderSize(r, 64*1024)

	line := 0
	for {
		raw, tooLong, err := readTipLine(br, maxTipLineBytes)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read tips: %w", err)
		}
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		if tooLong {
			stats.skip(models.NewParseError(source, line, fmt.Errorf("line exceeds %d bytes", maxTipLineBytes)))
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		var tip models.Tip
		if err := json.Unmarshal([]byte(text), &tip); err != nil {
			stats.skip(models.NewParseError(source, line, err))
			continue
		}
		if tip.Race == "" || tip.Name == "" {
			stats.skip(models.NewParseError(source, line, errors.New("tip has no race or name")))
			continue
		}
		tips = append(tips, tip)
		stats.Records++
	}
	return tips, stats, nil
}

// readTipLine returns the next line without its terminator. A line longer
// than limit is consumed and reported as tooLong with no content.
func readTipLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// WriteTips writes tips as JSONL, one per line, replacing any existing file.
func WriteTips(path string, tips []models.Tip) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)
		enc.SetEscapeHTML(false)
		for i := range tips {
			if err := enc.Encode(tips[i]); err != nil {
				return fmt.Errorf("failed to encode tip: %w", err)
			}
		}
		return bw.Flush()
	})
}
