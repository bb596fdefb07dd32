package tracker

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

// outcomeHeaders is the fixed column order of the audit file.
var outcomeHeaders = []string{
	"timestamp",
	"title",
	"company",
	"location",
	"match_score",
	"matched_skills",
	"missing_skills",
	"recommendations",
	"url",
	"source",
}

// CSVTracker appends one row per evaluated job to a CSV file. Rows are
// flushed on every append so a crash never loses recorded outcomes.
type CSVTracker struct {
	mu   sync.Mutex
	path string
}

// NewCSVTracker creates a tracker writing to path. The header row is
// written once when the file is new or empty; existing rows are never
// touched.
func NewCSVTracker(path string) (*CSVTracker, error) {
	t := &CSVTracker{path: path}
	if err := t.ensureHeader(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *CSVTracker) ensureHeader() error {
	info, err := os.Stat(t.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking tracker file: %w", err)
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("creating tracker file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(outcomeHeaders); err != nil {
		return fmt.Errorf("writing tracker header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Append writes one outcome row. The file is opened per call so external
// rotation or truncation between runs is safe.
func (t *CSVTracker) Append(_ context.Context, o model.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening tracker file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		o.Timestamp.UTC().Format(time.RFC3339),
		o.Title,
		o.Company,
		o.Location,
		strconv.Itoa(o.MatchScore),
		strings.Join(o.MatchedSkills, ", "),
		strings.Join(o.MissingSkills, ", "),
		o.Recommendations,
		o.URL,
		o.Source,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("appending tracker row: %w", err)
	}
	w.Flush()
	return w.Error()
}
