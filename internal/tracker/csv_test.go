package tracker

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

func testOutcome(title string, score int) model.Outcome {
	return model.Outcome{
		Timestamp:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Title:           title,
		Company:         "Acme",
		Location:        "Remote",
		MatchScore:      score,
		MatchedSkills:   []string{"Go", "SQL"},
		MissingSkills:   []string{"Kubernetes"},
		Recommendations: "strong fit",
		URL:             "https://example.com/job",
		Source:          "remotive",
	}
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening tracker file: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading tracker file: %v", err)
	}
	return rows
}

func TestCSVTracker_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.csv")
	ctx := context.Background()

	tr, err := NewCSVTracker(path)
	if err != nil {
		t.Fatalf("NewCSVTracker failed: %v", err)
	}
	if err := tr.Append(ctx, testOutcome("Backend Engineer", 80)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Reopening must not duplicate the header.
	tr2, err := NewCSVTracker(path)
	if err != nil {
		t.Fatalf("reopening tracker failed: %v", err)
	}
	if err := tr2.Append(ctx, testOutcome("Platform Engineer", 30)); err != nil {
		t.Fatalf("Append after reopen failed: %v", err)
	}

	rows := readAll(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 outcomes", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][9] != "source" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestCSVTracker_RowContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.csv")
	tr, err := NewCSVTracker(path)
	if err != nil {
		t.Fatalf("NewCSVTracker failed: %v", err)
	}
	if err := tr.Append(context.Background(), testOutcome("Backend Engineer", 80)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rows := readAll(t, path)
	row := rows[1]
	want := []string{
		"2026-08-01T12:00:00Z",
		"Backend Engineer",
		"Acme",
		"Remote",
		"80",
		"Go, SQL",
		"Kubernetes",
		"strong fit",
		"https://example.com/job",
		"remotive",
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestCSVTracker_AppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.csv")
	tr, err := NewCSVTracker(path)
	if err != nil {
		t.Fatalf("NewCSVTracker failed: %v", err)
	}
	ctx := context.Background()

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		if err := tr.Append(ctx, testOutcome(title, 50)); err != nil {
			t.Fatalf("Append(%s) failed: %v", title, err)
		}
	}

	rows := readAll(t, path)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	for i, title := range titles {
		if rows[i+1][1] != title {
			t.Errorf("row %d title = %q, want %q", i+1, rows[i+1][1], title)
		}
	}
}
