package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/applypilot/applypilot/internal/model"
)

func remotiveServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *RemotiveAdapter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewRemotiveAdapter(srv.URL, srv.Client())
}

func TestRemotiveFetch_NormalizesJobs(t *testing.T) {
	body := remotiveResponse{Jobs: []remotiveJob{
		{
			Title:           "Backend Engineer",
			CompanyName:     "Acme",
			Location:        "Europe",
			URL:             "https://remotive.com/jobs/1",
			Description:     "<p>We use <b>Go</b> &amp; Postgres</p>",
			PublicationDate: "2026-08-01T09:30:00",
		},
		{
			Title:       "Data Engineer",
			CompanyName: "Globex",
			URL:         "https://remotive.com/jobs/2",
		},
	}}

	_, a := remotiveServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "go developer" {
			t.Errorf("search param = %q, want %q", got, "go developer")
		}
		json.NewEncoder(w).Encode(body)
	})

	postings, err := a.Fetch(context.Background(), "go developer")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	first := postings[0]
	if first.Title != "Backend Engineer" || first.Company != "Acme" {
		t.Errorf("first posting = %+v", first)
	}
	if first.Description != "We use Go & Postgres" {
		t.Errorf("description not stripped to text: %q", first.Description)
	}
	if first.PostedAt == nil {
		t.Error("expected PostedAt to be parsed")
	}
	if first.Source != "remotive" {
		t.Errorf("source = %q, want remotive", first.Source)
	}

	// Missing location defaults to Remote.
	if postings[1].Location != "Remote" {
		t.Errorf("empty location = %q, want Remote", postings[1].Location)
	}
}

func TestRemotiveFetch_CapsAtFiftyJobs(t *testing.T) {
	var body remotiveResponse
	for i := 0; i < 80; i++ {
		body.Jobs = append(body.Jobs, remotiveJob{
			Title:       fmt.Sprintf("Role %d", i),
			CompanyName: "Acme",
		})
	}

	_, a := remotiveServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(body)
	})

	postings, err := a.Fetch(context.Background(), "engineer")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != remotiveMaxJobs {
		t.Errorf("got %d postings, want cap of %d", len(postings), remotiveMaxJobs)
	}
}

func TestRemotiveFetch_RateLimitedReturnsHTTPError(t *testing.T) {
	_, a := remotiveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.Fetch(context.Background(), "engineer")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("RetryAfter = %v, want 30s", httpErr.RetryAfter)
	}
}

func TestRemotiveFetch_BadJSON(t *testing.T) {
	_, a := remotiveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	if _, err := a.Fetch(context.Background(), "engineer"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
