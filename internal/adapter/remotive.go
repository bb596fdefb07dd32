package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

const (
	remotiveBaseURL = "https://remotive.com/api/remote-jobs"

	// Remotive returns its full board; cap how much of it one fetch
	// contributes to a batch.
	remotiveMaxJobs = 50
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"candidate_required_location"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	PublicationDate string `json:"publication_date"`
}

// remotiveResponse is the top-level Remotive jobs API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches remote jobs from the Remotive public API.
type RemotiveAdapter struct {
	baseURL string
	client  *http.Client
}

// NewRemotiveAdapter creates a new Remotive adapter. baseURL overrides the
// production endpoint when non-empty (used in tests).
func NewRemotiveAdapter(baseURL string, client *http.Client) *RemotiveAdapter {
	if baseURL == "" {
		baseURL = remotiveBaseURL
	}
	return &RemotiveAdapter{baseURL: baseURL, client: client}
}

func (a *RemotiveAdapter) Name() string { return "remotive" }

// Fetch retrieves jobs matching query and normalizes them into postings.
// Descriptions arrive as HTML and are stripped to plain text.
func (a *RemotiveAdapter) Fetch(ctx context.Context, query string) ([]model.Posting, error) {
	reqURL := a.baseURL + "?search=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remotive fetch"),
		}
	}

	var rResp remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	jobs := rResp.Jobs
	if len(jobs) > remotiveMaxJobs {
		jobs = jobs[:remotiveMaxJobs]
	}

	postings := make([]model.Posting, 0, len(jobs))
	for _, rj := range jobs {
		location := rj.Location
		if location == "" {
			location = "Remote"
		}

		p := model.Posting{
			Title:       rj.Title,
			Company:     rj.CompanyName,
			Location:    location,
			Description: extractText(rj.Description),
			URL:         rj.URL,
			Source:      "remotive",
		}

		if rj.PublicationDate != "" {
			if t, err := parseRemotiveTime(rj.PublicationDate); err == nil {
				p.PostedAt = &t
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}

// parseRemotiveTime handles both RFC3339 and Remotive's zone-less variant.
func parseRemotiveTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
