package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
)

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

// AdzunaAdapter fetches jobs from the Adzuna search API.
type AdzunaAdapter struct {
	baseURL string
	appID   string
	appKey  string
	country string // "in", "gb", "us", ...
	client  *http.Client
}

// NewAdzunaAdapter creates a new Adzuna adapter for one country endpoint.
// baseURL overrides the production endpoint when non-empty (used in tests).
func NewAdzunaAdapter(baseURL, appID, appKey, country string, client *http.Client) *AdzunaAdapter {
	if baseURL == "" {
		baseURL = adzunaBaseURL
	}
	if country == "" {
		country = "in"
	}
	return &AdzunaAdapter{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
	}
}

func (a *AdzunaAdapter) Name() string { return "adzuna" }

// Fetch retrieves the first page of results for query and normalizes them
// into postings.
func (a *AdzunaAdapter) Fetch(ctx context.Context, query string) ([]model.Posting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/1", a.baseURL, a.country)

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna fetch"),
		}
	}

	var aResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(aResp.Results))
	for _, r := range aResp.Results {
		company := r.Company.DisplayName
		if company == "" {
			company = "N/A"
		}
		location := r.Location.DisplayName
		if location == "" {
			location = "N/A"
		}

		p := model.Posting{
			Title:       r.Title,
			Company:     company,
			Location:    location,
			Description: r.Description,
			URL:         r.RedirectURL,
			Source:      "adzuna",
		}

		if r.Created != "" {
			if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
				p.PostedAt = &t
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}
