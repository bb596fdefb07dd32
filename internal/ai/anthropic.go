package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

const anthropicVersion = "2023-06-01"

// fallbackModels are tried in order when the configured model is rejected
// with a model-not-found error. The first one that works sticks.
var fallbackModels = []string{
	"claude-3-5-sonnet-latest",
	"claude-3-haiku-20240307",
}

// AnthropicProvider calls the Anthropic /v1/messages endpoint.
type AnthropicProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu    sync.Mutex
	model string // last known-good model
}

// NewAnthropicProvider creates a provider targeting the Anthropic API.
func NewAnthropicProvider(baseURL, apiKey, model string, httpClient *http.Client) *AnthropicProvider {
	return &AnthropicProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

// messagesRequest mirrors the Anthropic /v1/messages request body.
type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse mirrors the relevant fields of the Anthropic response.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends prompt to Anthropic and returns the text of the first
// content block. When the current model is rejected as unknown, the
// fallback candidates are tried in order and the working one is remembered
// for subsequent calls.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	candidates := p.candidates()

	var lastErr error
	for _, m := range candidates {
		text, err := p.complete(ctx, m, prompt, maxTokens)
		if err == nil {
			p.remember(m)
			return text, nil
		}
		lastErr = err
		if !isModelNotFound(err) {
			break
		}
	}
	return "", lastErr
}

// candidates returns the current model followed by the fallbacks, deduped.
func (p *AnthropicProvider) candidates() []string {
	p.mu.Lock()
	current := p.model
	p.mu.Unlock()

	out := []string{current}
	for _, m := range fallbackModels {
		if m != current {
			out = append(out, m)
		}
	}
	return out
}

func (p *AnthropicProvider) remember(model string) {
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
}

func (p *AnthropicProvider) complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	reqBody := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request: %w", err)
	}

	url := p.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(respBytes, &msgResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("llm returned HTTP %d: %s", resp.StatusCode, string(respBytes))
		}
		return "", fmt.Errorf("parse llm response: %w", err)
	}

	if msgResp.Error != nil {
		return "", fmt.Errorf("llm error (%s): %s", msgResp.Error.Type, msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned HTTP %d: %s", resp.StatusCode, string(respBytes))
	}

	for _, block := range msgResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("llm returned no text content")
}

// isModelNotFound reports whether err looks like an unknown-model rejection.
func isModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "not_found_error")
}
