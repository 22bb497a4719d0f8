package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenRouter API structures
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model    string               `json:"model"`
	Messages []Message            `json:"messages"`
	Provider *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message Message `json:"message"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"
	maxRetries    = 3
	initialDelay  = 1 * time.Second
)

type openRouterClient struct {
	apiKey       string
	model        string
	endpoint     string
	providers    []string
	httpClient   *http.Client
	initialDelay time.Duration
}

func newOpenRouterClient(r *Registry, model string) (Client, error) {
	key, err := r.requireKey("openrouter", "OPENROUTER_API_KEY")
	if err != nil {
		return nil, err
	}
	endpoint := openRouterURL
	if override := r.creds.Get("OPENROUTER_BASE_URL"); override != "" {
		endpoint = strings.TrimRight(override, "/") + "/chat/completions"
	}
	return &openRouterClient{
		apiKey:       key,
		model:        model,
		endpoint:     endpoint,
		providers:    splitList(r.creds.Get("OPENROUTER_PROVIDERS")),
		httpClient:   r.httpClient,
		initialDelay: initialDelay,
	}, nil
}

func (c *openRouterClient) Provider() string { return "openrouter" }
func (c *openRouterClient) Model() string    { return c.model }

// getProviderPreferences pins OpenRouter routing when providers are configured
func (c *openRouterClient) getProviderPreferences() *ProviderPreferences {
	if len(c.providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          c.providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// Complete sends the prompt with retry and linear back-off.
func (c *openRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: SystemPreamble},
			{Role: "user", Content: prompt},
		},
		Provider: c.getProviderPreferences(),
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.initialDelay) * (1.5 * float64(attempt)))
			if err := sleepContext(ctx, delay); err != nil {
				return "", err
			}
		}

		response, err := c.makeAPIRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		if len(response.Choices) == 0 {
			lastErr = ErrEmptyResponse
			continue
		}

		return strings.TrimSpace(response.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *openRouterClient) makeAPIRequest(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "Clipboard Buddy")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return &response, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
