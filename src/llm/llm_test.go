package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestBindErrors(t *testing.T) {
	r := NewRegistry(Credentials{})

	tests := []struct {
		name     string
		provider string
		model    string
		want     error
	}{
		{"unknown provider", "nope", "m", ErrUnknownProvider},
		{"empty model", "openai", "  ", ErrEmptyModel},
		{"missing openai key", "openai", "gpt-4o-mini", ErrMissingCredential},
		{"missing openrouter key", "openrouter", "m", ErrMissingCredential},
		{"missing openrouter-compat key", "openrouter-compat", "m", ErrMissingCredential},
		{"missing xai key", "xai", "grok-3", ErrMissingCredential},
		{"missing gemini key", "gemini", "gemini-2.0-flash", ErrMissingCredential},
		{"missing anthropic key", "anthropic", "claude", ErrMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Bind(tt.provider, tt.model)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Bind(%q, %q) error = %v, expected %v", tt.provider, tt.model, err, tt.want)
			}
		})
	}
}

func TestBindOllamaWithoutKey(t *testing.T) {
	r := NewRegistry(nil)
	c, err := r.Bind("Ollama", "llama3")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if c.Provider() != "ollama" || c.Model() != "llama3" {
		t.Fatalf("unexpected client %s/%s", c.Provider(), c.Model())
	}
}

func TestOpenRouterCompatUsesChatCompletions(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotAuth = req.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	r := NewRegistry(Credentials{"OPENROUTER_API_KEY": "or_key", "OPENROUTER_BASE_URL": srv.URL + "/api/v1"})
	c, err := r.Bind("openrouter-compat", "meta-llama/llama-3-8b")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if c.Provider() != "openrouter-compat" {
		t.Errorf("Provider() = %q", c.Provider())
	}
	text, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "done" {
		t.Errorf("Complete() = %q", text)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Errorf("Expected chat completions path, got %q", gotPath)
	}
	if gotAuth != "Bearer or_key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
}

func TestBindGoogleAlias(t *testing.T) {
	r := NewRegistry(Credentials{"GOOGLE_API_KEY": "test_api_key"})
	c, err := r.Bind("google", "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if c.Provider() != "gemini" {
		t.Fatalf("Expected google to resolve to gemini, got %s", c.Provider())
	}
}

func TestOpenAICompatibleComplete(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		_ = json.NewDecoder(req.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  short text \n"}}]}`))
	}))
	defer srv.Close()

	r := NewRegistry(Credentials{"OPENAI_API_KEY": "test_api_key", "OPENAI_BASE_URL": srv.URL})
	c, err := r.Bind("openai", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	text, err := c.Complete(context.Background(), "Summarize\n\nlong text")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "short text" {
		t.Errorf("Expected trimmed completion, got %q", text)
	}
	if gotAuth != "Bearer test_api_key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Model != "gpt-4o-mini" || len(gotBody.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
	if gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Content != "Summarize\n\nlong text" {
		t.Errorf("unexpected messages: %+v", gotBody.Messages)
	}
}

func TestOpenRouterRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit","code":429}}`))
	}))
	defer srv.Close()

	r := NewRegistry(Credentials{"OPENROUTER_API_KEY": "test_api_key", "OPENROUTER_BASE_URL": srv.URL})
	c, err := r.Bind("openrouter", "test_model")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	c.(*openRouterClient).initialDelay = 0

	_, err = c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error from rate limited API")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Expected provider message in error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != maxRetries {
		t.Errorf("Expected %d attempts, got %d", maxRetries, got)
	}
}

func TestOpenRouterProviderPreferences(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewDecoder(req.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	r := NewRegistry(Credentials{
		"OPENROUTER_API_KEY":   "test_api_key",
		"OPENROUTER_BASE_URL":  srv.URL,
		"OPENROUTER_PROVIDERS": "fireworks, together ,",
	})
	c, err := r.Bind("openrouter", "test_model")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	text, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("Expected ok, got %q", text)
	}
	if got.Provider == nil || len(got.Provider.Order) != 2 || got.Provider.Order[1] != "together" {
		t.Fatalf("unexpected provider preferences: %+v", got.Provider)
	}
	if got.Provider.AllowFallbacks == nil || *got.Provider.AllowFallbacks {
		t.Error("Expected fallbacks to be disabled")
	}
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if req.Header.Get("x-api-key") != "test_api_key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`))
			return
		}
		var body struct {
			Model  string `json:"model"`
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "claude-test" || len(body.System) != 1 || body.System[0].Text != SystemPreamble {
			t.Errorf("unexpected request %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",` +
			`"content":[{"type":"text","text":"Hello"},{"type":"text","text":" world"}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
	defer srv.Close()

	r := NewRegistry(Credentials{"ANTHROPIC_API_KEY": "test_api_key", "ANTHROPIC_BASE_URL": srv.URL})
	c, err := r.Bind("anthropic", "claude-test")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	text, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "Hello world" {
		t.Errorf("Expected joined text blocks, got %q", text)
	}

	bad := NewRegistry(Credentials{"ANTHROPIC_API_KEY": "wrong", "ANTHROPIC_BASE_URL": srv.URL})
	c, _ = bad.Bind("anthropic", "claude-test")
	_, err = c.Complete(context.Background(), "prompt")
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected authentication error, got %v", err)
	}
}

func TestCredentialsMergeAndNames(t *testing.T) {
	base := Credentials{"OPENAI_API_KEY": "a", "GROQ_API_KEY": "b"}
	merged := base.Merge(Credentials{"OPENAI_API_KEY": "c", "GROQ_API_KEY": " ", "XAI_API_KEY": "d"})

	if merged.Get("OPENAI_API_KEY") != "c" {
		t.Errorf("Expected override, got %q", merged.Get("OPENAI_API_KEY"))
	}
	if merged.Get("GROQ_API_KEY") != "b" {
		t.Errorf("Expected blank value not to override, got %q", merged.Get("GROQ_API_KEY"))
	}
	names := merged.Names()
	if strings.Join(names, ",") != "GROQ_API_KEY,OPENAI_API_KEY,XAI_API_KEY" {
		t.Errorf("unexpected names %v", names)
	}
	if base.Get("XAI_API_KEY") != "" {
		t.Error("Merge must not modify the receiver")
	}
}
