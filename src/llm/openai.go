package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type openAIProvider struct {
	baseURL     string
	keyVar      string
	baseURLVar  string
	keyOptional bool
}

// Providers speaking the OpenAI chat-completions dialect. openrouter-compat
// skips the retries and provider routing of the native OpenRouter client.
var openAICompatible = map[string]openAIProvider{
	"openai":            {keyVar: "OPENAI_API_KEY", baseURLVar: "OPENAI_BASE_URL"},
	"ollama":            {baseURL: "http://localhost:11434/v1", keyVar: "OLLAMA_API_KEY", baseURLVar: "OLLAMA_BASE_URL", keyOptional: true},
	"groq":              {baseURL: "https://api.groq.com/openai/v1", keyVar: "GROQ_API_KEY", baseURLVar: "GROQ_BASE_URL"},
	"deepseek":          {baseURL: "https://api.deepseek.com/v1", keyVar: "DEEPSEEK_API_KEY", baseURLVar: "DEEPSEEK_BASE_URL"},
	"mistral":           {baseURL: "https://api.mistral.ai/v1", keyVar: "MISTRAL_API_KEY", baseURLVar: "MISTRAL_BASE_URL"},
	"xai":               {baseURL: "https://api.x.ai/v1", keyVar: "XAI_API_KEY", baseURLVar: "XAI_BASE_URL"},
	"openrouter-compat": {baseURL: "https://openrouter.ai/api/v1", keyVar: "OPENROUTER_API_KEY", baseURLVar: "OPENROUTER_BASE_URL"},
}

type openAIClient struct {
	client   *openai.Client
	provider string
	model    string
}

func newOpenAIClient(r *Registry, name string, p openAIProvider, model string) (Client, error) {
	key := r.creds.Get(p.keyVar)
	if key == "" {
		if !p.keyOptional {
			return nil, fmt.Errorf("%s: %w: set %s in the config 'keys' section or .env", name, ErrMissingCredential, p.keyVar)
		}
		key = name
	}

	cfg := openai.DefaultConfig(key)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if override := r.creds.Get(p.baseURLVar); override != "" {
		cfg.BaseURL = override
	}
	cfg.HTTPClient = r.httpClient

	return &openAIClient{
		client:   openai.NewClientWithConfig(cfg),
		provider: name,
		model:    model,
	}, nil
}

func (c *openAIClient) Provider() string { return c.provider }
func (c *openAIClient) Model() string    { return c.model }

func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPreamble},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.provider, ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
