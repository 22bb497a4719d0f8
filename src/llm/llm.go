package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// SystemPreamble is sent with every completion so the reply can be pasted as is.
const SystemPreamble = "You are a text transformation tool. The user message starts with an " +
	"instruction, followed by a blank line and the text to transform. " +
	"Return ONLY the transformed text with no explanations, no preamble and no " +
	"markdown code fences unless the instruction asks for them."

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingCredential = errors.New("missing credential")
	ErrEmptyModel        = errors.New("model is required")
	ErrEmptyResponse     = errors.New("no choices in API response")
)

// Client performs completions against one provider/model pair.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// Credentials holds provider secrets and endpoint overrides keyed by their
// conventional environment-variable names (OPENAI_API_KEY, OLLAMA_BASE_URL, ...).
// Values come from the config file and .env; the process environment is never modified.
type Credentials map[string]string

func (c Credentials) Get(name string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[name])
}

// Merge returns a copy of c with other's non-empty values layered on top.
func (c Credentials) Merge(other Credentials) Credentials {
	out := make(Credentials, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Names returns the credential names that are set, sorted, for logging.
func (c Credentials) Names() []string {
	names := make([]string, 0, len(c))
	for k, v := range c {
		if strings.TrimSpace(v) != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

type factory func(r *Registry, model string) (Client, error)

// Registry binds (provider, model) pairs to live clients.
type Registry struct {
	creds      Credentials
	httpClient *http.Client
	factories  map[string]factory
}

// NewRegistry creates a registry with the built-in providers.
func NewRegistry(creds Credentials) *Registry {
	r := &Registry{
		creds:      creds,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		factories:  map[string]factory{},
	}
	for name, p := range openAICompatible {
		r.factories[name] = func(r *Registry, model string) (Client, error) {
			return newOpenAIClient(r, name, p, model)
		}
	}
	r.factories["openrouter"] = newOpenRouterClient
	r.factories["gemini"] = newGeminiClient
	r.factories["google"] = newGeminiClient
	r.factories["anthropic"] = newAnthropicClient
	return r
}

// Providers lists the provider IDs the registry can bind.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind returns a client for provider/model or a configuration error.
func (r *Registry) Bind(provider, model string) (Client, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	f, ok := r.factories[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if model == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrEmptyModel)
	}
	return f(r, model)
}

func (r *Registry) requireKey(provider string, names ...string) (string, error) {
	for _, name := range names {
		if v := r.creds.Get(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %w: set %s in the config 'keys' section or .env", provider, ErrMissingCredential, strings.Join(names, " or "))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
