package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clipboard-buddy/src/llm"
	"clipboard-buddy/src/session"
)

// PromptSeparator sits between the prompt template and the clipboard text.
const PromptSeparator = "\n\n"

// ErrNotCompiled is returned when an action is triggered before its catalog compiled.
var ErrNotCompiled = errors.New("action not compiled")

// Spec is the configured shape of one action.
type Spec struct {
	Label    string
	Prompt   string
	Key      string
	Model    string
	Provider string
	Paste    *bool
}

// Binder resolves a provider/model pair to a completion client.
type Binder interface {
	Bind(provider, model string) (llm.Client, error)
}

// Action is a configured clipboard transformation.
type Action struct {
	Label    string
	Prompt   string
	Key      string
	Model    string
	Provider string
	Paste    bool

	client llm.Client
}

// BuildPrompt joins the template and the input with PromptSeparator.
func BuildPrompt(template, input string) string {
	return template + PromptSeparator + input
}

// ButtonText is the label shown on the action's button, prefixed with its key.
func (a *Action) ButtonText() string {
	if a.Key == "" {
		return a.Label
	}
	return "[" + a.Key + "] " + a.Label
}

// Compiled reports whether the action has a bound client.
func (a *Action) Compiled() bool { return a.client != nil }

// Client returns the bound client, or nil when the action is not compiled.
func (a *Action) Client() llm.Client { return a.client }

// Complete runs the action's prompt against input.
func (a *Action) Complete(ctx context.Context, input string) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("%s: %w", a.Label, ErrNotCompiled)
	}
	return a.client.Complete(ctx, BuildPrompt(a.Prompt, input))
}

// CompileError reports the action that failed to bind.
type CompileError struct {
	Label string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile action %q: %v", e.Label, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Catalog is the ordered list of configured actions.
type Catalog struct {
	actions  []*Action
	compiled bool
}

// New validates specs and builds an uncompiled catalog in declaration order.
func New(specs []Spec) (*Catalog, error) {
	c := &Catalog{actions: make([]*Action, 0, len(specs))}
	for i, s := range specs {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			return nil, fmt.Errorf("action #%d: label is required", i+1)
		}
		if strings.TrimSpace(s.Prompt) == "" {
			return nil, fmt.Errorf("action %q: prompt is required", label)
		}
		key, err := NormalizeKey(s.Key)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", label, err)
		}
		paste := true
		if s.Paste != nil {
			paste = *s.Paste
		}
		c.actions = append(c.actions, &Action{
			Label:    label,
			Prompt:   s.Prompt,
			Key:      key,
			Model:    strings.TrimSpace(s.Model),
			Provider: strings.ToLower(strings.TrimSpace(s.Provider)),
			Paste:    paste,
		})
	}
	return c, nil
}

// NormalizeKey upper-cases a single key name. Empty means no key binding.
func NormalizeKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if strings.ContainsAny(key, "+ ") {
		return "", fmt.Errorf("invalid key %q: expected a single key name", key)
	}
	return key, nil
}

// Compile binds every action through b. The first failure leaves the whole
// catalog uncompiled.
func (c *Catalog) Compile(b Binder) error {
	clients := make([]llm.Client, len(c.actions))
	for i, a := range c.actions {
		client, err := b.Bind(a.Provider, a.Model)
		if err != nil {
			return &CompileError{Label: a.Label, Err: err}
		}
		clients[i] = client
	}
	for i, a := range c.actions {
		a.client = clients[i]
	}
	c.compiled = true
	return nil
}

// Compiled reports whether Compile succeeded.
func (c *Catalog) Compiled() bool { return c.compiled }

// Actions returns the actions in declaration order.
func (c *Catalog) Actions() []*Action { return c.actions }

// Len returns the number of actions.
func (c *Catalog) Len() int { return len(c.actions) }

// Find returns the action with the given label, case-insensitively.
func (c *Catalog) Find(label string) (*Action, bool) {
	for _, a := range c.actions {
		if strings.EqualFold(a.Label, strings.TrimSpace(label)) {
			return a, true
		}
	}
	return nil, false
}

// MatchKey returns the first action, in declaration order, bound to one of keys.
func (c *Catalog) MatchKey(keys []string) (int, bool) {
	if len(keys) == 0 {
		return -1, false
	}
	for i, a := range c.actions {
		if a.Key == "" {
			continue
		}
		for _, k := range keys {
			if strings.EqualFold(a.Key, k) {
				return i, true
			}
		}
	}
	return -1, false
}

// Views returns the render view of every action.
func (c *Catalog) Views() []session.ActionView {
	views := make([]session.ActionView, len(c.actions))
	for i, a := range c.actions {
		views[i] = session.ActionView{Label: a.Label, Key: a.Key, ButtonText: a.ButtonText()}
	}
	return views
}
