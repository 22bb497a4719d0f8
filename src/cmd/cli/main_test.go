package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"clipboard-buddy/src/actions"
	"clipboard-buddy/src/history"
	"clipboard-buddy/src/llm"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"clipbud-cli", "run", "-action", "Summarize", "-file", "/tmp/in.txt", "-json"},
			out:  []string{"clipbud-cli", "run", "--action", "Summarize", "--file", "/tmp/in.txt", "--json"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"clipbud-cli", "history", "-limit=5", "-config=/tmp/c.yml"},
			out:  []string{"clipbud-cli", "history", "--limit=5", "--config=/tmp/c.yml"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"clipbud-cli", "run", "-a", "X", "--file", "-"},
			out:  []string{"clipbud-cli", "run", "-a", "X", "--file", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if !reflect.DeepEqual(got, tt.out) {
				t.Fatalf("Expected %q, got %q", tt.out, got)
			}
		})
	}
}

func TestRunCmdParsesFlags(t *testing.T) {
	opts := &cliOptions{}
	root := newRootCmd(opts)
	runCmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if err := runCmd.ParseFlags([]string{"--action", "Summarize", "--json", "--deadline", "5s"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if opts.action != "Summarize" || !opts.jsonOutput || opts.deadline != 5*time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.filePath != "-" {
		t.Errorf("Expected stdin by default, got %q", opts.filePath)
	}
}

func TestRunRequiresAction(t *testing.T) {
	err := runWithArgs([]string{"clipbud-cli", "run"})
	if err == nil || !strings.Contains(err.Error(), "action") {
		t.Fatalf("Expected missing --action error, got %v", err)
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(file, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte(" \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, err := readInput("-", strings.NewReader("from stdin")); err != nil || got != "from stdin" {
		t.Errorf("stdin: got %q, %v", got, err)
	}
	if got, err := readInput(file, nil); err != nil || got != "from file" {
		t.Errorf("file: got %q, %v", got, err)
	}
	if _, err := readInput(blank, nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if _, err := readInput(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("Expected error for missing file")
	}
	big := strings.NewReader(strings.Repeat("x", maxFileSize+10))
	if _, err := readInput("-", big); err == nil || !strings.Contains(err.Error(), "maximum size") {
		t.Errorf("Expected size error, got %v", err)
	}
}

type echoClient struct {
	err error
}

func (c echoClient) Complete(_ context.Context, prompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return strings.ToUpper(prompt), nil
}
func (echoClient) Provider() string { return "stub" }
func (echoClient) Model() string    { return "echo" }

type echoBinder struct{ err error }

func (b echoBinder) Bind(provider, model string) (llm.Client, error) {
	return echoClient{err: b.err}, nil
}

type memRecorder struct {
	entries []history.Entry
}

func (m *memRecorder) Record(_ context.Context, e *history.Entry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func newCatalog(t *testing.T, b actions.Binder) *actions.Catalog {
	t.Helper()
	c, err := actions.New([]actions.Spec{{Label: "Shout", Prompt: "shout", Provider: "stub", Model: "echo"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(b); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunAction(t *testing.T) {
	rec := &memRecorder{}
	res, err := runAction(context.Background(), newCatalog(t, echoBinder{}), rec, "shout", "hello")
	if err != nil {
		t.Fatalf("runAction failed: %v", err)
	}
	if res.Text != "SHOUT\n\nHELLO" || res.Action != "Shout" || res.CharCount != len(res.Text) {
		t.Errorf("unexpected result %+v", res)
	}
	if len(rec.entries) != 1 || !rec.entries[0].Success || rec.entries[0].InputChars != 5 {
		t.Errorf("unexpected history %+v", rec.entries)
	}

	if _, err := runAction(context.Background(), newCatalog(t, echoBinder{}), nil, "whisper", "x"); err == nil {
		t.Error("Expected unknown action error")
	}
}

func TestRunActionFailureIsRecorded(t *testing.T) {
	rec := &memRecorder{}
	_, err := runAction(context.Background(), newCatalog(t, echoBinder{err: errors.New("quota")}), rec, "Shout", "hi")
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("Expected provider error, got %v", err)
	}
	if len(rec.entries) != 1 || rec.entries[0].Success || rec.entries[0].Error == "" {
		t.Errorf("Expected failed entry, got %+v", rec.entries)
	}
}

func TestOutputResult(t *testing.T) {
	res := ActionResult{Text: "done", Action: "Shout", Provider: "stub", Model: "echo", CharCount: 4}

	var plain bytes.Buffer
	if err := outputResult(&plain, res, false); err != nil || plain.String() != "done" {
		t.Errorf("plain output = %q, %v", plain.String(), err)
	}

	var js bytes.Buffer
	if err := outputResult(&js, res, true); err != nil {
		t.Fatalf("json output failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, field := range []string{"text", "action", "provider", "model", "timestamp", "duration_seconds", "character_count"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("JSON missing field %q", field)
		}
	}
}

func TestPrintHistory(t *testing.T) {
	entries := []history.Entry{
		{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Action: "Shout", Provider: "stub", Model: "echo", Success: true, LatencyMs: 12},
		{Timestamp: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), Action: "Shout", Provider: "stub", Model: "echo", Error: "quota"},
	}
	var out bytes.Buffer
	if err := printHistory(&out, entries, false); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.HasPrefix(text, "TIME") || !strings.Contains(text, "failed: quota") || !strings.Contains(text, "12ms") {
		t.Errorf("unexpected table:\n%s", text)
	}

	out.Reset()
	if err := printHistory(&out, entries, true); err != nil {
		t.Fatal(err)
	}
	var records []historyRecord
	if err := json.Unmarshal(out.Bytes(), &records); err != nil || len(records) != 2 {
		t.Fatalf("unexpected JSON %q: %v", out.String(), err)
	}
}

type fakeSender struct {
	delegated bool
	verb      string
	err       error
}

func (f *fakeSender) Send(_ context.Context, verb string) (bool, string, error) {
	f.verb = verb
	return f.delegated, "OK", f.err
}

func TestSendCommand(t *testing.T) {
	var out bytes.Buffer
	client := &fakeSender{delegated: true}
	if err := sendCommand(context.Background(), client, "show", &out); err != nil {
		t.Fatalf("sendCommand failed: %v", err)
	}
	if client.verb != "SHOW" || strings.TrimSpace(out.String()) != "OK" {
		t.Errorf("unexpected verb %q / output %q", client.verb, out.String())
	}

	if err := sendCommand(context.Background(), &fakeSender{}, "quit", &out); err == nil {
		t.Error("Expected error when no resident is running")
	}
}
