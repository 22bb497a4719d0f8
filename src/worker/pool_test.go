package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clipboard-buddy/src/history"
	"clipboard-buddy/src/messages"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (m *memRecorder) Record(ctx context.Context, e *history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return m.err
}

func submitAndWait(t *testing.T, p *Pool, j Job) messages.CompletionResult {
	t.Helper()
	done := make(chan messages.CompletionResult, 2)
	if !p.Submit(context.Background(), j, func(res messages.CompletionResult) { done <- res }) {
		t.Fatal("Submit refused")
	}
	select {
	case res := <-done:
		select {
		case extra := <-done:
			t.Fatalf("callback invoked twice: %+v", extra)
		case <-time.After(20 * time.Millisecond):
		}
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	return messages.CompletionResult{}
}

func TestPoolSuccess(t *testing.T) {
	rec := &memRecorder{}
	p := New(1, rec)
	defer p.Close()

	var gotPrompt string
	res := submitAndWait(t, p, Job{
		ID:     "req-1",
		Action: "Summarize",
		Prompt: "Summarize\n\ntext",
		Paste:  true,
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return "short", nil
		}),
	})

	if res.Err != nil || res.Text != "short" || !res.Paste || res.RequestID != "req-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotPrompt != "Summarize\n\ntext" {
		t.Errorf("unexpected prompt %q", gotPrompt)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.entries) != 1 || !rec.entries[0].Success || rec.entries[0].Output != "short" {
		t.Errorf("unexpected history %+v", rec.entries)
	}
}

func TestPoolFailureAndRecorderError(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	p := New(1, rec)
	defer p.Close()

	res := submitAndWait(t, p, Job{
		ID: "req-2",
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("rate limited")
		}),
	})
	if res.Err == nil || res.Err.Error() != "rate limited" {
		t.Fatalf("Expected provider error, got %+v", res)
	}
	if len(rec.entries) != 1 || rec.entries[0].Error != "rate limited" {
		t.Errorf("Expected failure to be recorded, got %+v", rec.entries)
	}
}

func TestPoolRecoversPanic(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	res := submitAndWait(t, p, Job{
		ID: "req-3",
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			panic("boom")
		}),
	})
	if res.Err == nil {
		t.Fatal("Expected panic to become a failure")
	}

	// the worker must survive the panic
	res = submitAndWait(t, p, Job{
		ID: "req-4",
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "ok", nil
		}),
	})
	if res.Err != nil || res.Text != "ok" {
		t.Fatalf("Expected pool to keep working, got %+v", res)
	}
}

func TestPoolNilCompleter(t *testing.T) {
	p := New(1, nil)
	defer p.Close()
	if res := submitAndWait(t, p, Job{ID: "x", Action: "A"}); res.Err == nil {
		t.Fatal("Expected error for job without completer")
	}
}

func TestPoolDeadline(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	res := submitAndWait(t, p, Job{
		ID:       "slow",
		Deadline: 20 * time.Millisecond,
		Completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	})
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", res.Err)
	}
}

func TestPoolBackPressure(t *testing.T) {
	p := New(1, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	block := completerFunc(func(ctx context.Context, prompt string) (string, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return "", nil
	})
	noop := func(messages.CompletionResult) {}

	if !p.Submit(context.Background(), Job{ID: "1", Completer: block}, noop) {
		t.Fatal("first submit refused")
	}
	<-started
	if !p.Submit(context.Background(), Job{ID: "2", Completer: block}, noop) {
		t.Fatal("second submit should fill the queue slot")
	}
	if p.Submit(context.Background(), Job{ID: "3", Completer: block}, noop) {
		t.Fatal("third submit should be refused while the queue is full")
	}
	close(release)
	p.Close()
}

func TestNewDefaultSize(t *testing.T) {
	p := New(0, nil)
	defer p.Close()
	if p.Size() <= 0 {
		t.Errorf("Expected positive default size, got %d", p.Size())
	}
}
