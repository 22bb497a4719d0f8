package worker

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"clipboard-buddy/src/history"
	"clipboard-buddy/src/logutil"
	"clipboard-buddy/src/messages"
)

// DefaultDeadline bounds a completion when the job carries none.
const DefaultDeadline = 60 * time.Second

// Completer performs one model call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recorder stores completion outcomes. Failures are logged, never surfaced.
type Recorder interface {
	Record(ctx context.Context, e *history.Entry) error
}

// ResultCallback is invoked exactly once per job (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(res messages.CompletionResult)

// Job is a single completion request.
type Job struct {
	ID        string
	Action    string
	Provider  string
	Model     string
	Prompt    string
	InputLen  int
	Paste     bool
	Deadline  time.Duration
	Completer Completer
}

// Pool is a fixed-size completion worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs     chan job
	wg       sync.WaitGroup
	size     int
	recorder Recorder
}

type job struct {
	ctx context.Context
	Job
	cb ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
// rec may be nil.
func New(size int, rec Recorder) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), size: size, recorder: rec}
	p.start(size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: starting %s (%s/%s) request=%s", j.Action, j.Provider, j.Model, j.ID)
				res := p.run(j)
				log.Printf("Worker: completed request=%s, text length=%d, err=%v", j.ID, len(res.Text), res.Err)
				j.cb(res)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, j Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, Job: j, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) run(j job) messages.CompletionResult {
	deadline := j.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(j.ctx, deadline)
	defer cancel()

	start := time.Now()
	text, err := complete(ctx, j.Job)
	p.record(j.Job, text, err, time.Since(start))

	return messages.CompletionResult{RequestID: j.ID, Text: text, Paste: j.Paste, Err: err}
}

// complete calls the completer, converting a panic into an error.
func complete(ctx context.Context, j Job) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: recovered panic in request=%s: %v", j.ID, r)
			text, err = "", fmt.Errorf("internal error: %v", r)
		}
	}()
	if j.Completer == nil {
		return "", fmt.Errorf("no completer for action %q", j.Action)
	}
	return j.Completer.Complete(ctx, j.Prompt)
}

func (p *Pool) record(j Job, text string, err error, latency time.Duration) {
	if p.recorder == nil {
		return
	}
	e := &history.Entry{
		RequestID:  j.ID,
		Action:     j.Action,
		Provider:   j.Provider,
		Model:      j.Model,
		InputChars: j.InputLen,
		Output:     text,
		LatencyMs:  latency.Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rerr := p.recorder.Record(ctx, e); rerr != nil {
		log.Printf("Worker: failed to record history for request=%s: %v", j.ID, rerr)
		return
	}
	log.Printf("Worker: recorded request=%s output=%s", j.ID, logutil.Sanitize(text))
}
