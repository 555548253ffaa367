// Package jobmgr runs named background jobs with cancellation. The bot keeps
// one registration-sync job per guild: a newer refresh replaces the running
// one instead of racing it.
//
//	jm := jobmgr.New(ctx, func(ev jobmgr.Event) { log.Info().Str("job", ev.Job).Msg(string(ev.State)) })
//	_ = jm.Start("sync:123", func(ctx context.Context) error { return sync(ctx) })
//	defer jm.Shutdown(context.Background())
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrRunning is returned by Start when a job with the same name is active.
var ErrRunning = errors.New("job already running")

// ErrNotRunning is returned by Stop for unknown names.
var ErrNotRunning = errors.New("job not running")

// State is a job lifecycle stage.
type State string

const (
	Running   State = "running"
	Done      State = "done"
	Failed    State = "failed"
	Cancelled State = "cancelled"
)

// Event is delivered to the reporter on every state change.
type Event struct {
	Job   string
	State State
	Err   error
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks running jobs. It is safe for concurrent use.
type Manager struct {
	base   context.Context
	report func(Event)

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// New returns a manager whose jobs derive from ctx. report may be nil.
func New(ctx context.Context, report func(Event)) *Manager {
	return &Manager{base: ctx, report: report, jobs: make(map[string]*job)}
}

// Start runs fn in a new goroutine under name.
func (m *Manager) Start(name string, fn func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrRunning)
	}
	m.launch(name, nil, fn)
	return nil
}

// Replace cancels a running job of the same name, waits for it to return and
// then runs fn. It never fails.
func (m *Manager) Replace(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev <-chan struct{}
	if old, ok := m.jobs[name]; ok {
		old.cancel()
		prev = old.done
	}
	m.launch(name, prev, fn)
}

// launch must be called with m.mu held.
func (m *Manager) launch(name string, prev <-chan struct{}, fn func(context.Context) error) {
	ctx, cancel := context.WithCancel(m.base)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		if prev != nil {
			<-prev
		}
		err := ctx.Err()
		if err == nil {
			m.emit(Event{Job: name, State: Running})
			err = fn(ctx)
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()

		switch {
		case err == nil:
			m.emit(Event{Job: name, State: Done})
		case errors.Is(err, context.Canceled):
			m.emit(Event{Job: name, State: Cancelled, Err: err})
		default:
			m.emit(Event{Job: name, State: Failed, Err: err})
		}
	}()
}

// Stop cancels a job by name without waiting for it.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotRunning)
	}
	j.cancel()
	return nil
}

// Running returns the active job names, sorted.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Status is a one-line summary for operators.
func (m *Manager) Status() string {
	active := m.Running()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(active, ", ")
}

// Shutdown cancels every job and waits for them to return or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) emit(ev Event) {
	if m.report != nil {
		m.report(ev)
	}
}
