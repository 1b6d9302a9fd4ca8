// Package loader runs book searches off the interactive goroutine and keeps
// the last delivered result so a rebuilt presentation can pick it up again
// without another request.
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/atomic"

	"github.com/billmal071/booksearch/internal/books"
	"github.com/billmal071/booksearch/internal/logger"
)

// State is the lifecycle state of the loader slot
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateDelivered:
		return "delivered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is what a task delivers
type Result struct {
	Query string
	books.Response
}

// Task is one load of the slot
type Task struct {
	id     uint64
	query  string
	done   chan struct{}
	result Result
}

// ID increases with every task started by the same loader
func (t *Task) ID() uint64 { return t.id }

// Query returns the search terms of this task
func (t *Task) Query() string { return t.query }

// Done is closed once the task has a result
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx is done. A completed task
// always returns its result, even when ctx is already done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	default:
	}

	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Loader owns a single load slot
type Loader struct {
	searcher books.Searcher
	log      zerolog.Logger

	ctx       context.Context
	cancelAll context.CancelFunc

	seq        *atomic.Uint64
	lastStatus *atomic.Int64

	mu         sync.Mutex
	state      State
	latest     *Task
	cancelTask context.CancelFunc
	delivered  *Result
}

// New creates a loader. Tasks run under ctx, independent of any presentation.
func New(ctx context.Context, searcher books.Searcher) *Loader {
	ctx, cancel := context.WithCancel(ctx)
	return &Loader{
		searcher:   searcher,
		log:        logger.WithComponent("loader"),
		ctx:        ctx,
		cancelAll:  cancel,
		seq:        atomic.NewUint64(0),
		lastStatus: atomic.NewInt64(0),
	}
}

// Init starts the initial load, which carries no query and never touches the
// network. When the slot already holds a task, pending or delivered, that task
// is returned and nothing new is started.
func (l *Loader) Init() *Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest != nil {
		l.log.Debug().Uint64("task", l.latest.id).Msg("Reattaching to existing task")
		return l.latest
	}
	return l.startLocked("")
}

// Restart supersedes whatever the slot is doing with a search for query.
// The previous task is cancelled and its result will not be stored.
func (l *Loader) Restart(query string) *Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked(query)
}

func (l *Loader) startLocked(query string) *Task {
	if l.cancelTask != nil {
		l.cancelTask()
	}

	ctx, cancel := context.WithCancel(l.ctx)
	t := &Task{
		id:    l.seq.Inc(),
		query: query,
		done:  make(chan struct{}),
	}
	l.latest = t
	l.cancelTask = cancel
	l.state = StateLoading

	l.log.Info().Uint64("task", t.id).Str("query", query).Msg("Starting load")

	go l.run(ctx, cancel, t)
	return t
}

func (l *Loader) run(ctx context.Context, cancel context.CancelFunc, t *Task) {
	defer cancel()

	var res books.Response
	var pc panics.Catcher
	pc.Try(func() {
		res = l.searcher.Search(ctx, t.query)
	})
	if r := pc.Recovered(); r != nil {
		l.log.Error().Err(r.AsError()).Uint64("task", t.id).Msg("Search panicked")
		res = books.Response{Books: []books.Book{}}
	}

	t.result = Result{Query: t.query, Response: res}

	l.mu.Lock()
	current := l.latest == t
	if current {
		l.state = StateDelivered
		l.delivered = &t.result
		l.cancelTask = nil
		l.lastStatus.Store(int64(res.StatusCode))
	}
	l.mu.Unlock()

	if current {
		l.log.Info().Uint64("task", t.id).Int("books", len(res.Books)).Int("status", res.StatusCode).Msg("Delivered")
	} else {
		l.log.Debug().Uint64("task", t.id).Msg("Discarding superseded result")
	}

	close(t.done)
}

// Current returns the delivered result, if any
func (l *Loader) Current() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.delivered == nil {
		return Result{}, false
	}
	return *l.delivered, true
}

// Results returns the delivered books; nil when nothing was delivered or the
// parser produced nothing
func (l *Loader) Results() []books.Book {
	res, ok := l.Current()
	if !ok {
		return nil
	}
	return res.Books
}

// StatusCode returns the HTTP status of the last delivered result
func (l *Loader) StatusCode() int {
	return int(l.lastStatus.Load())
}

// State returns the slot state
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Latest returns the most recently started task, or nil
func (l *Loader) Latest() *Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// IsLatest reports whether t is the task the slot is currently tracking
func (l *Loader) IsLatest(t *Task) bool {
	if t == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest == t
}

// Reset drops the delivered data and returns the slot to idle. A running
// task is cancelled and its result discarded.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelTask != nil {
		l.cancelTask()
		l.cancelTask = nil
	}
	l.latest = nil
	l.delivered = nil
	l.state = StateIdle
	l.lastStatus.Store(0)
}

// Close cancels every task started by the loader
func (l *Loader) Close() {
	l.cancelAll()
}
