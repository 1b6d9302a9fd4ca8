package loader

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmal071/booksearch/internal/books"
)

// fakeSearcher answers from a table. Queries listed in gates block until
// their gate is closed.
type fakeSearcher struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]books.Response
	gates     map[string]chan struct{}
	cancelled map[string]bool
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		responses: map[string]books.Response{},
		gates:     map[string]chan struct{}{},
		cancelled: map[string]bool{},
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string) books.Response {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	gate := f.gates[query]
	resp, ok := f.responses[query]
	f.mu.Unlock()

	if gate != nil {
		<-gate
		if ctx.Err() != nil {
			f.mu.Lock()
			f.cancelled[query] = true
			f.mu.Unlock()
		}
	}
	if query == "panic" {
		panic("boom")
	}
	if !ok {
		return books.Response{Books: []books.Book{}}
	}
	return resp
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitTask(t *testing.T, task *Task) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}

var dune = books.Book{Title: "Dune", Authors: []string{}, Rating: books.Unknown, RatingsCount: books.Unknown, InfoURL: "http://x", ThumbnailURL: "http://y"}

func TestRestartDelivers(t *testing.T) {
	s := newFakeSearcher()
	s.responses["dune"] = books.Response{Books: []books.Book{dune}, StatusCode: http.StatusOK}

	l := New(context.Background(), s)
	defer l.Close()

	assert.Equal(t, StateIdle, l.State())
	assert.Nil(t, l.Results())

	task := l.Restart("dune")
	res := waitTask(t, task)

	assert.Equal(t, "dune", res.Query)
	assert.Equal(t, []books.Book{dune}, res.Books)
	assert.Equal(t, StateDelivered, l.State())
	assert.Equal(t, []books.Book{dune}, l.Results())
	assert.Equal(t, http.StatusOK, l.StatusCode())

	current, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, res, current)
}

func TestInitUsesEmptyQuery(t *testing.T) {
	s := newFakeSearcher()
	l := New(context.Background(), s)
	defer l.Close()

	res := waitTask(t, l.Init())
	assert.Equal(t, "", res.Query)
	assert.Empty(t, res.Books)
	assert.Equal(t, 0, l.StatusCode())
	assert.Equal(t, StateDelivered, l.State())
}

func TestInitReattachesWithoutNewSearch(t *testing.T) {
	s := newFakeSearcher()
	s.responses["dune"] = books.Response{Books: []books.Book{dune}, StatusCode: http.StatusOK}

	l := New(context.Background(), s)
	defer l.Close()

	first := l.Restart("dune")
	waitTask(t, first)
	require.Equal(t, 1, s.callCount())

	// A rebuilt presentation calls Init again
	again := l.Init()
	assert.Same(t, first, again)
	res := waitTask(t, again)
	assert.Equal(t, []books.Book{dune}, res.Books)
	assert.Equal(t, 1, s.callCount())
}

func TestInitReattachesToPendingTask(t *testing.T) {
	s := newFakeSearcher()
	gate := make(chan struct{})
	s.gates["slow"] = gate

	l := New(context.Background(), s)
	defer l.Close()

	pending := l.Restart("slow")
	assert.Equal(t, StateLoading, l.State())
	assert.Same(t, pending, l.Init())

	close(gate)
	waitTask(t, pending)
	assert.Equal(t, 1, s.callCount())
}

func TestRestartSupersedesPreviousTask(t *testing.T) {
	s := newFakeSearcher()
	oldGate := make(chan struct{})
	s.gates["old"] = oldGate
	s.responses["old"] = books.Response{Books: []books.Book{{Title: "Old"}}, StatusCode: http.StatusInternalServerError}
	s.responses["new"] = books.Response{Books: []books.Book{dune}, StatusCode: http.StatusOK}

	l := New(context.Background(), s)
	defer l.Close()

	oldTask := l.Restart("old")
	newTask := l.Restart("new")
	assert.Greater(t, newTask.ID(), oldTask.ID())
	assert.False(t, l.IsLatest(oldTask))
	assert.True(t, l.IsLatest(newTask))

	waitTask(t, newTask)
	close(oldGate)
	oldRes := waitTask(t, oldTask)

	// The stale task still completes for its waiters...
	assert.Equal(t, "old", oldRes.Query)
	// ...but never replaces what the slot delivered
	assert.Equal(t, []books.Book{dune}, l.Results())
	assert.Equal(t, http.StatusOK, l.StatusCode())

	s.mu.Lock()
	assert.True(t, s.cancelled["old"])
	s.mu.Unlock()
}

func TestSearcherPanicDeliversEmpty(t *testing.T) {
	l := New(context.Background(), newFakeSearcher())
	defer l.Close()

	res := waitTask(t, l.Restart("panic"))
	assert.NotNil(t, res.Books)
	assert.Empty(t, res.Books)
	assert.Equal(t, 0, res.StatusCode)
	assert.Equal(t, StateDelivered, l.State())
}

func TestResetDropsResults(t *testing.T) {
	s := newFakeSearcher()
	s.responses["dune"] = books.Response{Books: []books.Book{dune}, StatusCode: http.StatusOK}

	l := New(context.Background(), s)
	defer l.Close()

	waitTask(t, l.Restart("dune"))
	l.Reset()

	assert.Equal(t, StateIdle, l.State())
	assert.Nil(t, l.Results())
	assert.Nil(t, l.Latest())
	assert.Equal(t, 0, l.StatusCode())
	_, ok := l.Current()
	assert.False(t, ok)
}

func TestWaitHonoursContext(t *testing.T) {
	s := newFakeSearcher()
	gate := make(chan struct{})
	s.gates["slow"] = gate
	defer close(gate)

	l := New(context.Background(), s)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Restart("slow").Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "delivered", StateDelivered.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestWaitPrefersCompletedResult(t *testing.T) {
	s := newFakeSearcher()
	s.responses["dune"] = books.Response{Books: []books.Book{dune}, StatusCode: http.StatusOK}

	l := New(context.Background(), s)
	defer l.Close()

	task := l.Restart("dune")
	waitTask(t, task)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 200; i++ {
		res, err := task.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dune", res.Query)
	}
}
