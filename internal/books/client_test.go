package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		query    string
		expected string
	}{
		{"spaces removed", "https://www.googleapis.com/books/v1/volumes", "the hobbit", "https://www.googleapis.com/books/v1/volumes?q=thehobbit"},
		{"escaped", "https://www.googleapis.com/books/v1/volumes", "c++ & go", "https://www.googleapis.com/books/v1/volumes?q=c%2B%2B%26go"},
		{"field prefix", "https://www.googleapis.com/books/v1/volumes", "inauthor:tolkien", "https://www.googleapis.com/books/v1/volumes?q=inauthor%3Atolkien"},
		{"keeps base params", "http://localhost:8080/volumes?key=abc", "dune", "http://localhost:8080/volumes?key=abc&q=dune"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryURL(tt.base, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQueryURLInvalidBase(t *testing.T) {
	for _, base := range []string{"", "www.googleapis.com/books", "::", "mailto:x@y"} {
		_, err := QueryURL(base, "dune")
		assert.Error(t, err, base)
	}
}

func newCountingServer(t *testing.T, status int, body string) (*httptest.Server, *int32, *atomic.Value) {
	t.Helper()
	var hits int32
	var lastQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		lastQuery.Store(r.URL.Query().Get("q"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, &lastQuery
}

func TestClientSearchOK(t *testing.T) {
	srv, hits, lastQuery := newCountingServer(t, http.StatusOK, duneJSON)

	resp := NewClient(srv.URL+"/volumes", nil).Search(context.Background(), "dune messiah")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "Dune", resp.Books[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, "dunemessiah", lastQuery.Load())
}

func TestClientSearchNonOKSkipsParsing(t *testing.T) {
	// A parseable body on a 500 must still produce no books
	srv, _, _ := newCountingServer(t, http.StatusInternalServerError, duneJSON)

	resp := NewClient(srv.URL, nil).Search(context.Background(), "dune")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotNil(t, resp.Books)
	assert.Empty(t, resp.Books)
}

func TestClientSearchEmptyQuerySkipsNetwork(t *testing.T) {
	srv, hits, _ := newCountingServer(t, http.StatusOK, duneJSON)
	c := NewClient(srv.URL, nil)

	for _, q := range []string{"", "   "} {
		resp := c.Search(context.Background(), q)
		assert.Equal(t, 0, resp.StatusCode)
		assert.NotNil(t, resp.Books)
		assert.Empty(t, resp.Books)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClientSearchMalformedBase(t *testing.T) {
	resp := NewClient("not a url", nil).Search(context.Background(), "dune")
	assert.Equal(t, 0, resp.StatusCode)
	assert.Empty(t, resp.Books)
}

func TestClientSearchNoMatches(t *testing.T) {
	srv, _, _ := newCountingServer(t, http.StatusOK, `{"kind":"books#volumes","totalItems":0}`)

	resp := NewClient(srv.URL, nil).Search(context.Background(), "zzzzqqqq")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, resp.Books)
	assert.Empty(t, resp.Books)
}

func TestCoverURL(t *testing.T) {
	b := Book{ThumbnailURL: "http://books.google.com/books/content?id=x&printsec=frontcover&img=1&zoom=5&edge=curl&source=gbs_api"}
	assert.Equal(t, "http://books.google.com/books/content?id=x&printsec=frontcover&img=1&zoom=5&source=gbs_api", b.CoverURL())
}
