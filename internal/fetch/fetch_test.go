package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherFetch(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("<html><h1>Hello</h1></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), nil)
	doc, err := f.Fetch(context.Background(), srv.URL+"/item", Request{
		Locale:     "nb-NO",
		UserAgents: []string{"test-agent"},
		Timeout:    time.Second,
	})

	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "<h1>Hello</h1>")
	assert.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "nb-NO,nb;q=0.9,en;q=0.8", gotLang)
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), nil)
	_, err := f.Fetch(context.Background(), srv.URL, Request{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), nil)
	_, err := f.Fetch(context.Background(), srv.URL, Request{Timeout: 50 * time.Millisecond})

	assert.Error(t, err)
}

func TestHTTPFetcherInvalidURL(t *testing.T) {
	f := NewHTTPFetcher(nil, nil)

	for _, raw := range []string{"", "ftp://example.com/x", "not a url", "https://"} {
		_, err := f.Fetch(context.Background(), raw, Request{})
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}
