package bing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrunoDobem/dowloadimg/pkg/retry"
)

func testClient(serverURL string, maxRetries int) *Client {
	return NewClient(Options{
		URLTemplate:    serverURL + "/images/search?q=%s",
		UserAgent:      "test-agent",
		AcceptLanguage: "en-US",
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		Backoff:        &retry.ConstantBackoff{Delay: time.Millisecond},
	})
}

func TestSearchURLEncodesQuery(t *testing.T) {
	c := testClient("https://search.example", 1)
	assert.Equal(t, "https://search.example/images/search?q=cats+%26+dogs", c.SearchURL("cats & dogs"))
}

func TestSearchHTMLReturnsBody(t *testing.T) {
	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>results</html>"))
	}))
	defer server.Close()

	html, err := testClient(server.URL, 1).SearchHTML(context.Background(), "orange cats")
	require.NoError(t, err)

	assert.Equal(t, "<html>results</html>", html)
	assert.Equal(t, "orange cats", gotQuery)
	assert.Equal(t, "test-agent", gotUA)
}

func TestSearchHTMLRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	html, err := testClient(server.URL, 5).SearchHTML(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, "ok", html)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchHTMLFailsAfterRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 2).SearchHTML(context.Background(), "cats")
	assert.Error(t, err)
}

func TestSearchHTMLNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := testClient(server.URL, 1).SearchHTML(context.Background(), "cats")
	assert.Error(t, err)
}
