package givebutter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	var gotCacheControl string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer upstream.Close()

	client, err := NewClient(ClientOptions{PageURL: upstream.URL})
	require.NoError(t, err)

	page, err := client.FetchPage(context.Background())
	require.NoError(t, err)
	require.Contains(t, page, "ok")
	require.Equal(t, "no-cache", gotCacheControl)
}

type recordingOutput struct {
	messages map[string]string
}

func (o *recordingOutput) Write(id string, contents string) {
	o.messages[id] = contents
}

func TestSetRestyInstrumentOutput(t *testing.T) {
	var gotCacheControl string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer upstream.Close()

	client, err := NewClient(ClientOptions{PageURL: upstream.URL})
	require.NoError(t, err)

	out := &recordingOutput{messages: map[string]string{}}
	client.SetRestyInstrumentOutput(out)

	page, err := client.FetchPage(context.Background())
	require.NoError(t, err)
	require.Contains(t, page, "ok")

	// the rebuilt client keeps its request headers
	require.Equal(t, "no-cache", gotCacheControl)
	require.Len(t, out.messages, 1)
	for _, contents := range out.messages {
		require.Contains(t, contents, "GET")
	}
}

func TestFetchPageUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	client, err := NewClient(ClientOptions{PageURL: upstream.URL})
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background())
	require.ErrorIs(t, err, ErrUpstreamError)
}

func TestFetchPageUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	link := upstream.URL
	upstream.Close()

	client, err := NewClient(ClientOptions{PageURL: link})
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnreachable)
}
