package blob

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(t.Context(), option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, "modalchat-public")
}

func TestWrite(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "videos/a.mp4", "bucket": "modalchat-public"}`))
	})

	url, err := store.Write(t.Context(), "videos/a.mp4", "video/mp4", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/modalchat-public/videos/a.mp4", url)
}

func TestWriteCommitFailure(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	// The upload commits on the writer's Close; a rejected upload must not
	// yield a URL.
	url, err := store.Write(t.Context(), "videos/a.mp4", "video/mp4", []byte{1, 2, 3})
	require.Error(t, err)
	assert.Empty(t, url)
}
