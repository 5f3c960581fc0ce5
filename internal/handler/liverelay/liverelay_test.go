package liverelay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioswitch/modalchat/internal/fault"
)

type fakeSession struct {
	mu   sync.Mutex
	sent [][]byte

	out       chan []byte
	closeOnce sync.Once
}

func newFakeSession(output ...[]byte) *fakeSession {
	s := &fakeSession{out: make(chan []byte, 16)}
	for _, audio := range output {
		s.out <- audio
	}
	return s
}

func (s *fakeSession) Send(_ context.Context, audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, audio)
	return nil
}

func (s *fakeSession) Output() <-chan []byte {
	return s.out
}

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() { close(s.out) })
	return nil
}

func (s *fakeSession) sentAudio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []byte
	for _, audio := range s.sent {
		all = append(all, audio...)
	}
	return all
}

func TestRelay(t *testing.T) {
	sess := newFakeSession([]byte("model-audio-1"), []byte("model-audio-2"))
	h := NewHandler(func(_ context.Context) (Session, error) {
		return sess, nil
	})

	srv := httptest.NewServer(http.HandlerFunc(h.Relay))
	t.Cleanup(srv.Close)

	res, err := http.Post(srv.URL, "application/octet-stream", bytes.NewReader([]byte("client-pcm")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("model-audio-1model-audio-2"), body)
	assert.Equal(t, []byte("client-pcm"), sess.sentAudio())
}

func TestRelayDialFailure(t *testing.T) {
	h := NewHandler(func(_ context.Context) (Session, error) {
		return nil, fault.New(fault.KindUpstream, "live connect failed")
	})

	srv := httptest.NewServer(http.HandlerFunc(h.Relay))
	t.Cleanup(srv.Close)

	res, err := http.Post(srv.URL, "application/octet-stream", bytes.NewReader([]byte("client-pcm")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}
