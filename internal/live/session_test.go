package live

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeConn struct {
	msgs chan *genai.LiveServerMessage

	mu   sync.Mutex
	sent [][]byte

	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan *genai.LiveServerMessage, 16)}
}

func (c *fakeConn) Receive() (*genai.LiveServerMessage, error) {
	msg, ok := <-c.msgs
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (c *fakeConn) SendRealtimeInput(in genai.LiveRealtimeInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, in.Media.Data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.msgs) })
	return nil
}

func (c *fakeConn) sentAudio() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func audioMessage(data []byte) *genai.LiveServerMessage {
	return &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: data}},
				},
			},
		},
	}
}

func TestSessionOutput(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)
	defer sess.Close()

	assert.Equal(t, StateOpen, sess.State())

	conn.msgs <- audioMessage([]byte{1, 2})
	// Non-audio parts are dropped.
	conn.msgs <- &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{{Text: "transcript"}},
			},
		},
	}
	conn.msgs <- audioMessage([]byte{3, 4})

	assert.Equal(t, []byte{1, 2}, <-sess.Output())
	assert.Equal(t, []byte{3, 4}, <-sess.Output())
}

func TestSessionSend(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)
	defer sess.Close()

	require.NoError(t, sess.Send(t.Context(), []byte{9, 9}))
	assert.Eventually(t, func() bool {
		sent := conn.sentAudio()
		return len(sent) == 1 && sent[0][0] == 9
	}, time.Second, time.Millisecond)
}

func TestSessionClose(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)

	require.NoError(t, sess.Close())
	assert.Equal(t, StateClosed, sess.State())

	// Output drains and closes.
	_, ok := <-sess.Output()
	assert.False(t, ok)

	assert.ErrorIs(t, sess.Send(t.Context(), []byte{1}), ErrClosed)

	// Closing again is a no-op.
	require.NoError(t, sess.Close())
}

func TestSessionCloseWithUndrainedOutput(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)

	// Overfill the output buffer with nothing draining it, so the receive
	// loop is blocked mid-send when Close runs.
	for i := range 32 {
		conn.msgs <- audioMessage([]byte{byte(i)})
	}
	assert.Eventually(t, func() bool { return len(sess.Output()) == cap(sess.Output()) }, time.Second, time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- sess.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return with an undrained output buffer")
	}
	assert.Equal(t, StateClosed, sess.State())
}

func TestSessionSendDuringClose(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := sess.Send(t.Context(), []byte{1}); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}()
	}

	require.NoError(t, sess.Close())
	wg.Wait()
}

func TestSessionBackendEnd(t *testing.T) {
	conn := newFakeConn()
	sess := newSession(t.Context(), conn)

	// The backend ending the stream closes the output channel.
	require.NoError(t, conn.Close())
	_, ok := <-sess.Output()
	assert.False(t, ok)

	require.NoError(t, sess.Close())
}
