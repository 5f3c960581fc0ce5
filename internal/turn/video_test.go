package turn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/llm"
)

type fakeCredHost struct {
	selected  bool
	prompts   int
	promptErr error
}

func (h *fakeCredHost) HasSelectedCredential() bool { return h.selected }

func (h *fakeCredHost) OpenCredentialSelector(_ context.Context) error {
	h.prompts++
	if h.promptErr != nil {
		return h.promptErr
	}
	h.selected = true
	return nil
}

func newVideoOrchestrator(gw Gateway, opts ...Option) *Orchestrator {
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	return New(gw, opts...)
}

func TestVideoGen(t *testing.T) {
	gw := &fakeGateway{
		pollSeq: []*llm.VideoOperation{
			{Name: "operations/test"},
			{Name: "operations/test", Done: true, URI: "https://generativelanguage.googleapis.com/v1/files/abc"},
		},
		fetchURL: "https://storage.googleapis.com/bucket/videos/abc.mp4",
	}
	store := &fakeStore{}
	sess := newTestSession(store)

	require.NoError(t, newVideoOrchestrator(gw).Dispatch(t.Context(), sess, Input{Text: "a rocket launch", Tool: ToolVideoGen}))

	msgs := sess.Conversation().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, chatdb.RoleUser, msgs[1].Role)
	assert.Equal(t, videoStatusText, msgs[2].Text)

	result := msgs[3]
	assert.Equal(t, chatdb.MessageKindVideo, result.Kind)
	assert.Equal(t, "Here is the video you requested.", result.Text)
	assert.Equal(t, gw.fetchURL, result.GeneratedVideoURL)
	assert.Equal(t, 1, gw.fetchCalls)
	assert.Equal(t, 2, gw.pollCalls)
}

func TestVideoGenPromptsWhenNoCredential(t *testing.T) {
	gw := &fakeGateway{
		pollSeq:  []*llm.VideoOperation{{Done: true, URI: "uri"}},
		fetchURL: "https://storage.googleapis.com/bucket/videos/abc.mp4",
	}
	creds := &fakeCredHost{}
	store := &fakeStore{}
	sess := newTestSession(store)

	o := newVideoOrchestrator(gw, WithCredentialHost(creds))
	require.NoError(t, o.Dispatch(t.Context(), sess, Input{Text: "a rocket", Tool: ToolVideoGen}))

	assert.Equal(t, 1, creds.prompts)
	msgs := sess.Conversation().Messages
	assert.Equal(t, chatdb.MessageKindVideo, msgs[len(msgs)-1].Kind)
}

func TestVideoGenCredentialRetry(t *testing.T) {
	gw := &fakeGateway{
		videoErrs: []error{fault.New(fault.KindUpstream, "Requested entity was not found."), nil},
		pollSeq:   []*llm.VideoOperation{{Done: true, URI: "uri"}},
		fetchURL:  "https://storage.googleapis.com/bucket/videos/abc.mp4",
	}
	creds := &fakeCredHost{selected: true}
	store := &fakeStore{}
	sess := newTestSession(store)

	o := newVideoOrchestrator(gw, WithCredentialHost(creds))
	require.NoError(t, o.Dispatch(t.Context(), sess, Input{Text: "a rocket", Tool: ToolVideoGen}))

	// One reselection prompt, one retry.
	assert.Equal(t, 1, creds.prompts)
	assert.Equal(t, 2, gw.videoCalls)

	msgs := sess.Conversation().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, chatdb.MessageKindVideo, msgs[3].Kind)
}

func TestVideoGenCredentialRetryExhausted(t *testing.T) {
	gw := &fakeGateway{
		videoErrs: []error{
			fault.New(fault.KindUpstream, "Requested entity was not found."),
			fault.New(fault.KindUpstream, "Requested entity was not found."),
		},
	}
	creds := &fakeCredHost{selected: true}
	store := &fakeStore{}
	sess := newTestSession(store)

	o := newVideoOrchestrator(gw, WithCredentialHost(creds))
	require.NoError(t, o.Dispatch(t.Context(), sess, Input{Text: "a rocket", Tool: ToolVideoGen}))

	// The budget is two attempts; the second failure is terminal.
	assert.Equal(t, 1, creds.prompts)
	assert.Equal(t, 2, gw.videoCalls)

	msgs := sess.Conversation().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, chatdb.MessageKindError, msgs[3].Kind)
	assert.Equal(t, "Requested entity was not found.", msgs[3].Error)
}

func TestVideoGenNonCredentialFailureNoRetry(t *testing.T) {
	gw := &fakeGateway{
		videoErrs: []error{fault.New(fault.KindUpstream, "quota exceeded")},
	}
	creds := &fakeCredHost{selected: true}
	store := &fakeStore{}
	sess := newTestSession(store)

	o := newVideoOrchestrator(gw, WithCredentialHost(creds))
	require.NoError(t, o.Dispatch(t.Context(), sess, Input{Text: "a rocket", Tool: ToolVideoGen}))

	assert.Zero(t, creds.prompts)
	assert.Equal(t, 1, gw.videoCalls)

	msgs := sess.Conversation().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, chatdb.MessageKindError, msgs[3].Kind)
}

func TestVideoGenOperationError(t *testing.T) {
	gw := &fakeGateway{
		pollSeq: []*llm.VideoOperation{{Done: true, Err: "safety filters rejected the prompt"}},
	}
	store := &fakeStore{}
	sess := newTestSession(store)

	require.NoError(t, newVideoOrchestrator(gw).Dispatch(t.Context(), sess, Input{Text: "a rocket", Tool: ToolVideoGen}))

	msgs := sess.Conversation().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, chatdb.MessageKindError, msgs[3].Kind)
	assert.Equal(t, "safety filters rejected the prompt", msgs[3].Error)
	assert.Zero(t, gw.fetchCalls)
}

func TestIsCredentialNotFound(t *testing.T) {
	assert.True(t, isCredentialNotFound(fault.New(fault.KindUpstream, "Requested entity was not found.")))
	assert.True(t, isCredentialNotFound(fault.New(fault.KindUpstream, "requested ENTITY WAS NOT FOUND")))
	assert.True(t, isCredentialNotFound(fault.New(fault.KindUpstream, "Entity not found.")))
	assert.False(t, isCredentialNotFound(fault.New(fault.KindUpstream, "quota exceeded")))
}
