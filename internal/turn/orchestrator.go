// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package turn

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/conversation"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/llm"
	"github.com/curioswitch/modalchat/internal/media"
	"github.com/curioswitch/modalchat/internal/util"
)

// ErrConversationBusy is returned when a dispatch is rejected because a
// pathway is already in flight for the conversation.
var ErrConversationBusy = errors.New("turn: a turn is already in flight for this conversation")

// streamingPlaceholder is persisted before the first chunk arrives so a
// reload mid-stream shows a pending indicator rather than nothing.
const streamingPlaceholder = "..."

// videoStatusText is kept in the transcript as a log entry, distinct from
// the eventual result message.
const videoStatusText = "Generating video… this can take a few minutes."

// Tool selects the generation pathway for a turn.
type Tool string

const (
	ToolChat          Tool = "chat"
	ToolVideoAnalysis Tool = "video-analysis"
	ToolImageGen      Tool = "image-gen"
	ToolImageEdit     Tool = "image-edit"
	ToolVideoGen      Tool = "video-gen"
	ToolCanvas        Tool = "canvas"
)

func (t Tool) label() string {
	switch t {
	case ToolImageGen:
		return "image gen"
	case ToolImageEdit:
		return "image edit"
	case ToolVideoGen:
		return "video"
	case ToolCanvas:
		return "canvas"
	case ToolChat, ToolVideoAnalysis:
	}
	return "answer"
}

// Gateway is the set of generation capabilities a dispatch may invoke.
type Gateway interface {
	ChatStream(ctx context.Context, req llm.ChatStreamRequest) iter.Seq2[llm.Chunk, error]
	GenerateImage(ctx context.Context, prompt string, aspectRatio string) (*llm.GeneratedImage, error)
	EditImage(ctx context.Context, prompt string, source *llm.MediaPart) (*llm.GeneratedImage, error)
	GenerateVideo(ctx context.Context, prompt string, image *llm.MediaPart, aspectRatio string) (*llm.VideoOperation, error)
	PollVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoOperation, error)
	FetchVideo(ctx context.Context, uri string) (string, error)
	GenerateCode(ctx context.Context, prompt string, thinking bool) (string, error)
	Transcribe(ctx context.Context, audio *llm.Audio) (string, error)
}

// CredentialHost is an optional host capability for interactive credential
// (re)selection, used by the video pathway.
type CredentialHost interface {
	HasSelectedCredential() bool
	OpenCredentialSelector(ctx context.Context) error
}

// Input is the composite pending turn: text, at most one media attachment,
// and the selected tool.
type Input struct {
	Text string
	Tool Tool

	// Image and Video are at most one attached media part; selecting one
	// clears the other at the input boundary, so both set is not expected.
	Image *llm.MediaPart
	Video *llm.MediaPart

	// ImageURL and VideoURL are playable references recorded on the user's
	// transcript message.
	ImageURL string
	VideoURL string

	// Model is the requested chat model. Empty selects the orchestrator
	// default.
	Model string

	// AspectRatio applies to image and video generation.
	AspectRatio string

	// Thinking requests extended reasoning.
	Thinking bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCredentialHost enables interactive credential selection for the video
// pathway.
func WithCredentialHost(h CredentialHost) Option {
	return func(o *Orchestrator) {
		o.creds = h
	}
}

// WithPollInterval overrides the video poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

// WithDefaultModel sets the chat model used when a turn does not request
// one.
func WithDefaultModel(model string) Option {
	return func(o *Orchestrator) {
		o.defaultModel = model
	}
}

// WithHistoryTurns bounds how many prior turns are replayed to the chat
// backend.
func WithHistoryTurns(n int) Option {
	return func(o *Orchestrator) {
		o.historyTurns = n
	}
}

// New returns an Orchestrator over the given gateway.
func New(gateway Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:      gateway,
		pollInterval: 10 * time.Second,
		defaultModel: llm.ModelFlash,
		historyTurns: 20,
		busy:         map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Orchestrator routes a composite user turn to the correct generation
// pathway and reconciles the results into the conversation transcript. At
// most one pathway is in flight per conversation.
type Orchestrator struct {
	gateway      Gateway
	creds        CredentialHost
	pollInterval time.Duration
	defaultModel string
	historyTurns int

	mu   sync.Mutex
	busy map[string]struct{}
}

func (o *Orchestrator) acquire(convID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.busy[convID]; ok {
		return false
	}
	o.busy[convID] = struct{}{}
	return true
}

func (o *Orchestrator) release(convID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.busy, convID)
}

// Dispatch executes the pathway selected by the input's tool, appending the
// user's turn and all resulting messages to the session. Pathway failures
// are recorded in the transcript rather than returned; the only errors
// returned are dispatch rejections such as ErrConversationBusy.
func (o *Orchestrator) Dispatch(ctx context.Context, sess *conversation.Session, in Input) error {
	if strings.TrimSpace(in.Text) == "" && in.Image == nil && in.Video == nil {
		// Guard at the boundary, not an error.
		return nil
	}

	convID := sess.Conversation().ID
	if !o.acquire(convID) {
		return ErrConversationBusy
	}
	defer o.release(convID)

	// The user's turn is reflected immediately, before any network
	// activity.
	sess.Apply(ctx, chatdb.NewUserTurn(in.Text, chatdb.UserMedia{
		ImageURL: in.ImageURL,
		VideoURL: in.VideoURL,
	}))

	switch in.Tool {
	case ToolImageGen:
		o.generateImage(ctx, sess, in)
	case ToolImageEdit:
		o.editImage(ctx, sess, in)
	case ToolVideoGen:
		o.generateVideo(ctx, sess, in)
	case ToolCanvas:
		o.generateCode(ctx, sess, in)
	case ToolChat, ToolVideoAnalysis:
		o.streamChat(ctx, sess, in)
	default:
		o.streamChat(ctx, sess, in)
	}
	return nil
}

// TranscribeRecording runs the audio transcription pathway for a finished
// recording: the user's audio turn is persisted first, then the transcript
// or an error message.
func (o *Orchestrator) TranscribeRecording(ctx context.Context, sess *conversation.Session, rec media.Recording) error {
	convID := sess.Conversation().ID
	if !o.acquire(convID) {
		return ErrConversationBusy
	}
	defer o.release(convID)

	sess.Apply(ctx, chatdb.NewUserTurn("", chatdb.UserMedia{AudioURL: rec.PlaybackURL}))

	text, err := o.gateway.Transcribe(ctx, &llm.Audio{
		Filename: rec.Filename,
		MIMEType: rec.MIMEType,
		Data:     rec.Data,
	})
	if err != nil {
		sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
		return nil
	}
	sess.Apply(ctx, chatdb.NewModelText(text, nil))
	return nil
}

func (o *Orchestrator) streamChat(ctx context.Context, sess *conversation.Session, in Input) {
	model := in.Model
	if model == "" {
		model = o.defaultModel
	}
	req := llm.ChatStreamRequest{
		History:  o.history(sess.Conversation()),
		Prompt:   in.Text,
		Image:    in.Image,
		Video:    in.Video,
		Model:    model,
		Thinking: in.Thinking,
	}

	placeholder := chatdb.NewModelText(streamingPlaceholder, nil)
	sess.Apply(ctx, placeholder)

	var text string
	var grounding []chatdb.GroundingChunk
	for chunk, err := range o.gateway.ChatStream(ctx, req) {
		if err != nil {
			// The partial accumulation is discarded; the placeholder is
			// replaced by a message carrying only the error.
			msg := chatdb.NewModelError(fault.Message(err))
			msg.ID = placeholder.ID
			msg.CreatedAt = placeholder.CreatedAt
			sess.Apply(ctx, msg)
			return
		}
		text += chunk.Text
		// Citation fragments accumulate in arrival order, duplicates
		// included.
		grounding = append(grounding, chunk.Grounding...)

		msg := chatdb.NewModelText(text, grounding)
		msg.ID = placeholder.ID
		msg.CreatedAt = placeholder.CreatedAt
		// In-memory only per chunk; only the final message is persisted.
		sess.Stage(msg)
	}

	final := chatdb.NewModelText(text, grounding)
	final.ID = placeholder.ID
	final.CreatedAt = placeholder.CreatedAt
	sess.Apply(ctx, final)
}

// history builds the truncated conversation history replayed to the chat
// backend: role/text pairs only, media stripped.
func (o *Orchestrator) history(conv chatdb.Conversation) []llm.HistoryTurn {
	msgs := conv.Messages
	// The optimistic user turn for the in-flight dispatch is already
	// appended; it is carried as the prompt instead.
	if n := len(msgs); n > 0 && msgs[n-1].Role == chatdb.RoleUser {
		msgs = msgs[:n-1]
	}
	if len(msgs) > o.historyTurns {
		msgs = msgs[len(msgs)-o.historyTurns:]
	}
	history := make([]llm.HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		history = append(history, llm.HistoryTurn{Role: m.Role, Text: m.Text})
	}
	return history
}

func (o *Orchestrator) generateImage(ctx context.Context, sess *conversation.Session, in Input) {
	aspect := in.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}
	img, err := o.gateway.GenerateImage(ctx, in.Text, aspect)
	if err != nil {
		sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
		return
	}
	sess.Apply(ctx, chatdb.NewModelImage(caption(in.Tool), util.ImageBytesToURL(img.Data, img.MIMEType)))
}

func (o *Orchestrator) editImage(ctx context.Context, sess *conversation.Session, in Input) {
	if in.Image == nil {
		// Fail fast, no network call.
		sess.Apply(ctx, chatdb.NewModelError(fault.New(fault.KindValidation, "an attached image is required for image edit").Message))
		return
	}
	img, err := o.gateway.EditImage(ctx, in.Text, in.Image)
	if err != nil {
		sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
		return
	}
	sess.Apply(ctx, chatdb.NewModelImage(caption(in.Tool), util.ImageBytesToURL(img.Data, img.MIMEType)))
}

func (o *Orchestrator) generateCode(ctx context.Context, sess *conversation.Session, in Input) {
	code, err := o.gateway.GenerateCode(ctx, in.Text, in.Thinking)
	if err != nil {
		sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
		return
	}
	sess.Apply(ctx, chatdb.NewModelCode(caption(in.Tool), code))
}

func caption(t Tool) string {
	return fmt.Sprintf("Here is the %s you requested.", t.label())
}
