// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// State is the lifecycle state of a live session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// ErrClosed is returned when sending on a session that already closed.
var ErrClosed = errors.New("live: session is closed")

// conn is the backend realtime stream a session drives.
type conn interface {
	Receive() (*genai.LiveServerMessage, error)
	SendRealtimeInput(genai.LiveRealtimeInput) error
	Close() error
}

// Dial opens a realtime audio session against the generation backend with
// the given system instruction.
func Dial(ctx context.Context, client *genai.Client, systemPrompt string, model string) (*Session, error) {
	stream, err := client.Live.Connect(ctx, model, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Role: "model",
			Parts: []*genai.Part{
				{
					Text: systemPrompt,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("live: connecting session: %w", err)
	}
	return newSession(ctx, stream), nil
}

// Session is a bidirectional realtime audio conversation: PCM audio goes in
// through Send, model PCM audio comes out on Output.
type Session struct {
	conn conn
	grp  *errgroup.Group

	in    chan []byte
	out   chan []byte
	done  chan struct{}
	state atomic.Int32

	closeOnce sync.Once
	closeErr  error
}

func newSession(ctx context.Context, c conn) *Session {
	s := &Session{
		conn: c,
		in:   make(chan []byte, 16),
		out:  make(chan []byte, 16),
		done: make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	grp, _ := errgroup.WithContext(ctx)
	s.grp = grp
	s.state.Store(int32(StateOpen))
	grp.Go(s.sendLoop)
	grp.Go(s.receiveLoop)
	return s
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Send queues PCM audio for the model. A Send racing Close returns ErrClosed
// rather than queueing into a dead session.
func (s *Session) Send(ctx context.Context, audio []byte) error {
	if s.State() == StateClosed {
		return ErrClosed
	}
	select {
	case s.in <- audio:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Output is the stream of PCM audio produced by the model. It is closed
// when the session ends.
func (s *Session) Output() <-chan []byte {
	return s.out
}

// Close ends the session and waits for its loops to settle. The done channel
// releases both loops even when the consumer stopped draining Output, so
// Close cannot hang on a full output buffer.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		if err := s.conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("live: closing stream: %w", err)
		}
		_ = s.grp.Wait()
	})
	return s.closeErr
}

func (s *Session) sendLoop() error {
	for {
		select {
		case audio := <-s.in:
			if err := s.conn.SendRealtimeInput(genai.LiveRealtimeInput{
				Media: &genai.Blob{
					MIMEType: "audio/pcm",
					Data:     audio,
				},
			}); err != nil {
				return fmt.Errorf("live: sending audio to backend: %w", err)
			}
		case <-s.done:
			return nil
		}
	}
}

func (s *Session) receiveLoop() error {
	defer close(s.out)
	for {
		msg, err := s.conn.Receive()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if s.State() == StateClosed {
				return nil
			}
			return fmt.Errorf("live: receiving message from backend: %w", err)
		}
		if msg.ServerContent == nil || msg.ServerContent.ModelTurn == nil {
			continue
		}
		for _, p := range msg.ServerContent.ModelTurn.Parts {
			if p.InlineData == nil {
				continue
			}
			if p.InlineData.MIMEType != "audio/pcm" {
				continue
			}
			select {
			case s.out <- p.InlineData.Data:
			case <-s.done:
				return nil
			}
		}
	}
}
