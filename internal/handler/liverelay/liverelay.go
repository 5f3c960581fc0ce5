// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package liverelay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/curioswitch/modalchat/internal/live"
	"github.com/curioswitch/modalchat/internal/util"
)

// readSize is the chunk size for reading client audio off the request body.
const readSize = 4096

// Session is the realtime audio session a relay bridges.
type Session interface {
	Send(ctx context.Context, audio []byte) error
	Output() <-chan []byte
	Close() error
}

// Dial opens a realtime session for a relay request.
type Dial func(ctx context.Context) (Session, error)

// NewHandler returns a Handler.
func NewHandler(dial Dial) *Handler {
	return &Handler{
		dial: dial,
	}
}

// Handler bridges a client's audio stream through a realtime session: PCM
// audio from the request body goes to the model, model PCM audio streams
// back on the response body.
type Handler struct {
	dial Dial
}

func (h *Handler) Relay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.dial(ctx)
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}
	defer func() {
		_ = sess.Close()
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	rc := http.NewResponseController(w)
	// Full duplex lets the response stream while the request body is still
	// being read.
	_ = rc.EnableFullDuplex()
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		// Closing here ends the session's output when the client finishes
		// uploading, which releases the write loop below.
		defer func() {
			_ = sess.Close()
		}()
		buf := make([]byte, readSize)
		for {
			n, err := r.Body.Read(buf)
			if n > 0 {
				audio := make([]byte, n)
				copy(audio, buf[:n])
				if err := sess.Send(ctx, audio); err != nil {
					if errors.Is(err, live.ErrClosed) {
						return nil
					}
					return fmt.Errorf("liverelay: forwarding client audio: %w", err)
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("liverelay: reading client audio: %w", err)
			}
		}
	})
	grp.Go(func() error {
		for audio := range sess.Output() {
			if _, err := w.Write(audio); err != nil {
				return fmt.Errorf("liverelay: writing model audio: %w", err)
			}
			_ = rc.Flush()
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		slog.ErrorContext(ctx, "liverelay: relay ended", "error", err)
	}
}
