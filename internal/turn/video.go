// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package turn

import (
	"context"
	"errors"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/conversation"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/llm"
)

// videoAttempts is the attempt budget for the video pathway. A credential
// failure is self-correctable within a session, so it earns one retry after
// reselection; no other failure does.
const videoAttempts = 2

var errVideoPending = errors.New("turn: video operation still running")

func (o *Orchestrator) generateVideo(ctx context.Context, sess *conversation.Session, in Input) {
	sess.Apply(ctx, chatdb.NewModelText(videoStatusText, nil))

	if o.creds != nil && !o.creds.HasSelectedCredential() {
		if err := o.creds.OpenCredentialSelector(ctx); err != nil {
			sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
			return
		}
	}

	for attempt := 1; ; attempt++ {
		url, err := o.runVideoAttempt(ctx, in)
		if err == nil {
			sess.Apply(ctx, chatdb.NewModelVideo(caption(in.Tool), url))
			return
		}
		if isCredentialNotFound(err) && attempt < videoAttempts && o.creds != nil {
			if perr := o.creds.OpenCredentialSelector(ctx); perr != nil {
				sess.Apply(ctx, chatdb.NewModelError(fault.Message(perr)))
				return
			}
			continue
		}
		sess.Apply(ctx, chatdb.NewModelError(fault.Message(err)))
		return
	}
}

func (o *Orchestrator) runVideoAttempt(ctx context.Context, in Input) (string, error) {
	aspect := in.AspectRatio
	if aspect != "9:16" {
		aspect = "16:9"
	}
	op, err := o.gateway.GenerateVideo(ctx, in.Text, in.Image, aspect)
	if err != nil {
		return "", err
	}
	op, err = o.awaitVideo(ctx, op)
	if err != nil {
		return "", err
	}
	return o.gateway.FetchVideo(ctx, op.URI)
}

// awaitVideo polls the operation at a fixed interval until it reaches a
// terminal state. The wait is cooperative and honors ctx.
func (o *Orchestrator) awaitVideo(ctx context.Context, op *llm.VideoOperation) (*llm.VideoOperation, error) {
	cur := op
	poll := func() (*llm.VideoOperation, error) {
		if !cur.Done {
			next, err := o.gateway.PollVideo(ctx, cur)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			cur = next
		}
		if !cur.Done {
			return nil, errVideoPending
		}
		if cur.Err != "" {
			return nil, backoff.Permanent(fault.New(fault.KindUpstream, cur.Err))
		}
		if cur.URI == "" {
			return nil, backoff.Permanent(fault.New(fault.KindGeneration, "the operation completed without a video"))
		}
		return cur, nil
	}
	return backoff.Retry(ctx, poll, backoff.WithBackOff(backoff.NewConstantBackOff(o.pollInterval)), backoff.WithMaxElapsedTime(0))
}

// isCredentialNotFound reports whether a failure means the API credential
// was not recognized by the backend. Both phrasings the backend has used are
// matched.
func isCredentialNotFound(err error) bool {
	msg := strings.ToLower(fault.Message(err))
	return strings.Contains(msg, "entity was not found") || strings.Contains(msg, "entity not found")
}
