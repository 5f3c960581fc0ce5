// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package sendturn

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/conversation"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/llm"
	"github.com/curioswitch/modalchat/internal/turn"
	"github.com/curioswitch/modalchat/internal/util"
)

// NewHandler returns a Handler.
func NewHandler(store *chatdb.Store, orch *turn.Orchestrator) *Handler {
	return &Handler{
		store: store,
		orch:  orch,
	}
}

// Handler dispatches a user turn to its generation pathway and returns the
// messages the turn appended to the transcript.
type Handler struct {
	store *chatdb.Store
	orch  *turn.Orchestrator
}

type request struct {
	Text         string `json:"text"`
	Tool         string `json:"tool"`
	Model        string `json:"model"`
	AspectRatio  string `json:"aspectRatio"`
	Thinking     bool   `json:"thinking"`
	ImageDataURL string `json:"imageDataUrl"`
	VideoDataURL string `json:"videoDataUrl"`
}

type response struct {
	Messages []chatdb.Message `json:"messages"`
}

func (h *Handler) SendTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := firebaseauth.TokenFromContext(ctx).UID

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.RespondError(ctx, w, fault.New(fault.KindValidation, "invalid request body"))
		return
	}

	conv, err := h.store.Conversation(ctx, userID, chi.URLParam(r, "conversationID"))
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}
	before := len(conv.Messages)
	sess := conversation.NewSession(h.store, userID, conv)

	in := turn.Input{
		Text:        req.Text,
		Tool:        turn.Tool(req.Tool),
		Model:       req.Model,
		AspectRatio: req.AspectRatio,
		Thinking:    req.Thinking,
	}
	if req.ImageDataURL != "" {
		mimeType, data, err := util.ParseDataURL(req.ImageDataURL)
		if err != nil {
			util.RespondError(ctx, w, fault.Wrap(fault.KindValidation, err))
			return
		}
		in.Image = &llm.MediaPart{MIMEType: mimeType, Data: data}
		in.ImageURL = req.ImageDataURL
	} else if req.VideoDataURL != "" {
		mimeType, data, err := util.ParseDataURL(req.VideoDataURL)
		if err != nil {
			util.RespondError(ctx, w, fault.Wrap(fault.KindValidation, err))
			return
		}
		in.Video = &llm.MediaPart{MIMEType: mimeType, Data: data}
		in.VideoURL = req.VideoDataURL
	}

	if err := h.orch.Dispatch(ctx, sess, in); err != nil {
		if errors.Is(err, turn.ErrConversationBusy) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		util.RespondError(ctx, w, err)
		return
	}

	util.RespondJSON(ctx, w, response{Messages: sess.Conversation().Messages[before:]})
}
