// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package transcribe

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/conversation"
	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/media"
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

// Handler runs the transcription pathway for a finished recording signalled
// by the media capture collaborator.
type Handler struct {
	store *chatdb.Store
	orch  *turn.Orchestrator
}

type request struct {
	Filename     string `json:"filename"`
	AudioDataURL string `json:"audioDataUrl"`
}

type response struct {
	Messages []chatdb.Message `json:"messages"`
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := firebaseauth.TokenFromContext(ctx).UID

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.RespondError(ctx, w, fault.New(fault.KindValidation, "invalid request body"))
		return
	}
	mimeType, data, err := util.ParseDataURL(req.AudioDataURL)
	if err != nil {
		util.RespondError(ctx, w, fault.Wrap(fault.KindValidation, err))
		return
	}

	conv, err := h.store.Conversation(ctx, userID, chi.URLParam(r, "conversationID"))
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}
	before := len(conv.Messages)
	sess := conversation.NewSession(h.store, userID, conv)

	rec := media.Recording{
		Filename:    req.Filename,
		MIMEType:    mimeType,
		Data:        data,
		PlaybackURL: req.AudioDataURL,
	}
	if err := h.orch.TranscribeRecording(ctx, sess, rec); err != nil {
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
