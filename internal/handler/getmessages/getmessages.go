// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package getmessages

import (
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/util"
)

// NewHandler returns a Handler.
func NewHandler(store *chatdb.Store) *Handler {
	return &Handler{
		store: store,
	}
}

// Handler returns the persisted messages of one conversation.
type Handler struct {
	store *chatdb.Store
}

type response struct {
	ConversationID string           `json:"conversationId"`
	Messages       []chatdb.Message `json:"messages"`
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := firebaseauth.TokenFromContext(ctx).UID

	conv, err := h.store.Conversation(ctx, userID, chi.URLParam(r, "conversationID"))
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}

	util.RespondJSON(ctx, w, response{
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	})
}
