// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package listconversations

import (
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"

	"github.com/curioswitch/modalchat/internal/chatdb"
	"github.com/curioswitch/modalchat/internal/conversation"
	"github.com/curioswitch/modalchat/internal/util"
)

// NewHandler returns a Handler.
func NewHandler(store *chatdb.Store, defaultModel string) *Handler {
	return &Handler{
		store:        store,
		defaultModel: defaultModel,
	}
}

// Handler lists the user's conversations, most recently updated first. A
// user with no conversations gets one created with a greeting so the client
// always has an active conversation to work with.
type Handler struct {
	store        *chatdb.Store
	defaultModel string
}

type response struct {
	Conversations []chatdb.Conversation `json:"conversations"`
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := firebaseauth.TokenFromContext(ctx).UID

	convs, err := h.store.Conversations(ctx, userID)
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}
	if len(convs) == 0 {
		conv, err := h.store.Create(ctx, userID, conversation.New(h.defaultModel))
		if err != nil {
			util.RespondError(ctx, w, err)
			return
		}
		convs = []chatdb.Conversation{conv}
	}

	util.RespondJSON(ctx, w, response{Conversations: convs})
}
