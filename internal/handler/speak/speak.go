// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package speak

import (
	"encoding/json"
	"net/http"

	"github.com/curioswitch/modalchat/internal/fault"
	"github.com/curioswitch/modalchat/internal/llm"
	"github.com/curioswitch/modalchat/internal/util"
)

// NewHandler returns a Handler.
func NewHandler(gateway *llm.Gateway) *Handler {
	return &Handler{
		gateway: gateway,
	}
}

// Handler synthesizes speech for a model message so the client can play it
// back. The transcript is not mutated.
type Handler struct {
	gateway *llm.Gateway
}

type request struct {
	Text string `json:"text"`
}

type response struct {
	// AudioData is base64-encoded PCM audio.
	AudioData string `json:"audioData"`
}

func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.RespondError(ctx, w, fault.New(fault.KindValidation, "invalid request body"))
		return
	}
	if req.Text == "" {
		util.RespondError(ctx, w, fault.New(fault.KindValidation, "text is required"))
		return
	}

	audio, err := h.gateway.Synthesize(ctx, req.Text)
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}

	util.RespondJSON(ctx, w, response{AudioData: audio})
}
