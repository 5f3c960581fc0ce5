package startlive

import (
	"net/http"

	"github.com/curioswitch/modalchat/internal/llm"
	"github.com/curioswitch/modalchat/internal/util"
)

// NewHandler returns a Handler.
func NewHandler(gateway *llm.Gateway) *Handler {
	return &Handler{
		gateway: gateway,
	}
}

// Handler mints a single-use ephemeral token so the client can open a
// realtime audio session directly against the backend.
type Handler struct {
	gateway *llm.Gateway
}

func (h *Handler) StartLive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.gateway.MintLiveToken(ctx, llm.LivePrompt(ctx))
	if err != nil {
		util.RespondError(ctx, w, err)
		return
	}

	util.RespondJSON(ctx, w, token)
}
