package util

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/curioswitch/modalchat/internal/fault"
)

// RespondJSON writes v as a JSON response.
func RespondJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "util: encoding response", "error", err)
	}
}

// RespondError writes err as a JSON error response with a status derived
// from its fault kind.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindPermission:
		status = http.StatusForbidden
	case fault.KindUpstream, fault.KindFetch, fault.KindGeneration:
		status = http.StatusBadGateway
	case fault.KindConfiguration:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "util: request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": fault.Message(err)})
}
