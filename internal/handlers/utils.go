package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/huddleapp/huddle/internal/adapter"
	"github.com/huddleapp/huddle/pkg/logging"
)

var utilLogger = logging.NewLogger("handlers")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		utilLogger.Error("encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, message, httpCode))
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func validateContext(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		return ctx.Err() == nil
	}
}
