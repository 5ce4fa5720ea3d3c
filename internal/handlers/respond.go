package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chatscript-bridge/internal/models"
)

const (
	msgNotFound   = "not found"
	msgBadRequest = "expected JSON with 'user' and 'message'"
)

// writeJSON sends data with an exact Content-Length.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// NotFound answers every route other than POST /chat, including other
// methods on /chat.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp(msgNotFound))
}
