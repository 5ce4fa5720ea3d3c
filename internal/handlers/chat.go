package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"chatscript-bridge/internal/metrics"
	"chatscript-bridge/internal/middleware"
	"chatscript-bridge/internal/models"
	"chatscript-bridge/internal/services"
)

type chatBackend interface {
	Query(ctx context.Context, user, message string) (string, error)
}

type ChatHandler struct {
	backend      chatBackend
	maxBodyBytes int64
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewChatHandler(backend chatBackend, maxBodyBytes int64, m *metrics.Metrics, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		backend:      backend,
		maxBodyBytes: maxBodyBytes,
		metrics:      m,
		logger:       logger,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r, h.maxBodyBytes)
	if err != nil {
		h.logger.Debug("chat request rejected",
			"reason", err,
			"request_id", middleware.GetRequestID(r),
		)
		writeJSON(w, http.StatusBadRequest, errorResp(msgBadRequest))
		return
	}

	start := time.Now()
	reply, err := h.backend.Query(r.Context(), req.User, req.Message)
	if h.metrics != nil {
		h.metrics.ObserveBackend(err, time.Since(start))
	}
	if err != nil {
		h.handleBackendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatReply{Reply: reply})
}

func (h *ChatHandler) handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	message := "chatscript unavailable: " + err.Error()
	var backendErr *services.BackendError
	if errors.As(err, &backendErr) {
		message = backendErr.Error()
	}

	h.logger.Warn("chatscript exchange failed",
		"error", err,
		"request_id", middleware.GetRequestID(r),
	)
	writeJSON(w, http.StatusBadGateway, errorResp(message))
}

var (
	errNoContentLength = errors.New("missing Content-Length")
	errMissingField    = errors.New("user and message must both be present")
	errInvalidUTF8     = errors.New("body is not valid UTF-8")
)

// decodeChatRequest reads exactly Content-Length bytes and requires string
// user and message fields. A null field counts as missing. The body must be
// valid UTF-8; encoding/json would otherwise replace bad bytes with U+FFFD
// and forward an altered message.
//
// A non-numeric Content-Length never gets here: net/http rejects it with a
// plain-text 400 before routing, so that case has neither the JSON error
// body nor an access log line.
func decodeChatRequest(r *http.Request, maxBodyBytes int64) (models.ChatRequest, error) {
	if r.ContentLength < 0 {
		return models.ChatRequest{}, errNoContentLength
	}
	if r.ContentLength > maxBodyBytes {
		return models.ChatRequest{}, fmt.Errorf("body of %d bytes exceeds limit of %d", r.ContentLength, maxBodyBytes)
	}

	body := make([]byte, r.ContentLength)
	if _, err := io.ReadFull(r.Body, body); err != nil {
		return models.ChatRequest{}, fmt.Errorf("read body: %w", err)
	}

	if !utf8.Valid(body) {
		return models.ChatRequest{}, errInvalidUTF8
	}

	var payload struct {
		User    *string `json:"user"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.ChatRequest{}, fmt.Errorf("decode body: %w", err)
	}
	if payload.User == nil || payload.Message == nil {
		return models.ChatRequest{}, errMissingField
	}

	return models.ChatRequest{User: *payload.User, Message: *payload.Message}, nil
}
