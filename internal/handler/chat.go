package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/middleware"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/service"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{service: svc, logger: log}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateImage(req.Image); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.service.Reply(ctx, middleware.GetOwner(ctx), &req)
	if err != nil {
		log := h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetOwner(ctx))
		switch {
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidImage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPhotoUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, service.ErrServiceDisabled):
			writeError(w, http.StatusServiceUnavailable, service.ErrServiceDisabled.Error())
		case errors.Is(err, service.ErrGenerationFailed):
			log.Error("chat generation failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			log.Error("chat failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate reply")
		}
		return
	}

	writeOK(w, reply)
}
