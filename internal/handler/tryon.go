package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/middleware"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/tryon"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

// TryOnHandler handles virtual try-on requests.
type TryOnHandler struct {
	pipeline *tryon.Pipeline
	logger   *logger.Logger
}

// NewTryOnHandler creates a new try-on handler.
func NewTryOnHandler(p *tryon.Pipeline, log *logger.Logger) *TryOnHandler {
	return &TryOnHandler{pipeline: p, logger: log}
}

type tryOnFailure struct {
	Success  bool                    `json:"success"`
	Error    string                  `json:"error"`
	Attempts []model.ProviderAttempt `json:"attempts,omitempty"`
}

// TryOn handles POST /api/tryon
func (h *TryOnHandler) TryOn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.TryOnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateItem(req.Item); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateImage(req.UserPhoto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.pipeline.Synthesize(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, tryon.ErrEmptyInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, tryon.ErrNoProviders):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetOwner(ctx)).
				Warn("try-on failed", zap.Error(err))
			var attempts []model.ProviderAttempt
			if res != nil {
				attempts = res.Attempts
			}
			writeJSON(w, http.StatusBadGateway, tryOnFailure{Error: "Generation failed", Attempts: attempts})
		}
		return
	}

	writeOK(w, res)
}
