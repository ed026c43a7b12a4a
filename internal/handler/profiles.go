package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/middleware"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/service"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

// ProfileHandler handles fitting profile endpoints.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: log}
}

type saveProfileRequest struct {
	Profile *model.Profile `json:"profile"`
}

// Save handles POST /api/profiles. The body is {"profile": {...}}.
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, "profile is required")
		return
	}

	if err := h.service.Save(ctx, middleware.GetOwner(ctx), req.Profile); err != nil {
		if errors.Is(err, service.ErrInvalidProfile) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	writeOK(w, req.Profile)
}

// List handles GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.List(ctx, middleware.GetOwner(ctx))
	if err != nil {
		h.logger.Error("failed to list profiles", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}

	writeOK(w, resp)
}

// Get handles GET /api/profiles/{profileID}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "profileID")
	if err := middleware.ValidateProfileID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Get(ctx, middleware.GetOwner(ctx), id)
	if err != nil {
		h.profileError(w, err, "failed to get profile")
		return
	}

	writeOK(w, p)
}

// Delete handles DELETE /api/profiles/{profileID}
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "profileID")
	if err := middleware.ValidateProfileID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, middleware.GetOwner(ctx), id); err != nil {
		h.profileError(w, err, "failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) profileError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
