package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lalaverse/profile-sync-service/internal/application"
	"github.com/lalaverse/profile-sync-service/internal/domain"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		claims, err := h.service.ValidateToken(r.Context(), raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func creatorIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	creatorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return creatorID, true
}

func platformIDFromRequest(r *http.Request) domain.PlatformID {
	return domain.PlatformID(chi.URLParam(r, "platform"))
}

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.ListPlatforms(r.Context()))
}

func (h *Handler) getMyProfile(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.GetProfile(r.Context(), creatorID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateProfile(r.Context(), creatorID, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) listConnections(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.ListConnections(r.Context(), creatorID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getConnection(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.GetConnection(r.Context(), creatorID, platformIDFromRequest(r))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) setFieldSync(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.SetFieldSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	field := domain.FieldName(chi.URLParam(r, "field"))
	resp, err := h.service.SetFieldSync(r.Context(), creatorID, platformIDFromRequest(r), field, req.Enabled)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) markConnected(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req application.MarkConnectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.MarkConnected(r.Context(), creatorID, platformIDFromRequest(r), req.Connected)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) previewSync(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.PreviewSync(r.Context(), creatorID, platformIDFromRequest(r))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) pushSync(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := creatorIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	resp, err := h.service.Dispatch(r.Context(), creatorID, platformIDFromRequest(r), r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
