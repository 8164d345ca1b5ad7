package invitations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/projects"
)

// ManagerAuthorizer is the owner/admin capability check performed once per
// request at this boundary.
type ManagerAuthorizer interface {
	AuthorizeManager(ctx context.Context, projectID, userID uuid.UUID) error
}

type Handler struct {
	svc        *Service
	authorizer ManagerAuthorizer
	log        *slog.Logger
}

func NewHandler(svc *Service, authorizer ManagerAuthorizer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, authorizer: authorizer, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, projectID, userID uuid.UUID) bool {
	err := h.authorizer.AuthorizeManager(r.Context(), projectID, userID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, projects.ErrProjectNotFound):
		http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
	case errors.Is(err, projects.ErrForbidden):
		http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
	default:
		h.log.Error("authorize failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
	return false
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite handles POST /api/v1/projects/{id}/invite.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	if !h.authorize(w, r, projectID, id.UserID) {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	inv, err := h.svc.InviteMember(r.Context(), projectID, req.Email, req.Role, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidRole):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrDuplicateInvitation):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			h.log.Error("invite failed", "project_id", projectID, "error", err)
			http.Error(w, `{"error":"failed to create invitation"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"invitation": inv})
}

type claimRequest struct {
	Email string `json:"email"`
}

// Claim handles POST /api/v1/invitations/claim. Called on every
// authenticated session; idempotent. The email claimed against is the
// session email, never a caller-supplied one.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	// The body's email is accepted for compatibility but must match the
	// authenticated identity; claiming someone else's invitations is not a
	// thing.
	var req claimRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Email != "" && req.Email != id.Email {
		http.Error(w, `{"error":"email does not match session"}`, http.StatusForbidden)
		return
	}

	claimed, err := h.svc.ClaimPendingInvitations(r.Context(), id.UserID, id.Email)
	if err != nil {
		h.log.Error("claim failed", "user_id", id.UserID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"claimed_count": claimed})
}

// ListPending handles GET /api/v1/projects/{id}/invitations.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	if !h.authorize(w, r, projectID, id.UserID) {
		return
	}

	list, err := h.svc.ListPending(r.Context(), projectID)
	if err != nil {
		h.log.Error("list invitations failed", "project_id", projectID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Invitation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": list})
}

// Revoke handles DELETE /api/v1/projects/{id}/invitations/{invitationID}.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	invitationID, err := uuid.Parse(r.PathValue("invitationID"))
	if err != nil {
		http.Error(w, `{"error":"invalid invitation id"}`, http.StatusBadRequest)
		return
	}
	if !h.authorize(w, r, projectID, id.UserID) {
		return
	}

	if err := h.svc.Revoke(r.Context(), id.UserID, projectID, invitationID); err != nil {
		if errors.Is(err, ErrInvitationNotFound) {
			http.Error(w, `{"error":"invitation not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("revoke failed", "invitation_id", invitationID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
