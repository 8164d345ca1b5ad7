package projects

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collabhub/backend/internal/credits"
	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/models"
)

// BudgetAssigner is the slice of the credit service the budget endpoint uses.
type BudgetAssigner interface {
	AssignBudgetToProject(ctx context.Context, fromUserID, projectID uuid.UUID, amount decimal.Decimal, currency string) (uuid.UUID, error)
}

type Handler struct {
	svc     *Service
	credits BudgetAssigner
	audit   AuditLog
	log     *slog.Logger
}

func NewHandler(svc *Service, budget BudgetAssigner, audit AuditLog, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, credits: budget, audit: audit, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func projectIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
		return
	}
	p, err := h.svc.Create(r.Context(), id.UserID, req.Name, req.Description)
	if err != nil {
		h.log.Error("create project failed", "error", err)
		http.Error(w, `{"error":"failed to create project"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListForUser(r.Context(), id.UserID)
	if err != nil {
		h.log.Error("list projects failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": list})
}

// Get handles GET /api/v1/projects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, ok := projectIDFromPath(r)
	if !ok {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	role, err := h.svc.RoleOf(r.Context(), projectID, id.UserID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("resolve role failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if role == "" {
		http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		return
	}
	p, err := h.svc.Get(r.Context(), projectID)
	if err != nil {
		h.log.Error("get project failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	members, err := h.svc.Members(r.Context(), projectID)
	if err != nil {
		h.log.Error("list members failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if members == nil {
		members = []*models.ProjectMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p, "members": members, "role": role})
}

type assignBudgetRequest struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// AssignBudget handles POST /api/v1/projects/{id}/budget. The owner/admin
// check happens here, once, before the credit service is called.
func (h *Handler) AssignBudget(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, ok := projectIDFromPath(r)
	if !ok {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}

	if err := h.svc.AuthorizeManager(r.Context(), projectID, id.UserID); err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		case errors.Is(err, ErrForbidden):
			http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
		default:
			h.log.Error("authorize failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	var req assignBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		http.Error(w, `{"error":"invalid amount"}`, http.StatusBadRequest)
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	transactionID, err := h.credits.AssignBudgetToProject(r.Context(), id.UserID, projectID, amount, currency)
	if err != nil {
		switch {
		case errors.Is(err, credits.ErrInsufficientBalance):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient balance in your account"})
		case errors.Is(err, credits.ErrInvalidAmount), errors.Is(err, credits.ErrUnsupportedCurrency):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, credits.ErrProjectNotFound):
			http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		default:
			h.log.Error("budget assignment failed", "project_id", projectID, "error", err)
			http.Error(w, `{"error":"failed to assign budget"}`, http.StatusInternalServerError)
		}
		return
	}

	if err := h.audit.Record(r.Context(), id.UserID, models.AuditBudgetAssigned, map[string]any{
		"project_id":     projectID.String(),
		"transaction_id": transactionID.String(),
		"amount":         amount.String(),
		"currency":       currency,
	}); err != nil {
		h.log.Warn("audit write failed", "action", models.AuditBudgetAssigned, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"transaction_id": transactionID.String()})
}

// RemoveMember handles DELETE /api/v1/projects/{id}/members/{userID}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, ok := projectIDFromPath(r)
	if !ok {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	memberID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}

	if err := h.svc.AuthorizeManager(r.Context(), projectID, id.UserID); err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		case errors.Is(err, ErrForbidden):
			http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
		default:
			h.log.Error("authorize failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	if err := h.svc.RemoveMember(r.Context(), id.UserID, projectID, memberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			http.Error(w, `{"error":"member not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("remove member failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole handles PATCH /api/v1/projects/{id}/members/{userID}.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())
	if id == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	projectID, ok := projectIDFromPath(r)
	if !ok {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return
	}
	memberID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}

	if err := h.svc.AuthorizeManager(r.Context(), projectID, id.UserID); err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			http.Error(w, `{"error":"project not found"}`, http.StatusNotFound)
		case errors.Is(err, ErrForbidden):
			http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
		default:
			h.log.Error("authorize failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	if err := h.svc.ChangeMemberRole(r.Context(), id.UserID, projectID, memberID, req.Role); err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			http.Error(w, `{"error":"invalid role"}`, http.StatusBadRequest)
		case errors.Is(err, ErrMemberNotFound):
			http.Error(w, `{"error":"member not found"}`, http.StatusNotFound)
		default:
			h.log.Error("update member role failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "role": req.Role})
}
