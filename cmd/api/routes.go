package main

import (
	"net/http"

	"github.com/collabhub/backend/internal/credits"
	"github.com/collabhub/backend/internal/invitations"
	"github.com/collabhub/backend/internal/payments"
	"github.com/collabhub/backend/internal/projects"
)

// RegisterRoutes mounts the API under /api/v1. Everything is session
// authenticated except the payment webhook, which authenticates by signature
// instead.
func RegisterRoutes(
	mux *http.ServeMux,
	session func(http.Handler) http.Handler,
	creditsH *credits.Handler,
	projectsH *projects.Handler,
	invitationsH *invitations.Handler,
	webhookH *payments.WebhookHandler,
) {
	authed := func(h http.HandlerFunc) http.Handler {
		return session(h)
	}

	mux.Handle("POST /api/v1/payments/checkout", authed(creditsH.Checkout))
	mux.Handle("POST /api/v1/payments/webhook", webhookH)

	mux.Handle("GET /api/v1/credits/balance", authed(creditsH.Balance))
	mux.Handle("GET /api/v1/credits/transactions", authed(creditsH.Transactions))
	mux.Handle("POST /api/v1/credits/transactions/{id}/refund", authed(creditsH.Refund))

	mux.Handle("POST /api/v1/projects", authed(projectsH.Create))
	mux.Handle("GET /api/v1/projects", authed(projectsH.List))
	mux.Handle("GET /api/v1/projects/{id}", authed(projectsH.Get))
	mux.Handle("POST /api/v1/projects/{id}/budget", authed(projectsH.AssignBudget))
	mux.Handle("DELETE /api/v1/projects/{id}/members/{userID}", authed(projectsH.RemoveMember))
	mux.Handle("PATCH /api/v1/projects/{id}/members/{userID}", authed(projectsH.UpdateMemberRole))

	mux.Handle("POST /api/v1/projects/{id}/invite", authed(invitationsH.Invite))
	mux.Handle("GET /api/v1/projects/{id}/invitations", authed(invitationsH.ListPending))
	mux.Handle("DELETE /api/v1/projects/{id}/invitations/{invitationID}", authed(invitationsH.Revoke))
	mux.Handle("POST /api/v1/invitations/claim", authed(invitationsH.Claim))
}
