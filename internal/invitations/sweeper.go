package invitations

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

type ExpireInvitationsArgs struct{}

func (ExpireInvitationsArgs) Kind() string { return "expire_invitations" }

// ExpiryStore marks overdue pending invitations expired.
type ExpiryStore interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ExpireInvitationsWorker is the periodic sweep behind the lazy-expiry model.
// Claim queries already filter on expires_at, so the sweep only keeps the
// table tidy; nothing depends on it for correctness.
type ExpireInvitationsWorker struct {
	river.WorkerDefaults[ExpireInvitationsArgs]
	repo ExpiryStore
	log  *slog.Logger
}

func NewExpireInvitationsWorker(repo ExpiryStore, log *slog.Logger) *ExpireInvitationsWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ExpireInvitationsWorker{repo: repo, log: log}
}

func (w *ExpireInvitationsWorker) Work(ctx context.Context, job *river.Job[ExpireInvitationsArgs]) error {
	n, err := w.repo.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info("expired overdue invitations", "count", n)
	}
	return nil
}
