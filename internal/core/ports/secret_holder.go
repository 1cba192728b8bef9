package ports

import (
	"context"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// SecretHolder is the ephemeral session store. It runs isolated from the
// background context so the session survives background restarts, which
// makes every call a bounded request/response exchange: implementations
// must time out (~8s) and callers must treat any failure as locked, never
// as unlocked.
type SecretHolder interface {
	// SetSession stores the session, replacing any previous one.
	SetSession(ctx context.Context, session *domain.Session) error
	// GetSession returns the stored session or domain.ErrNotFound. An
	// expired session is cleared and reported as not found.
	GetSession(ctx context.Context) (*domain.Session, error)
	// ClearSession wipes the session. Idempotent.
	ClearSession(ctx context.Context) error
	// Recreate tears the holder down and brings up a fresh empty one. Used
	// as the single retry path after an ErrUnavailable.
	Recreate(ctx context.Context) error
}
