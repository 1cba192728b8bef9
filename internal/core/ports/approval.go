package ports

import (
	"context"

	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

// ApprovalSurface is the external collaborator that shows a pending request
// to the user. Opening the surface must not block the broker; the decision
// comes back later through the broker's Approve/Reject entrypoints. Failures
// to close the surface are best-effort and only logged.
type ApprovalSurface interface {
	Open(ctx context.Context, request *domain.PendingRequest) error
	Close(ctx context.Context, requestID string) error
}
