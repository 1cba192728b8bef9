package secretholder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
)

func TestHolderSetGetClear(t *testing.T) {
	holder := New()
	defer holder.Shutdown()
	ctx := context.Background()

	_, err := holder.GetSession(ctx)
	assert.Equal(t, domain.ErrNotFound, err)

	session := &domain.Session{
		Password:  "Str0ngP@ss!",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, holder.SetSession(ctx, session))

	got, err := holder.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Password, got.Password)

	require.NoError(t, holder.ClearSession(ctx))
	_, err = holder.GetSession(ctx)
	assert.Equal(t, domain.ErrNotFound, err)

	// clearing twice is a no-op
	require.NoError(t, holder.ClearSession(ctx))
}

func TestHolderReportsExpiredSessionAsAbsent(t *testing.T) {
	holder := New()
	defer holder.Shutdown()
	ctx := context.Background()

	session := &domain.Session{
		Password:  "Str0ngP@ss!",
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, holder.SetSession(ctx, session))

	_, err := holder.GetSession(ctx)
	assert.Equal(t, domain.ErrNotFound, err)
}

func TestHolderRecreateLosesSession(t *testing.T) {
	holder := New()
	defer holder.Shutdown()
	ctx := context.Background()

	session := &domain.Session{
		Password:  "Str0ngP@ss!",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, holder.SetSession(ctx, session))
	require.NoError(t, holder.Recreate(ctx))

	_, err := holder.GetSession(ctx)
	assert.Equal(t, domain.ErrNotFound, err)
}

func TestHolderFailsClosedOnCanceledContext(t *testing.T) {
	holder := New()
	defer holder.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := holder.GetSession(ctx)
	assert.Equal(t, domain.ErrUnavailable, err)
}
