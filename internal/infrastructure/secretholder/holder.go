// Package secretholder hosts the unlocked session in a logical process of
// its own, isolated from the background service so the session survives
// background restarts. Every read or write is a bounded request/response
// exchange: if the holder does not answer in time the caller must behave as
// if the wallet were locked.
package secretholder

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
)

const (
	// ExchangeTimeout bounds every request/response exchange with the holder.
	ExchangeTimeout = 8 * time.Second

	// sweepInterval is the period of the holder's own expiry check, which
	// clears sessions that expire while nothing is reading them.
	sweepInterval = time.Minute
)

type opKind int

const (
	opSet opKind = iota
	opGet
	opClear
)

type request struct {
	kind    opKind
	session *domain.Session
	reply   chan response
}

type response struct {
	session *domain.Session
	err     error
}

// Holder implements ports.SecretHolder on top of a dedicated goroutine that
// owns the session value. Nothing outside that goroutine ever touches it.
type Holder struct {
	locker   sync.Mutex
	requests chan request
	done     chan struct{}
}

// New starts a holder process and returns its handle.
func New() *Holder {
	h := &Holder{}
	h.start()
	return h
}

func (h *Holder) start() {
	requests := make(chan request)
	done := make(chan struct{})
	h.requests = requests
	h.done = done
	go run(requests, done)
}

func run(requests chan request, done chan struct{}) {
	var session *domain.Session
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-done:
			session = nil
			return
		case <-sweep.C:
			if session != nil && session.IsExpired(time.Now()) {
				log.Debug("secret holder: sweeping expired session")
				session = nil
			}
		case req := <-requests:
			switch req.kind {
			case opSet:
				session = req.session
				req.reply <- response{}
			case opGet:
				if session == nil {
					req.reply <- response{err: domain.ErrNotFound}
					break
				}
				if session.IsExpired(time.Now()) {
					session = nil
					req.reply <- response{err: domain.ErrNotFound}
					break
				}
				copied := *session
				req.reply <- response{session: &copied}
			case opClear:
				session = nil
				req.reply <- response{}
			}
		}
	}
}

// SetSession stores the session, replacing any previous one.
func (h *Holder) SetSession(ctx context.Context, session *domain.Session) error {
	_, err := h.exchange(ctx, request{kind: opSet, session: session})
	return err
}

// GetSession returns the stored session, or domain.ErrNotFound if absent or
// expired.
func (h *Holder) GetSession(ctx context.Context) (*domain.Session, error) {
	return h.exchange(ctx, request{kind: opGet})
}

// ClearSession wipes the session. Idempotent.
func (h *Holder) ClearSession(ctx context.Context) error {
	_, err := h.exchange(ctx, request{kind: opClear})
	return err
}

// Recreate tears down the holder process and starts a fresh empty one. The
// session is lost by construction, which is the fail-closed outcome.
func (h *Holder) Recreate(_ context.Context) error {
	h.locker.Lock()
	defer h.locker.Unlock()

	close(h.done)
	h.start()
	return nil
}

// Shutdown stops the holder process for good.
func (h *Holder) Shutdown() {
	h.locker.Lock()
	defer h.locker.Unlock()
	close(h.done)
}

func (h *Holder) exchange(ctx context.Context, req request) (*domain.Session, error) {
	if ctx.Err() != nil {
		return nil, domain.ErrUnavailable
	}

	h.locker.Lock()
	requests := h.requests
	h.locker.Unlock()

	req.reply = make(chan response, 1)

	timer := time.NewTimer(ExchangeTimeout)
	defer timer.Stop()

	select {
	case requests <- req:
	case <-timer.C:
		return nil, domain.ErrUnavailable
	case <-ctx.Done():
		return nil, domain.ErrUnavailable
	}

	select {
	case res := <-req.reply:
		return res.session, res.err
	case <-timer.C:
		return nil, domain.ErrUnavailable
	case <-ctx.Done():
		return nil, domain.ErrUnavailable
	}
}

var _ ports.SecretHolder = (*Holder)(nil)
