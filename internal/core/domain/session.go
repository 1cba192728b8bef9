package domain

import "time"

// Session is the unlocked state of the wallet. It lives exclusively in the
// ephemeral secret holder and is never serialized to persistent storage.
type Session struct {
	Password  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired ...
func (s *Session) IsExpired(now time.Time) bool {
	return s == nil || !s.ExpiresAt.After(now)
}

// WalletStatus is the coarse lifecycle state of the wallet.
type WalletStatus string

const (
	// StatusUninitialized means no password record exists yet.
	StatusUninitialized WalletStatus = "uninitialized"
	// StatusLocked ...
	StatusLocked WalletStatus = "locked"
	// StatusUnlocked ...
	StatusUnlocked WalletStatus = "unlocked"
)

// Session timeout policy bounds.
const (
	MinSessionTimeout     = 5 * time.Minute
	MaxSessionTimeout     = 24 * time.Hour
	DefaultSessionTimeout = 30 * time.Minute
)

// ValidateSessionTimeout checks the policy bounds.
func ValidateSessionTimeout(timeout time.Duration) error {
	if timeout < MinSessionTimeout || timeout > MaxSessionTimeout {
		return ErrInvalidTimeout
	}
	return nil
}
