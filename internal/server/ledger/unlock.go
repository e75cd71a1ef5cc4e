package ledger

import (
	"fmt"
	"time"

	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/models"
)

const (
	DefaultUnlockDuration = 60 * time.Minute
	MaxUnlockDuration     = 7 * 24 * time.Hour
)

// UnlockDuration converts a requested number of minutes into a duration.
// Zero selects the default; values outside 1..MaxUnlockDuration are invalid.
func UnlockDuration(minutes int) (time.Duration, error) {
	if minutes == 0 {
		return DefaultUnlockDuration, nil
	}
	d := time.Duration(minutes) * time.Minute
	if minutes < 0 || d > MaxUnlockDuration {
		return 0, fmt.Errorf("%w: durationMinutes must be between 1 and %d", common.ErrValidation, int(MaxUnlockDuration/time.Minute))
	}
	return d, nil
}

// Approve moves a pending request to approved.
func Approve(r *models.UnlockRequest, by string, at time.Time, until time.Time) error {
	if r.Status != models.UnlockPending {
		return fmt.Errorf("%w: request is %s", common.ErrInvalidTransition, r.Status)
	}
	r.Status = models.UnlockApproved
	r.DecidedBy = by
	r.DecidedAt = &at
	r.UnlockedUntil = &until
	return nil
}

// Reject moves a pending request to rejected.
func Reject(r *models.UnlockRequest, by string, at time.Time, reason string) error {
	if r.Status != models.UnlockPending {
		return fmt.Errorf("%w: request is %s", common.ErrInvalidTransition, r.Status)
	}
	r.Status = models.UnlockRejected
	r.DecidedBy = by
	r.DecidedAt = &at
	r.RejectionReason = reason
	return nil
}
