package masking

import (
	"errors"
	"fmt"

	"github.com/parkping/ParkPing/internal/pkg/quota"
)

var (
	// ErrMaskingDisabled is returned for vehicles without the masking flag.
	ErrMaskingDisabled = errors.New("number masking is not enabled for this vehicle")
	// ErrNoContactNumber is returned when no contact phone can be resolved.
	ErrNoContactNumber = errors.New("vehicle has no contact phone number")
	// ErrInvalidPhone is returned for scanner numbers failing validation.
	ErrInvalidPhone = errors.New("invalid phone number format")
	// ErrNoActiveSession is returned when a callback cannot be paired.
	ErrNoActiveSession = errors.New("no active masking session for vehicle")
	// ErrSessionNotFound is returned when terminating a session that is not
	// live. Already expired or cancelled sessions are a lookup miss, not a
	// silent success.
	ErrSessionNotFound = errors.New("no matching active masking session")
	// ErrConfiguration indicates operator misconfiguration (missing public
	// base URL or provider credentials), not a user error.
	ErrConfiguration = errors.New("masking is not configured")
)

// QuotaError carries the denial decision so clients can show current/max.
type QuotaError struct {
	Decision quota.Decision
}

func (e *QuotaError) Error() string {
	return e.Decision.Reason
}

// CallError wraps a provider failure. The session row created before the
// connector call is retained for manual retry, not rolled back.
type CallError struct {
	SessionID string
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call initiation failed: %v", e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
