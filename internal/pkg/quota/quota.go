// Package quota decides whether a user's plan allows creating one more
// resource of a given kind. Decisions are structured values, never errors:
// call sites reject the mutating request or proceed, nothing else.
package quota

import (
	"fmt"
	"log"
	"time"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
)

type ResourceKind string

const (
	ResourceVehicle        ResourceKind = "vehicle"
	ResourcePhoneNumber    ResourceKind = "phone_number"
	ResourceMaskingSession ResourceKind = "masking_session"
)

// Decision is the structured outcome of a quota check. CurrentCount and
// MaxAllowed are surfaced so the UI can render an upgrade prompt.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason"`
	CurrentCount int64  `json:"current_count"`
	MaxAllowed   int64  `json:"max_allowed"`
}

// Evaluator answers can-create questions against live resource counts.
type Evaluator struct {
	vehicles repository.VehicleRepository
	phones   repository.PhoneNumberRepository
	sessions repository.MaskingSessionRepository
	now      func() time.Time
}

// NewEvaluator creates an evaluator backed by the given repositories.
func NewEvaluator(
	vehicles repository.VehicleRepository,
	phones repository.PhoneNumberRepository,
	sessions repository.MaskingSessionRepository,
) *Evaluator {
	return &Evaluator{
		vehicles: vehicles,
		phones:   phones,
		sessions: sessions,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Test helper.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// CanCreate checks whether the user may create one more resource of the given
// kind. The user's CurrentPlan must be preloaded; a user without a plan is
// denied everything with a terminal message.
func (e *Evaluator) CanCreate(user *models.User, kind ResourceKind) Decision {
	plan := user.CurrentPlan
	if plan == nil {
		return Decision{
			Allowed: false,
			Reason:  "No active plan found. Please contact support.",
		}
	}

	switch kind {
	case ResourceVehicle:
		count, err := e.vehicles.CountByUserID(user.ID)
		if err != nil {
			return e.countFailure(kind, err)
		}
		return e.limitDecision(plan.Name, "vehicles", count, int64(plan.MaxVehicles))

	case ResourcePhoneNumber:
		count, err := e.phones.CountByUserID(user.ID)
		if err != nil {
			return e.countFailure(kind, err)
		}
		return e.limitDecision(plan.Name, "phone numbers", count, int64(plan.MaxPhoneNumbers))

	case ResourceMaskingSession:
		count, err := e.sessions.CountActiveByUserID(user.ID, e.now())
		if err != nil {
			return e.countFailure(kind, err)
		}
		max := int64(plan.MaxMaskingSessions)
		// A zero cap means no cap for this resource. Surprising but load
		// bearing: the free plan ships with 0 and masking must still work
		// wherever the feature flag allows it.
		if max == 0 {
			return Decision{
				Allowed:      true,
				Reason:       fmt.Sprintf("Masking sessions are not capped on your %s plan.", plan.Name),
				CurrentCount: count,
				MaxAllowed:   0,
			}
		}
		return e.limitDecision(plan.Name, "masking sessions", count, max)

	default:
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("Unknown resource kind: %s", kind),
		}
	}
}

func (e *Evaluator) limitDecision(planName, label string, count, max int64) Decision {
	if count >= max {
		return Decision{
			Allowed:      false,
			Reason:       fmt.Sprintf("You have reached the maximum number of %s (%d) for your %s plan. Please upgrade to add more.", label, max, planName),
			CurrentCount: count,
			MaxAllowed:   max,
		}
	}
	return Decision{
		Allowed:      true,
		Reason:       fmt.Sprintf("You can add %d more %s on your %s plan.", max-count, label, planName),
		CurrentCount: count,
		MaxAllowed:   max,
	}
}

// countFailure keeps the no-error contract: a failed count denies creation
// instead of surfacing a storage error to every call site.
func (e *Evaluator) countFailure(kind ResourceKind, err error) Decision {
	log.Printf("quota: failed to count %s: %v", kind, err)
	return Decision{
		Allowed: false,
		Reason:  "Could not determine current usage. Please try again.",
	}
}

// HasFeature reports whether the user's plan enables the named feature flag.
func HasFeature(user *models.User, feature string) bool {
	if user.CurrentPlan == nil {
		return false
	}
	return user.CurrentPlan.HasFeature(feature)
}
