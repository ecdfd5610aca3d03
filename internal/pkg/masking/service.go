// Package masking owns the lifecycle of phone number masking sessions:
// reuse versus creation, expiry, termination and call tracking, gated by the
// plan quota. It is the only writer of masking session rows.
package masking

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/keylock"
	"github.com/parkping/ParkPing/internal/pkg/phone"
	"github.com/parkping/ParkPing/internal/pkg/quota"
)

// Connector is the outbound call provider contract. The service does not
// interpret provider error taxonomies beyond success and failure. Configured
// reports whether credentials are present; the service checks it before
// writing any session state so misconfiguration never leaves stray rows.
type Connector interface {
	Connect(ownerNumber, scannerNumber, connectURL, statusURL string) (*ConnectResult, error)
	Configured() bool
}

// ConnectResult is what a successful provider call hands back.
type ConnectResult struct {
	CallSID string
	Status  string
}

// SessionResult is returned by GetOrCreateSession.
type SessionResult struct {
	SessionID      string    `json:"session_id"`
	MaskedNumber   string    `json:"masked_number"`
	OriginalNumber string    `json:"original_number"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsExisting     bool      `json:"is_existing"`
	CallCount      uint      `json:"call_count"`
}

// CallResult is returned by InitiateCall.
type CallResult struct {
	SessionID string `json:"session_id"`
	CallSID   string `json:"call_id"`
	Status    string `json:"status"`
}

// Service serializes the decision of what number a scanner is given or
// connected to. All dependencies are injected; cfg is immutable.
type Service struct {
	cfg       Config
	sessions  repository.MaskingSessionRepository
	phones    repository.PhoneNumberRepository
	evaluator *quota.Evaluator
	connector Connector
	generate  Generator
	locks     *keylock.Registry
	now       func() time.Time
}

// NewService creates a masking session manager.
func NewService(
	cfg Config,
	sessions repository.MaskingSessionRepository,
	phones repository.PhoneNumberRepository,
	evaluator *quota.Evaluator,
	connector Connector,
) *Service {
	return &Service{
		cfg:       cfg,
		sessions:  sessions,
		phones:    phones,
		evaluator: evaluator,
		connector: connector,
		generate:  GenerateMaskedNumber,
		locks:     keylock.NewRegistry(),
		now:       time.Now,
	}
}

// WithGenerator overrides the masked number generator. Test helper.
func (s *Service) WithGenerator(g Generator) *Service {
	s.generate = g
	return s
}

// WithClock overrides the time source. Test helper.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func pairKey(vehicleID uint, originalPhone string) string {
	return fmt.Sprintf("%d:%s", vehicleID, originalPhone)
}

// resolveContactNumber picks the vehicle's contact phone, falling back to
// the owner's primary number. Numbers are normalized before use so both
// session flows key the same (vehicle, phone) pair identically.
func (s *Service) resolveContactNumber(vehicle *models.Vehicle) (string, error) {
	if vehicle.ContactPhoneID != nil {
		p, err := s.phones.GetByID(*vehicle.ContactPhoneID)
		if err == nil {
			return phone.Normalize(p.PhoneNumber), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}
	p, err := s.phones.GetPrimaryByUserID(vehicle.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoContactNumber
		}
		return "", err
	}
	return phone.Normalize(p.PhoneNumber), nil
}

func (s *Service) checkQuota(owner *models.User) error {
	decision := s.evaluator.CanCreate(owner, quota.ResourceMaskingSession)
	if !decision.Allowed {
		return &QuotaError{Decision: decision}
	}
	return nil
}

// GetOrCreateSession hands the scanner a masked number for the vehicle's
// contact phone. Repeated scans inside the expiry window reuse the live
// session; its call count keeps climbing.
func (s *Service) GetOrCreateSession(vehicle *models.Vehicle, owner *models.User) (*SessionResult, error) {
	if !vehicle.MaskingEnabled {
		return nil, ErrMaskingDisabled
	}

	originalPhone, err := s.resolveContactNumber(vehicle)
	if err != nil {
		return nil, err
	}

	if err := s.checkQuota(owner); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(pairKey(vehicle.ID, originalPhone))
	defer unlock()

	now := s.now()

	existing, err := s.sessions.FindActiveByVehicleAndPhone(vehicle.ID, originalPhone, now)
	if err == nil {
		existing.CallCount++
		existing.LastCalledAt = &now
		if err := s.sessions.Update(existing); err != nil {
			return nil, err
		}
		return &SessionResult{
			SessionID:      existing.SessionID,
			MaskedNumber:   existing.MaskedNumber,
			OriginalNumber: existing.OriginalPhone,
			ExpiresAt:      existing.ExpiresAt,
			IsExisting:     true,
			CallCount:      existing.CallCount,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	masked, err := s.generate(s.cfg.NumberPrefix)
	if err != nil {
		return nil, err
	}

	session := &models.MaskingSession{
		VehicleID:     vehicle.ID,
		Mode:          models.MASKING_MODE_MASKED,
		OriginalPhone: originalPhone,
		MaskedNumber:  masked,
		Status:        models.MASKING_STATUS_ACTIVE,
		CallCount:     1,
		LastCalledAt:  &now,
		ExpiresAt:     now.Add(s.cfg.SessionDuration),
	}
	if err := s.sessions.Create(session); err != nil {
		// A concurrent writer beat us past the lock (multi-process setups).
		// Retry the find-existing branch instead of failing the scan.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if again, ferr := s.sessions.FindActiveByVehicleAndPhone(vehicle.ID, originalPhone, now); ferr == nil {
				return &SessionResult{
					SessionID:      again.SessionID,
					MaskedNumber:   again.MaskedNumber,
					OriginalNumber: again.OriginalPhone,
					ExpiresAt:      again.ExpiresAt,
					IsExisting:     true,
					CallCount:      again.CallCount,
				}, nil
			}
		}
		return nil, err
	}

	return &SessionResult{
		SessionID:      session.SessionID,
		MaskedNumber:   session.MaskedNumber,
		OriginalNumber: session.OriginalPhone,
		ExpiresAt:      session.ExpiresAt,
		IsExisting:     false,
		CallCount:      session.CallCount,
	}, nil
}

// InitiateCall asks the provider to bridge the scanner with the owner.
// chosenPhoneID optionally picks one of the owner's contact numbers; it must
// belong to the vehicle's owner. The session row is written before the
// provider call and kept on provider failure.
func (s *Service) InitiateCall(vehicle *models.Vehicle, owner *models.User, scannerNumber string, chosenPhoneID *uint) (*CallResult, error) {
	if !vehicle.MaskingEnabled {
		return nil, ErrMaskingDisabled
	}
	if !phone.IsValid(scannerNumber) {
		return nil, ErrInvalidPhone
	}
	if !s.cfg.HasPublicBaseURL() {
		return nil, fmt.Errorf("%w: PUBLIC_BASE_URL must be set to a publicly accessible URL", ErrConfiguration)
	}
	if !s.connector.Configured() {
		return nil, fmt.Errorf("%w: call provider credentials missing", ErrConfiguration)
	}

	var ownerNumber string
	if chosenPhoneID != nil {
		p, err := s.phones.GetByIDAndUserID(*chosenPhoneID, vehicle.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoContactNumber
			}
			return nil, err
		}
		ownerNumber = phone.Normalize(p.PhoneNumber)
	} else {
		var err error
		ownerNumber, err = s.resolveContactNumber(vehicle)
		if err != nil {
			return nil, err
		}
	}

	if err := s.checkQuota(owner); err != nil {
		return nil, err
	}

	ownerFormatted := ownerNumber
	scannerFormatted := phone.Normalize(scannerNumber)

	unlock := s.locks.Acquire(pairKey(vehicle.ID, ownerFormatted))
	defer unlock()

	now := s.now()

	session, err := s.sessions.FindActiveByVehicleAndPhone(vehicle.ID, ownerFormatted, now)
	if err == nil {
		// Refresh the live pairing for the new caller.
		session.Mode = models.MASKING_MODE_BRIDGE
		session.ScannerPhone = scannerFormatted
		session.ExpiresAt = now.Add(s.cfg.SessionDuration)
		if err := s.sessions.Update(session); err != nil {
			return nil, err
		}
	} else {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		session = &models.MaskingSession{
			VehicleID:     vehicle.ID,
			Mode:          models.MASKING_MODE_BRIDGE,
			OriginalPhone: ownerFormatted,
			ScannerPhone:  scannerFormatted,
			Status:        models.MASKING_STATUS_ACTIVE,
			CallCount:     0,
			ExpiresAt:     now.Add(s.cfg.SessionDuration),
		}
		if err := s.sessions.Create(session); err != nil {
			return nil, err
		}
	}

	connectURL := fmt.Sprintf("%s/qr/%s/twilio-connect", s.cfg.PublicBaseURL, vehicle.QRUniqueID)
	statusURL := fmt.Sprintf("%s/qr/%s/twilio-status", s.cfg.PublicBaseURL, vehicle.QRUniqueID)

	result, err := s.connector.Connect(ownerFormatted, scannerFormatted, connectURL, statusURL)
	if err != nil {
		// Session stays for manual retry.
		return nil, &CallError{SessionID: session.SessionID, Err: err}
	}

	session.TwilioCallSID = result.CallSID
	session.CallCount++
	session.LastCalledAt = &now
	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	return &CallResult{
		SessionID: session.SessionID,
		CallSID:   result.CallSID,
		Status:    result.Status,
	}, nil
}

// ResolveBridgeTarget returns the scanner number the provider should dial
// once the owner answers.
func (s *Service) ResolveBridgeTarget(vehicle *models.Vehicle) (string, error) {
	session, err := s.sessions.FindLatestActiveByVehicle(vehicle.ID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoActiveSession
		}
		return "", err
	}
	if session.ScannerPhone == "" {
		return "", ErrNoActiveSession
	}
	return session.ScannerPhone, nil
}

// Terminate cancels a live session. Terminating a session that is already
// expired or cancelled fails with ErrSessionNotFound.
func (s *Service) Terminate(vehicle *models.Vehicle, sessionID string) error {
	session, err := s.sessions.FindActiveBySessionID(vehicle.ID, sessionID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	session.Status = models.MASKING_STATUS_CANCELLED
	return s.sessions.Update(session)
}

// RecordCallStatus stores the provider call id on the session it belongs to.
// Provider callbacks are opportunistic: failures are logged, never returned,
// so the callback endpoint can always acknowledge.
func (s *Service) RecordCallStatus(vehicle *models.Vehicle, callSID, callStatus string) {
	if callSID == "" {
		return
	}
	session, err := s.sessions.FindByCallSID(callSID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("masking: call status lookup failed for %s: %v", callSID, err)
			return
		}
		session, err = s.sessions.FindLatestActiveByVehicle(vehicle.ID, s.now())
		if err != nil {
			return
		}
		session.TwilioCallSID = callSID
	}
	if err := s.sessions.Update(session); err != nil {
		log.Printf("masking: failed to record call status %s for %s: %v", callStatus, callSID, err)
	}
}

// ExpireStale flips overdue rows to expired. Correctness never depends on
// this; it keeps reporting queries honest.
func (s *Service) ExpireStale() (int64, error) {
	return s.sessions.ExpireStale(s.now())
}
