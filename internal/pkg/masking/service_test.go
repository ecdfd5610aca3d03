package masking

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/database"
	"github.com/parkping/ParkPing/internal/pkg/quota"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and avoids
	// sqlite lock contention under parallel writers.
	sqlDB.SetMaxOpenConns(1)

	database.AutoMigrate(db)
	return db
}

type fixture struct {
	db      *gorm.DB
	repos   *repository.Repositories
	user    *models.User
	vehicle *models.Vehicle
	phone   *models.UserPhoneNumber
}

// newFixture seeds a user on the given plan with one primary phone and one
// masking-enabled vehicle.
func newFixture(t *testing.T, plan *models.SubscriptionPlan) *fixture {
	t.Helper()

	db := openTestDB(t)
	repos := repository.NewRepositories(db)

	user := &models.User{
		Name:     "Asha Verma",
		Email:    fmt.Sprintf("%s@example.com", t.Name()),
		Password: "irrelevant",
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	require.NoError(t, repos.User.Create(user))

	if plan != nil {
		require.NoError(t, repos.Plan.Create(plan))
		user.CurrentPlanID = &plan.ID
		user.CurrentPlan = plan
		require.NoError(t, repos.User.Update(user))
	}

	phone := &models.UserPhoneNumber{
		UserID:      user.ID,
		PhoneNumber: "+919876543210",
		IsPrimary:   true,
		Label:       "Mobile",
	}
	require.NoError(t, repos.PhoneNumber.Create(phone))

	vehicle := &models.Vehicle{
		UserID:         user.ID,
		VehicleType:    models.VEHICLE_TYPE_CAR,
		Make:           "Maruti",
		Model:          "Swift",
		Year:           2021,
		LicensePlate:   "KA01-MAIN",
		MaskingEnabled: true,
		IsQRActive:     true,
	}
	require.NoError(t, repos.Vehicle.Create(vehicle))

	return &fixture{db: db, repos: repos, user: user, vehicle: vehicle, phone: phone}
}

func maskingPlan(maxSessions uint) *models.SubscriptionPlan {
	return &models.SubscriptionPlan{
		Name:               "Basic",
		PlanType:           models.PLAN_TYPE_BASIC,
		Currency:           "INR",
		MaxVehicles:        5,
		MaxPhoneNumbers:    5,
		NumberMasking:      true,
		MaxMaskingSessions: maxSessions,
		IsActive:           true,
	}
}

type fakeConnector struct {
	mu           sync.Mutex
	calls        int
	owner        string
	scanner      string
	statuses     []string
	err          error
	unconfigured bool
}

func (f *fakeConnector) Configured() bool {
	return !f.unconfigured
}

func (f *fakeConnector) Connect(ownerNumber, scannerNumber, connectURL, statusURL string) (*ConnectResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.owner = ownerNumber
	f.scanner = scannerNumber
	if f.err != nil {
		return nil, f.err
	}
	return &ConnectResult{CallSID: fmt.Sprintf("CA%04d", f.calls), Status: "queued"}, nil
}

func newTestService(f *fixture, connector Connector) *Service {
	cfg := Config{
		SessionDuration: 30 * time.Minute,
		NumberPrefix:    "+1555",
		PublicBaseURL:   "https://parkping.example.com",
	}
	evaluator := quota.NewEvaluator(f.repos.Vehicle, f.repos.PhoneNumber, f.repos.MaskingSession)
	return NewService(cfg, f.repos.MaskingSession, f.repos.PhoneNumber, evaluator, connector)
}

func TestGetOrCreateSessionMaskingDisabled(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	f.vehicle.MaskingEnabled = false
	require.NoError(t, f.repos.Vehicle.Update(f.vehicle))

	_, err := svc.GetOrCreateSession(f.vehicle, f.user)
	assert.ErrorIs(t, err, ErrMaskingDisabled)
}

func TestGetOrCreateSessionNoContactNumber(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	require.NoError(t, f.repos.PhoneNumber.Delete(f.phone.ID))

	_, err := svc.GetOrCreateSession(f.vehicle, f.user)
	assert.ErrorIs(t, err, ErrNoContactNumber)
}

func TestGetOrCreateSessionWithoutPlanDenied(t *testing.T) {
	f := newFixture(t, nil)
	svc := newTestService(f, &fakeConnector{})

	_, err := svc.GetOrCreateSession(f.vehicle, f.user)

	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.False(t, quotaErr.Decision.Allowed)
	assert.Contains(t, quotaErr.Decision.Reason, "No active plan")
}

func TestGetOrCreateSessionReusesLiveSession(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	first, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)
	assert.False(t, first.IsExisting)
	assert.Equal(t, uint(1), first.CallCount)
	assert.Equal(t, "+919876543210", first.OriginalNumber)
	assert.Contains(t, first.MaskedNumber, "+1555")

	second, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)
	assert.True(t, second.IsExisting)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.MaskedNumber, second.MaskedNumber)
	assert.Equal(t, uint(2), second.CallCount)

	var count int64
	f.db.Model(&models.MaskingSession{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateSessionExpiredCreatesFresh(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	base := time.Now()
	svc.WithClock(func() time.Time { return base })

	first, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)

	// One second past expiry: the old session no longer matches.
	svc.WithClock(func() time.Time { return first.ExpiresAt.Add(time.Second) })

	second, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)
	assert.False(t, second.IsExisting)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, uint(1), second.CallCount)
}

func TestGetOrCreateSessionQuotaCap(t *testing.T) {
	f := newFixture(t, maskingPlan(1))
	svc := newTestService(f, &fakeConnector{})

	other := &models.Vehicle{
		UserID:         f.user.ID,
		VehicleType:    models.VEHICLE_TYPE_MOTORCYCLE,
		Make:           "Honda",
		Model:          "Activa",
		Year:           2020,
		LicensePlate:   "KA02-OTHER",
		MaskingEnabled: true,
		IsQRActive:     true,
	}
	require.NoError(t, f.repos.Vehicle.Create(other))

	_, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)

	_, err = svc.GetOrCreateSession(other, f.user)

	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(1), quotaErr.Decision.CurrentCount)
	assert.Equal(t, int64(1), quotaErr.Decision.MaxAllowed)
}

func TestGetOrCreateSessionZeroCapIsUnlimited(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	for i := 0; i < 3; i++ {
		plate := fmt.Sprintf("KA03-%04d", i)
		v := &models.Vehicle{
			UserID:         f.user.ID,
			VehicleType:    models.VEHICLE_TYPE_CAR,
			Make:           "Tata",
			Model:          "Nexon",
			Year:           2022,
			LicensePlate:   plate,
			MaskingEnabled: true,
			IsQRActive:     true,
		}
		require.NoError(t, f.repos.Vehicle.Create(v))

		_, err := svc.GetOrCreateSession(v, f.user)
		require.NoError(t, err, "session %d should not hit a cap", i)
	}
}

func TestConcurrentScansShareOneSession(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	const scanners = 20

	var wg sync.WaitGroup
	sessionIDs := make([]string, scanners)
	errs := make([]error, scanners)

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.GetOrCreateSession(f.vehicle, f.user)
			if err != nil {
				errs[i] = err
				return
			}
			sessionIDs[i] = result.SessionID
		}(i)
	}
	wg.Wait()

	for i := 0; i < scanners; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, sessionIDs[0], sessionIDs[i])
	}

	var count int64
	f.db.Model(&models.MaskingSession{}).
		Where("vehicle_id = ? AND status = ?", f.vehicle.ID, models.MASKING_STATUS_ACTIVE).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTerminate(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	result, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)

	require.NoError(t, svc.Terminate(f.vehicle, result.SessionID))

	// A cancelled session is a lookup miss, not a silent success.
	err = svc.Terminate(f.vehicle, result.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The next scan starts over.
	fresh, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)
	assert.False(t, fresh.IsExisting)
	assert.NotEqual(t, result.SessionID, fresh.SessionID)
}

func TestTerminateUnknownSession(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	err := svc.Terminate(f.vehicle, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInitiateCallBridgesNumbers(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	connector := &fakeConnector{}
	svc := newTestService(f, connector)

	result, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)
	require.NoError(t, err)
	assert.Equal(t, "CA0001", result.CallSID)
	assert.Equal(t, "queued", result.Status)

	assert.Equal(t, "+919876543210", connector.owner)
	assert.Equal(t, "+919123456789", connector.scanner)

	session, err := f.repos.MaskingSession.GetBySessionID(result.SessionID)
	require.NoError(t, err)
	assert.True(t, session.IsBridge())
	assert.Equal(t, "+919123456789", session.ScannerPhone)
	assert.Equal(t, "CA0001", session.TwilioCallSID)
	assert.Equal(t, uint(1), session.CallCount)
}

func TestInitiateCallRefreshesPairingForNewCaller(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	connector := &fakeConnector{}
	svc := newTestService(f, connector)

	first, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)
	require.NoError(t, err)

	second, err := svc.InitiateCall(f.vehicle, f.user, "9111111111", nil)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	session, err := f.repos.MaskingSession.GetBySessionID(second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "+919111111111", session.ScannerPhone)
	assert.Equal(t, uint(2), session.CallCount)
}

func TestInitiateCallInvalidScannerNumber(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	_, err := svc.InitiateCall(f.vehicle, f.user, "12345", nil)
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestInitiateCallRequiresPublicBaseURL(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	evaluator := quota.NewEvaluator(f.repos.Vehicle, f.repos.PhoneNumber, f.repos.MaskingSession)
	svc := NewService(Config{
		SessionDuration: 30 * time.Minute,
		NumberPrefix:    "+1555",
		PublicBaseURL:   "http://localhost:4000",
	}, f.repos.MaskingSession, f.repos.PhoneNumber, evaluator, &fakeConnector{})

	_, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestInitiateCallRequiresProviderCredentials(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{unconfigured: true})

	_, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	var callErr *CallError
	assert.False(t, errors.As(err, &callErr))

	// Misconfiguration fails before any session row is written.
	var count int64
	f.db.Model(&models.MaskingSession{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestInitiateCallProviderFailureKeepsSession(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	connector := &fakeConnector{err: errors.New("twilio rejected call: unverified number")}
	svc := newTestService(f, connector)

	_, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	require.NotEmpty(t, callErr.SessionID)

	// The session survives for a manual retry.
	session, lookupErr := f.repos.MaskingSession.GetBySessionID(callErr.SessionID)
	require.NoError(t, lookupErr)
	assert.Equal(t, models.MASKING_STATUS_ACTIVE, session.Status)
	assert.Empty(t, session.TwilioCallSID)
}

func TestInitiateCallWithChosenPhone(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	connector := &fakeConnector{}
	svc := newTestService(f, connector)

	work := &models.UserPhoneNumber{
		UserID:      f.user.ID,
		PhoneNumber: "+918888888888",
		Label:       "Work",
	}
	require.NoError(t, f.repos.PhoneNumber.Create(work))

	_, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", &work.ID)
	require.NoError(t, err)
	assert.Equal(t, "+918888888888", connector.owner)
}

func TestInitiateCallRejectsForeignPhone(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	stranger := &models.User{
		Name:     "Someone Else",
		Email:    "stranger@example.com",
		Password: "irrelevant",
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	require.NoError(t, f.repos.User.Create(stranger))
	foreign := &models.UserPhoneNumber{
		UserID:      stranger.ID,
		PhoneNumber: "+917777777777",
	}
	require.NoError(t, f.repos.PhoneNumber.Create(foreign))

	_, err := svc.InitiateCall(f.vehicle, f.user, "9123456789", &foreign.ID)
	assert.ErrorIs(t, err, ErrNoContactNumber)
}

func TestResolveBridgeTarget(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	_, err := svc.ResolveBridgeTarget(f.vehicle)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = svc.InitiateCall(f.vehicle, f.user, "9123456789", nil)
	require.NoError(t, err)

	target, err := svc.ResolveBridgeTarget(f.vehicle)
	require.NoError(t, err)
	assert.Equal(t, "+919123456789", target)
}

func TestResolveBridgeTargetIgnoresMaskedOnlySessions(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	_, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)

	// A masked-number session has no scanner leg to dial.
	_, err = svc.ResolveBridgeTarget(f.vehicle)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t, maskingPlan(0))
	svc := newTestService(f, &fakeConnector{})

	base := time.Now()
	svc.WithClock(func() time.Time { return base })

	result, err := svc.GetOrCreateSession(f.vehicle, f.user)
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return result.ExpiresAt.Add(time.Minute) })

	flipped, err := svc.ExpireStale()
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	session, err := f.repos.MaskingSession.GetBySessionID(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.MASKING_STATUS_EXPIRED, session.Status)
}
