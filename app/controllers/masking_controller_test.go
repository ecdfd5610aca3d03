package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/database"
	"github.com/parkping/ParkPing/internal/pkg/masking"
	"github.com/parkping/ParkPing/internal/pkg/quota"
)

type stubConnector struct {
	err error
}

func (s stubConnector) Configured() bool {
	return true
}

func (s stubConnector) Connect(ownerNumber, scannerNumber, connectURL, statusURL string) (*masking.ConnectResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &masking.ConnectResult{CallSID: "CA1234", Status: "queued"}, nil
}

// setupMaskingApp builds a fiber app with the public masking routes backed by
// an isolated in-memory database.
func setupMaskingApp(t *testing.T, withPlan bool) (*fiber.App, *models.Vehicle) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	database.AutoMigrate(db)

	repository.ResetGlobalFactory()
	repository.InitializeFactory(db)
	t.Cleanup(repository.ResetGlobalFactory)

	repos := repository.GetGlobalFactory().GetRepositories()

	user := &models.User{
		Name:     "Asha Verma",
		Email:    fmt.Sprintf("%s@example.com", t.Name()),
		Password: "irrelevant",
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	require.NoError(t, repos.User.Create(user))

	if withPlan {
		plan := &models.SubscriptionPlan{
			Name:          "Basic",
			PlanType:      models.PLAN_TYPE_BASIC,
			Currency:      "INR",
			NumberMasking: true,
			IsActive:      true,
		}
		require.NoError(t, repos.Plan.Create(plan))
		user.CurrentPlanID = &plan.ID
		require.NoError(t, repos.User.Update(user))
	}

	require.NoError(t, repos.PhoneNumber.Create(&models.UserPhoneNumber{
		UserID:      user.ID,
		PhoneNumber: "+919876543210",
		IsPrimary:   true,
	}))

	vehicle := &models.Vehicle{
		UserID:         user.ID,
		VehicleType:    models.VEHICLE_TYPE_CAR,
		Make:           "Maruti",
		Model:          "Swift",
		Year:           2021,
		LicensePlate:   "KA01AB1234",
		MaskingEnabled: true,
		IsQRActive:     true,
	}
	require.NoError(t, repos.Vehicle.Create(vehicle))

	evaluator := quota.NewEvaluator(repos.Vehicle, repos.PhoneNumber, repos.MaskingSession)
	svc := masking.NewService(masking.Config{
		SessionDuration: 30 * time.Minute,
		NumberPrefix:    "+1555",
		PublicBaseURL:   "https://parkping.example.com",
	}, repos.MaskingSession, repos.PhoneNumber, evaluator, stubConnector{})
	InitializeMaskingController(svc, "+15550001111")

	app := fiber.New()
	app.Post("/qr/:qrID/masked-number", HandleGetMaskedNumber)
	app.Post("/qr/:qrID/initiate-call", HandleInitiateCall)
	app.Post("/qr/:qrID/terminate-masking", HandleTerminateMasking)
	app.Post("/qr/:qrID/twilio-connect", HandleTwilioConnect)
	app.Post("/qr/:qrID/twilio-status", HandleTwilioStatus)

	return app, vehicle
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "text/xml" {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	} else {
		decoded = map[string]any{"raw": string(raw)}
	}
	return resp, decoded
}

func TestMaskedNumberEndpoint(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	resp, body := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/masked-number", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["session_id"])
	assert.Contains(t, body["masked_number"], "+1555")
	assert.Equal(t, false, body["is_existing"])

	// Second scan reuses the session.
	resp, body = postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/masked-number", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_existing"])
	assert.Equal(t, float64(2), body["call_count"])
}

func TestMaskedNumberUnknownQR(t *testing.T) {
	app, _ := setupMaskingApp(t, true)

	resp, body := postJSON(t, app, "/qr/does-not-exist/masked-number", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestMaskedNumberInactiveQR(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	vehicle.IsQRActive = false
	require.NoError(t, repository.GetGlobalFactory().GetVehicleRepository().Update(vehicle))

	resp, _ := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/masked-number", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMaskedNumberWithoutPlanIsDenied(t *testing.T) {
	app, vehicle := setupMaskingApp(t, false)

	resp, body := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/masked-number", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "quota_exceeded", body["error"])
}

func TestInitiateCallEndpoint(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	resp, body := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/initiate-call",
		map[string]any{"phone_number": "9123456789"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "CA1234", body["call_id"])

	resp, body = postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/initiate-call",
		map[string]any{"phone_number": "bad"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestTerminateMaskingEndpoint(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	_, body := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/masked-number", nil)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	resp, _ := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/terminate-masking",
		map[string]any{"session_id": sessionID})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Terminating again misses.
	resp, _ = postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/terminate-masking",
		map[string]any{"session_id": sessionID})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTwilioConnectAlwaysAnswers(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	// No session yet: a spoken rejection, still 200.
	resp, body := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/twilio-connect", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body["raw"], "<Say")
	assert.NotContains(t, body["raw"], "<Dial")

	_, _ = postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/initiate-call",
		map[string]any{"phone_number": "9123456789"})

	resp, body = postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/twilio-connect", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body["raw"], "<Number>+919123456789</Number>")
}

func TestTwilioStatusAlwaysAcks(t *testing.T) {
	app, vehicle := setupMaskingApp(t, true)

	resp, _ := postJSON(t, app, "/qr/"+vehicle.QRUniqueID+"/twilio-status", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, app, "/qr/unknown/twilio-status", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
