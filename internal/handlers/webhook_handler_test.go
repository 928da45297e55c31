package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services"
	"medbook_backend/internal/validator"
	"medbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "handler-test-secret"

type memEventRepo struct {
	events map[string]*models.WebhookEvent
}

func (r *memEventRepo) Create(_ context.Context, e *models.WebhookEvent) error {
	r.events[e.ProviderEventID] = e
	return nil
}

func (r *memEventRepo) FindByProviderEventID(_ context.Context, id string) (*models.WebhookEvent, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return e, nil
}

func (r *memEventRepo) Update(_ context.Context, e *models.WebhookEvent) error {
	r.events[e.ProviderEventID] = e
	return nil
}

func (r *memEventRepo) ListFailed(_ context.Context, _, _ int) ([]models.WebhookEvent, error) {
	return nil, nil
}

type memBookingRepo struct {
	booking *models.Booking
}

func (r *memBookingRepo) Create(_ context.Context, _ *models.Booking) error { return nil }

func (r *memBookingRepo) FindByID(_ context.Context, id string) (*models.Booking, error) {
	if r.booking != nil && r.booking.ID == id {
		return r.booking, nil
	}
	return nil, apperrors.ErrBookingNotFound
}

func (r *memBookingRepo) FindByProviderAppointmentID(_ context.Context, providerID string) (*models.Booking, error) {
	if r.booking != nil && r.booking.ProviderAppointmentID == providerID {
		return r.booking, nil
	}
	return nil, apperrors.ErrBookingNotFound
}

func (r *memBookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.booking = b
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *memBookingRepo) ListByReferrer(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) ListBySpecialist(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) ListByExaminee(_ context.Context, _ string) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) ActiveInRange(_ context.Context, _ string, _, _ time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) HasOverlap(_ context.Context, _ string, _, _ time.Time, _ string) (bool, error) {
	return false, nil
}

func (r *memBookingRepo) ConfirmedEndedBefore(_ context.Context, _ time.Time, _ int) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) ConfirmedStartingBetween(_ context.Context, _, _ time.Time) ([]models.Booking, error) {
	return nil, nil
}

func newWebhookTestRouter(booking *models.Booking) (*gin.Engine, *memEventRepo, *memBookingRepo) {
	gin.SetMode(gin.TestMode)

	eventRepo := &memEventRepo{events: make(map[string]*models.WebhookEvent)}
	bookingRepo := &memBookingRepo{booking: booking}
	webhookService := services.NewWebhookService(eventRepo, bookingRepo, nil, handlerTestSecret)

	base := NewBaseHandler(validator.New())
	handler := NewWebhookHandler(base, webhookService, nil)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router, eventRepo, bookingRepo
}

func signedRequest(body []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/calendar", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	req.Header.Set(SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestHandleCalendarEvent_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	// Arrange
	router, eventRepo, _ := newWebhookTestRouter(nil)
	body := []byte(`{"event_id":"evt-1","event_type":"appointment.confirmed","data":{}}`)
	req := signedRequest(body, "wrong-secret")

	// Act
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Assert: rejected before anything is persisted
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, eventRepo.events)
}

func TestHandleCalendarEvent_MissingSignature(t *testing.T) {
	t.Parallel()

	router, _, _ := newWebhookTestRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/calendar",
		bytes.NewReader([]byte(`{"event_id":"evt-1","event_type":"x","data":{}}`)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCalendarEvent_AppliesConfirmation(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusRequested,
	}
	router, eventRepo, bookingRepo := newWebhookTestRouter(booking)
	body := []byte(`{"event_id":"evt-1","event_type":"appointment.confirmed","data":{"appointment_id":"appt-1"}}`)

	// Act
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body, handlerTestSecret))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, models.BookingStatusConfirmed, bookingRepo.booking.Status)

	row, err := eventRepo.FindByProviderEventID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusProcessed, row.Status)
}

func TestHandleCalendarEvent_MalformedBody(t *testing.T) {
	t.Parallel()

	router, _, _ := newWebhookTestRouter(nil)
	body := []byte(`{not json`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body, handlerTestSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalendarEvent_MissingEventID(t *testing.T) {
	t.Parallel()

	router, _, _ := newWebhookTestRouter(nil)
	body := []byte(`{"event_type":"appointment.confirmed","data":{}}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body, handlerTestSecret))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalendarEvent_ProcessingFailureStillAcknowledged(t *testing.T) {
	t.Parallel()

	// Arrange: a reschedule with an unparseable timestamp fails to apply
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusConfirmed,
	}
	router, eventRepo, _ := newWebhookTestRouter(booking)
	body := []byte(`{"event_id":"evt-9","event_type":"appointment.rescheduled","data":{"appointment_id":"appt-1","starts_at":"garbage"}}`)

	// Act
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(body, handlerTestSecret))

	// Assert: 200 back to the provider, failure parked on the event row
	assert.Equal(t, http.StatusOK, rec.Code)
	row, err := eventRepo.FindByProviderEventID(context.Background(), "evt-9")
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusFailed, row.Status)
}

func TestHandleCalendarEvent_DuplicateDelivery(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusRequested,
	}
	router, eventRepo, _ := newWebhookTestRouter(booking)
	body := []byte(`{"event_id":"evt-1","event_type":"appointment.confirmed","data":{"appointment_id":"appt-1"}}`)

	// Act: the provider sends the same event twice
	first := httptest.NewRecorder()
	router.ServeHTTP(first, signedRequest(body, handlerTestSecret))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, signedRequest(body, handlerTestSecret))

	// Assert: both acknowledged, applied once
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-1")
	assert.Equal(t, 1, row.Attempts)
}
