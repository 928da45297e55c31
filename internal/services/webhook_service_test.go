package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"medbook_backend/internal/models"
	"medbook_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookTestSecret = "test-webhook-secret"

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookFixture(bookings ...*models.Booking) (*WebhookService, *fakeEventRepo, *fakeBookingRepo) {
	eventRepo := newFakeEventRepo()
	bookingRepo := newFakeBookingRepo(bookings...)
	specRepo := newFakeSpecialistRepo(testSpecialist("spec-1"))
	availability := newTestAvailability(specRepo, bookingRepo, &fakeCalendarProvider{}, testNow)

	return NewWebhookService(eventRepo, bookingRepo, availability, webhookTestSecret), eventRepo, bookingRepo
}

func providerEvent(eventID, eventType string, data dto.ProviderAppointmentData) (*dto.ProviderEvent, []byte) {
	rawData, _ := json.Marshal(data)
	event := &dto.ProviderEvent{
		EventID:   eventID,
		EventType: eventType,
		Data:      rawData,
	}
	rawBody, _ := json.Marshal(event)
	return event, rawBody
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	svc, _, _ := newWebhookFixture()
	body := []byte(`{"event_id":"evt-1"}`)

	assert.True(t, svc.VerifySignature(body, signBody(body)))
	assert.False(t, svc.VerifySignature(body, "deadbeef"))
	assert.False(t, svc.VerifySignature(body, ""))
	assert.False(t, svc.VerifySignature([]byte(`tampered`), signBody(body)))
}

func TestVerifySignature_EmptySecretRejectsAll(t *testing.T) {
	t.Parallel()

	svc := NewWebhookService(newFakeEventRepo(), newFakeBookingRepo(), nil, "")
	body := []byte(`{}`)

	assert.False(t, svc.VerifySignature(body, signBody(body)))
}

func TestIngest_ConfirmsBooking(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusRequested,
	}
	svc, eventRepo, bookingRepo := newWebhookFixture(booking)
	event, rawBody := providerEvent("evt-1", "appointment.confirmed", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
	})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert: the booking moved and the event row is processed
	require.NoError(t, err)
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	row, err := eventRepo.FindByProviderEventID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusProcessed, row.Status)
	assert.Equal(t, 1, row.Attempts)
	assert.NotNil(t, row.ProcessedAt)
}

func TestIngest_DuplicateEventIsNotReapplied(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusRequested,
	}
	svc, eventRepo, bookingRepo := newWebhookFixture(booking)
	event, rawBody := providerEvent("evt-1", "appointment.confirmed", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
	})
	require.NoError(t, svc.Ingest(context.Background(), event, rawBody))

	// The booking later moves on
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	stored.Status = models.BookingStatusCompleted

	// Act: the provider redelivers the same event
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert: acknowledged, nothing re-applied
	require.NoError(t, err)
	stored, _ = bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusCompleted, stored.Status)
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-1")
	assert.Equal(t, 1, row.Attempts)
}

func TestIngest_RescheduledUpdatesTimes(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusConfirmed,
		StartsAt:              testMonday.Add(9 * time.Hour),
		EndsAt:                testMonday.Add(10 * time.Hour),
	}
	svc, _, bookingRepo := newWebhookFixture(booking)
	newStart := testMonday.AddDate(0, 0, 7).Add(9 * time.Hour)
	event, rawBody := providerEvent("evt-2", "appointment.rescheduled", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
		StartsAt:      newStart.Format(time.RFC3339),
		EndsAt:        newStart.Add(time.Hour).Format(time.RFC3339),
	})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert
	require.NoError(t, err)
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusRescheduled, stored.Status)
	assert.Equal(t, newStart, stored.StartsAt)
	assert.Equal(t, newStart.Add(time.Hour), stored.EndsAt)
}

func TestIngest_CancelledRecordsReason(t *testing.T) {
	t.Parallel()

	// Arrange
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusConfirmed,
	}
	svc, _, bookingRepo := newWebhookFixture(booking)
	event, rawBody := providerEvent("evt-3", "appointment.cancelled", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
		Reason:        "Practitioner unavailable",
	})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert
	require.NoError(t, err)
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)
	assert.Equal(t, "Practitioner unavailable", stored.CancellationReason)
	assert.Equal(t, "provider", stored.CancelledBy)
}

func TestIngest_UnknownEventTypeSkipped(t *testing.T) {
	t.Parallel()

	// Arrange
	svc, eventRepo, _ := newWebhookFixture()
	event, rawBody := providerEvent("evt-4", "calendar.sync_completed", dto.ProviderAppointmentData{})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert: recorded and skipped, not failed
	require.NoError(t, err)
	row, err := eventRepo.FindByProviderEventID(context.Background(), "evt-4")
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusSkipped, row.Status)
}

func TestIngest_UnknownAppointmentSkipped(t *testing.T) {
	t.Parallel()

	// Arrange: no booking carries this provider appointment id
	svc, eventRepo, _ := newWebhookFixture()
	event, rawBody := providerEvent("evt-5", "appointment.confirmed", dto.ProviderAppointmentData{
		AppointmentID: "appt-stranger",
	})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert
	require.NoError(t, err)
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-5")
	assert.Equal(t, models.WebhookStatusSkipped, row.Status)
}

func TestIngest_NonApplicableTransitionSkipped(t *testing.T) {
	t.Parallel()

	// Arrange: cancelled is terminal, a late confirm must not resurrect it
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusCancelled,
	}
	svc, eventRepo, bookingRepo := newWebhookFixture(booking)
	event, rawBody := providerEvent("evt-6", "appointment.confirmed", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
	})

	// Act
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert
	require.NoError(t, err)
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-6")
	assert.Equal(t, models.WebhookStatusSkipped, row.Status)
}

func TestIngest_MalformedDataMarksFailed(t *testing.T) {
	t.Parallel()

	// Arrange: rescheduled without parseable times
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusConfirmed,
	}
	svc, eventRepo, _ := newWebhookFixture(booking)
	event, rawBody := providerEvent("evt-7", "appointment.rescheduled", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
		StartsAt:      "not-a-timestamp",
	})

	// Act: intake still succeeds, the failure lands on the event row
	err := svc.Ingest(context.Background(), event, rawBody)

	// Assert
	require.NoError(t, err)
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-7")
	assert.Equal(t, models.WebhookStatusFailed, row.Status)
	assert.NotEmpty(t, row.LastError)
	assert.Equal(t, 1, row.Attempts)
}

func TestReprocess_RecoversFailedEvent(t *testing.T) {
	t.Parallel()

	// Arrange: a confirm event that failed on first intake because the
	// booking row did not exist yet
	svc, eventRepo, bookingRepo := newWebhookFixture()
	event, rawBody := providerEvent("evt-8", "appointment.confirmed", dto.ProviderAppointmentData{
		AppointmentID: "appt-1",
	})
	require.NoError(t, svc.Ingest(context.Background(), event, rawBody))
	row, _ := eventRepo.FindByProviderEventID(context.Background(), "evt-8")
	require.Equal(t, models.WebhookStatusSkipped, row.Status)
	row.Status = models.WebhookStatusFailed

	// The booking shows up afterwards
	booking := &models.Booking{
		BaseModelWithDeleted:  models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "b1"}},
		SpecialistID:          "spec-1",
		ProviderAppointmentID: "appt-1",
		Status:                models.BookingStatusRequested,
	}
	require.NoError(t, bookingRepo.Create(context.Background(), booking))

	// Act
	svc.Reprocess(context.Background(), row)

	// Assert
	assert.Equal(t, models.WebhookStatusProcessed, row.Status)
	assert.Equal(t, 2, row.Attempts)
	stored, _ := bookingRepo.FindByID(context.Background(), "b1")
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
}
