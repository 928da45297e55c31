package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"

	"gorm.io/datatypes"
)

// providerEventStatus maps the scheduling provider's event types onto
// booking statuses. Unknown types are recorded and skipped.
var providerEventStatus = map[string]models.BookingStatus{
	"appointment.confirmed":   models.BookingStatusConfirmed,
	"appointment.rescheduled": models.BookingStatusRescheduled,
	"appointment.cancelled":   models.BookingStatusCancelled,
	"appointment.completed":   models.BookingStatusCompleted,
	"appointment.no_show":     models.BookingStatusNoShow,
}

type WebhookService struct {
	eventRepo    repositories.WebhookEventRepository
	bookingRepo  repositories.BookingRepository
	availability *AvailabilityService
	secret       []byte
}

func NewWebhookService(
	eventRepo repositories.WebhookEventRepository,
	bookingRepo repositories.BookingRepository,
	availability *AvailabilityService,
	secret string,
) *WebhookService {
	return &WebhookService{
		eventRepo:    eventRepo,
		bookingRepo:  bookingRepo,
		availability: availability,
		secret:       []byte(secret),
	}
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw request
// body against the shared secret.
func (s *WebhookService) VerifySignature(body []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// Ingest persists and applies one provider event. Intake is idempotent:
// an event id seen before is acknowledged without being re-applied.
// Processing failures are recorded on the event row for the retry worker
// and are not returned, so the provider still gets a 2xx and does not
// hammer us with redelivery.
func (s *WebhookService) Ingest(ctx context.Context, event *dto.ProviderEvent, rawBody []byte) error {
	if _, err := s.eventRepo.FindByProviderEventID(ctx, event.EventID); err == nil {
		logger.CtxInfo(ctx, "duplicate webhook event skipped", "provider_event_id", event.EventID)
		return nil
	} else if err != repositories.ErrEventNotFound {
		return err
	}

	row := &models.WebhookEvent{
		ProviderEventID: event.EventID,
		EventType:       event.EventType,
		Payload:         datatypes.JSON(rawBody),
		Status:          models.WebhookStatusPending,
	}
	if err := s.eventRepo.Create(ctx, row); err != nil {
		return err
	}

	s.applyAndRecord(ctx, row, event)
	return nil
}

// Reprocess re-applies a previously failed event. Used by the retry worker.
func (s *WebhookService) Reprocess(ctx context.Context, row *models.WebhookEvent) {
	var event dto.ProviderEvent
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		s.markFailed(ctx, row, fmt.Errorf("corrupt payload: %w", err))
		return
	}
	s.applyAndRecord(ctx, row, &event)
}

func (s *WebhookService) applyAndRecord(ctx context.Context, row *models.WebhookEvent, event *dto.ProviderEvent) {
	row.Attempts++

	applied, err := s.apply(ctx, event)
	if err != nil {
		s.markFailed(ctx, row, err)
		return
	}

	now := time.Now()
	row.ProcessedAt = &now
	row.LastError = ""
	if applied {
		row.Status = models.WebhookStatusProcessed
	} else {
		row.Status = models.WebhookStatusSkipped
	}
	if err := s.eventRepo.Update(ctx, row); err != nil {
		logger.CtxWithError(ctx, "failed to update webhook event row", err, "provider_event_id", row.ProviderEventID)
	}
}

func (s *WebhookService) markFailed(ctx context.Context, row *models.WebhookEvent, cause error) {
	row.Status = models.WebhookStatusFailed
	row.LastError = cause.Error()
	logger.CtxWarn(ctx, "webhook event processing failed",
		"error", cause.Error(), "provider_event_id", row.ProviderEventID, "attempts", row.Attempts)
	if err := s.eventRepo.Update(ctx, row); err != nil {
		logger.CtxWithError(ctx, "failed to update webhook event row", err, "provider_event_id", row.ProviderEventID)
	}
}

// apply mutates the referenced booking. It returns false when the event
// carries nothing for us (unknown type, unknown appointment, or a status
// the booking cannot move to anymore).
func (s *WebhookService) apply(ctx context.Context, event *dto.ProviderEvent) (bool, error) {
	target, known := providerEventStatus[event.EventType]
	if !known {
		logger.CtxInfo(ctx, "unknown webhook event type skipped", "event_type", event.EventType)
		return false, nil
	}

	var data dto.ProviderAppointmentData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return false, fmt.Errorf("decode event data: %w", err)
	}
	if data.AppointmentID == "" {
		return false, fmt.Errorf("event %s carries no appointment id", event.EventID)
	}

	booking, err := s.bookingRepo.FindByProviderAppointmentID(ctx, data.AppointmentID)
	if err != nil {
		// The appointment may belong to a calendar entry we never created.
		logger.CtxInfo(ctx, "webhook references unknown appointment, skipped",
			"provider_appointment_id", data.AppointmentID)
		return false, nil
	}

	if !models.CanTransition(booking.Status, target) {
		logger.CtxInfo(ctx, "webhook transition not applicable, skipped",
			"booking_id", booking.ID, "from", booking.Status, "to", target)
		return false, nil
	}

	if target == models.BookingStatusRescheduled {
		startsAt, err := time.Parse(time.RFC3339, data.StartsAt)
		if err != nil {
			return false, fmt.Errorf("parse starts_at: %w", err)
		}
		endsAt, err := time.Parse(time.RFC3339, data.EndsAt)
		if err != nil {
			return false, fmt.Errorf("parse ends_at: %w", err)
		}
		booking.StartsAt = startsAt.UTC()
		booking.EndsAt = endsAt.UTC()
	}
	if target == models.BookingStatusCancelled {
		booking.CancellationReason = data.Reason
		booking.CancelledBy = "provider"
	}
	booking.Status = target

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return false, err
	}

	if s.availability != nil {
		s.availability.Invalidate(ctx, booking.SpecialistID)
	}

	logger.CtxInfo(ctx, "webhook event applied",
		"booking_id", booking.ID, "event_type", event.EventType, "status", target)
	return true, nil
}
