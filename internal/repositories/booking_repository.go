package repositories

import (
	"context"
	"errors"
	"time"

	"medbook_backend/internal/models"
	"medbook_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// activeStatuses are the booking states that occupy a time slot.
var activeStatuses = []models.BookingStatus{
	models.BookingStatusRequested,
	models.BookingStatusConfirmed,
	models.BookingStatusRescheduled,
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByProviderAppointmentID(ctx context.Context, providerID string) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
	ListByReferrer(ctx context.Context, referrerID string) ([]models.Booking, error)
	ListBySpecialist(ctx context.Context, specialistID string) ([]models.Booking, error)
	ListByExaminee(ctx context.Context, examineeID string) ([]models.Booking, error)
	// ActiveInRange returns slot-occupying bookings of a specialist
	// overlapping [from, to).
	ActiveInRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error)
	HasOverlap(ctx context.Context, specialistID string, start, end time.Time, excludeID string) (bool, error)
	// ConfirmedEndedBefore returns confirmed bookings whose end time has
	// passed, for the completion worker.
	ConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Booking, error)
	// ConfirmedStartingBetween returns confirmed bookings starting inside
	// the window, for reminder emails.
	ConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Examinee").
		Preload("Referrer").
		Preload("Referrer.User").
		Preload("Specialist").
		Preload("Specialist.User").
		First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByProviderAppointmentID(ctx context.Context, providerID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, "provider_appointment_id = ?", providerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id).Error
}

func (r *bookingRepository) ListByReferrer(ctx context.Context, referrerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Examinee").
		Preload("Specialist").
		Where("referrer_id = ?", referrerID).
		Order("starts_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Examinee").
		Where("specialist_id = ?", specialistID).
		Order("starts_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) ListByExaminee(ctx context.Context, examineeID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Specialist").
		Where("examinee_id = ?", examineeID).
		Order("starts_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) ActiveInRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("specialist_id = ? AND status IN ? AND starts_at < ? AND ends_at > ?",
			specialistID, activeStatuses, to, from).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) HasOverlap(ctx context.Context, specialistID string, start, end time.Time, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("specialist_id = ? AND status IN ? AND starts_at < ? AND ends_at > ?",
			specialistID, activeStatuses, end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) ConfirmedEndedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND ends_at < ?",
			[]models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusRescheduled}, cutoff).
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) ConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Examinee").
		Preload("Specialist").
		Preload("Specialist.User").
		Where("status IN ? AND starts_at >= ? AND starts_at < ?",
			[]models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusRescheduled}, from, to).
		Find(&bookings).Error
	return bookings, err
}
