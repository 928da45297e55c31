package workers

import (
	"context"
	"time"

	"medbook_backend/internal/email"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
)

// reminderLead is how far ahead of the appointment the reminder goes out.
const reminderLead = 24 * time.Hour

// BookingWorker closes out past bookings and sends appointment reminders.
type BookingWorker struct {
	bookingRepo   repositories.BookingRepository
	emailProvider email.Provider
}

func NewBookingWorker(bookingRepo repositories.BookingRepository, emailProvider email.Provider) *BookingWorker {
	return &BookingWorker{
		bookingRepo:   bookingRepo,
		emailProvider: emailProvider,
	}
}

func (w *BookingWorker) Start(ctx context.Context) {
	go w.completePastBookings(ctx)
	go w.sendReminders(ctx)
}

// completePastBookings marks confirmed bookings whose end time has passed
// as completed. A specialist can still flip one to no_show manually before
// this pass picks it up.
func (w *BookingWorker) completePastBookings(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("booking worker stopped")
			return
		case <-ticker.C:
			// Grace period so a running appointment is not closed mid-session
			cutoff := time.Now().Add(-2 * time.Hour)

			bookings, err := w.bookingRepo.ConfirmedEndedBefore(ctx, cutoff, 100)
			if err != nil {
				logger.WorkerLog("booking", "complete_past", err)
				continue
			}

			completed := 0
			for i := range bookings {
				booking := &bookings[i]
				if !models.CanTransition(booking.Status, models.BookingStatusCompleted) {
					continue
				}
				booking.Status = models.BookingStatusCompleted
				if err := w.bookingRepo.Update(ctx, booking); err != nil {
					logger.WithError(err).Error("failed to complete booking", "booking_id", booking.ID)
					continue
				}
				completed++
			}
			if completed > 0 {
				logger.Info("completed past bookings", "count", completed)
			}
		}
	}
}

// sendReminders emails examinees about appointments starting roughly a
// day out. The pass runs hourly over a one hour window, so each booking
// is picked up once.
func (w *BookingWorker) sendReminders(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.emailProvider == nil {
				continue
			}

			from := time.Now().Add(reminderLead)
			to := from.Add(1 * time.Hour)

			bookings, err := w.bookingRepo.ConfirmedStartingBetween(ctx, from, to)
			if err != nil {
				logger.WorkerLog("booking", "send_reminders", err)
				continue
			}

			for i := range bookings {
				w.remind(&bookings[i])
			}
		}
	}
}

func (w *BookingWorker) remind(booking *models.Booking) {
	if booking.Examinee == nil || booking.Examinee.Email == "" {
		return
	}

	when := booking.StartsAt
	specialistName := ""
	if booking.Specialist != nil {
		if booking.Specialist.User != nil {
			specialistName = booking.Specialist.User.Name
		}
		if loc, err := time.LoadLocation(booking.Specialist.Timezone); err == nil {
			when = booking.StartsAt.In(loc)
		}
	}

	where := booking.Location
	if booking.Telehealth {
		where = "Telehealth (a video link will be sent separately)"
	}

	data := email.TemplateData{
		"Name":       booking.Examinee.FirstName + " " + booking.Examinee.LastName,
		"Specialist": specialistName,
		"When":       when.Format("Monday, 2 January 2006 at 15:04 (MST)"),
		"Where":      where,
	}

	err := w.emailProvider.SendTemplate(
		[]string{booking.Examinee.Email},
		"Appointment reminder",
		"booking_reminder",
		data,
	)
	if err != nil {
		logger.WithError(err).Warn("reminder email failed", "booking_id", booking.ID)
	}
}
