package services

import (
	"context"
	"time"

	"medbook_backend/internal/email"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"
)

type BookingService struct {
	bookingRepo    repositories.BookingRepository
	examineeRepo   repositories.ExamineeRepository
	referrerRepo   repositories.ReferrerRepository
	specialistRepo repositories.SpecialistRepository
	availability   *AvailabilityService
	emailProvider  email.Provider

	now func() time.Time
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	examineeRepo repositories.ExamineeRepository,
	referrerRepo repositories.ReferrerRepository,
	specialistRepo repositories.SpecialistRepository,
	availability *AvailabilityService,
	emailProvider email.Provider,
) *BookingService {
	return &BookingService{
		bookingRepo:    bookingRepo,
		examineeRepo:   examineeRepo,
		referrerRepo:   referrerRepo,
		specialistRepo: specialistRepo,
		availability:   availability,
		emailProvider:  emailProvider,
		now:            time.Now,
	}
}

// Create places a booking request on behalf of a referrer. The slot is
// validated against the specialist's schedule and existing bookings; the
// booking starts in the requested state and waits for confirmation.
func (s *BookingService) Create(ctx context.Context, actor Actor, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	referrer, err := s.referrerRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	examinee, err := s.examineeRepo.FindByID(ctx, req.ExamineeID)
	if err != nil {
		return nil, err
	}

	specialist, err := s.specialistRepo.FindByID(ctx, req.SpecialistID)
	if err != nil {
		return nil, err
	}
	if !specialist.IsAccepting {
		return nil, apperrors.NewBadRequestError("Specialist is not accepting new bookings")
	}

	mapping, err := appointmentMapping(specialist, req.AppointmentType)
	if err != nil {
		return nil, err
	}
	if req.Telehealth && !mapping.Telehealth {
		return nil, apperrors.NewBadRequestError("Appointment type is not offered via telehealth")
	}

	startsAt := req.StartsAt.UTC()
	endsAt := startsAt.Add(time.Duration(mapping.DurationMin) * time.Minute)

	if !startsAt.After(s.now()) {
		return nil, apperrors.ErrBookingInPast
	}

	free, err := s.availability.IsSlotFree(ctx, specialist, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperrors.ErrSlotUnavailable
	}

	clash, err := s.bookingRepo.HasOverlap(ctx, specialist.ID, startsAt, endsAt, "")
	if err != nil {
		return nil, err
	}
	if clash {
		return nil, apperrors.ErrSlotUnavailable
	}

	booking := &models.Booking{
		ExamineeID:      examinee.ID,
		ReferrerID:      referrer.ID,
		SpecialistID:    specialist.ID,
		AppointmentType: req.AppointmentType,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		Telehealth:      req.Telehealth,
		Location:        req.Location,
		Status:          models.BookingStatusRequested,
		Notes:           req.Notes,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.availability.Invalidate(ctx, specialist.ID)

	booking.Examinee = examinee
	booking.Specialist = specialist
	return toBookingResponse(booking), nil
}

func (s *BookingService) GetByID(ctx context.Context, actor Actor, id string) (*dto.BookingResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, booking); err != nil {
		return nil, err
	}
	return toBookingResponse(booking), nil
}

// ListMine returns the bookings visible to the caller: a referrer sees
// the ones they placed, a specialist their schedule, an examinee their
// own appointments.
func (s *BookingService) ListMine(ctx context.Context, actor Actor) ([]dto.BookingResponse, error) {
	var (
		bookings []models.Booking
		err      error
	)

	switch actor.Role {
	case models.UserRoleReferrer:
		referrer, ferr := s.referrerRepo.FindByUserID(ctx, actor.UserID)
		if ferr != nil {
			return nil, ferr
		}
		bookings, err = s.bookingRepo.ListByReferrer(ctx, referrer.ID)
	case models.UserRoleSpecialist:
		specialist, ferr := s.specialistRepo.FindByUserID(ctx, actor.UserID)
		if ferr != nil {
			return nil, ferr
		}
		bookings, err = s.bookingRepo.ListBySpecialist(ctx, specialist.ID)
	case models.UserRoleExaminee:
		examinee, ferr := s.examineeRepo.FindByUserID(ctx, actor.UserID)
		if ferr != nil {
			return nil, ferr
		}
		bookings, err = s.bookingRepo.ListByExaminee(ctx, examinee.ID)
	default:
		return nil, apperrors.NewForbiddenError("Role has no booking list")
	}
	if err != nil {
		return nil, err
	}

	out := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toBookingResponse(&bookings[i]))
	}
	return out, nil
}

// ListBySpecialist is the admin view of one specialist's schedule.
func (s *BookingService) ListBySpecialist(ctx context.Context, specialistID string) ([]dto.BookingResponse, error) {
	if _, err := s.specialistRepo.FindByID(ctx, specialistID); err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListBySpecialist(ctx, specialistID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toBookingResponse(&bookings[i]))
	}
	return out, nil
}

// Confirm moves a requested booking to confirmed, recording the provider
// appointment id when the provider has assigned one.
func (s *BookingService) Confirm(ctx context.Context, actor Actor, id string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, booking); err != nil {
		return nil, err
	}

	if err := s.transition(booking, models.BookingStatusConfirmed); err != nil {
		return nil, err
	}
	if req.ProviderAppointmentID != "" {
		booking.ProviderAppointmentID = req.ProviderAppointmentID
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notify(booking, "booking_confirmed", "Your examination has been confirmed")
	return toBookingResponse(booking), nil
}

// Reschedule moves a confirmed booking to a new start time.
func (s *BookingService) Reschedule(ctx context.Context, actor Actor, id string, req *dto.RescheduleBookingRequest) (*dto.BookingResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, booking); err != nil {
		return nil, err
	}

	if err := s.transition(booking, models.BookingStatusRescheduled); err != nil {
		return nil, err
	}

	specialist := booking.Specialist
	if specialist == nil {
		specialist, err = s.specialistRepo.FindByID(ctx, booking.SpecialistID)
		if err != nil {
			return nil, err
		}
	}
	mapping, err := appointmentMapping(specialist, booking.AppointmentType)
	if err != nil {
		return nil, err
	}

	startsAt := req.StartsAt.UTC()
	endsAt := startsAt.Add(time.Duration(mapping.DurationMin) * time.Minute)

	if !startsAt.After(s.now()) {
		return nil, apperrors.ErrBookingInPast
	}

	free, err := s.availability.IsSlotFree(ctx, specialist, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperrors.ErrSlotUnavailable
	}

	clash, err := s.bookingRepo.HasOverlap(ctx, booking.SpecialistID, startsAt, endsAt, booking.ID)
	if err != nil {
		return nil, err
	}
	if clash {
		return nil, apperrors.ErrSlotUnavailable
	}

	booking.StartsAt = startsAt
	booking.EndsAt = endsAt

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.availability.Invalidate(ctx, booking.SpecialistID)
	s.notify(booking, "booking_rescheduled", "Your examination has been rescheduled")
	return toBookingResponse(booking), nil
}

// Cancel terminates a booking. Any party to the booking may cancel.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id string, req *dto.CancelBookingRequest) (*dto.BookingResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, booking); err != nil {
		return nil, err
	}

	if err := s.transition(booking, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	booking.CancellationReason = req.Reason
	booking.CancelledBy = actor.UserID

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.availability.Invalidate(ctx, booking.SpecialistID)
	s.notify(booking, "booking_cancelled", "Your examination has been cancelled")
	return toBookingResponse(booking), nil
}

// MarkCompleted records that the examination took place.
func (s *BookingService) MarkCompleted(ctx context.Context, actor Actor, id string) (*dto.BookingResponse, error) {
	return s.finalize(ctx, actor, id, models.BookingStatusCompleted)
}

// MarkNoShow records that the examinee did not attend.
func (s *BookingService) MarkNoShow(ctx context.Context, actor Actor, id string) (*dto.BookingResponse, error) {
	return s.finalize(ctx, actor, id, models.BookingStatusNoShow)
}

func (s *BookingService) finalize(ctx context.Context, actor Actor, id string, status models.BookingStatus) (*dto.BookingResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, booking); err != nil {
		return nil, err
	}

	if err := s.transition(booking, status); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return toBookingResponse(booking), nil
}

func (s *BookingService) transition(booking *models.Booking, to models.BookingStatus) error {
	if !models.CanTransition(booking.Status, to) {
		return apperrors.ErrInvalidBookingTransition
	}
	booking.Status = to
	return nil
}

// authorize checks read access: admins see everything, the other roles
// only bookings they are party to.
func (s *BookingService) authorize(ctx context.Context, actor Actor, booking *models.Booking) error {
	switch actor.Role {
	case models.UserRoleAdmin:
		return nil
	case models.UserRoleReferrer:
		referrer, err := s.referrerRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if referrer.ID == booking.ReferrerID {
			return nil
		}
	case models.UserRoleSpecialist:
		specialist, err := s.specialistRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if specialist.ID == booking.SpecialistID {
			return nil
		}
	case models.UserRoleExaminee:
		examinee, err := s.examineeRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if examinee.ID == booking.ExamineeID {
			return nil
		}
	}
	return apperrors.NewForbiddenError("You are not a party to this booking")
}

// authorizeManage checks lifecycle access: only admins and the booked
// specialist confirm, reschedule or close out a booking.
func (s *BookingService) authorizeManage(ctx context.Context, actor Actor, booking *models.Booking) error {
	switch actor.Role {
	case models.UserRoleAdmin:
		return nil
	case models.UserRoleSpecialist:
		specialist, err := s.specialistRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if specialist.ID == booking.SpecialistID {
			return nil
		}
	}
	return apperrors.NewForbiddenError("Only the specialist or an admin can manage this booking")
}

// notify emails the examinee about a lifecycle change. Failures are
// logged, never surfaced to the caller.
func (s *BookingService) notify(booking *models.Booking, template, subject string) {
	if s.emailProvider == nil || booking.Examinee == nil || booking.Examinee.Email == "" {
		return
	}

	to := booking.Examinee.Email
	data := bookingTemplateData(booking)

	go func() {
		if err := s.emailProvider.SendTemplate([]string{to}, subject, template, data); err != nil {
			logger.WithError(err).Warn("booking notification failed", "template", template, "booking_id", booking.ID)
		}
	}()
}

// bookingTemplateData fills the keys the built-in email templates expect.
func bookingTemplateData(booking *models.Booking) email.TemplateData {
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
		"Specialist": specialistName,
		"When":       when.Format("Monday, 2 January 2006 at 15:04 (MST)"),
		"Where":      where,
		"Reason":     booking.CancellationReason,
	}
	if booking.Examinee != nil {
		data["Name"] = booking.Examinee.FirstName + " " + booking.Examinee.LastName
		data["Matter"] = booking.Examinee.MatterReference
	}
	return data
}

func toBookingResponse(booking *models.Booking) *dto.BookingResponse {
	resp := &dto.BookingResponse{
		ID:                 booking.ID,
		ExamineeID:         booking.ExamineeID,
		ReferrerID:         booking.ReferrerID,
		SpecialistID:       booking.SpecialistID,
		AppointmentType:    booking.AppointmentType,
		StartsAt:           booking.StartsAt,
		EndsAt:             booking.EndsAt,
		Telehealth:         booking.Telehealth,
		Location:           booking.Location,
		Status:             booking.Status,
		Notes:              booking.Notes,
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}
	if booking.Examinee != nil {
		resp.ExamineeName = booking.Examinee.FirstName + " " + booking.Examinee.LastName
	}
	if booking.Specialist != nil && booking.Specialist.User != nil {
		resp.SpecialistName = booking.Specialist.User.Name
	}
	return resp
}
