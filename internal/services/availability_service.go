package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medbook_backend/internal/cache"
	"medbook_backend/internal/calendar"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"
)

// SlotCache is the subset of the Redis cache availability needs.
type SlotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	GetVersion(ctx context.Context, key string) (int64, error)
	IncrVersion(ctx context.Context, key string) (int64, error)
}

type AvailabilityService struct {
	specialistRepo repositories.SpecialistRepository
	bookingRepo    repositories.BookingRepository
	provider       calendar.Provider
	cache          SlotCache // nil disables caching
	cacheTTL       time.Duration
	maxRangeDays   int

	now func() time.Time
}

func NewAvailabilityService(
	specialistRepo repositories.SpecialistRepository,
	bookingRepo repositories.BookingRepository,
	provider calendar.Provider,
	slotCache SlotCache,
	cacheTTL time.Duration,
	maxRangeDays int,
) *AvailabilityService {
	if maxRangeDays <= 0 {
		maxRangeDays = 31
	}
	return &AvailabilityService{
		specialistRepo: specialistRepo,
		bookingRepo:    bookingRepo,
		provider:       provider,
		cache:          slotCache,
		cacheTTL:       cacheTTL,
		maxRangeDays:   maxRangeDays,
		now:            time.Now,
	}
}

// GetSlots computes the bookable slots for a specialist and appointment
// type over an inclusive date range. Dates are interpreted in the
// specialist's timezone; returned slots are UTC.
func (s *AvailabilityService) GetSlots(ctx context.Context, specialistID string, q *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	specialist, err := s.specialistRepo.FindByID(ctx, specialistID)
	if err != nil {
		return nil, err
	}

	mapping, err := appointmentMapping(specialist, q.AppointmentType)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(specialist.Timezone)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "availability", "Specialist has an invalid timezone", 500)
	}

	fromDay, err := time.ParseInLocation("2006-01-02", q.From, loc)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid from date, expected YYYY-MM-DD")
	}
	toDay, err := time.ParseInLocation("2006-01-02", q.To, loc)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid to date, expected YYYY-MM-DD")
	}
	if toDay.Before(fromDay) {
		return nil, apperrors.ErrInvalidDateRange
	}
	// Inclusive end date
	rangeEnd := toDay.AddDate(0, 0, 1)
	if int(rangeEnd.Sub(fromDay).Hours()/24) > s.maxRangeDays {
		return nil, apperrors.ErrDateRangeTooLarge
	}

	resp := &dto.AvailabilityResponse{
		SpecialistID:    specialist.ID,
		AppointmentType: q.AppointmentType,
		Timezone:        specialist.Timezone,
	}

	cacheKey := ""
	if s.cache != nil {
		version, err := s.cache.GetVersion(ctx, availabilityVersionKey(specialist.ID))
		if err != nil {
			logger.WithError(err).Warn("availability cache version read failed", "specialist_id", specialist.ID)
		} else {
			cacheKey = fmt.Sprintf("avail:v%d:%s:%s:%s:%s", version, specialist.ID, q.AppointmentType, q.From, q.To)
			if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
				var slots []dto.Slot
				if json.Unmarshal([]byte(cached), &slots) == nil {
					resp.Slots = slots
					return resp, nil
				}
			} else if err != cache.ErrCacheMiss {
				logger.WithError(err).Warn("availability cache read failed", "key", cacheKey)
			}
		}
	}

	var busy []calendar.BusyInterval
	if s.provider != nil && specialist.CalendarID != "" {
		busy, err = s.provider.BusyIntervals(ctx, specialist.CalendarID, fromDay, rangeEnd)
		if err != nil {
			return nil, apperrors.ExternalError("calendar", err)
		}
	}

	bookings, err := s.bookingRepo.ActiveInRange(ctx, specialist.ID, fromDay, rangeEnd)
	if err != nil {
		return nil, err
	}

	windows, err := workingWindows(specialist)
	if err != nil {
		return nil, err
	}

	resp.Slots = s.computeSlots(windows, mapping, loc, fromDay, rangeEnd, busy, bookings)

	if s.cache != nil && cacheKey != "" {
		if raw, err := json.Marshal(resp.Slots); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(raw), s.cacheTTL); err != nil {
				logger.WithError(err).Warn("availability cache write failed", "key", cacheKey)
			}
		}
	}

	return resp, nil
}

// Invalidate drops all cached slot sets for a specialist by bumping the
// version counter. Stale entries expire by TTL.
func (s *AvailabilityService) Invalidate(ctx context.Context, specialistID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.IncrVersion(ctx, availabilityVersionKey(specialistID)); err != nil {
		logger.WithError(err).Warn("availability cache invalidation failed", "specialist_id", specialistID)
	}
}

// IsSlotFree reports whether [start, end) falls inside the specialist's
// working hours and clashes with neither provider busy blocks nor our
// active bookings. Used when a booking is created for an exact time.
func (s *AvailabilityService) IsSlotFree(ctx context.Context, specialist *models.Specialist, start, end time.Time) (bool, error) {
	loc, err := time.LoadLocation(specialist.Timezone)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeInternalError, "availability", "Specialist has an invalid timezone", 500)
	}

	windows, err := workingWindows(specialist)
	if err != nil {
		return false, err
	}
	if !insideWorkingHours(windows, loc, start, end) {
		return false, nil
	}

	if s.provider != nil && specialist.CalendarID != "" {
		busy, err := s.provider.BusyIntervals(ctx, specialist.CalendarID, start, end)
		if err != nil {
			return false, apperrors.ExternalError("calendar", err)
		}
		for _, b := range busy {
			if b.Start.Before(end) && b.End.After(start) {
				return false, nil
			}
		}
	}

	return true, nil
}

func (s *AvailabilityService) computeSlots(
	windows []models.WorkingWindow,
	mapping *models.AppointmentTypeMapping,
	loc *time.Location,
	from, to time.Time,
	busy []calendar.BusyInterval,
	bookings []models.Booking,
) []dto.Slot {
	duration := time.Duration(mapping.DurationMin) * time.Minute
	step := duration + time.Duration(mapping.BufferMin)*time.Minute
	now := s.now()

	slots := []dto.Slot{}
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		weekday := int(day.Weekday())
		for _, w := range windows {
			if w.Weekday != weekday {
				continue
			}
			winStart, ok1 := atWallClock(day, w.Start, loc)
			winEnd, ok2 := atWallClock(day, w.End, loc)
			if !ok1 || !ok2 || !winStart.Before(winEnd) {
				continue
			}

			for t := winStart; !t.Add(duration).After(winEnd); t = t.Add(step) {
				slotEnd := t.Add(duration)
				if t.Before(now) {
					continue
				}
				if overlapsBusy(busy, t, slotEnd) || overlapsBookings(bookings, t, slotEnd) {
					continue
				}
				slots = append(slots, dto.Slot{Start: t.UTC(), End: slotEnd.UTC()})
			}
		}
	}
	return slots
}

func availabilityVersionKey(specialistID string) string {
	return "availver:" + specialistID
}

func appointmentMapping(specialist *models.Specialist, name string) (*models.AppointmentTypeMapping, error) {
	if len(specialist.AppointmentTypes) == 0 {
		return nil, apperrors.ErrUnknownAppointmentType
	}
	var types map[string]models.AppointmentTypeMapping
	if err := json.Unmarshal(specialist.AppointmentTypes, &types); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "availability", "Corrupt appointment type config", 500)
	}
	mapping, ok := types[name]
	if !ok || mapping.DurationMin <= 0 {
		return nil, apperrors.ErrUnknownAppointmentType
	}
	return &mapping, nil
}

func workingWindows(specialist *models.Specialist) ([]models.WorkingWindow, error) {
	if len(specialist.WorkingHours) == 0 {
		return nil, nil
	}
	var windows []models.WorkingWindow
	if err := json.Unmarshal(specialist.WorkingHours, &windows); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "availability", "Corrupt working hours config", 500)
	}
	return windows, nil
}

// atWallClock pins an "HH:MM" wall-clock time onto a calendar day in loc.
func atWallClock(day time.Time, hhmm string, loc *time.Location) (time.Time, bool) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), true
}

func insideWorkingHours(windows []models.WorkingWindow, loc *time.Location, start, end time.Time) bool {
	localStart := start.In(loc)
	weekday := int(localStart.Weekday())
	for _, w := range windows {
		if w.Weekday != weekday {
			continue
		}
		winStart, ok1 := atWallClock(localStart, w.Start, loc)
		winEnd, ok2 := atWallClock(localStart, w.End, loc)
		if !ok1 || !ok2 {
			continue
		}
		if !start.Before(winStart) && !end.After(winEnd) {
			return true
		}
	}
	return false
}

func overlapsBusy(busy []calendar.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Start.Before(end) && b.End.After(start) {
			return true
		}
	}
	return false
}

func overlapsBookings(bookings []models.Booking, start, end time.Time) bool {
	for _, b := range bookings {
		if b.StartsAt.Before(end) && b.EndsAt.After(start) {
			return true
		}
	}
	return false
}
