package services

import (
	"context"
	"encoding/json"
	"time"

	"medbook_backend/internal/auth"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SpecialistService struct {
	specialistRepo repositories.SpecialistRepository
	userRepo       repositories.UserRepository
	availability   *AvailabilityService
}

func NewSpecialistService(
	specialistRepo repositories.SpecialistRepository,
	userRepo repositories.UserRepository,
	availability *AvailabilityService,
) *SpecialistService {
	return &SpecialistService{
		specialistRepo: specialistRepo,
		userRepo:       userRepo,
		availability:   availability,
	}
}

// Create provisions a specialist account together with its profile.
// Admin only; specialists do not self-register.
func (s *SpecialistService) Create(ctx context.Context, req *dto.CreateSpecialistRequest) (*dto.SpecialistResponse, error) {
	taken, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, apperrors.NewBadRequestError("Unknown timezone: " + req.Timezone)
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             req.Email,
		PasswordHash:      hash,
		Name:              req.Name,
		Role:              models.UserRoleSpecialist,
		Status:            models.UserStatusActive,
		IsVerified:        true,
		VerificationToken: uuid.NewString(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	specialist := &models.Specialist{
		UserID:         user.ID,
		Specialty:      req.Specialty,
		Qualifications: req.Qualifications,
		Biography:      req.Biography,
		Telehealth:     req.Telehealth,
		CalendarID:     req.CalendarID,
		IsAccepting:    true,
	}
	if req.Timezone != "" {
		specialist.Timezone = req.Timezone
	}

	if err := setJSONField(&specialist.Locations, req.Locations); err != nil {
		return nil, err
	}
	if err := setJSONField(&specialist.WorkingHours, workingWindowsFromInput(req.WorkingHours)); err != nil {
		return nil, err
	}
	if err := setJSONField(&specialist.AppointmentTypes, appointmentTypesFromInput(req.AppointmentTypes)); err != nil {
		return nil, err
	}

	if err := s.specialistRepo.Create(ctx, specialist); err != nil {
		return nil, err
	}

	specialist.User = user
	return toSpecialistResponse(specialist)
}

func (s *SpecialistService) GetByID(ctx context.Context, id string) (*dto.SpecialistResponse, error) {
	specialist, err := s.specialistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSpecialistResponse(specialist)
}

func (s *SpecialistService) GetByUserID(ctx context.Context, userID string) (*dto.SpecialistResponse, error) {
	specialist, err := s.specialistRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSpecialistResponse(specialist)
}

func (s *SpecialistService) List(ctx context.Context, specialty string, acceptingOnly bool) ([]dto.SpecialistResponse, error) {
	specialists, err := s.specialistRepo.List(ctx, specialty, acceptingOnly)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SpecialistResponse, 0, len(specialists))
	for i := range specialists {
		resp, err := toSpecialistResponse(&specialists[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Update edits a specialist profile. Admins may edit anyone; a specialist
// may only edit their own profile. Schedule changes invalidate cached
// availability.
func (s *SpecialistService) Update(ctx context.Context, id string, actorUserID string, actorRole models.UserRole, req *dto.UpdateSpecialistRequest) (*dto.SpecialistResponse, error) {
	specialist, err := s.specialistRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorRole != models.UserRoleAdmin && specialist.UserID != actorUserID {
		return nil, apperrors.NewForbiddenError("You can only edit your own profile")
	}

	scheduleChanged := false

	if req.Specialty != nil {
		specialist.Specialty = *req.Specialty
	}
	if req.Qualifications != nil {
		specialist.Qualifications = *req.Qualifications
	}
	if req.Biography != nil {
		specialist.Biography = *req.Biography
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, apperrors.NewBadRequestError("Unknown timezone: " + *req.Timezone)
		}
		specialist.Timezone = *req.Timezone
		scheduleChanged = true
	}
	if req.Telehealth != nil {
		specialist.Telehealth = *req.Telehealth
	}
	if req.CalendarID != nil {
		specialist.CalendarID = *req.CalendarID
		scheduleChanged = true
	}
	if req.IsAccepting != nil {
		specialist.IsAccepting = *req.IsAccepting
	}
	if req.Locations != nil {
		if err := setJSONField(&specialist.Locations, req.Locations); err != nil {
			return nil, err
		}
	}
	if req.WorkingHours != nil {
		if err := setJSONField(&specialist.WorkingHours, workingWindowsFromInput(req.WorkingHours)); err != nil {
			return nil, err
		}
		scheduleChanged = true
	}
	if req.AppointmentTypes != nil {
		if err := setJSONField(&specialist.AppointmentTypes, appointmentTypesFromInput(req.AppointmentTypes)); err != nil {
			return nil, err
		}
		scheduleChanged = true
	}

	if err := s.specialistRepo.Update(ctx, specialist); err != nil {
		return nil, err
	}

	if scheduleChanged && s.availability != nil {
		s.availability.Invalidate(ctx, specialist.ID)
	}

	return toSpecialistResponse(specialist)
}

func setJSONField(dst *datatypes.JSON, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	*dst = datatypes.JSON(raw)
	return nil
}

func workingWindowsFromInput(in []dto.WorkingWindowInput) []models.WorkingWindow {
	out := make([]models.WorkingWindow, 0, len(in))
	for _, w := range in {
		out = append(out, models.WorkingWindow{Weekday: w.Weekday, Start: w.Start, End: w.End})
	}
	return out
}

func appointmentTypesFromInput(in map[string]dto.AppointmentTypeInput) map[string]models.AppointmentTypeMapping {
	out := make(map[string]models.AppointmentTypeMapping, len(in))
	for name, t := range in {
		out[name] = models.AppointmentTypeMapping{
			ProviderType: t.ProviderType,
			DurationMin:  t.DurationMin,
			BufferMin:    t.BufferMin,
			Telehealth:   t.Telehealth,
		}
	}
	return out
}

func toSpecialistResponse(specialist *models.Specialist) (*dto.SpecialistResponse, error) {
	resp := &dto.SpecialistResponse{
		ID:             specialist.ID,
		Specialty:      specialist.Specialty,
		Qualifications: specialist.Qualifications,
		Biography:      specialist.Biography,
		Timezone:       specialist.Timezone,
		Telehealth:     specialist.Telehealth,
		IsAccepting:    specialist.IsAccepting,
		CreatedAt:      specialist.CreatedAt,
	}
	if specialist.User != nil {
		resp.Name = specialist.User.Name
	}

	if len(specialist.Locations) > 0 {
		if err := json.Unmarshal(specialist.Locations, &resp.Locations); err != nil {
			return nil, err
		}
	}
	if len(specialist.WorkingHours) > 0 {
		if err := json.Unmarshal(specialist.WorkingHours, &resp.WorkingHours); err != nil {
			return nil, err
		}
	}
	if len(specialist.AppointmentTypes) > 0 {
		if err := json.Unmarshal(specialist.AppointmentTypes, &resp.AppointmentTypes); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
