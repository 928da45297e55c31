package services

import (
	"context"

	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
)

type ExamineeService struct {
	examineeRepo repositories.ExamineeRepository
}

func NewExamineeService(examineeRepo repositories.ExamineeRepository) *ExamineeService {
	return &ExamineeService{examineeRepo: examineeRepo}
}

func (s *ExamineeService) Create(ctx context.Context, req *dto.CreateExamineeRequest) (*dto.ExamineeResponse, error) {
	examinee := &models.Examinee{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DateOfBirth:     req.DateOfBirth,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		MatterReference: req.MatterReference,
		Notes:           req.Notes,
	}
	if err := s.examineeRepo.Create(ctx, examinee); err != nil {
		return nil, err
	}
	return toExamineeResponse(examinee), nil
}

func (s *ExamineeService) GetByID(ctx context.Context, id string) (*dto.ExamineeResponse, error) {
	examinee, err := s.examineeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExamineeResponse(examinee), nil
}

func (s *ExamineeService) Update(ctx context.Context, id string, req *dto.UpdateExamineeRequest) (*dto.ExamineeResponse, error) {
	examinee, err := s.examineeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		examinee.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		examinee.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		examinee.DateOfBirth = req.DateOfBirth
	}
	if req.Email != nil {
		examinee.Email = *req.Email
	}
	if req.Phone != nil {
		examinee.Phone = *req.Phone
	}
	if req.Address != nil {
		examinee.Address = *req.Address
	}
	if req.MatterReference != nil {
		examinee.MatterReference = *req.MatterReference
	}
	if req.Notes != nil {
		examinee.Notes = *req.Notes
	}

	if err := s.examineeRepo.Update(ctx, examinee); err != nil {
		return nil, err
	}
	return toExamineeResponse(examinee), nil
}

func (s *ExamineeService) Delete(ctx context.Context, id string) error {
	if _, err := s.examineeRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.examineeRepo.Delete(ctx, id)
}

// Search matches against names and the matter reference.
func (s *ExamineeService) Search(ctx context.Context, query string, limit int) ([]dto.ExamineeResponse, error) {
	examinees, err := s.examineeRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ExamineeResponse, 0, len(examinees))
	for i := range examinees {
		out = append(out, *toExamineeResponse(&examinees[i]))
	}
	return out, nil
}

func toExamineeResponse(e *models.Examinee) *dto.ExamineeResponse {
	return &dto.ExamineeResponse{
		ID:              e.ID,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		DateOfBirth:     e.DateOfBirth,
		Email:           e.Email,
		Phone:           e.Phone,
		Address:         e.Address,
		MatterReference: e.MatterReference,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}
