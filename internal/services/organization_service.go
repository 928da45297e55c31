package services

import (
	"context"

	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/pkg/apperrors"
)

type OrganizationService struct {
	organizationRepo repositories.OrganizationRepository
	referrerRepo     repositories.ReferrerRepository
}

func NewOrganizationService(
	organizationRepo repositories.OrganizationRepository,
	referrerRepo repositories.ReferrerRepository,
) *OrganizationService {
	return &OrganizationService{
		organizationRepo: organizationRepo,
		referrerRepo:     referrerRepo,
	}
}

func (s *OrganizationService) Create(ctx context.Context, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	taken, err := s.organizationRepo.NameExists(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.New(apperrors.CodeAlreadyExists, "organization", "Organization name already registered", 409)
	}

	org := &models.Organization{
		Name:         req.Name,
		ABN:          req.ABN,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Postcode:     req.Postcode,
		Phone:        req.Phone,
		BillingEmail: req.BillingEmail,
	}
	if err := s.organizationRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	return toOrganizationResponse(org), nil
}

func (s *OrganizationService) GetByID(ctx context.Context, id string) (*dto.OrganizationResponse, error) {
	org, err := s.organizationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrganizationResponse(org), nil
}

func (s *OrganizationService) List(ctx context.Context) ([]dto.OrganizationResponse, error) {
	orgs, err := s.organizationRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		out = append(out, *toOrganizationResponse(&orgs[i]))
	}
	return out, nil
}

func (s *OrganizationService) Update(ctx context.Context, id string, req *dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error) {
	org, err := s.organizationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != org.Name {
		taken, err := s.organizationRepo.NameExists(ctx, *req.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.New(apperrors.CodeAlreadyExists, "organization", "Organization name already registered", 409)
		}
		org.Name = *req.Name
	}
	if req.ABN != nil {
		org.ABN = *req.ABN
	}
	if req.Address != nil {
		org.Address = *req.Address
	}
	if req.City != nil {
		org.City = *req.City
	}
	if req.State != nil {
		org.State = *req.State
	}
	if req.Postcode != nil {
		org.Postcode = *req.Postcode
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.BillingEmail != nil {
		org.BillingEmail = *req.BillingEmail
	}

	if err := s.organizationRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	return toOrganizationResponse(org), nil
}

func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	if _, err := s.organizationRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.organizationRepo.Delete(ctx, id)
}

// ListReferrers returns the people registered under an organization.
func (s *OrganizationService) ListReferrers(ctx context.Context, orgID string) ([]dto.ReferrerSummary, error) {
	if _, err := s.organizationRepo.FindByID(ctx, orgID); err != nil {
		return nil, err
	}

	referrers, err := s.referrerRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ReferrerSummary, 0, len(referrers))
	for _, ref := range referrers {
		summary := dto.ReferrerSummary{
			ID:       ref.ID,
			UserID:   ref.UserID,
			Phone:    ref.Phone,
			Position: ref.Position,
		}
		if ref.User != nil {
			summary.Name = ref.User.Name
			summary.Email = ref.User.Email
		}
		out = append(out, summary)
	}
	return out, nil
}

func toOrganizationResponse(org *models.Organization) *dto.OrganizationResponse {
	return &dto.OrganizationResponse{
		ID:           org.ID,
		Name:         org.Name,
		ABN:          org.ABN,
		Address:      org.Address,
		City:         org.City,
		State:        org.State,
		Postcode:     org.Postcode,
		Phone:        org.Phone,
		BillingEmail: org.BillingEmail,
		CreatedAt:    org.CreatedAt,
	}
}
