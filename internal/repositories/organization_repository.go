package repositories

import (
	"context"
	"errors"

	"medbook_backend/internal/models"
	"medbook_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Organization, error)
	NameExists(ctx context.Context, name string) (bool, error)
}

type ReferrerRepository interface {
	Create(ctx context.Context, referrer *models.Referrer) error
	FindByID(ctx context.Context, id string) (*models.Referrer, error)
	FindByUserID(ctx context.Context, userID string) (*models.Referrer, error)
	ListByOrganization(ctx context.Context, orgID string) ([]models.Referrer, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Organization{}, "id = ?", id).Error
}

func (r *organizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).Order("name").Find(&orgs).Error
	return orgs, err
}

func (r *organizationRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Organization{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

type referrerRepository struct {
	db *gorm.DB
}

func NewReferrerRepository(db *gorm.DB) ReferrerRepository {
	return &referrerRepository{db: db}
}

func (r *referrerRepository) Create(ctx context.Context, referrer *models.Referrer) error {
	return r.db.WithContext(ctx).Create(referrer).Error
}

func (r *referrerRepository) FindByID(ctx context.Context, id string) (*models.Referrer, error) {
	var ref models.Referrer
	err := r.db.WithContext(ctx).Preload("User").Preload("Organization").First(&ref, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrReferrerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referrerRepository) FindByUserID(ctx context.Context, userID string) (*models.Referrer, error) {
	var ref models.Referrer
	err := r.db.WithContext(ctx).Preload("Organization").First(&ref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrReferrerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referrerRepository) ListByOrganization(ctx context.Context, orgID string) ([]models.Referrer, error) {
	var refs []models.Referrer
	err := r.db.WithContext(ctx).Preload("User").Where("organization_id = ?", orgID).Find(&refs).Error
	return refs, err
}
