package repositories

import (
	"context"
	"errors"

	"medbook_backend/internal/models"
	"medbook_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SpecialistRepository interface {
	Create(ctx context.Context, specialist *models.Specialist) error
	FindByID(ctx context.Context, id string) (*models.Specialist, error)
	FindByUserID(ctx context.Context, userID string) (*models.Specialist, error)
	Update(ctx context.Context, specialist *models.Specialist) error
	List(ctx context.Context, specialty string, acceptingOnly bool) ([]models.Specialist, error)
}

type specialistRepository struct {
	db *gorm.DB
}

func NewSpecialistRepository(db *gorm.DB) SpecialistRepository {
	return &specialistRepository{db: db}
}

func (r *specialistRepository) Create(ctx context.Context, specialist *models.Specialist) error {
	return r.db.WithContext(ctx).Create(specialist).Error
}

func (r *specialistRepository) FindByID(ctx context.Context, id string) (*models.Specialist, error) {
	var specialist models.Specialist
	err := r.db.WithContext(ctx).Preload("User").First(&specialist, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrSpecialistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &specialist, nil
}

func (r *specialistRepository) FindByUserID(ctx context.Context, userID string) (*models.Specialist, error) {
	var specialist models.Specialist
	err := r.db.WithContext(ctx).First(&specialist, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrSpecialistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &specialist, nil
}

func (r *specialistRepository) Update(ctx context.Context, specialist *models.Specialist) error {
	return r.db.WithContext(ctx).Save(specialist).Error
}

func (r *specialistRepository) List(ctx context.Context, specialty string, acceptingOnly bool) ([]models.Specialist, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if specialty != "" {
		q = q.Where("specialty = ?", specialty)
	}
	if acceptingOnly {
		q = q.Where("is_accepting = ?", true)
	}

	var specialists []models.Specialist
	err := q.Order("created_at").Find(&specialists).Error
	return specialists, err
}
