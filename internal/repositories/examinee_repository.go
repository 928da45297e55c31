package repositories

import (
	"context"
	"errors"

	"medbook_backend/internal/models"
	"medbook_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ExamineeRepository interface {
	Create(ctx context.Context, examinee *models.Examinee) error
	FindByID(ctx context.Context, id string) (*models.Examinee, error)
	FindByUserID(ctx context.Context, userID string) (*models.Examinee, error)
	Update(ctx context.Context, examinee *models.Examinee) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]models.Examinee, error)
}

type examineeRepository struct {
	db *gorm.DB
}

func NewExamineeRepository(db *gorm.DB) ExamineeRepository {
	return &examineeRepository{db: db}
}

func (r *examineeRepository) Create(ctx context.Context, examinee *models.Examinee) error {
	return r.db.WithContext(ctx).Create(examinee).Error
}

func (r *examineeRepository) FindByID(ctx context.Context, id string) (*models.Examinee, error) {
	var examinee models.Examinee
	err := r.db.WithContext(ctx).First(&examinee, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrExamineeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &examinee, nil
}

func (r *examineeRepository) FindByUserID(ctx context.Context, userID string) (*models.Examinee, error) {
	var examinee models.Examinee
	err := r.db.WithContext(ctx).First(&examinee, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrExamineeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &examinee, nil
}

func (r *examineeRepository) Update(ctx context.Context, examinee *models.Examinee) error {
	return r.db.WithContext(ctx).Save(examinee).Error
}

// Delete soft-deletes; bookings keep pointing at the row.
func (r *examineeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Examinee{}, "id = ?", id).Error
}

func (r *examineeRepository) Search(ctx context.Context, query string, limit int) ([]models.Examinee, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var examinees []models.Examinee
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR matter_reference ILIKE ?", pattern, pattern, pattern).
		Limit(limit).
		Order("last_name, first_name").
		Find(&examinees).Error
	return examinees, err
}
