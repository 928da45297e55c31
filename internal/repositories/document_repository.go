package repositories

import (
	"context"
	"errors"

	"medbook_backend/internal/models"
	"medbook_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListByBooking(ctx context.Context, bookingID string, categories []models.DocumentCategory) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Preload("Booking").First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByBooking returns the booking's documents, restricted to the given
// categories when the slice is non-empty.
func (r *documentRepository) ListByBooking(ctx context.Context, bookingID string, categories []models.DocumentCategory) ([]models.Document, error) {
	q := r.db.WithContext(ctx).Where("booking_id = ?", bookingID)
	if len(categories) > 0 {
		q = q.Where("category IN ?", categories)
	}

	var docs []models.Document
	err := q.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id).Error
}
