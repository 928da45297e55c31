package repositories

import (
	"context"
	"errors"

	"medbook_backend/internal/models"

	"gorm.io/gorm"
)

// ErrEventNotFound is returned when a webhook event row does not exist.
var ErrEventNotFound = errors.New("webhook event not found")

type WebhookEventRepository interface {
	Create(ctx context.Context, event *models.WebhookEvent) error
	FindByProviderEventID(ctx context.Context, providerEventID string) (*models.WebhookEvent, error)
	Update(ctx context.Context, event *models.WebhookEvent) error
	// ListFailed returns failed events with fewer than maxAttempts tries,
	// oldest first, for the retry worker.
	ListFailed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *webhookEventRepository) FindByProviderEventID(ctx context.Context, providerEventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).First(&event, "provider_event_id = ?", providerEventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepository) Update(ctx context.Context, event *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *webhookEventRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", models.WebhookStatusFailed, maxAttempts).
		Order("created_at").
		Limit(limit).
		Find(&events).Error
	return events, err
}
