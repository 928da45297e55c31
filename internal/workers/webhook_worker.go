package workers

import (
	"context"
	"time"

	"medbook_backend/internal/logger"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services"
)

// maxWebhookAttempts caps retries; events that keep failing stay in the
// table as failed for manual inspection.
const maxWebhookAttempts = 5

// WebhookWorker retries provider events whose processing failed after
// they were acknowledged.
type WebhookWorker struct {
	eventRepo      repositories.WebhookEventRepository
	webhookService *services.WebhookService
}

func NewWebhookWorker(eventRepo repositories.WebhookEventRepository, webhookService *services.WebhookService) *WebhookWorker {
	return &WebhookWorker{
		eventRepo:      eventRepo,
		webhookService: webhookService,
	}
}

func (w *WebhookWorker) Start(ctx context.Context) {
	go w.retryFailedEvents(ctx)
}

func (w *WebhookWorker) retryFailedEvents(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("webhook worker stopped")
			return
		case <-ticker.C:
			events, err := w.eventRepo.ListFailed(ctx, maxWebhookAttempts, 50)
			if err != nil {
				logger.WorkerLog("webhook", "list_failed", err)
				continue
			}

			for i := range events {
				w.webhookService.Reprocess(ctx, &events[i])
			}
			if len(events) > 0 {
				logger.Info("retried failed webhook events", "count", len(events))
			}
		}
	}
}
