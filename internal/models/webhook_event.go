package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is one signed callback received from the scheduling
// provider. Events are persisted before they are applied so that intake
// stays idempotent and failures can be retried by the worker.
type WebhookEvent struct {
	BaseModel
	ProviderEventID string `gorm:"not null;uniqueIndex"`
	EventType       string `gorm:"not null;index"`
	Payload         datatypes.JSON
	Status          WebhookStatus `gorm:"type:varchar(20);default:'pending';index"`
	Attempts        int           `gorm:"default:0"`
	LastError       string
	ProcessedAt     *time.Time
}
