package dto

import (
	"time"

	"medbook_backend/internal/models"
)

type DocumentResponse struct {
	ID           string                  `json:"id"`
	BookingID    string                  `json:"booking_id"`
	Category     models.DocumentCategory `json:"category"`
	OriginalName string                  `json:"original_name"`
	MimeType     string                  `json:"mime_type,omitempty"`
	Size         int64                   `json:"size"`
	UploaderID   string                  `json:"uploader_id"`
	CreatedAt    time.Time               `json:"created_at"`
}

type DocumentDownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
