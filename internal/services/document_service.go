package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"medbook_backend/internal/auth"
	"medbook_backend/internal/config"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/services/dto"
	"medbook_backend/internal/storage"
	"medbook_backend/pkg/apperrors"

	"github.com/google/uuid"
)

// signedURLTTL bounds how long a download link stays valid.
const signedURLTTL = 15 * time.Minute

type DocumentService struct {
	documentRepo   repositories.DocumentRepository
	bookingRepo    repositories.BookingRepository
	referrerRepo   repositories.ReferrerRepository
	specialistRepo repositories.SpecialistRepository
	examineeRepo   repositories.ExamineeRepository
	store          storage.Storage
}

func NewDocumentService(
	documentRepo repositories.DocumentRepository,
	bookingRepo repositories.BookingRepository,
	referrerRepo repositories.ReferrerRepository,
	specialistRepo repositories.SpecialistRepository,
	examineeRepo repositories.ExamineeRepository,
	store storage.Storage,
) *DocumentService {
	return &DocumentService{
		documentRepo:   documentRepo,
		bookingRepo:    bookingRepo,
		referrerRepo:   referrerRepo,
		specialistRepo: specialistRepo,
		examineeRepo:   examineeRepo,
		store:          store,
	}
}

// UploadInput carries the file metadata and content stream from the
// multipart handler.
type UploadInput struct {
	BookingID    string
	Category     models.DocumentCategory
	OriginalName string
	MimeType     string
	Size         int64
	Reader       io.Reader
}

// Upload stores a file against a booking. The caller's role must be
// allowed to upload into the category, and the caller must be a party
// to the booking.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, in *UploadInput) (*dto.DocumentResponse, error) {
	if !auth.CanAccessDocument(actor.Role, in.Category, auth.DocUpload) {
		return nil, apperrors.ErrDocumentForbidden
	}

	booking, err := s.bookingRepo.FindByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeBooking(ctx, actor, booking); err != nil {
		return nil, err
	}

	cfg := config.GetConfig()
	if in.Size > cfg.Upload.MaxSize {
		return nil, apperrors.ErrDocumentTooLarge
	}
	if !mimeAllowed(cfg.Upload.AllowedTypes, in.MimeType) {
		return nil, apperrors.ErrUnsupportedFileType
	}

	ext := strings.ToLower(filepath.Ext(in.OriginalName))
	path := "bookings/" + booking.ID + "/" + string(in.Category) + "/" + uuid.NewString() + ext

	if err := s.store.Save(ctx, path, in.Reader, in.MimeType); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "document", "Failed to store file", 500)
	}

	doc := &models.Document{
		BookingID:    booking.ID,
		UploaderID:   actor.UserID,
		Category:     in.Category,
		OriginalName: in.OriginalName,
		Path:         path,
		MimeType:     in.MimeType,
		Size:         in.Size,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Orphaned object; best effort cleanup
		if derr := s.store.Delete(ctx, path); derr != nil {
			logger.WithError(derr).Warn("failed to remove orphaned upload", "path", path)
		}
		return nil, err
	}

	return toDocumentResponse(doc), nil
}

// ListByBooking returns the booking's documents, filtered down to the
// categories the caller's role may read.
func (s *DocumentService) ListByBooking(ctx context.Context, actor Actor, bookingID string) ([]dto.DocumentResponse, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeBooking(ctx, actor, booking); err != nil {
		return nil, err
	}

	var categories []models.DocumentCategory
	if actor.Role != models.UserRoleAdmin {
		categories = auth.AllowedCategories(actor.Role)
		if len(categories) == 0 {
			return []dto.DocumentResponse{}, nil
		}
	}

	docs, err := s.documentRepo.ListByBooking(ctx, bookingID, categories)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, *toDocumentResponse(&docs[i]))
	}
	return out, nil
}

// Download hands out a time-limited URL for one document. Backends that
// cannot sign URLs get the API's own content route, which streams the
// bytes behind the same auth.
func (s *DocumentService) Download(ctx context.Context, actor Actor, id string) (*dto.DocumentDownloadResponse, error) {
	doc, err := s.findAuthorized(ctx, actor, id, auth.DocRead)
	if err != nil {
		return nil, err
	}

	url, err := s.store.GetSignedURL(ctx, doc.Path, signedURLTTL)
	if apperrors.Is(err, storage.ErrSignedURLUnsupported) {
		return &dto.DocumentDownloadResponse{
			URL:       "/api/v1/documents/" + doc.ID + "/content",
			ExpiresAt: time.Now().Add(signedURLTTL),
		}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "document", "Failed to sign download URL", 500)
	}

	return &dto.DocumentDownloadResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(signedURLTTL),
	}, nil
}

// Open returns the raw content stream, used when storage cannot sign
// URLs and the API proxies the bytes itself.
func (s *DocumentService) Open(ctx context.Context, actor Actor, id string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.findAuthorized(ctx, actor, id, auth.DocRead)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Get(ctx, doc.Path)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternalError, "document", "Failed to read file", 500)
	}
	return doc, rc, nil
}

// Delete removes a document record and its stored object.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.findAuthorized(ctx, actor, id, auth.DocDelete)
	if err != nil {
		return err
	}

	if err := s.documentRepo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.Path); err != nil {
		logger.WithError(err).Warn("failed to delete stored object", "path", doc.Path)
	}
	return nil
}

func (s *DocumentService) findAuthorized(ctx context.Context, actor Actor, id string, action auth.DocAction) (*models.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanAccessDocument(actor.Role, doc.Category, action) {
		return nil, apperrors.ErrDocumentForbidden
	}

	booking := doc.Booking
	if booking == nil {
		booking, err = s.bookingRepo.FindByID(ctx, doc.BookingID)
		if err != nil {
			return nil, err
		}
	}
	if err := s.authorizeBooking(ctx, actor, booking); err != nil {
		return nil, err
	}
	return doc, nil
}

// authorizeBooking restricts non-admin access to bookings the actor is
// a party to.
func (s *DocumentService) authorizeBooking(ctx context.Context, actor Actor, booking *models.Booking) error {
	switch actor.Role {
	case models.UserRoleAdmin:
		return nil
	case models.UserRoleReferrer:
		referrer, err := s.referrerRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if referrer.ID == booking.ReferrerID {
			return nil
		}
	case models.UserRoleSpecialist:
		specialist, err := s.specialistRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if specialist.ID == booking.SpecialistID {
			return nil
		}
	case models.UserRoleExaminee:
		examinee, err := s.examineeRepo.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if examinee.ID == booking.ExamineeID {
			return nil
		}
	}
	return apperrors.NewForbiddenError("You are not a party to this booking")
}

func mimeAllowed(allowed []string, mimeType string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if strings.EqualFold(t, mimeType) {
			return true
		}
	}
	return false
}

func toDocumentResponse(doc *models.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:           doc.ID,
		BookingID:    doc.BookingID,
		Category:     doc.Category,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		Size:         doc.Size,
		UploaderID:   doc.UploaderID,
		CreatedAt:    doc.CreatedAt,
	}
}
