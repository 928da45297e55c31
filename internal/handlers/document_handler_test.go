package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medbook_backend/internal/auth"
	"medbook_backend/internal/config"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/internal/storage"
	"medbook_backend/internal/validator"
	"medbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg := &config.Config{}
	cfg.JWT.Secret = "handlers-test-secret"
	cfg.JWT.TTL = 60
	cfg.JWT.RefreshTTL = 720
	config.AppConfig = cfg
}

type memDocumentRepo struct {
	docs map[string]*models.Document
}

func (r *memDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *memDocumentRepo) FindByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, apperrors.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memDocumentRepo) ListByBooking(_ context.Context, bookingID string, _ []models.DocumentCategory) ([]models.Document, error) {
	var out []models.Document
	for _, d := range r.docs {
		if d.BookingID == bookingID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) Delete(_ context.Context, id string) error {
	delete(r.docs, id)
	return nil
}

// newDocumentTestRouter wires the document routes over local disk storage,
// the backend that cannot sign URLs.
func newDocumentTestRouter(t *testing.T, doc *models.Document) (*gin.Engine, storage.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	booking := &models.Booking{
		BaseModelWithDeleted: models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: doc.BookingID}},
		ExamineeID:           "ex-1",
		ReferrerID:           "ref-1",
		SpecialistID:         "spec-1",
		Status:               models.BookingStatusConfirmed,
	}
	docRepo := &memDocumentRepo{docs: map[string]*models.Document{doc.ID: doc}}
	service := services.NewDocumentService(docRepo, &memBookingRepo{booking: booking}, nil, nil, nil, store)

	base := NewBaseHandler(validator.New())
	handler := NewDocumentHandler(base, service)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router, store
}

func adminGet(t *testing.T, target string) *http.Request {
	t.Helper()

	token, err := auth.GenerateToken("user-admin", models.UserRoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func storedReport(t *testing.T) (*models.Document, string) {
	t.Helper()

	body := "report body"
	doc := &models.Document{
		BaseModelWithDeleted: models.BaseModelWithDeleted{BaseModel: models.BaseModel{ID: "doc-1"}},
		BookingID:            "b1",
		Category:             models.DocumentReport,
		OriginalName:         "report.pdf",
		Path:                 "bookings/b1/report/abc.pdf",
		MimeType:             "application/pdf",
		Size:                 int64(len(body)),
	}
	return doc, body
}

func TestDownloadDocument_LocalStorageLinkResolves(t *testing.T) {
	t.Parallel()

	// Arrange: a stored report on local disk
	doc, body := storedReport(t)
	router, store := newDocumentTestRouter(t, doc)
	require.NoError(t, store.Save(context.Background(), doc.Path, strings.NewReader(body), doc.MimeType))

	// Act: ask for the download link
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminGet(t, "/api/v1/documents/doc-1/download"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/api/v1/documents/doc-1/content", resp.URL)

	// Act again: follow the link
	fetched := httptest.NewRecorder()
	router.ServeHTTP(fetched, adminGet(t, resp.URL))

	// Assert: the bytes come back, not a 404
	assert.Equal(t, http.StatusOK, fetched.Code)
	assert.Equal(t, body, fetched.Body.String())
	assert.Equal(t, "application/pdf", fetched.Header().Get("Content-Type"))
	assert.Contains(t, fetched.Header().Get("Content-Disposition"), `filename="report.pdf"`)
}

func TestDocumentContent_MissingDocument(t *testing.T) {
	t.Parallel()

	doc, _ := storedReport(t)
	router, _ := newDocumentTestRouter(t, doc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminGet(t, "/api/v1/documents/doc-missing/content"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentContent_RequiresAuth(t *testing.T) {
	t.Parallel()

	doc, _ := storedReport(t)
	router, _ := newDocumentTestRouter(t, doc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1/content", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
