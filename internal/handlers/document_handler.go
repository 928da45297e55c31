package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	*BaseHandler
	documentService *services.DocumentService
}

func NewDocumentHandler(base *BaseHandler, documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:     base,
		documentService: documentService,
	}
}

func (h *DocumentHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookingDocs := r.Group("/bookings/:bookingId/documents")
	bookingDocs.Use(middleware.AuthMiddleware())
	{
		bookingDocs.POST("", h.Upload)
		bookingDocs.GET("", h.List)
	}

	docs := r.Group("/documents")
	docs.Use(middleware.AuthMiddleware())
	{
		docs.GET("/:documentId/download", h.Download)
		docs.GET("/:documentId/content", h.Content)
	}

	admin := r.Group("/documents")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.DELETE("/:documentId", h.Delete)
	}
}

// Upload accepts a multipart form with a "file" part and a "category"
// field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	category := models.DocumentCategory(c.PostForm("category"))
	if category == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing form field: category"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing form file: file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer file.Close()

	resp, err := h.documentService.Upload(c.Request.Context(), actor, &services.UploadInput{
		BookingID:    c.Param("bookingId"),
		Category:     category,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Reader:       file,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.documentService.ListByBooking(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": resp})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.documentService.Download(c.Request.Context(), actor, c.Param("documentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Content streams the document bytes. This is the download path for
// storage backends that cannot sign URLs.
func (h *DocumentHandler) Content(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	doc, reader, err := h.documentService.Open(c.Request.Context(), actor, c.Param("documentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.OriginalName))

	// Headers are already out; a copy failure can only be logged
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Error(err)
	}
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), actor, c.Param("documentId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
