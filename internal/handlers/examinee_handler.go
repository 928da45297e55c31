package handlers

import (
	"net/http"

	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ExamineeHandler struct {
	*BaseHandler
	examineeService *services.ExamineeService
}

func NewExamineeHandler(base *BaseHandler, examineeService *services.ExamineeService) *ExamineeHandler {
	return &ExamineeHandler{
		BaseHandler:     base,
		examineeService: examineeService,
	}
}

func (h *ExamineeHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Referrers manage the examinee records they book for.
	examinees := r.Group("/examinees")
	examinees.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleReferrer, models.UserRoleAdmin))
	{
		examinees.POST("", h.Create)
		examinees.GET("/search", h.Search)
		examinees.GET("/:examineeId", h.Get)
		examinees.PUT("/:examineeId", h.Update)
	}

	admin := r.Group("/examinees")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.DELETE("/:examineeId", h.Delete)
	}
}

func (h *ExamineeHandler) Create(c *gin.Context) {
	var req dto.CreateExamineeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.examineeService.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ExamineeHandler) Get(c *gin.Context) {
	resp, err := h.examineeService.GetByID(c.Request.Context(), c.Param("examineeId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExamineeHandler) Update(c *gin.Context) {
	var req dto.UpdateExamineeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.examineeService.Update(c.Request.Context(), c.Param("examineeId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExamineeHandler) Delete(c *gin.Context) {
	if err := h.examineeService.Delete(c.Request.Context(), c.Param("examineeId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Examinee deleted"})
}

func (h *ExamineeHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"examinees": []dto.ExamineeResponse{}})
		return
	}
	limit := ParseQueryInt(c, "limit", 50)

	resp, err := h.examineeService.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"examinees": resp})
}
