package handlers

import (
	"net/http"

	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	*BaseHandler
	organizationService *services.OrganizationService
}

func NewOrganizationHandler(base *BaseHandler, organizationService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         base,
		organizationService: organizationService,
	}
}

func (h *OrganizationHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Referrer registration needs the organization list before the user
	// has an account, so reads stay public.
	public := r.Group("/organizations")
	{
		public.GET("", h.List)
		public.GET("/:orgId", h.Get)
	}

	admin := r.Group("/organizations")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.POST("", h.Create)
		admin.PUT("/:orgId", h.Update)
		admin.DELETE("/:orgId", h.Delete)
		admin.GET("/:orgId/referrers", h.ListReferrers)
	}
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	var req dto.CreateOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.organizationService.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	resp, err := h.organizationService.GetByID(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrganizationHandler) List(c *gin.Context) {
	resp, err := h.organizationService.List(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": resp})
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	var req dto.UpdateOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.organizationService.Update(c.Request.Context(), c.Param("orgId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.organizationService.Delete(c.Request.Context(), c.Param("orgId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}

func (h *OrganizationHandler) ListReferrers(c *gin.Context) {
	resp, err := h.organizationService.ListReferrers(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrers": resp})
}
