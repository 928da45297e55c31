package handlers

import (
	"net/http"

	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SpecialistHandler struct {
	*BaseHandler
	specialistService   *services.SpecialistService
	availabilityService *services.AvailabilityService
}

func NewSpecialistHandler(
	base *BaseHandler,
	specialistService *services.SpecialistService,
	availabilityService *services.AvailabilityService,
) *SpecialistHandler {
	return &SpecialistHandler{
		BaseHandler:         base,
		specialistService:   specialistService,
		availabilityService: availabilityService,
	}
}

func (h *SpecialistHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Browsing the panel of specialists is public
	public := r.Group("/specialists")
	{
		public.GET("", h.List)
		public.GET("/:specialistId", h.Get)
	}

	protected := r.Group("/specialists")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/me", h.GetMe)
		protected.GET("/:specialistId/availability", h.GetAvailability)
		protected.PUT("/:specialistId", h.Update)
	}

	admin := r.Group("/specialists")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.POST("", h.Create)
	}
}

func (h *SpecialistHandler) Create(c *gin.Context) {
	var req dto.CreateSpecialistRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.specialistService.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SpecialistHandler) Get(c *gin.Context) {
	resp, err := h.specialistService.GetByID(c.Request.Context(), c.Param("specialistId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMe returns the profile of the authenticated specialist.
func (h *SpecialistHandler) GetMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.specialistService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SpecialistHandler) List(c *gin.Context) {
	specialty := c.Query("specialty")
	acceptingOnly := ParseQueryBool(c, "accepting", false)

	resp, err := h.specialistService.List(c.Request.Context(), specialty, acceptingOnly)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialists": resp})
}

func (h *SpecialistHandler) Update(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateSpecialistRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.specialistService.Update(c.Request.Context(), c.Param("specialistId"), actor.UserID, actor.Role, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAvailability returns the bookable slots for one specialist and
// appointment type over a date range.
func (h *SpecialistHandler) GetAvailability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.availabilityService.GetSlots(c.Request.Context(), c.Param("specialistId"), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
