package handlers

import (
	"net/http"

	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/services"
	"medbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	*BaseHandler
	bookingService *services.BookingService
}

func NewBookingHandler(base *BaseHandler, bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    base,
		bookingService: bookingService,
	}
}

func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware())
	{
		bookings.GET("/my", h.ListMine)
		bookings.GET("/:bookingId", h.Get)
		bookings.POST("/:bookingId/cancel", h.Cancel)
	}

	// Placing a booking is the referrer's job
	referrer := r.Group("/bookings")
	referrer.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleReferrer))
	{
		referrer.POST("", h.Create)
	}

	// Lifecycle management belongs to the specialist and admins
	manage := r.Group("/bookings")
	manage.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleSpecialist, models.UserRoleAdmin))
	{
		manage.POST("/:bookingId/confirm", h.Confirm)
		manage.POST("/:bookingId/reschedule", h.Reschedule)
		manage.POST("/:bookingId/complete", h.Complete)
		manage.POST("/:bookingId/no-show", h.NoShow)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/specialists/:specialistId/bookings", h.ListBySpecialist)
	}
}

func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.bookingService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.GetByID(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.ListMine(c.Request.Context(), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": resp})
}

func (h *BookingHandler) ListBySpecialist(c *gin.Context) {
	resp, err := h.bookingService.ListBySpecialist(c.Request.Context(), c.Param("specialistId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": resp})
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.ConfirmBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.bookingService.Confirm(c.Request.Context(), actor, c.Param("bookingId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Reschedule(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.RescheduleBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.bookingService.Reschedule(c.Request.Context(), actor, c.Param("bookingId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.bookingService.Cancel(c.Request.Context(), actor, c.Param("bookingId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.MarkCompleted(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) NoShow(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.bookingService.MarkNoShow(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
