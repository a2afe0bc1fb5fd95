package handler

import (
	"net/http"
	"strconv"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/response"
	"github.com/gin-gonic/gin"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleGuest), h.CreateBooking)
		bookings.GET("", middleware.RequireRole(auth.RoleGuest), h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(auth.RoleGuest), h.CancelBooking)
		bookings.POST("/:id/complete", middleware.RequireRole(auth.RoleHost), h.CompleteBooking)
	}

	r.GET("/api/v1/properties/:id/bookings", authMW, middleware.RequireRole(auth.RoleHost, auth.RoleAdmin), h.ListPropertyBookings)
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListGuestBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListPropertyBookings handles GET /api/v1/properties/:id/bookings.
func (h *BookingHandler) ListPropertyBookings(c *gin.Context) {
	propertyID, ok := parseID(c, "property")
	if !ok {
		return
	}

	result, err := h.service.ListPropertyBookings(c.Request.Context(), propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete (host marks the stay over).
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CompleteBooking(c.Request.Context(), hostID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseID reads the :id path parameter. On failure it writes a 400 and returns false.
func parseID(c *gin.Context, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(c, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
