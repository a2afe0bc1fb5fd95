package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/response"
)

// PaymentHandler handles HTTP requests for payment settlement.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers all payment routes.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	payments := r.Group("/api/v1/payments")
	payments.Use(authMW)
	{
		payments.POST("", middleware.RequireRole(auth.RoleGuest), h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.PATCH("/:id", middleware.RequireRole(auth.RoleAdmin), h.UpdatePayment)
	}

	r.GET("/api/v1/bookings/:id/payment", authMW, h.GetBookingPayment)
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, ok := parseID(c, "payment")
	if !ok {
		return
	}

	result, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingPayment handles GET /api/v1/bookings/:id/payment.
func (h *PaymentHandler) GetBookingPayment(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetPaymentByBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdatePayment handles PATCH /api/v1/payments/:id (manual settlement).
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	paymentID, ok := parseID(c, "payment")
	if !ok {
		return
	}

	var req application.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePayment(c.Request.Context(), paymentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
