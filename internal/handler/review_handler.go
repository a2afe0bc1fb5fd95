package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/response"
)

// ReviewHandler handles HTTP requests for stay reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.POST("/api/v1/reviews", authMW, middleware.RequireRole(auth.RoleGuest), h.CreateReview)
	r.GET("/api/v1/properties/:id/reviews", h.ListPropertyReviews)
}

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	authorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), authorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPropertyReviews handles GET /api/v1/properties/:id/reviews.
func (h *ReviewHandler) ListPropertyReviews(c *gin.Context) {
	propertyID, ok := parseID(c, "property")
	if !ok {
		return
	}

	result, err := h.service.ListPropertyReviews(c.Request.Context(), propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
