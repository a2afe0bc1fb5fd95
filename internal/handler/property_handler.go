package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	propertyDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/property"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/response"
)

// PropertyHandler handles HTTP requests for the property catalog.
type PropertyHandler struct {
	service *application.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(service *application.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// RegisterRoutes registers all property routes. Browsing is public; listing
// management requires a host token.
func (h *PropertyHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	hostRole := middleware.RequireRole(auth.RoleHost)

	properties := r.Group("/api/v1/properties")
	{
		properties.GET("", h.ListProperties)
		properties.GET("/:id", h.GetProperty)
		properties.GET("/mine", authMW, hostRole, h.ListMyProperties)
		properties.POST("", authMW, hostRole, h.CreateProperty)
		properties.PUT("/:id", authMW, hostRole, h.UpdateProperty)
		properties.DELETE("/:id", authMW, hostRole, h.DeleteProperty)
	}
}

// CreateProperty handles POST /api/v1/properties.
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateProperty(c.Request.Context(), hostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListProperties handles GET /api/v1/properties. Query parameters narrow the
// active listings by type, location, capacity and nightly price.
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	var filter application.PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListProperties(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListMyProperties handles GET /api/v1/properties/mine.
func (h *PropertyHandler) ListMyProperties(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListHostProperties(c.Request.Context(), hostID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetProperty handles GET /api/v1/properties/:id.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	propertyID, ok := parseID(c, "property")
	if !ok {
		return
	}

	result, err := h.service.GetProperty(c.Request.Context(), propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProperty handles PUT /api/v1/properties/:id.
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	propertyID, ok := parseID(c, "property")
	if !ok {
		return
	}

	var req application.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProperty(c.Request.Context(), hostID, propertyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteProperty handles DELETE /api/v1/properties/:id.
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	propertyID, ok := parseID(c, "property")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProperty(c.Request.Context(), hostID, propertyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, propertyDomain.NotFoundError(propertyID))
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
