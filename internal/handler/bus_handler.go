package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/internal/application"
	"github.com/swiftbus/service-reservation/pkg/auth"
	"github.com/swiftbus/service-reservation/pkg/middleware"
	"github.com/swiftbus/service-reservation/pkg/response"
)

// BusHandler handles customer-facing bus queries: trip search, listings
// and seat availability.
type BusHandler struct {
	fleet        *application.FleetService
	availability *application.AvailabilityService
}

// NewBusHandler creates a new BusHandler.
func NewBusHandler(fleet *application.FleetService, availability *application.AvailabilityService) *BusHandler {
	return &BusHandler{fleet: fleet, availability: availability}
}

// RegisterRoutes registers bus query routes on the given router group.
func (h *BusHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	buses := r.Group("/api/v1/buses")
	buses.Use(authMW)
	{
		buses.GET("", h.ListBuses)
		buses.GET("/search", h.SearchBuses)
		buses.GET("/:id", h.GetBus)
		buses.GET("/:id/seats", h.AvailableSeats)
	}
}

// ListBuses handles GET /api/v1/buses.
func (h *BusHandler) ListBuses(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.fleet.ListAvailableBuses(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// SearchBuses handles GET /api/v1/buses/search?date=YYYY-MM-DD&from=X&to=Y.
func (h *BusHandler) SearchBuses(c *gin.Context) {
	dateStr := c.Query("date")
	from := c.Query("from")
	to := c.Query("to")
	if dateStr == "" || from == "" || to == "" {
		response.BadRequest(c, "date, from and to query parameters are required")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		response.BadRequest(c, "date must be in YYYY-MM-DD format")
		return
	}

	results, err := h.availability.SearchBuses(c.Request.Context(), date, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, results)
}

// GetBus handles GET /api/v1/buses/:id.
func (h *BusHandler) GetBus(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	result, err := h.fleet.GetBus(c.Request.Context(), busID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AvailableSeats handles GET /api/v1/buses/:id/seats.
func (h *BusHandler) AvailableSeats(c *gin.Context) {
	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	result, err := h.availability.AvailableSeats(c.Request.Context(), busID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
