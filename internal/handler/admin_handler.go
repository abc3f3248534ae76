package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/internal/application"
	"github.com/swiftbus/service-reservation/pkg/auth"
	"github.com/swiftbus/service-reservation/pkg/middleware"
	"github.com/swiftbus/service-reservation/pkg/response"
)

// AdminHandler handles admin HTTP requests: fleet management, booking
// oversight and settlement listings.
type AdminHandler struct {
	bookings    *application.BookingService
	settlements *application.SettlementService
	fleet       *application.FleetService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	bookings *application.BookingService,
	settlements *application.SettlementService,
	fleet *application.FleetService,
) *AdminHandler {
	return &AdminHandler{bookings: bookings, settlements: settlements, fleet: fleet}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/transactions", h.ListTransactions)

		admin.POST("/buses", h.CreateBus)
		admin.GET("/buses", h.ListBuses)
		admin.PATCH("/buses/:id", h.UpdateBus)
		admin.POST("/buses/:id/driver", h.AssignDriver)
		admin.DELETE("/buses/:id", h.DeleteBus)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.bookings.GetBookingStats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListTransactions handles GET /api/v1/admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	txns, total, err := h.settlements.ListAllTransactions(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, txns, total, page, limit)
}

// CreateBus handles POST /api/v1/admin/buses.
func (h *AdminHandler) CreateBus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.CreateBus(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBuses handles GET /api/v1/admin/buses.
func (h *AdminHandler) ListBuses(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.fleet.ListAllBuses(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// UpdateBus handles PATCH /api/v1/admin/buses/:id.
func (h *AdminHandler) UpdateBus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	var req application.UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.UpdateBus(c.Request.Context(), actor, busID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AssignDriver handles POST /api/v1/admin/buses/:id/driver.
func (h *AdminHandler) AssignDriver(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	var body struct {
		DriverID uuid.UUID `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.fleet.AssignDriver(c.Request.Context(), actor, busID, body.DriverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBus handles DELETE /api/v1/admin/buses/:id.
func (h *AdminHandler) DeleteBus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	busID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid bus ID")
		return
	}

	if err := h.fleet.DeleteBus(c.Request.Context(), actor, busID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
