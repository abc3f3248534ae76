package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/internal/application"
	"github.com/swiftbus/service-reservation/pkg/auth"
	"github.com/swiftbus/service-reservation/pkg/middleware"
	"github.com/swiftbus/service-reservation/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	bookings    *application.BookingService
	settlements *application.SettlementService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *application.BookingService, settlements *application.SettlementService) *BookingHandler {
	return &BookingHandler{bookings: bookings, settlements: settlements}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.ReserveSeat)
		bookings.POST("/group", h.ReserveSeats)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/seat", h.UpdateSeat)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/settle", h.Settle)
		bookings.GET("/:id/transaction", h.GetTransaction)
	}
}

// ReserveSeat handles POST /api/v1/bookings.
func (h *BookingHandler) ReserveSeat(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.ReserveSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.ReserveSeat(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ReserveSeats handles POST /api/v1/bookings/group.
func (h *BookingHandler) ReserveSeats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.ReserveSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.ReserveSeats(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Customers see their own.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.bookings.GetCustomerBookings(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.bookings.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateSeat handles PATCH /api/v1/bookings/:id/seat.
func (h *BookingHandler) UpdateSeat(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var body struct {
		SeatNumber int `json:"seat_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.UpdateSeat(c.Request.Context(), actor, bookingID, body.SeatNumber)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.bookings.CancelBooking(c.Request.Context(), actor, bookingID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Settle handles POST /api/v1/bookings/:id/settle.
func (h *BookingHandler) Settle(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.settlements.Settle(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetTransaction handles GET /api/v1/bookings/:id/transaction.
func (h *BookingHandler) GetTransaction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.settlements.GetTransaction(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// actorFrom builds the acting identity from the authenticated request.
// It writes the 401 response itself when the context carries no identity.
func actorFrom(c *gin.Context) (application.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return application.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return application.Actor{}, false
	}
	return application.Actor{UserID: userID, Role: role}, true
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
