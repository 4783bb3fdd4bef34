// internal/handlers/booking.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// GET /booking?uid=
func (h *BookingHandler) GetBookings(c *gin.Context) {
	uid, _ := utils.GetUIDFromContext(c)

	bookings, err := h.bookingService.ListByUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, bookings)
}

// POST /booking
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	uid, exists := utils.GetUIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), uid, &req)
	if err != nil {
		if errors.Is(err, services.ErrBookingExists) {
			utils.SoftRejectResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyBookingExists))
			return
		}
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, booking)
}

// GET /booking/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, booking)
}

// DELETE /booking/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := parseID(c, "booking")
	if !ok {
		return
	}

	if err := h.bookingService.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true, "id": id})
}
