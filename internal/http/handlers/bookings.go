package handlers

import (
	"errors"
	"io"
	"net/http"

	"sessionbook/internal/domain"
	"sessionbook/internal/http/middleware"
	"sessionbook/internal/services"

	"github.com/gin-gonic/gin"
)

type paymentIntentRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	TimeSlot     string `json:"timeSlot" binding:"required"`
	SelectedDate string `json:"selectedDate" binding:"required"`
	Concerns     string `json:"concerns"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CreatePaymentIntent opens a payment for the chosen slot and returns its client secret.
func (h Handlers) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.Payments
	svc.RequestID = middleware.GetRequestID(c)
	secret, err := svc.CreatePaymentIntent(c.Request.Context(), services.PaymentIntentInput{
		StudentID:    middleware.UserID(c),
		SessionID:    req.SessionID,
		TimeSlot:     req.TimeSlot,
		SelectedDate: req.SelectedDate,
		Concerns:     req.Concerns,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

func (h Handlers) ListStudentBookings(c *gin.Context) {
	h.listBookings(c, domain.RoleStudent)
}

func (h Handlers) ListInstructorBookings(c *gin.Context) {
	h.listBookings(c, domain.RoleInstructor)
}

func (h Handlers) listBookings(c *gin.Context, role domain.Role) {
	status, ok := domain.ParseBookingStatus(c.Param("status"))
	if !ok {
		respondError(c, http.StatusBadRequest, "validation_error", "status must be booked, completed or cancelled", nil)
		return
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	rows, err := svc.List(c.Request.Context(), middleware.UserID(c), role, status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": rows})
}

func (h Handlers) StudentBookingDetail(c *gin.Context) {
	id, ok := pathParam(c, "bookingId")
	if !ok {
		return
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	view, err := svc.StudentDetail(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": view})
}

func (h Handlers) CancelStudentBooking(c *gin.Context) {
	h.cancel(c, domain.RoleStudent)
}

func (h Handlers) CancelInstructorBooking(c *gin.Context) {
	h.cancel(c, domain.RoleInstructor)
}

func (h Handlers) cancel(c *gin.Context, by domain.CancelledBy) {
	id, ok := pathParam(c, "bookingId")
	if !ok {
		return
	}
	// the body is optional and may arrive chunked
	var req cancelRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "invalid payload", err)
			return
		}
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.Cancel(c.Request.Context(), services.CancelInput{
		BookingID:   id,
		CancelledBy: by,
		RequesterID: middleware.UserID(c),
		Reason:      req.Reason,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled", "result": res})
}

// JoinSession returns the room id and a room token for a booking participant.
func (h Handlers) JoinSession(c *gin.Context) {
	id, ok := pathParam(c, "bookingId")
	if !ok {
		return
	}
	svc := h.Rooms
	svc.RequestID = middleware.GetRequestID(c)
	join, err := svc.Join(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, join)
}

// BookingReceipt returns the booking receipt PDF (inline).
func (h Handlers) BookingReceipt(c *gin.Context) {
	id, ok := pathParam(c, "bookingId")
	if !ok {
		return
	}
	svc := h.Docs
	svc.RequestID = middleware.GetRequestID(c)
	pdfBytes, filename, err := svc.GenerateReceipt(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
