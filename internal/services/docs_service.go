package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking receipts as PDF.
type DocsService struct {
	Bookings  BookingStore
	Sessions  SessionStore
	RequestID string
	Now       func() time.Time
	Loader    func(ctx context.Context, bookingID string) (receiptData, error)
}

type receiptData struct {
	Booking      models.Booking
	SessionTitle string
}

// GenerateReceipt returns the PDF bytes and a download filename. Only the booking's
// student may fetch it.
func (s DocsService) GenerateReceipt(ctx context.Context, studentID, bookingID string) ([]byte, string, error) {
	data, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if data.Booking.StudentID != studentID {
		return nil, "", domain.NotFoundError{Resource: "booking"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", "booking_id="+bookingID)
	return buildReceiptPDF(data, clock(s.Now).now())
}

func (s DocsService) load(ctx context.Context, bookingID string) (receiptData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, bookingID)
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return receiptData{}, err
	}
	out := receiptData{Booking: b}
	if sess, err := s.Sessions.GetByID(ctx, b.SessionID); err == nil {
		out.SessionTitle = sess.Title
	}
	return out, nil
}

func buildReceiptPDF(d receiptData, issued time.Time) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Receipt No : RCPT-%s", shortID(b.ID)),
		fmt.Sprintf("Issued     : %s UTC", issued.UTC().Format("2006-01-02 15:04")),
		fmt.Sprintf("Session    : %s", safe(d.SessionTitle, b.SessionID)),
		fmt.Sprintf("Slot       : %s - %s UTC", utils.FormatDateTime(b.Start), b.End.UTC().Format("15:04")),
		fmt.Sprintf("Status     : %s", strings.ToUpper(string(b.Status))),
		fmt.Sprintf("Payment    : %s", safe(b.PaymentID, "-")),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Amount paid: "+utils.FormatAmount(b.AmountPaid, b.Currency))
	pdf.Ln(9)

	if b.Status == domain.StatusCancelled {
		pdf.SetFont("Helvetica", "", 12)
		refund := "Refund     : none"
		switch {
		case b.RefundedAmount != nil:
			refund = "Refund     : " + utils.FormatAmount(*b.RefundedAmount, b.Currency) + " (" + string(b.RefundStatus) + ")"
		case b.RefundStatus != "":
			refund = "Refund     : " + string(b.RefundStatus)
		}
		pdf.Cell(0, 7, refund)
		pdf.Ln(7)
		if b.Cancellation != nil {
			pdf.Cell(0, 7, fmt.Sprintf("Cancelled  : %s by %s", utils.FormatDateTime(b.Cancellation.CancelledAt), b.Cancellation.CancelledBy))
			pdf.Ln(7)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Join the session from your bookings page using meeting "+safe(b.MeetingID, "-")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("RECEIPT_%s_%s.pdf", utils.FormatDate(b.Start), safeFilenamePart(shortID(b.ID)))
	return buf.Bytes(), filename, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 12 {
		return strings.ToUpper(id[:12])
	}
	return strings.ToUpper(id)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
