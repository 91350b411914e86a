package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"autoship/internal/repositories"
	"autoship/internal/utils"
)

// DocsService renders booking invoices and payment receipts as PDFs.
type DocsService struct {
	DB            *sql.DB
	BookingRepo   repositories.BookingRepository
	PaymentRepo   repositories.PaymentRepository
	CustomerRepo  repositories.CustomerRepository
	RouteRepo     repositories.RouteRepository
	RequestID     string
	InvoiceLoader func(context.Context, int64) (invoiceDocData, error)
	ReceiptLoader func(context.Context, int64) (receiptDocData, error)
}

type invoiceDocData struct {
	BookingID        int64
	BookingReference string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	RouteFrom        string
	RouteTo          string
	RecipientName    string
	RecipientAddress string
	TotalAmount      int64
	PaidAmount       int64
	Currency         string
	Status           string
	CreatedAt        time.Time
}

type receiptDocData struct {
	PaymentID        int64
	PaymentReference string
	BookingReference string
	CustomerName     string
	Amount           int64
	ProcessingFee    int64
	Currency         string
	Method           string
	TransactionID    string
	PaymentDate      *time.Time
	Status           string
}

func (s DocsService) GenerateInvoice(ctx context.Context, bookingID int64) ([]byte, string, error) {
	data, err := s.loadInvoiceData(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d", bookingID))
	return buildInvoicePDF(data)
}

func (s DocsService) GenerateReceipt(ctx context.Context, paymentID int64) ([]byte, string, error) {
	data, err := s.loadReceiptData(ctx, paymentID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", fmt.Sprintf("payment_id=%d", paymentID))
	return buildReceiptPDF(data)
}

func (s DocsService) loadInvoiceData(ctx context.Context, bookingID int64) (invoiceDocData, error) {
	if s.InvoiceLoader != nil {
		return s.InvoiceLoader(ctx, bookingID)
	}
	var out invoiceDocData
	booking, err := s.BookingRepo.GetByID(ctx, s.DB, bookingID)
	if err != nil {
		return out, err
	}
	out.BookingID = booking.ID
	out.BookingReference = booking.BookingReference
	out.RecipientName = booking.RecipientName
	out.RecipientAddress = booking.RecipientAddress
	out.TotalAmount = booking.TotalAmount
	out.PaidAmount = booking.PaidAmount
	out.Currency = booking.Currency
	out.Status = string(booking.Status)
	out.CreatedAt = booking.CreatedAt

	if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, booking.CustomerID); err == nil {
		out.CustomerName = customer.FullName()
		out.CustomerEmail = customer.Email
		out.CustomerPhone = customer.Phone
	}
	if route, err := s.RouteRepo.GetByID(ctx, s.DB, booking.RouteID); err == nil {
		out.RouteFrom = routeLabel(route.OriginCity, route.OriginCountry)
		out.RouteTo = routeLabel(route.DestinationCity, route.DestinationCountry)
	}
	return out, nil
}

func (s DocsService) loadReceiptData(ctx context.Context, paymentID int64) (receiptDocData, error) {
	if s.ReceiptLoader != nil {
		return s.ReceiptLoader(ctx, paymentID)
	}
	var out receiptDocData
	payment, err := s.PaymentRepo.GetByID(ctx, s.DB, paymentID)
	if err != nil {
		return out, err
	}
	out.PaymentID = payment.ID
	out.PaymentReference = payment.PaymentReference
	out.Amount = payment.Amount
	out.ProcessingFee = payment.ProcessingFee
	out.Currency = payment.Currency
	out.Method = payment.PaymentMethod
	out.TransactionID = payment.TransactionID
	out.PaymentDate = payment.PaymentDate
	out.Status = string(payment.Status)

	if booking, err := s.BookingRepo.GetByID(ctx, s.DB, payment.BookingID); err == nil {
		out.BookingReference = booking.BookingReference
	}
	if customer, err := s.CustomerRepo.GetByID(ctx, s.DB, payment.CustomerID); err == nil {
		out.CustomerName = customer.FullName()
	}
	return out, nil
}

func routeLabel(city, country string) string {
	if city == "" {
		return country
	}
	return city + ", " + country
}

func buildInvoicePDF(d invoiceDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SHIPPING INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice No : INV-"+safeDoc(d.BookingReference, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+d.CreatedAt.Format("2006-01-02"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Name      : %s", safeDoc(d.CustomerName, "-")),
		fmt.Sprintf("Email     : %s", safeDoc(d.CustomerEmail, "-")),
		fmt.Sprintf("Phone     : %s", safeDoc(d.CustomerPhone, "-")),
		fmt.Sprintf("Recipient : %s", safeDoc(d.RecipientName, "-")),
		fmt.Sprintf("Address   : %s", safeDoc(d.RecipientAddress, "-")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Shipment:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("Vehicle shipping %s -> %s (booking %s)",
		safeDoc(d.RouteFrom, "-"), safeDoc(d.RouteTo, "-"), safeDoc(d.BookingReference, "-"))
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(2)

	currency := safeDoc(d.Currency, "USD")
	pdf.Cell(0, 6, fmt.Sprintf("Total   : %s %s", currency, utils.FormatAmount(d.TotalAmount)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Paid    : %s %s", currency, utils.FormatAmount(d.PaidAmount)))
	pdf.Ln(6)

	balance := d.TotalAmount - d.PaidAmount
	if balance < 0 {
		balance = 0
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Balance : %s %s", currency, utils.FormatAmount(balance)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Payments are applied against this booking until the balance reaches zero.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("INVOICE_%s.pdf", docFilenamePart(d.BookingReference))
	return buf.Bytes(), filename, nil
}

func buildReceiptPDF(d receiptDocData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	paidOn := "-"
	if d.PaymentDate != nil {
		paidOn = d.PaymentDate.Format("2006-01-02 15:04")
	}
	currency := safeDoc(d.Currency, "USD")

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Receipt No  : %s", safeDoc(d.PaymentReference, "-")),
		fmt.Sprintf("Booking     : %s", safeDoc(d.BookingReference, "-")),
		fmt.Sprintf("Customer    : %s", safeDoc(d.CustomerName, "-")),
		fmt.Sprintf("Method      : %s", safeDoc(d.Method, "-")),
		fmt.Sprintf("Transaction : %s", safeDoc(d.TransactionID, "-")),
		fmt.Sprintf("Paid on     : %s", paidOn),
		fmt.Sprintf("Status      : %s", safeDoc(d.Status, "-")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.Cell(0, 6, fmt.Sprintf("Amount          : %s %s", currency, utils.FormatAmount(d.Amount)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Processing fee  : %s %s", currency, utils.FormatAmount(d.ProcessingFee)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total charged   : %s %s", currency, utils.FormatAmount(d.Amount+d.ProcessingFee)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Keep this receipt for your records.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s.pdf", docFilenamePart(d.PaymentReference))
	return buf.Bytes(), filename, nil
}

func safeDoc(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func docFilenamePart(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "doc"
	}
	return string(out)
}
