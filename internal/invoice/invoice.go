// Package invoice renders booking invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/travelbooking/catalog-api/internal/models"
)

const (
	lineHeight = 7.0
	pageWidth  = 190.0
)

// Item table column widths in mm
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 70, "L"},
	{"Adults", 20, "C"},
	{"Children", 20, "C"},
	{"Options", 40, "R"},
	{"Subtotal", 40, "R"},
}

// Filename is the download name of a booking's invoice
func Filename(b *models.Booking) string {
	return fmt.Sprintf("invoice-%s.pdf", strings.ToLower(b.BookingNo))
}

// Render builds the invoice PDF for b, stamped with issued
func Render(b *models.Booking, issued time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+b.BookingNo, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Booking No : " + b.BookingNo,
		"Status     : " + strings.ToUpper(string(b.Status)),
		"Issued     : " + issued.UTC().Format("2006-01-02 15:04 MST"),
		"Booked     : " + b.CreatedAt.UTC().Format("2006-01-02"),
	} {
		pdf.Cell(0, lineHeight, line)
		pdf.Ln(lineHeight)
	}
	if w := b.TravelWindow; w != nil && w.StartDate != nil && w.EndDate != nil {
		pdf.Cell(0, lineHeight, fmt.Sprintf("Travel     : %s to %s",
			w.StartDate.Format("2006-01-02"), w.EndDate.Format("2006-01-02")))
		pdf.Ln(lineHeight)
	}
	pdf.Ln(4)

	writeItems(pdf, b)
	pdf.Ln(4)
	writeAmounts(pdf, b)

	if len(b.Payment.Transactions) > 0 {
		pdf.Ln(6)
		writePayments(pdf, b)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func writeItems(pdf *gofpdf.Fpdf, b *models.Booking) {
	pdf.SetFont("Helvetica", "B", 11)
	for _, c := range columns {
		pdf.CellFormat(c.width, lineHeight, c.title, "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range b.Items {
		options := decimal.Zero
		for _, o := range item.Options {
			options = options.Add(decimal.NewFromFloat(o.Price))
		}
		cells := []string{
			item.Title,
			fmt.Sprintf("%d x %s", item.QtyAdults, money(item.PriceAdult)),
			fmt.Sprintf("%d x %s", item.QtyChildren, money(item.PriceChild)),
			options.StringFixed(2),
			money(item.Subtotal),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, lineHeight, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeAmounts(pdf *gofpdf.Fpdf, b *models.Booking) {
	rows := []struct {
		label string
		value float64
	}{
		{"Items total", b.Amounts.ItemsTotal},
		{"Discount", -b.Amounts.Discount},
		{"Tax", b.Amounts.Tax},
		{"Fee", b.Amounts.Fee},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, r := range rows {
		pdf.CellFormat(pageWidth-40, lineHeight, r.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, lineHeight, money(r.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth-40, lineHeight+1, "Grand total ("+b.Currency+")", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, lineHeight+1, money(b.Amounts.GrandTotal), "T", 1, "R", false, 0, "")
}

func writePayments(pdf *gofpdf.Fpdf, b *models.Booking) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, lineHeight, "Payments ("+b.Payment.Status+")")
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "", 10)
	for _, tx := range b.Payment.Transactions {
		pdf.CellFormat(70, lineHeight, tx.Ref, "", 0, "L", false, 0, "")
		pdf.CellFormat(80, lineHeight, tx.At.UTC().Format("2006-01-02 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, lineHeight, money(tx.Amount), "", 1, "R", false, 0, "")
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
