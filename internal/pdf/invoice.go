// Package pdf renders invoice documents. Layout: vendor header, customer
// block, line-item table, totals, footer.
package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Vendor is the seller block printed in the invoice header.
type Vendor struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// InvoiceLine is one row of the line-item table.
type InvoiceLine struct {
	Title          string
	Quantity       int32
	UnitPriceCents int64
	TotalCents     int64
}

// InvoiceDocument is everything the renderer needs; it holds snapshots only,
// never live entities.
type InvoiceDocument struct {
	InvoiceNumber string
	IssuedAt      time.Time
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Currency      string
	Lines         []InvoiceLine
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// Renderer draws invoice PDFs for a fixed vendor identity.
type Renderer struct {
	vendor Vendor
}

// NewRenderer creates an invoice renderer.
func NewRenderer(vendor Vendor) *Renderer {
	return &Renderer{vendor: vendor}
}

// Render writes the invoice as an A4 PDF to w.
func (r *Renderer) Render(doc InvoiceDocument, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Vendor header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.vendor.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 5, r.vendor.Address, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("%s  |  %s", r.vendor.Email, r.vendor.Phone), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Invoice identity
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("Invoice %s", doc.InvoiceNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Issued: %s", doc.IssuedAt.Format("2 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Order: %s", doc.OrderNumber), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Customer block
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, doc.CustomerName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, doc.CustomerEmail, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Line-item table
	const (
		colTitle = 95.0
		colQty   = 20.0
		colUnit  = 35.0
		colTotal = 40.0
	)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(colTitle, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colUnit, 7, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colTotal, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(colTitle, 7, line.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 7, fmt.Sprintf("%d", line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colUnit, 7, formatMoney(doc.Currency, line.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 7, formatMoney(doc.Currency, line.TotalCents), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	labelWidth := colTitle + colQty + colUnit
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(labelWidth, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, formatMoney(doc.Currency, doc.SubtotalCents), "", 1, "R", false, 0, "")
	pdf.CellFormat(labelWidth, 6, "Tax", "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, formatMoney(doc.Currency, doc.TaxCents), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 8, formatMoney(doc.Currency, doc.TotalCents), "", 1, "R", false, 0, "")

	// Footer
	pdf.SetY(-28)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Thank you for shopping with %s.", r.vendor.Name), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "This invoice was generated electronically and is valid without a signature.", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// formatMoney renders cents as "KES 2,000.00".
func formatMoney(currency string, cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	// Group thousands.
	digits := fmt.Sprintf("%d", whole)
	var grouped []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, grouped, frac)
}
