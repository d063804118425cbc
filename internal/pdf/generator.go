// Package pdf renders quote documents with gofpdf.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/quotegen/quote-service/internal/quote"
)

type Generator struct {
	companyName string
}

func New(companyName string) *Generator {
	return &Generator{companyName: companyName}
}

func (g *Generator) Generate(q quote.Quote) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Quote %s", q.Number), false)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.Cell(0, 10, fmt.Sprintf("Quote %s", q.Number))
	doc.Ln(8)

	doc.SetFont("Arial", "", 11)
	doc.Cell(0, 6, fmt.Sprintf("Issued %s", q.CreatedAt.Format("2006-01-02")))
	doc.Ln(6)
	if q.ValidUntil != nil {
		doc.Cell(0, 6, fmt.Sprintf("Valid until %s", q.ValidUntil.Format("2006-01-02")))
		doc.Ln(6)
	}

	doc.Cell(0, 6, fmt.Sprintf("Customer: %s <%s>", q.Customer.Name, q.Customer.Email))
	doc.Ln(10)

	doc.SetFont("Arial", "B", 10)
	doc.Cell(80, 7, "Item")
	doc.Cell(20, 7, "Qty")
	doc.Cell(30, 7, "Unit price")
	doc.Cell(25, 7, "Disc %")
	doc.Cell(30, 7, "Line total")
	doc.Ln(8)

	doc.SetFont("Arial", "", 10)
	for _, item := range q.LineItems {
		doc.Cell(80, 6, trim(item.Name, 45))
		doc.Cell(20, 6, fmt.Sprintf("%g", item.Quantity))
		doc.Cell(30, 6, fmt.Sprintf("%.2f", item.UnitPrice))
		doc.Cell(25, 6, fmt.Sprintf("%.1f", item.DiscountPercent))
		doc.Cell(30, 6, fmt.Sprintf("%.2f", item.Total()))
		doc.Ln(6)
	}

	doc.Ln(4)
	doc.SetFont("Arial", "", 11)
	doc.Cell(0, 6, fmt.Sprintf("Subtotal: %.2f %s", q.Subtotal, q.Currency))
	doc.Ln(6)
	if q.DiscountTotal > 0 {
		doc.Cell(0, 6, fmt.Sprintf("Discount: -%.2f %s", q.DiscountTotal, q.Currency))
		doc.Ln(6)
	}
	doc.Cell(0, 6, fmt.Sprintf("Tax: %.2f %s", q.TaxTotal, q.Currency))
	doc.Ln(6)
	if q.ShippingTotal > 0 {
		doc.Cell(0, 6, fmt.Sprintf("Shipping: %.2f %s", q.ShippingTotal, q.Currency))
		doc.Ln(6)
	}
	doc.SetFont("Arial", "B", 12)
	doc.Cell(0, 8, fmt.Sprintf("Total: %.2f %s", q.Total, q.Currency))
	doc.Ln(10)

	if q.Terms != "" {
		doc.SetFont("Arial", "B", 10)
		doc.Cell(0, 6, "Terms")
		doc.Ln(6)
		doc.SetFont("Arial", "", 9)
		doc.MultiCell(0, 5, q.Terms, "", "L", false)
		doc.Ln(2)
	}

	doc.SetFont("Arial", "I", 8)
	doc.Cell(0, 5, g.companyName)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "..."
}
