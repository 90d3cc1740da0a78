// internal/pkg/receipt/service.go
package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/domain/order"
)

// Service renders order receipts as PDF
type Service struct {
	config *config.Config
}

// NewService creates a new receipt service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

type receiptData struct {
	Order       *order.Order
	OrderDate   string
	Total       string
	CompanyName string
	CompanyURL  string
}

// Generate renders a PDF receipt for an order
func (s *Service) Generate(o *order.Order) (*bytes.Buffer, error) {
	data := receiptData{
		Order:       o,
		OrderDate:   o.CreatedAt.Format("January 2, 2006"),
		Total:       formatAmount(o.TotalAmount, o.Currency),
		CompanyName: s.config.Receipt.CompanyName,
		CompanyURL:  s.config.Receipt.CompanyURL,
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) generateHTML(data receiptData) (string, error) {
	tmpl := template.Must(template.New("receipt").Parse(receiptTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// formatAmount renders integer minor units as a human figure, e.g. 7148 usd
// becomes "USD 71.48".
func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", strings.ToUpper(currency), amount/100, amount%100)
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 40px; }
  h1 { font-size: 22px; margin-bottom: 4px; }
  .muted { color: #777; font-size: 12px; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  td { padding: 8px 0; border-bottom: 1px solid #eee; font-size: 14px; }
  td.value { text-align: right; }
  .total td { font-weight: bold; border-bottom: none; }
  .footer { margin-top: 48px; font-size: 11px; color: #999; }
</style>
</head>
<body>
  <h1>{{.CompanyName}}</h1>
  <div class="muted">Order receipt</div>

  <table>
    <tr><td>Order</td><td class="value">{{.Order.ID}}</td></tr>
    <tr><td>Date</td><td class="value">{{.OrderDate}}</td></tr>
    <tr><td>Checkout session</td><td class="value">{{.Order.CheckoutSessionID}}</td></tr>
    <tr class="total"><td>Total paid</td><td class="value">{{.Total}}</td></tr>
  </table>

  <div class="footer">
    Thank you for your order.{{if .CompanyURL}} Visit us at {{.CompanyURL}}.{{end}}
  </div>
</body>
</html>`
