package dto

import "github.com/shopspring/decimal"

// CreateInvoiceItem línea de la petición de creación de factura.
type CreateInvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // fracción (0.21) o porcentaje (21)
}

// CreateInvoiceRequest petición de creación de factura (borrador).
type CreateInvoiceRequest struct {
	PartnerID string              `json:"partner_id"`
	Series    string              `json:"series"`
	Number    string              `json:"number"`
	IssueDate string              `json:"issue_date"` // YYYY-MM-DD; vacío = hoy
	Items     []CreateInvoiceItem `json:"items"`
}

// InvoiceLineResponse línea en respuestas.
type InvoiceLineResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse factura completa en respuestas.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	CompanyID      string                `json:"company_id"`
	PartnerID      string                `json:"partner_id"`
	Series         string                `json:"series"`
	Number         string                `json:"number"`
	IssueDate      string                `json:"issue_date"`
	NetTotal       decimal.Decimal       `json:"net_total"`
	TaxTotal       decimal.Decimal       `json:"tax_total"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	Posted         bool                  `json:"posted"`
	RegistryNumber string                `json:"registry_number,omitempty"`
	FacturaeStatus string                `json:"facturae_status,omitempty"`
	Lines          []InvoiceLineResponse `json:"lines,omitempty"`
}

// PostInvoiceResponse resultado del posting. La factura siempre queda
// contabilizada; la sección Exchange informa de si se pudo crear (y despachar)
// el intercambio o de por qué no.
type PostInvoiceResponse struct {
	Invoice  InvoiceResponse  `json:"invoice"`
	Exchange *ExchangeOutcome `json:"exchange,omitempty"`
}

// ExchangeOutcome sección de intercambio del posting: o bien el registro
// creado, o bien el motivo por el que no se creó (validación, duplicado...).
type ExchangeOutcome struct {
	RecordID  string `json:"record_id,omitempty"`
	State     string `json:"state,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_message,omitempty"`
}
