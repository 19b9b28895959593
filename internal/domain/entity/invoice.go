package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice representa la cabecera de una factura emitida.
// El estado del intercambio con FACeB2B no vive aquí: vive en los
// ExchangeRecord asociados; la factura solo refleja el último estado
// conocido (FacturaeStatus) y la referencia asignada por la pasarela.
type Invoice struct {
	ID        string
	CompanyID string
	PartnerID string
	Series    string // serie de facturación (ej: 2999)
	Number    string // número dentro de la serie
	IssueDate time.Time

	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal

	Posted bool // contabilizada; el intercambio nunca bloquea el posting

	// RegistryNumber es el número de registro asignado por FACeB2B en el
	// primer envío correcto. Inmutable una vez asignado; imprescindible
	// para consultar el estado (GetInvoiceDetails).
	RegistryNumber string

	// FacturaeStatus es el último estado de dominio conocido (face-1200, ...).
	// StatusChangedAt guarda el CreatedAt del ExchangeRecord que lo escribió:
	// last-writer-wins por fecha de creación del registro, no por llegada.
	FacturaeStatus  string
	StatusChangedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullNumber devuelve serie+número tal como viaja en el documento Facturae.
func (i *Invoice) FullNumber() string {
	if i.Series == "" {
		return i.Number
	}
	return i.Series + "/" + i.Number
}

// InvoiceLine línea de detalle de la factura (necesaria para el XML Facturae).
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // fracción (0.21) o porcentaje (21); se normaliza al calcular
	Subtotal    decimal.Decimal
}
