package billing

import (
	"context"

	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con el
// repositorio de facturas atado a la tx (cabecera y líneas atómicas).
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}
