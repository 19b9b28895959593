package repository

import "github.com/invorya/facturae-faceb2b/internal/domain/entity"

// InvoiceRepository define el puerto de persistencia para Invoice y líneas.
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	CreateLine(line *entity.InvoiceLine) error
	GetByID(id string) (*entity.Invoice, error)
	GetLinesByInvoiceID(invoiceID string) ([]*entity.InvoiceLine, error)
	// Update persiste los campos mutables del ciclo de intercambio:
	// posted, registry_number, facturae_status, status_changed_at.
	Update(invoice *entity.Invoice) error
}
