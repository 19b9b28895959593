package exchange

import (
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
)

// DocumentBuilder define el puerto hacia el constructor del documento
// Facturae. Puro: el Dispatcher no asume ningún efecto secundario.
type DocumentBuilder interface {
	Build(company *entity.Company, partner *entity.Partner, invoice *entity.Invoice, lines []*entity.InvoiceLine) (*faceb2b.Document, error)
}
