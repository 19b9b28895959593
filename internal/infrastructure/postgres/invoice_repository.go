package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, company_id, partner_id, series, number, issue_date, net_total, tax_total, grand_total, posted, registry_number, facturae_status, status_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID, invoice.CompanyID, invoice.PartnerID, invoice.Series, invoice.Number,
		invoice.IssueDate, invoice.NetTotal, invoice.TaxTotal, invoice.GrandTotal,
		invoice.Posted, nullIfEmpty(invoice.RegistryNumber), nullIfEmpty(invoice.FacturaeStatus),
		invoice.StatusChangedAt, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number already exists: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLine persiste una línea de la factura.
func (r *InvoiceRepo) CreateLine(line *entity.InvoiceLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_lines (id, invoice_id, description, quantity, unit_price, tax_rate, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.InvoiceID, line.Description, line.Quantity, line.UnitPrice,
		line.TaxRate, line.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("insert invoice line: %w", err)
	}
	return nil
}

// Update persiste los campos mutables del ciclo de intercambio. El registry
// number nunca se sobreescribe una vez asignado (COALESCE sobre el existente).
func (r *InvoiceRepo) Update(invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET posted            = $2,
		    registry_number   = COALESCE(registry_number, $3),
		    facturae_status   = $4,
		    status_changed_at = $5,
		    updated_at        = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		invoice.ID,
		invoice.Posted,
		nullIfEmpty(invoice.RegistryNumber),
		nullIfEmpty(invoice.FacturaeStatus),
		invoice.StatusChangedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `
		SELECT id, company_id, partner_id, series, number, issue_date,
		       net_total, tax_total, grand_total, posted,
		       COALESCE(registry_number, ''), COALESCE(facturae_status, ''), status_changed_at,
		       created_at, updated_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.PartnerID, &inv.Series, &inv.Number,
		&inv.IssueDate, &inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal,
		&inv.Posted, &inv.RegistryNumber, &inv.FacturaeStatus, &inv.StatusChangedAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// GetLinesByInvoiceID obtiene todas las líneas de una factura.
func (r *InvoiceRepo) GetLinesByInvoiceID(invoiceID string) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, subtotal
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.TaxRate, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
