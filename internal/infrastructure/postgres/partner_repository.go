package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

var _ repository.PartnerRepository = (*PartnerRepo)(nil)

// PartnerRepo implementación del puerto PartnerRepository sobre PostgreSQL.
type PartnerRepo struct {
	q Querier
}

// NewPartnerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartnerRepository(q Querier) *PartnerRepo {
	return &PartnerRepo{q: q}
}

const partnerColumns = `id, company_id, name, COALESCE(vat, ''), COALESCE(country_code, ''), COALESCE(province_code, ''), COALESCE(dire, ''), COALESCE(email, ''), facturae_enabled, created_at, updated_at`

// Create persiste un nuevo receptor.
func (r *PartnerRepo) Create(partner *entity.Partner) error {
	query := `
		INSERT INTO partners (id, company_id, name, vat, country_code, province_code, dire, email, facturae_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		partner.ID, partner.CompanyID, partner.Name,
		nullIfEmpty(partner.VAT), nullIfEmpty(partner.CountryCode), nullIfEmpty(partner.ProvinceCode),
		nullIfEmpty(partner.DIRe), nullIfEmpty(partner.Email), partner.FacturaeEnabled,
		partner.CreatedAt, partner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}

// GetByID obtiene un receptor por ID.
func (r *PartnerRepo) GetByID(id string) (*entity.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1`
	var p entity.Partner
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.VAT, &p.CountryCode, &p.ProvinceCode,
		&p.DIRe, &p.Email, &p.FacturaeEnabled, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return &p, nil
}

// ListByCompany lista receptores por empresa con paginación.
func (r *PartnerRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()
	var list []*entity.Partner
	for rows.Next() {
		var p entity.Partner
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.VAT, &p.CountryCode, &p.ProvinceCode,
			&p.DIRe, &p.Email, &p.FacturaeEnabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Update actualiza los datos estructurales del receptor.
func (r *PartnerRepo) Update(partner *entity.Partner) error {
	query := `
		UPDATE partners
		SET name = $2, vat = $3, country_code = $4, province_code = $5, dire = $6, email = $7, facturae_enabled = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		partner.ID, partner.Name,
		nullIfEmpty(partner.VAT), nullIfEmpty(partner.CountryCode), nullIfEmpty(partner.ProvinceCode),
		nullIfEmpty(partner.DIRe), nullIfEmpty(partner.Email), partner.FacturaeEnabled, partner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	return nil
}
