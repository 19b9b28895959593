package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/invorya/facturae-faceb2b/internal/application/dto"
	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

// PartnerUseCase altas y consultas de receptores.
type PartnerUseCase struct {
	partnerRepo repository.PartnerRepository
}

// NewPartnerUseCase construye el caso de uso.
func NewPartnerUseCase(partnerRepo repository.PartnerRepository) *PartnerUseCase {
	return &PartnerUseCase{partnerRepo: partnerRepo}
}

// Create da de alta un receptor. Los invariantes FACeB2B (NIF, país,
// provincia) no se exigen aquí: se comprueban al crear el intercambio, para
// poder registrar receptores incompletos y completarlos después.
func (uc *PartnerUseCase) Create(ctx context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	p := &entity.Partner{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		Name:            in.Name,
		VAT:             in.VAT,
		CountryCode:     in.CountryCode,
		ProvinceCode:    in.ProvinceCode,
		DIRe:            in.DIRe,
		Email:           in.Email,
		FacturaeEnabled: in.FacturaeEnabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.partnerRepo.Create(p); err != nil {
		return nil, err
	}
	return toPartnerResponse(p), nil
}

// List devuelve los receptores de la empresa.
func (uc *PartnerUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.PartnerResponse, error) {
	page.DefaultPage()
	partners, err := uc.partnerRepo.ListByCompany(companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PartnerResponse, 0, len(partners))
	for _, p := range partners {
		out = append(out, *toPartnerResponse(p))
	}
	return out, nil
}

// GetByID devuelve un receptor (comprobando el tenant).
func (uc *PartnerUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.PartnerResponse, error) {
	p, err := uc.partnerRepo.GetByID(id)
	if err != nil || p == nil {
		return nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toPartnerResponse(p), nil
}

func toPartnerResponse(p *entity.Partner) *dto.PartnerResponse {
	return &dto.PartnerResponse{
		ID:              p.ID,
		CompanyID:       p.CompanyID,
		Name:            p.Name,
		VAT:             p.VAT,
		CountryCode:     p.CountryCode,
		ProvinceCode:    p.ProvinceCode,
		DIRe:            p.DIRe,
		Email:           p.Email,
		FacturaeEnabled: p.FacturaeEnabled,
	}
}
