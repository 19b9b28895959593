package exchange

import (
	"regexp"

	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
)

// emailRx patrón mínimo razonable: algo@algo.algo, sin espacios.
var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// issuingCountry es el país emisor: los receptores de este país necesitan
// código de provincia en Facturae.
const issuingCountry = "ES"

// ValidatorConfig política de la empresa sobre el intercambio.
type ValidatorConfig struct {
	// RequireContactEmail exige email de notificaciones válido en la empresa.
	RequireContactEmail bool
	// ForceFacturae exige que el receptor esté marcado como electrónico.
	ForceFacturae bool
}

// Validator comprueba los invariantes estructurales previos a la creación de
// un ExchangeRecord. Sin efectos; cada violación produce un
// *domain.ValidationError con su kind propio.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator construye el validador.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate aplica todas las comprobaciones y devuelve la primera violación.
func (v *Validator) Validate(company *entity.Company, partner *entity.Partner) error {
	if v.cfg.RequireContactEmail && !emailRx.MatchString(company.ContactEmail) {
		return domain.NewValidationError(domain.ValidationMissingContactEmail,
			"la empresa no tiene un email de notificaciones válido")
	}
	if v.cfg.ForceFacturae && !partner.FacturaeEnabled {
		return domain.NewValidationError(domain.ValidationPartnerNotElectronic,
			"el receptor no admite factura electrónica")
	}
	if partner.VAT == "" {
		return domain.NewValidationError(domain.ValidationPartnerMissingVAT,
			"el receptor no tiene NIF")
	}
	if partner.CountryCode == "" {
		return domain.NewValidationError(domain.ValidationPartnerMissingCountry,
			"el receptor no tiene país")
	}
	if partner.CountryCode == issuingCountry && partner.ProvinceCode == "" {
		return domain.NewValidationError(domain.ValidationPartnerMissingProvince,
			"el receptor español no tiene provincia")
	}
	return nil
}
