package exchange_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/facturae-faceb2b/internal/application/exchange"
	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
)

func validCompany() *entity.Company {
	return &entity.Company{
		ID:           "co-1",
		Name:         "Acme SL",
		VAT:          "ESA12345674",
		ContactEmail: "facturacion@acme.es",
		CountryCode:  "ES",
	}
}

func validPartner() *entity.Partner {
	return &entity.Partner{
		ID:              "pa-1",
		CompanyID:       "co-1",
		Name:            "Cliente SA",
		VAT:             "ES05680675C",
		CountryCode:     "ES",
		ProvinceCode:    "28",
		DIRe:            "51558573J",
		FacturaeEnabled: true,
	}
}

func validationKind(t *testing.T, err error) domain.ValidationKind {
	t.Helper()
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "debe ser un ValidationError, fue: %v", err)
	return vErr.Kind
}

func TestValidate_DatosCompletos_Pasa(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{RequireContactEmail: true, ForceFacturae: true})
	assert.NoError(t, v.Validate(validCompany(), validPartner()))
}

func TestValidate_EmailAusente(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{RequireContactEmail: true})
	company := validCompany()
	company.ContactEmail = ""

	err := v.Validate(company, validPartner())
	require.Error(t, err)
	assert.Equal(t, domain.ValidationMissingContactEmail, validationKind(t, err))
}

func TestValidate_EmailMalformado(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{RequireContactEmail: true})
	company := validCompany()
	company.ContactEmail = "sin-arroba.es"

	err := v.Validate(company, validPartner())
	require.Error(t, err)
	assert.Equal(t, domain.ValidationMissingContactEmail, validationKind(t, err))
}

func TestValidate_EmailNoExigido_Pasa(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{RequireContactEmail: false})
	company := validCompany()
	company.ContactEmail = ""
	assert.NoError(t, v.Validate(company, validPartner()))
}

func TestValidate_ReceptorNoElectronico(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{ForceFacturae: true})
	partner := validPartner()
	partner.FacturaeEnabled = false

	err := v.Validate(validCompany(), partner)
	require.Error(t, err)
	assert.Equal(t, domain.ValidationPartnerNotElectronic, validationKind(t, err))
}

func TestValidate_ReceptorSinNIF(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{})
	partner := validPartner()
	partner.VAT = ""

	err := v.Validate(validCompany(), partner)
	require.Error(t, err)
	assert.Equal(t, domain.ValidationPartnerMissingVAT, validationKind(t, err))
}

func TestValidate_ReceptorSinPais(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{})
	partner := validPartner()
	partner.CountryCode = ""

	err := v.Validate(validCompany(), partner)
	require.Error(t, err)
	assert.Equal(t, domain.ValidationPartnerMissingCountry, validationKind(t, err))
}

func TestValidate_ReceptorEspanolSinProvincia(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{})
	partner := validPartner()
	partner.ProvinceCode = ""

	err := v.Validate(validCompany(), partner)
	require.Error(t, err)
	assert.Equal(t, domain.ValidationPartnerMissingProvince, validationKind(t, err))
}

// La provincia solo es obligatoria para receptores españoles.
func TestValidate_ReceptorExtranjeroSinProvincia_Pasa(t *testing.T) {
	v := exchange.NewValidator(exchange.ValidatorConfig{})
	partner := validPartner()
	partner.CountryCode = "FR"
	partner.ProvinceCode = ""

	assert.NoError(t, v.Validate(validCompany(), partner))
}
