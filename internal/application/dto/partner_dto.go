package dto

// CreatePartnerRequest alta de receptor.
type CreatePartnerRequest struct {
	Name            string `json:"name"`
	VAT             string `json:"vat"`
	CountryCode     string `json:"country_code"`
	ProvinceCode    string `json:"province_code"`
	DIRe            string `json:"dire"`
	Email           string `json:"email"`
	FacturaeEnabled bool   `json:"facturae_enabled"`
}

// PartnerResponse receptor en respuestas.
type PartnerResponse struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	Name            string `json:"name"`
	VAT             string `json:"vat"`
	CountryCode     string `json:"country_code"`
	ProvinceCode    string `json:"province_code,omitempty"`
	DIRe            string `json:"dire,omitempty"`
	Email           string `json:"email,omitempty"`
	FacturaeEnabled bool   `json:"facturae_enabled"`
}
