package entity

import "time"

// Partner representa el receptor de la factura (cliente) con los datos
// estructurales que FACeB2B exige antes de admitir un envío.
type Partner struct {
	ID              string
	CompanyID       string
	Name            string
	VAT             string // NIF del receptor (ej: ES05680675C)
	CountryCode     string // ISO 3166-1 alpha-2
	ProvinceCode    string // código de provincia; obligatorio cuando el país es ES
	DIRe            string // código DIRe de la unidad receptora en FACeB2B
	Email           string
	FacturaeEnabled bool // el receptor admite factura electrónica vía FACeB2B
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
