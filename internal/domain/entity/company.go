package entity

import "time"

// Company representa la empresa emisora de facturas electrónicas (enfoque España, FACeB2B).
type Company struct {
	ID           string
	Name         string
	VAT          string // NIF/CIF con prefijo de país (ej: ESA12345674)
	ContactEmail string // email de notificaciones FACe; validado antes de crear intercambios
	CountryCode  string // ISO 3166-1 alpha-2 (ES)
	Address      string
	Status       string // active, suspended, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
