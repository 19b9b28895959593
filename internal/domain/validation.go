package domain

import "fmt"

// ValidationKind identifica qué invariante estructural falló antes de crear
// un intercambio. Cada comprobación del validador tiene su propio kind para
// que el llamante pueda distinguirlas sin parsear mensajes.
type ValidationKind string

const (
	ValidationMissingContactEmail    ValidationKind = "missing_contact_email"
	ValidationPartnerNotElectronic   ValidationKind = "partner_not_electronic"
	ValidationPartnerMissingVAT      ValidationKind = "partner_missing_vat"
	ValidationPartnerMissingCountry  ValidationKind = "partner_missing_country"
	ValidationPartnerMissingProvince ValidationKind = "partner_missing_province"
)

// ValidationError error de validación previo al envío. Nunca se reintenta
// automáticamente: el dato hay que corregirlo antes de volver a intentar.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación facturae [%s]: %s", e.Kind, e.Message)
}

// NewValidationError construye el error con kind y mensaje.
func NewValidationError(kind ValidationKind, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Message: msg}
}
