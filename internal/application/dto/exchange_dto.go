package dto

import "time"

// ExchangeRecordResponse un registro de la traza de intercambio.
type ExchangeRecordResponse struct {
	ID             string    `json:"id"`
	InvoiceID      string    `json:"invoice_id"`
	Kind           string    `json:"kind"`
	Direction      string    `json:"direction"`
	State          string    `json:"state"`
	RegistryNumber string    `json:"registry_number,omitempty"`
	LastStatusCode string    `json:"last_status_code,omitempty"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
