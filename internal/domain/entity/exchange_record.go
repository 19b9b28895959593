package entity

import (
	"fmt"
	"time"
)

// Kind de un ExchangeRecord: qué operación remota representa.
const (
	ExchangeKindSendInvoice  = "send_invoice"  // envío inicial (SendInvoice)
	ExchangeKindStatusUpdate = "status_update" // consulta de estado (GetInvoiceDetails)
)

// Dirección del intercambio respecto a nuestro sistema.
const (
	ExchangeDirectionOutbound = "outbound"
	ExchangeDirectionInbound  = "inbound"
)

// Estados del ExchangeRecord. Un registro nace pending y transiciona
// exactamente una vez a uno de los tres estados terminales; el reintento
// se modela creando un registro nuevo, nunca reabriendo uno terminal.
const (
	ExchangeStatePending          = "pending"
	ExchangeStateSentAndProcessed = "sent_and_processed" // la pasarela procesó la llamada con éxito
	ExchangeStateSentAndError     = "sent_and_error"     // la pasarela respondió con error de negocio
	ExchangeStateErrorOnSend      = "error_on_send"      // fallo de transporte (timeout, red, respuesta ilegible)
)

// ExchangeRecord representa un intento de comunicación con FACeB2B para una
// factura. Es la unidad durable del ciclo de intercambio: una vez terminal se
// conserva como traza de auditoría inmutable.
type ExchangeRecord struct {
	ID        string
	InvoiceID string
	Kind      string
	Direction string
	State     string

	// RegistryNumber se asigna como mucho una vez (en el primer envío con
	// éxito, o copiado de la factura al crear un status_update).
	RegistryNumber string

	LastStatusCode string // estado de dominio derivado (face-sent, face-1200, ...)
	ErrorDetail    string // detalle de fallo de transporte o de negocio
	RawPayload     string // respuesta cruda de la pasarela, para auditoría

	// NextAttemptAt es la marca de lease del scheduler: un registro pending
	// solo es candidato a despacho diferido cuando NextAttemptAt <= now.
	NextAttemptAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal indica si el registro ya alcanzó un estado final.
func (r *ExchangeRecord) IsTerminal() bool {
	switch r.State {
	case ExchangeStateSentAndProcessed, ExchangeStateSentAndError, ExchangeStateErrorOnSend:
		return true
	}
	return false
}

// MarkTerminal transiciona pending -> state. Es la única mutación de estado
// permitida sobre un registro; cualquier otra arista es inválida.
func (r *ExchangeRecord) MarkTerminal(state string, now time.Time) error {
	if r.State != ExchangeStatePending {
		return fmt.Errorf("exchange record %s: transición inválida %s -> %s", r.ID, r.State, state)
	}
	switch state {
	case ExchangeStateSentAndProcessed, ExchangeStateSentAndError, ExchangeStateErrorOnSend:
	default:
		return fmt.Errorf("exchange record %s: estado terminal desconocido %q", r.ID, state)
	}
	r.State = state
	r.UpdatedAt = now
	return nil
}

// SetRegistryNumber asigna el número de registro de la pasarela. Inmutable:
// una segunda asignación con valor distinto es un error.
func (r *ExchangeRecord) SetRegistryNumber(n string) error {
	if n == "" {
		return fmt.Errorf("exchange record %s: registry number vacío", r.ID)
	}
	if r.RegistryNumber != "" && r.RegistryNumber != n {
		return fmt.Errorf("exchange record %s: registry number ya asignado (%s)", r.ID, r.RegistryNumber)
	}
	r.RegistryNumber = n
	return nil
}
