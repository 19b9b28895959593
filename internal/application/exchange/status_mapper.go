package exchange

import (
	"fmt"

	"github.com/invorya/facturae-faceb2b/internal/domain/facturae"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
)

// MapOutcome veredicto del mapeo de una respuesta de la pasarela.
type MapOutcome struct {
	// DomainStatus es el estado de dominio que se guarda en el ExchangeRecord
	// (face-sent, face-1200, ...). Vacío cuando la respuesta no aporta estado.
	DomainStatus string
	// InvoiceStatus, si no es vacío, se refleja en la factura como último
	// estado conocido (last-writer-wins por fecha de creación del registro).
	InvoiceStatus string
	// IsError indica que el registro debe terminar en sent_and_error.
	IsError bool
	// Detail texto del error de negocio, si lo hay.
	Detail string
}

// Mapper traduce el resultado estructurado de la pasarela al vocabulario de
// estados de dominio. Función total sobre el vocabulario cerrado: un código
// no reconocido es un error, nunca se ignora en silencio.
type Mapper struct{}

// NewMapper crea el mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Interpret aplica las reglas de mapeo sobre una respuesta.
func (m *Mapper) Interpret(res *faceb2b.Result, kind string) MapOutcome {
	if res == nil {
		return MapOutcome{IsError: true, Detail: "respuesta vacía de la pasarela"}
	}

	// Código de nivel superior distinto de "0": la pasarela rechazó la
	// llamada. Es un error de negocio, no de transporte.
	if res.Status.Code != "0" {
		return MapOutcome{
			IsError: true,
			Detail: fmt.Sprintf("la pasarela devolvió código %s: %s",
				res.Status.Code, nonEmpty(res.Status.Message, res.Status.Detail)),
		}
	}

	// La información de anulación con código manda sobre el estado de
	// tramitación: una factura anulada lo está con independencia del
	// código numérico de tramitación.
	if ci := res.CancellationInfo; ci != nil && ci.Code != "" {
		if !facturae.KnownCancellationCode(ci.Code) {
			return MapOutcome{
				IsError: true,
				Detail:  fmt.Sprintf("código de anulación desconocido %q", ci.Code),
			}
		}
		status := facturae.StatusFromCode(ci.Code)
		return MapOutcome{DomainStatus: status, InvoiceStatus: status}
	}

	if si := res.StatusInfo; si != nil && si.Code != "" {
		if !facturae.KnownStatusCode(si.Code) {
			return MapOutcome{
				IsError: true,
				Detail:  fmt.Sprintf("código de estado desconocido %q", si.Code),
			}
		}
		status := facturae.StatusFromCode(si.Code)
		return MapOutcome{DomainStatus: status, InvoiceStatus: status}
	}

	// Código "0" sin más información: envío aceptado.
	return MapOutcome{DomainStatus: facturae.StatusSent, InvoiceStatus: facturae.StatusSent}
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
