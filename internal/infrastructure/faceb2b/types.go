// Package faceb2b implementa el cliente de la pasarela FACeB2B (envío de
// facturas y consulta de estado vía SOAP).
package faceb2b

import (
	"context"
	"time"
)

// ResultStatus estado de la llamada a nivel de protocolo. Code "0" significa
// que la pasarela aceptó y procesó la petición; cualquier otro valor es un
// error devuelto por la propia pasarela (no de transporte).
type ResultStatus struct {
	Code    string
	Detail  string
	Message string
}

// StatusInfo información de tramitación de la factura (código 1200, 2400...).
type StatusInfo struct {
	Code        string
	Description string
	Reason      string
}

// CancellationInfo información del ciclo de anulación (código 4100, 4200...).
type CancellationInfo struct {
	Code        string
	Description string
	Reason      string
}

// Result respuesta estructurada de cualquiera de las dos operaciones remotas.
// Si la llamada falla a nivel de transporte (timeout, red, respuesta ilegible,
// SOAP Fault) el cliente devuelve error y no hay Result.
type Result struct {
	Status           ResultStatus
	RegistryNumber   string // asignado por la pasarela en el primer envío correcto
	ReceptionDate    time.Time
	IssueDate        time.Time
	StatusInfo       *StatusInfo
	CancellationInfo *CancellationInfo
	Raw              string // cuerpo crudo de la respuesta, para auditoría
}

// Document documento Facturae listo para enviar.
type Document struct {
	Name    string // nombre de fichero (ASCII, ej: ESA12345674-2999-99998.xsig)
	Content []byte
	MIME    string
}

// Client define el puerto de salida hacia FACeB2B. La implementación concreta
// usa SOAP; para tests se inyecta un fake.
type Client interface {
	// SendInvoice presenta la factura. El Result incluye registryNumber si
	// la pasarela la registró.
	SendInvoice(ctx context.Context, doc *Document) (*Result, error)
	// GetInvoiceDetails consulta el estado de tramitación de una factura ya
	// registrada, identificada por su registryNumber.
	GetInvoiceDetails(ctx context.Context, registryNumber string) (*Result, error)
}
