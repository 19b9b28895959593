// Package facturae define el vocabulario cerrado de estados de dominio
// derivados de los códigos que devuelve la pasarela FACeB2B.
package facturae

// StatusPrefix es el prefijo fijo que se antepone al código de la pasarela
// para formar el estado de dominio (1200 -> face-1200).
const StatusPrefix = "face-"

// StatusSent es el estado tras un envío aceptado sin información de estado
// adicional (código "0" sin statusInfo).
const StatusSent = StatusPrefix + "sent"

// Códigos de tramitación FACe/FACeB2B admitidos. Un statusInfo con un código
// fuera de este conjunto se trata como error: aceptar códigos desconocidos en
// silencio enmascararía una deriva del protocolo de la pasarela.
var knownStatusCodes = map[string]struct{}{
	"1200": {}, // registrada en el REC
	"1300": {}, // registrada en el RCF
	"2400": {}, // aceptada / contabilizada
	"2500": {}, // pagada
	"2600": {}, // rechazada
	"3100": {}, // anulada
}

// Códigos del ciclo de anulación.
var knownCancellationCodes = map[string]struct{}{
	"4100": {}, // anulación solicitada
	"4200": {}, // anulación aceptada
	"4300": {}, // anulación rechazada
}

// Estados finales: no tiene sentido seguir consultando la pasarela.
var finalStatuses = map[string]struct{}{
	StatusPrefix + "2500": {},
	StatusPrefix + "2600": {},
	StatusPrefix + "3100": {},
	StatusPrefix + "4200": {},
}

// KnownStatusCode indica si el código de tramitación pertenece al vocabulario.
func KnownStatusCode(code string) bool {
	_, ok := knownStatusCodes[code]
	return ok
}

// KnownCancellationCode indica si el código de anulación pertenece al vocabulario.
func KnownCancellationCode(code string) bool {
	_, ok := knownCancellationCodes[code]
	return ok
}

// StatusFromCode forma el estado de dominio a partir de un código de la pasarela.
func StatusFromCode(code string) string {
	return StatusPrefix + code
}

// IsFinal indica si un estado de dominio es final (fin del polling).
func IsFinal(status string) bool {
	_, ok := finalStatuses[status]
	return ok
}
