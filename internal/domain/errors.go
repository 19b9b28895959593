package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrDuplicateSubmission: ya existe un ExchangeRecord no terminal del
	// mismo kind para la factura; no se crea un segundo intento concurrente.
	ErrDuplicateSubmission = errors.New("ya existe un intercambio pendiente para esta factura")

	// ErrMissingRegistryReference: se pidió una consulta de estado antes de
	// que la pasarela asignara número de registro. Se rechaza sin llamada remota.
	ErrMissingRegistryReference = errors.New("la factura no tiene número de registro FACeB2B")

	// ErrInvoiceNotPosted: el intercambio solo aplica a facturas contabilizadas.
	ErrInvoiceNotPosted = errors.New("la factura no está contabilizada")

	// ErrRecordTerminal: otro proceso completó la transición pending -> terminal
	// antes que nosotros; el resultado local se descarta.
	ErrRecordTerminal = errors.New("el registro de intercambio ya es terminal")
)
