package repository

import (
	"context"
	"time"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
)

// ExchangeRecordRepository define el puerto de persistencia para ExchangeRecord.
// Los registros nunca se borran: son la traza de auditoría del intercambio.
type ExchangeRecordRepository interface {
	// Create persiste un registro nuevo. Devuelve ErrDuplicateSubmission si ya
	// existe otro pending del mismo kind para la factura (índice único parcial).
	Create(record *entity.ExchangeRecord) error
	GetByID(id string) (*entity.ExchangeRecord, error)
	// Update persiste la transición pending -> terminal y los campos de
	// resultado (registry_number, last_status_code, error_detail, raw_payload).
	// Compare-and-set sobre el estado: devuelve ErrRecordTerminal si otro
	// proceso ya completó la transición.
	Update(record *entity.ExchangeRecord) error
	// FindNonTerminal devuelve los registros no terminales de una factura y
	// kind (comprobación de envío duplicado).
	FindNonTerminal(invoiceID, kind string) ([]*entity.ExchangeRecord, error)
	// ListByInvoice devuelve la traza completa, ordenada por creación.
	ListByInvoice(invoiceID string) ([]*entity.ExchangeRecord, error)
	// ClaimPending reserva hasta limit registros pending vencidos
	// (next_attempt_at <= now) adelantando su lease, de forma que dos
	// schedulers concurrentes nunca reclamen el mismo registro.
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*entity.ExchangeRecord, error)
	// ClaimByID reserva un registro concreto con las mismas reglas que
	// ClaimPending. Devuelve nil si no existe, ya es terminal o su lease
	// sigue vivo en manos de otro proceso.
	ClaimByID(ctx context.Context, id string, lease time.Duration) (*entity.ExchangeRecord, error)
}
