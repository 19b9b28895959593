package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

var _ repository.ExchangeRecordRepository = (*ExchangeRecordRepo)(nil)

// ExchangeRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
// Los registros solo se insertan y se actualizan a terminal; nunca se borran.
type ExchangeRecordRepo struct {
	q Querier
}

// NewExchangeRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExchangeRecordRepository(q Querier) *ExchangeRecordRepo {
	return &ExchangeRecordRepo{q: q}
}

const exchangeRecordColumns = `id, invoice_id, kind, direction, state, COALESCE(registry_number, ''), COALESCE(last_status_code, ''), COALESCE(error_detail, ''), COALESCE(raw_payload, ''), next_attempt_at, created_at, updated_at`

// Create persiste un nuevo registro de intercambio. El índice único parcial
// uq_exchange_records_pending (invoice_id, kind) WHERE state = 'pending'
// respalda el guard de duplicados también entre procesos: la segunda inserción
// concurrente viola el índice y se mapea a ErrDuplicateSubmission.
func (r *ExchangeRecordRepo) Create(record *entity.ExchangeRecord) error {
	query := `
		INSERT INTO exchange_records (id, invoice_id, kind, direction, state, registry_number, last_status_code, error_detail, raw_payload, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		record.ID, record.InvoiceID, record.Kind, record.Direction, record.State,
		nullIfEmpty(record.RegistryNumber), nullIfEmpty(record.LastStatusCode),
		nullIfEmpty(record.ErrorDetail), nullIfEmpty(record.RawPayload),
		record.NextAttemptAt, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert exchange record: %w", err)
	}
	return nil
}

// GetByID obtiene un registro por ID.
func (r *ExchangeRecordRepo) GetByID(id string) (*entity.ExchangeRecord, error) {
	query := `SELECT ` + exchangeRecordColumns + ` FROM exchange_records WHERE id = $1`
	rec, err := r.scanOne(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exchange record: %w", err)
	}
	return rec, nil
}

// Update persiste la transición a terminal y los campos de resultado.
// Compare-and-set sobre el estado: la cláusula state = 'pending' hace que solo
// un proceso gane la transición; el perdedor recibe ErrRecordTerminal.
func (r *ExchangeRecordRepo) Update(record *entity.ExchangeRecord) error {
	query := `
		UPDATE exchange_records
		SET state            = $2,
		    registry_number  = COALESCE(registry_number, $3),
		    last_status_code = $4,
		    error_detail     = $5,
		    raw_payload      = $6,
		    updated_at       = $7
		WHERE id = $1 AND state = 'pending'`
	tag, err := r.q.Exec(context.Background(), query,
		record.ID, record.State,
		nullIfEmpty(record.RegistryNumber),
		nullIfEmpty(record.LastStatusCode),
		nullIfEmpty(record.ErrorDetail),
		nullIfEmpty(record.RawPayload),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update exchange record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordTerminal
	}
	return nil
}

// FindNonTerminal devuelve los registros pending de una factura y kind.
func (r *ExchangeRecordRepo) FindNonTerminal(invoiceID, kind string) ([]*entity.ExchangeRecord, error) {
	query := `SELECT ` + exchangeRecordColumns + `
		FROM exchange_records
		WHERE invoice_id = $1 AND kind = $2 AND state = 'pending'
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, invoiceID, kind)
	if err != nil {
		return nil, fmt.Errorf("find non-terminal records: %w", err)
	}
	return r.scanAll(rows)
}

// ListByInvoice devuelve la traza completa de una factura, ordenada por creación.
func (r *ExchangeRecordRepo) ListByInvoice(invoiceID string) ([]*entity.ExchangeRecord, error) {
	query := `SELECT ` + exchangeRecordColumns + `
		FROM exchange_records WHERE invoice_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list exchange records: %w", err)
	}
	return r.scanAll(rows)
}

// ClaimPending reserva hasta limit registros pending vencidos adelantando su
// next_attempt_at en una sola sentencia. FOR UPDATE SKIP LOCKED garantiza que
// dos schedulers concurrentes nunca reclamen el mismo registro; el lease hace
// que un registro cuyo worker murió vuelva a ser candidato al vencer.
func (r *ExchangeRecordRepo) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*entity.ExchangeRecord, error) {
	query := `
		WITH claimed AS (
			SELECT id FROM exchange_records
			WHERE state = 'pending' AND next_attempt_at <= now()
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE exchange_records r
		SET next_attempt_at = now() + $2::interval, updated_at = now()
		FROM claimed
		WHERE r.id = claimed.id
		RETURNING r.id, r.invoice_id, r.kind, r.direction, r.state,
		          COALESCE(r.registry_number, ''), COALESCE(r.last_status_code, ''),
		          COALESCE(r.error_detail, ''), COALESCE(r.raw_payload, ''),
		          r.next_attempt_at, r.created_at, r.updated_at`
	rows, err := r.q.Query(ctx, query, limit, lease.String())
	if err != nil {
		return nil, fmt.Errorf("claim pending records: %w", err)
	}
	return r.scanAll(rows)
}

// ClaimByID reserva un registro concreto con las mismas reglas que
// ClaimPending: solo si sigue pending y su lease venció. Es el paso previo a
// cualquier despacho fuera del scheduler (síncrono o force_send), de forma que
// dos procesos nunca ejecuten la misma llamada remota.
func (r *ExchangeRecordRepo) ClaimByID(ctx context.Context, id string, lease time.Duration) (*entity.ExchangeRecord, error) {
	query := `
		UPDATE exchange_records
		SET next_attempt_at = now() + $2::interval, updated_at = now()
		WHERE id = $1 AND state = 'pending' AND next_attempt_at <= now()
		RETURNING ` + exchangeRecordColumns
	rec, err := r.scanOne(r.q.QueryRow(ctx, query, id, lease.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim exchange record: %w", err)
	}
	return rec, nil
}

func (r *ExchangeRecordRepo) scanOne(row pgx.Row) (*entity.ExchangeRecord, error) {
	var rec entity.ExchangeRecord
	err := row.Scan(
		&rec.ID, &rec.InvoiceID, &rec.Kind, &rec.Direction, &rec.State,
		&rec.RegistryNumber, &rec.LastStatusCode, &rec.ErrorDetail, &rec.RawPayload,
		&rec.NextAttemptAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ExchangeRecordRepo) scanAll(rows pgx.Rows) ([]*entity.ExchangeRecord, error) {
	defer rows.Close()
	var list []*entity.ExchangeRecord
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
