package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
	"github.com/invorya/facturae-faceb2b/pkg/logger"
)

// Modos de despacho: síncrono en el momento del posting o diferido al scheduler.
const (
	DispatchModeSync     = "sync"
	DispatchModeDeferred = "deferred"
)

// Config configuración del Dispatcher.
type Config struct {
	// DispatchMode "sync" despacha en el posting; "deferred" deja el registro
	// pending para que lo recoja el scheduler.
	DispatchMode string
	// CallTimeout acota la llamada remota completa en DispatchAsync.
	CallTimeout time.Duration
	// ClaimLease reserva que Dispatch toma sobre el registro antes de llamar
	// a la pasarela; mientras viva, ningún otro proceso puede reclamarlo.
	ClaimLease time.Duration
}

// Dispatcher orquesta el ciclo de intercambio con FACeB2B:
//
//	crear ExchangeRecord (pending) → construir documento → llamada SOAP →
//	interpretar respuesta → transición a estado terminal → reflejar en factura
//
// Cada registro transiciona exactamente una vez: Dispatch es idempotente
// respecto al estado persistido y los despachos concurrentes sobre el mismo
// registro se serializan con un lock por registro.
type Dispatcher struct {
	records   repository.ExchangeRecordRepository
	invoices  repository.InvoiceRepository
	partners  repository.PartnerRepository
	companies repository.CompanyRepository

	client    faceb2b.Client
	builder   DocumentBuilder
	validator *Validator
	mapper    *Mapper

	cfg Config
	log *logger.Logger

	locks       recordLocks
	createLocks recordLocks
}

// NewDispatcher construye el dispatcher con todas sus dependencias.
func NewDispatcher(
	records repository.ExchangeRecordRepository,
	invoices repository.InvoiceRepository,
	partners repository.PartnerRepository,
	companies repository.CompanyRepository,
	client faceb2b.Client,
	builder DocumentBuilder,
	validator *Validator,
	cfg Config,
	log *logger.Logger,
) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 2 * time.Minute
	}
	return &Dispatcher{
		records:     records,
		invoices:    invoices,
		partners:    partners,
		companies:   companies,
		client:      client,
		builder:     builder,
		validator:   validator,
		mapper:      NewMapper(),
		cfg:         cfg,
		log:         log,
		locks:       recordLocks{byID: make(map[string]*sync.Mutex)},
		createLocks: recordLocks{byID: make(map[string]*sync.Mutex)},
	}
}

// Mode devuelve el modo de despacho configurado.
func (d *Dispatcher) Mode() string {
	if d.cfg.DispatchMode == DispatchModeSync {
		return DispatchModeSync
	}
	return DispatchModeDeferred
}

// CreateExchangeRecord valida los invariantes previos y crea un registro en
// estado pending. Errores de validación y de duplicado se devuelven al
// llamante sin coste de red; no se persiste nada en ese caso.
func (d *Dispatcher) CreateExchangeRecord(ctx context.Context, invoiceID, kind string) (*entity.ExchangeRecord, error) {
	direction := entity.ExchangeDirectionOutbound
	switch kind {
	case entity.ExchangeKindSendInvoice:
	case entity.ExchangeKindStatusUpdate:
		direction = entity.ExchangeDirectionInbound
	default:
		return nil, domain.ErrInvalidInput
	}

	inv, err := d.invoices.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if !inv.Posted {
		return nil, domain.ErrInvoiceNotPosted
	}

	company, err := d.companies.GetByID(inv.CompanyID)
	if err != nil || company == nil {
		return nil, fmt.Errorf("empresa %s no encontrada: %w", inv.CompanyID, errOr(err, domain.ErrNotFound))
	}
	partner, err := d.partners.GetByID(inv.PartnerID)
	if err != nil || partner == nil {
		return nil, fmt.Errorf("receptor %s no encontrado: %w", inv.PartnerID, errOr(err, domain.ErrNotFound))
	}

	if err := d.validator.Validate(company, partner); err != nil {
		return nil, err
	}

	// Una consulta de estado necesita el número de registro del envío
	// correcto anterior; sin él se rechaza aquí, antes de crear nada.
	if kind == entity.ExchangeKindStatusUpdate && inv.RegistryNumber == "" {
		return nil, domain.ErrMissingRegistryReference
	}

	// Como mucho un registro no terminal por kind y factura. El lock por
	// invoice+kind serializa la comprobación y el insert dentro del proceso;
	// entre procesos lo respalda el índice único parcial sobre pending, que el
	// repositorio mapea también a ErrDuplicateSubmission.
	unlock := d.createLocks.lock(invoiceID + "/" + kind)
	defer unlock()

	open, err := d.records.FindNonTerminal(invoiceID, kind)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, domain.ErrDuplicateSubmission
	}

	now := time.Now()
	rec := &entity.ExchangeRecord{
		ID:             uuid.New().String(),
		InvoiceID:      invoiceID,
		Kind:           kind,
		Direction:      direction,
		State:          entity.ExchangeStatePending,
		RegistryNumber: "",
		NextAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if kind == entity.ExchangeKindStatusUpdate {
		rec.RegistryNumber = inv.RegistryNumber
	}
	if err := d.records.Create(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Dispatch ejecuta el intercambio de un registro. Idempotente: sobre un
// registro ya terminal no hace nada y no llama a la pasarela. Antes de llamar
// reclama el registro (lease en el repositorio), de forma que un despacho
// síncrono y un scheduler en otro proceso nunca dupliquen la llamada remota.
// Los fallos de transporte y de negocio se absorben en el estado del registro
// (el flujo que contabilizó la factura nunca falla por un problema de
// comunicaciones); solo se devuelven errores prevenibles (registro
// inexistente, referencia de registro ausente).
func (d *Dispatcher) Dispatch(ctx context.Context, recordID string) error {
	unlock := d.locks.lock(recordID)
	defer unlock()

	rec, err := d.records.ClaimByID(ctx, recordID, d.cfg.ClaimLease)
	if err != nil {
		return err
	}
	if rec == nil {
		cur, err := d.records.GetByID(recordID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		// Terminal (ya despachado) o pending con lease vivo: en ambos casos
		// la llamada remota corrió o está corriendo en otro sitio.
		d.log.Debug().Str("record_id", recordID).Str("state", cur.State).
			Msg("registro no reclamable, despacho omitido")
		return nil
	}
	return d.execute(ctx, rec)
}

// dispatchClaimed ejecuta un registro que el scheduler ya reclamó con
// ClaimPending; solo revalida el estado bajo el lock del proceso.
func (d *Dispatcher) dispatchClaimed(ctx context.Context, recordID string) error {
	unlock := d.locks.lock(recordID)
	defer unlock()

	rec, err := d.records.GetByID(recordID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if rec.State != entity.ExchangeStatePending {
		d.log.Debug().Str("record_id", recordID).Str("state", rec.State).
			Msg("registro ya terminal, despacho omitido")
		return nil
	}
	return d.execute(ctx, rec)
}

func (d *Dispatcher) execute(ctx context.Context, rec *entity.ExchangeRecord) error {
	inv, err := d.invoices.GetByID(rec.InvoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}

	switch rec.Kind {
	case entity.ExchangeKindSendInvoice:
		return d.dispatchSend(ctx, rec, inv)
	case entity.ExchangeKindStatusUpdate:
		return d.dispatchStatusUpdate(ctx, rec, inv)
	default:
		return fmt.Errorf("exchange record %s: kind desconocido %q", rec.ID, rec.Kind)
	}
}

// DispatchAsync despacha en una goroutine independiente con su propio
// contexto y timeout, desacoplado del ciclo HTTP que lo disparó.
func (d *Dispatcher) DispatchAsync(recordID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.CallTimeout)
		defer cancel()
		if err := d.Dispatch(ctx, recordID); err != nil {
			d.log.Error().Err(err).Str("record_id", recordID).Msg("despacho asíncrono fallido")
		}
	}()
}

// ── despacho por kind ─────────────────────────────────────────────────────────

func (d *Dispatcher) dispatchSend(ctx context.Context, rec *entity.ExchangeRecord, inv *entity.Invoice) error {
	company, err := d.companies.GetByID(inv.CompanyID)
	if err != nil || company == nil {
		return fmt.Errorf("empresa %s no encontrada: %w", inv.CompanyID, errOr(err, domain.ErrNotFound))
	}
	partner, err := d.partners.GetByID(inv.PartnerID)
	if err != nil || partner == nil {
		return fmt.Errorf("receptor %s no encontrado: %w", inv.PartnerID, errOr(err, domain.ErrNotFound))
	}
	lines, err := d.invoices.GetLinesByInvoiceID(inv.ID)
	if err != nil {
		return err
	}

	doc, err := d.builder.Build(company, partner, inv, lines)
	if err != nil {
		// Documento inconstructible: el intento queda registrado como fallo
		// de envío; la factura sigue siendo válida.
		return d.markSendFailure(rec, fmt.Errorf("construir documento: %w", err))
	}

	result, err := d.client.SendInvoice(ctx, doc)
	if err != nil {
		return d.markSendFailure(rec, err)
	}
	return d.applyResult(rec, inv, result)
}

func (d *Dispatcher) dispatchStatusUpdate(ctx context.Context, rec *entity.ExchangeRecord, inv *entity.Invoice) error {
	registry := rec.RegistryNumber
	if registry == "" {
		registry = inv.RegistryNumber
	}
	// Fail-fast causal: sin número de registro no hay nada que consultar.
	// El registro sigue pending; un pase posterior lo reintenta cuando el
	// envío original haya terminado.
	if registry == "" {
		return domain.ErrMissingRegistryReference
	}

	result, err := d.client.GetInvoiceDetails(ctx, registry)
	if err != nil {
		return d.markSendFailure(rec, err)
	}
	return d.applyResult(rec, inv, result)
}

// ── transiciones ──────────────────────────────────────────────────────────────

// markSendFailure registra un fallo de transporte: error_on_send con el
// detalle. No se propaga al llamante; se expone vía estado y logs.
func (d *Dispatcher) markSendFailure(rec *entity.ExchangeRecord, cause error) error {
	now := time.Now()
	rec.ErrorDetail = cause.Error()
	if err := rec.MarkTerminal(entity.ExchangeStateErrorOnSend, now); err != nil {
		return err
	}
	if err := d.records.Update(rec); err != nil {
		if errors.Is(err, domain.ErrRecordTerminal) {
			d.log.Warn().Str("record_id", rec.ID).
				Msg("transición perdida: otro proceso completó el registro")
			return nil
		}
		return err
	}
	d.log.Warn().Str("record_id", rec.ID).Str("invoice_id", rec.InvoiceID).
		Err(cause).Msg("fallo de transporte con FACeB2B")
	return nil
}

// applyResult interpreta la respuesta estructurada, transiciona el registro y
// refleja el estado en la factura.
func (d *Dispatcher) applyResult(rec *entity.ExchangeRecord, inv *entity.Invoice, result *faceb2b.Result) error {
	now := time.Now()
	outcome := d.mapper.Interpret(result, rec.Kind)

	rec.RawPayload = result.Raw
	rec.LastStatusCode = outcome.DomainStatus

	state := entity.ExchangeStateSentAndProcessed
	if outcome.IsError {
		state = entity.ExchangeStateSentAndError
		rec.ErrorDetail = outcome.Detail
	}

	invoiceDirty := false

	// El número de registro se asigna una sola vez, en el primer envío
	// correcto; las consultas posteriores dependen de él.
	if rec.Kind == entity.ExchangeKindSendInvoice && !outcome.IsError && result.RegistryNumber != "" {
		if err := rec.SetRegistryNumber(result.RegistryNumber); err != nil {
			return err
		}
		if inv.RegistryNumber == "" {
			inv.RegistryNumber = result.RegistryNumber
			invoiceDirty = true
		}
	}

	if err := rec.MarkTerminal(state, now); err != nil {
		return err
	}
	if err := d.records.Update(rec); err != nil {
		if errors.Is(err, domain.ErrRecordTerminal) {
			// Otro proceso ganó la transición: su resultado manda, el nuestro
			// se descarta sin tocar la factura.
			d.log.Warn().Str("record_id", rec.ID).Str("invoice_id", inv.ID).
				Msg("transición perdida: otro proceso completó el registro")
			return nil
		}
		return err
	}

	// Last-writer-wins por CreatedAt del registro: una respuesta que llega
	// tarde por la red nunca pisa el estado escrito por un registro más
	// reciente.
	if outcome.InvoiceStatus != "" && rec.CreatedAt.After(inv.StatusChangedAt) {
		inv.FacturaeStatus = outcome.InvoiceStatus
		inv.StatusChangedAt = rec.CreatedAt
		invoiceDirty = true
	}
	if invoiceDirty {
		inv.UpdatedAt = now
		if err := d.invoices.Update(inv); err != nil {
			return err
		}
	}

	d.log.Info().Str("record_id", rec.ID).Str("invoice_id", inv.ID).
		Str("state", rec.State).Str("status", rec.LastStatusCode).
		Msg("intercambio FACeB2B completado")
	return nil
}

// ── lock por registro ─────────────────────────────────────────────────────────

// recordLocks serializa los despachos concurrentes sobre un mismo registro.
// El guard de idempotencia (releer el estado bajo el lock) garantiza que la
// transición pending -> terminal ocurre como mucho una vez por registro.
type recordLocks struct {
	mu   sync.Mutex
	byID map[string]*sync.Mutex
}

func (l *recordLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.byID[id]
	if !ok {
		m = &sync.Mutex{}
		l.byID[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func errOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

// IsPreventable indica si un error de creación/despacho es de los que se
// devuelven síncronamente al llamante (validación, duplicado, referencia
// ausente), frente a los absorbidos en el estado del registro.
func IsPreventable(err error) bool {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	return errors.Is(err, domain.ErrDuplicateSubmission) ||
		errors.Is(err, domain.ErrMissingRegistryReference) ||
		errors.Is(err, domain.ErrInvoiceNotPosted)
}
