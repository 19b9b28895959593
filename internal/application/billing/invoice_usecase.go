package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invorya/facturae-faceb2b/internal/application/dto"
	"github.com/invorya/facturae-faceb2b/internal/application/exchange"
	"github.com/invorya/facturae-faceb2b/internal/domain"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
)

// InvoiceUseCase crea, contabiliza y consulta facturas, y dispara el
// intercambio FACeB2B en el posting según el modo de despacho configurado.
type InvoiceUseCase struct {
	txRunner    BillingTxRunner
	invoiceRepo repository.InvoiceRepository
	partnerRepo repository.PartnerRepository
	recordRepo  repository.ExchangeRecordRepository
	dispatcher  *exchange.Dispatcher
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	partnerRepo repository.PartnerRepository,
	recordRepo repository.ExchangeRecordRepository,
	dispatcher *exchange.Dispatcher,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		partnerRepo: partnerRepo,
		recordRepo:  recordRepo,
		dispatcher:  dispatcher,
	}
}

// CreateInvoice crea la factura en borrador con sus líneas (atómico).
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if in.PartnerID == "" || in.Number == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	partner, err := uc.partnerRepo.GetByID(in.PartnerID)
	if err != nil || partner == nil {
		return nil, domain.ErrNotFound
	}
	if partner.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	issueDate := time.Now()
	if in.IssueDate != "" {
		parsed, err := time.Parse("2006-01-02", in.IssueDate)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		issueDate = parsed
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		PartnerID: in.PartnerID,
		Series:    in.Series,
		Number:    in.Number,
		IssueDate: issueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var lines []*entity.InvoiceLine
	var netTotal, taxTotal decimal.Decimal
	for _, item := range in.Items {
		if !item.Quantity.GreaterThan(decimal.Zero) || item.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		subtotal := item.Quantity.Mul(item.UnitPrice)
		rate := normalizeTaxRate(item.TaxRate)
		netTotal = netTotal.Add(subtotal)
		taxTotal = taxTotal.Add(subtotal.Mul(rate))
		lines = append(lines, &entity.InvoiceLine{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     rate,
			Subtotal:    subtotal,
		})
	}
	inv.NetTotal = netTotal
	inv.TaxTotal = taxTotal
	inv.GrandTotal = netTotal.Add(taxTotal)

	err = uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		if err := invoiceRepo.Create(inv); err != nil {
			return err
		}
		for _, line := range lines {
			if err := invoiceRepo.CreateLine(line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, lines), nil
}

// PostInvoice contabiliza la factura y dispara el intercambio. La factura
// queda contabilizada aunque el intercambio no se pueda crear o despachar:
// los problemas de validación/duplicado se informan en la respuesta y los de
// transporte se absorben en el estado del registro.
func (uc *InvoiceUseCase) PostInvoice(ctx context.Context, companyID, invoiceID string, forceSend bool) (*dto.PostInvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	if !inv.Posted {
		inv.Posted = true
		inv.UpdatedAt = time.Now()
		if err := uc.invoiceRepo.Update(inv); err != nil {
			return nil, err
		}
	}

	resp := &dto.PostInvoiceResponse{Invoice: *toInvoiceResponse(inv, nil)}

	rec, err := uc.dispatcher.CreateExchangeRecord(ctx, inv.ID, entity.ExchangeKindSendInvoice)
	if err != nil {
		if exchange.IsPreventable(err) {
			resp.Exchange = exchangeErrorOutcome(err)
			return resp, nil
		}
		return nil, err
	}

	// force_send fuerza el despacho síncrono aunque el modo sea diferido.
	if forceSend || uc.dispatcher.Mode() == exchange.DispatchModeSync {
		if err := uc.dispatcher.Dispatch(ctx, rec.ID); err != nil && !exchange.IsPreventable(err) {
			return nil, err
		}
		// releer el resultado del despacho para la respuesta
		if refreshed, err := uc.recordRepo.GetByID(rec.ID); err == nil && refreshed != nil {
			rec = refreshed
		}
	}

	resp.Exchange = &dto.ExchangeOutcome{RecordID: rec.ID, State: rec.State}
	return resp, nil
}

// RequestStatusUpdate crea (y según el modo despacha) una consulta de estado.
func (uc *InvoiceUseCase) RequestStatusUpdate(ctx context.Context, companyID, invoiceID string) (*dto.ExchangeRecordResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	rec, err := uc.dispatcher.CreateExchangeRecord(ctx, inv.ID, entity.ExchangeKindStatusUpdate)
	if err != nil {
		return nil, err
	}
	if uc.dispatcher.Mode() == exchange.DispatchModeSync {
		if err := uc.dispatcher.Dispatch(ctx, rec.ID); err != nil && !exchange.IsPreventable(err) {
			return nil, err
		}
		if refreshed, err := uc.recordRepo.GetByID(rec.ID); err == nil && refreshed != nil {
			rec = refreshed
		}
	} else {
		// En modo diferido el usuario pidió un refresco ahora, no en la
		// próxima pasada del scheduler: la consulta se lanza en segundo plano
		// y la respuesta devuelve el registro pending. El claim por registro
		// evita la doble llamada si el scheduler lo recoge a la vez.
		uc.dispatcher.DispatchAsync(rec.ID)
	}
	return toExchangeRecordResponse(rec), nil
}

// GetInvoice devuelve la factura con líneas.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(id)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, lines), nil
}

// ListExchangeRecords devuelve la traza de intercambio de una factura.
func (uc *InvoiceUseCase) ListExchangeRecords(ctx context.Context, companyID, invoiceID string) ([]dto.ExchangeRecordResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(invoiceID)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	recs, err := uc.recordRepo.ListByInvoice(invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExchangeRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, *toExchangeRecordResponse(r))
	}
	return out, nil
}

// GetExchangeRecord devuelve un registro concreto (comprobando el tenant).
func (uc *InvoiceUseCase) GetExchangeRecord(ctx context.Context, companyID, recordID string) (*dto.ExchangeRecordResponse, error) {
	rec, err := uc.recordRepo.GetByID(recordID)
	if err != nil || rec == nil {
		return nil, domain.ErrNotFound
	}
	inv, err := uc.invoiceRepo.GetByID(rec.InvoiceID)
	if err != nil || inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toExchangeRecordResponse(rec), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func normalizeTaxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

func exchangeErrorOutcome(err error) *dto.ExchangeOutcome {
	out := &dto.ExchangeOutcome{ErrorMsg: err.Error()}
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		out.ErrorCode = string(vErr.Kind)
	case errors.Is(err, domain.ErrDuplicateSubmission):
		out.ErrorCode = "duplicate_submission"
	case errors.Is(err, domain.ErrMissingRegistryReference):
		out.ErrorCode = "missing_registry_reference"
	default:
		out.ErrorCode = "exchange_error"
	}
	return out
}

func toInvoiceResponse(inv *entity.Invoice, lines []*entity.InvoiceLine) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:             inv.ID,
		CompanyID:      inv.CompanyID,
		PartnerID:      inv.PartnerID,
		Series:         inv.Series,
		Number:         inv.Number,
		IssueDate:      inv.IssueDate.Format("2006-01-02"),
		NetTotal:       inv.NetTotal,
		TaxTotal:       inv.TaxTotal,
		GrandTotal:     inv.GrandTotal,
		Posted:         inv.Posted,
		RegistryNumber: inv.RegistryNumber,
		FacturaeStatus: inv.FacturaeStatus,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			ID:          l.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Subtotal:    l.Subtotal,
		})
	}
	return resp
}

func toExchangeRecordResponse(r *entity.ExchangeRecord) *dto.ExchangeRecordResponse {
	return &dto.ExchangeRecordResponse{
		ID:             r.ID,
		InvoiceID:      r.InvoiceID,
		Kind:           r.Kind,
		Direction:      r.Direction,
		State:          r.State,
		RegistryNumber: r.RegistryNumber,
		LastStatusCode: r.LastStatusCode,
		ErrorDetail:    r.ErrorDetail,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
