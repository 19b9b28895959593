package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invorya/facturae-faceb2b/internal/application/billing"
	"github.com/invorya/facturae-faceb2b/internal/application/dto"
	"github.com/invorya/facturae-faceb2b/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create crea una factura en borrador con sus líneas.
// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.uc.CreateInvoice(c.Context(), companyID, in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID obtiene el detalle completo de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	invoice, err := h.uc.GetInvoice(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(invoice)
}

// Post contabiliza la factura e intenta crear (y despachar) el intercambio.
// La factura siempre queda contabilizada; los problemas del intercambio se
// informan en la sección exchange de la respuesta.
// POST /api/invoices/:id/post?force_send=1
func (h *InvoiceHandler) Post(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	forceSend := c.QueryBool("force_send")
	out, err := h.uc.PostInvoice(c.Context(), companyID, c.Params("id"), forceSend)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(out)
}

// RequestStatusUpdate crea (y según el modo despacha) una consulta de estado.
// POST /api/invoices/:id/status-update
func (h *InvoiceHandler) RequestStatusUpdate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	rec, err := h.uc.RequestStatusUpdate(c.Context(), companyID, c.Params("id"))
	if err != nil {
		if err == domain.ErrMissingRegistryReference {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "MISSING_REGISTRY_REFERENCE", Message: err.Error()})
		}
		if err == domain.ErrDuplicateSubmission {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_SUBMISSION", Message: err.Error()})
		}
		if err == domain.ErrInvoiceNotPosted {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_POSTED", Message: err.Error()})
		}
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// ListExchangeRecords devuelve la traza de intercambio de una factura.
// GET /api/invoices/:id/exchange-records
func (h *InvoiceHandler) ListExchangeRecords(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	recs, err := h.uc.ListExchangeRecords(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(recs)
}

func (h *InvoiceHandler) mapError(c *fiber.Ctx, err error) error {
	if err == domain.ErrInvalidInput {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	if err == domain.ErrNotFound {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	}
	if err == domain.ErrForbidden {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
