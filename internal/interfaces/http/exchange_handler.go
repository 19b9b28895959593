package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invorya/facturae-faceb2b/internal/application/billing"
	"github.com/invorya/facturae-faceb2b/internal/application/dto"
	"github.com/invorya/facturae-faceb2b/internal/domain"
)

// ExchangeHandler consulta de registros de intercambio (protegido).
type ExchangeHandler struct {
	uc *billing.InvoiceUseCase
}

// NewExchangeHandler construye el handler.
func NewExchangeHandler(uc *billing.InvoiceUseCase) *ExchangeHandler {
	return &ExchangeHandler{uc: uc}
}

// GetByID devuelve el estado de un registro de intercambio.
// GET /api/exchange-records/:id
func (h *ExchangeHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	rec, err := h.uc.GetExchangeRecord(c.Context(), companyID, c.Params("id"))
	if err != nil {
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro no encontrado"})
		}
		if err == domain.ErrForbidden {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rec)
}
