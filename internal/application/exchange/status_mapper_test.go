package exchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invorya/facturae-faceb2b/internal/application/exchange"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
)

func okResult() *faceb2b.Result {
	return &faceb2b.Result{Status: faceb2b.ResultStatus{Code: "0"}}
}

func TestInterpret_RespuestaNil_EsError(t *testing.T) {
	m := exchange.NewMapper()
	out := m.Interpret(nil, entity.ExchangeKindSendInvoice)
	assert.True(t, out.IsError)
	assert.NotEmpty(t, out.Detail)
}

func TestInterpret_CodigoDistintoDeCero_ErrorDeNegocio(t *testing.T) {
	m := exchange.NewMapper()
	res := &faceb2b.Result{Status: faceb2b.ResultStatus{
		Code: "500", Message: "Internal error",
	}}

	out := m.Interpret(res, entity.ExchangeKindSendInvoice)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Detail, "500")
	assert.Contains(t, out.Detail, "Internal error")
	assert.Empty(t, out.InvoiceStatus, "un error de negocio no actualiza el estado de la factura")
}

func TestInterpret_EnvioAceptadoSinEstado_FaceSent(t *testing.T) {
	m := exchange.NewMapper()
	out := m.Interpret(okResult(), entity.ExchangeKindSendInvoice)
	assert.False(t, out.IsError)
	assert.Equal(t, "face-sent", out.DomainStatus)
	assert.Equal(t, "face-sent", out.InvoiceStatus)
}

func TestInterpret_StatusInfoConocido(t *testing.T) {
	m := exchange.NewMapper()
	res := okResult()
	res.StatusInfo = &faceb2b.StatusInfo{Code: "1200", Description: "Registrada en el REC"}

	out := m.Interpret(res, entity.ExchangeKindStatusUpdate)
	assert.False(t, out.IsError)
	assert.Equal(t, "face-1200", out.DomainStatus)
	assert.Equal(t, "face-1200", out.InvoiceStatus)
}

func TestInterpret_StatusInfoDesconocido_EsError(t *testing.T) {
	m := exchange.NewMapper()
	res := okResult()
	res.StatusInfo = &faceb2b.StatusInfo{Code: "7777"}

	out := m.Interpret(res, entity.ExchangeKindStatusUpdate)
	assert.True(t, out.IsError, "un código fuera del vocabulario nunca se acepta en silencio")
	assert.Contains(t, out.Detail, "7777")
}

// La anulación con código manda sobre el estado de tramitación.
func TestInterpret_AnulacionGanaAStatusInfo(t *testing.T) {
	m := exchange.NewMapper()
	res := okResult()
	res.StatusInfo = &faceb2b.StatusInfo{Code: "2400"}
	res.CancellationInfo = &faceb2b.CancellationInfo{Code: "4200"}

	out := m.Interpret(res, entity.ExchangeKindStatusUpdate)
	assert.False(t, out.IsError)
	assert.Equal(t, "face-4200", out.DomainStatus)
	assert.Equal(t, "face-4200", out.InvoiceStatus)
}

func TestInterpret_AnulacionDesconocida_EsError(t *testing.T) {
	m := exchange.NewMapper()
	res := okResult()
	res.CancellationInfo = &faceb2b.CancellationInfo{Code: "4999"}

	out := m.Interpret(res, entity.ExchangeKindStatusUpdate)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Detail, "4999")
}

// Un statusInfo válido con CancellationInfo ausente (el cliente descarta los
// elementos de anulación vacíos) debe producir el estado de tramitación.
func TestInterpret_StatusInfoSinAnulacion(t *testing.T) {
	m := exchange.NewMapper()
	res := okResult()
	res.RegistryNumber = "1234567890"
	res.StatusInfo = &faceb2b.StatusInfo{Code: "1200"}
	res.CancellationInfo = nil

	out := m.Interpret(res, entity.ExchangeKindStatusUpdate)
	assert.False(t, out.IsError)
	assert.Equal(t, "face-1200", out.DomainStatus)
}
