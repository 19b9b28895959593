package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
)

func newPendingRecord() *entity.ExchangeRecord {
	now := time.Now()
	return &entity.ExchangeRecord{
		ID:        "rec-1",
		InvoiceID: "inv-1",
		Kind:      entity.ExchangeKindSendInvoice,
		Direction: entity.ExchangeDirectionOutbound,
		State:     entity.ExchangeStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones de estado
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkTerminal_PendingATerminal(t *testing.T) {
	for _, terminal := range []string{
		entity.ExchangeStateSentAndProcessed,
		entity.ExchangeStateSentAndError,
		entity.ExchangeStateErrorOnSend,
	} {
		rec := newPendingRecord()
		now := time.Now()

		err := rec.MarkTerminal(terminal, now)
		require.NoError(t, err, "pending -> %s debe ser válido", terminal)

		assert.Equal(t, terminal, rec.State)
		assert.Equal(t, now, rec.UpdatedAt, "la transición debe actualizar UpdatedAt")
		assert.True(t, rec.IsTerminal())
	}
}

func TestMarkTerminal_RegistroYaTerminal_Falla(t *testing.T) {
	rec := newPendingRecord()
	require.NoError(t, rec.MarkTerminal(entity.ExchangeStateSentAndProcessed, time.Now()))

	err := rec.MarkTerminal(entity.ExchangeStateSentAndError, time.Now())
	assert.Error(t, err, "un registro terminal no puede transicionar de nuevo")
	assert.Equal(t, entity.ExchangeStateSentAndProcessed, rec.State,
		"el estado no debe cambiar en una transición inválida")
}

func TestMarkTerminal_EstadoDesconocido_Falla(t *testing.T) {
	rec := newPendingRecord()
	err := rec.MarkTerminal("enviado", time.Now())
	assert.Error(t, err)
	assert.Equal(t, entity.ExchangeStatePending, rec.State)
}

func TestIsTerminal_Pending_EsFalse(t *testing.T) {
	rec := newPendingRecord()
	assert.False(t, rec.IsTerminal())
}

// ──────────────────────────────────────────────────────────────────────────────
// Número de registro (asignación única)
// ──────────────────────────────────────────────────────────────────────────────

func TestSetRegistryNumber_PrimeraAsignacion(t *testing.T) {
	rec := newPendingRecord()
	require.NoError(t, rec.SetRegistryNumber("1234567890"))
	assert.Equal(t, "1234567890", rec.RegistryNumber)
}

func TestSetRegistryNumber_MismoValor_EsIdempotente(t *testing.T) {
	rec := newPendingRecord()
	require.NoError(t, rec.SetRegistryNumber("1234567890"))
	assert.NoError(t, rec.SetRegistryNumber("1234567890"))
}

func TestSetRegistryNumber_ValorDistinto_Falla(t *testing.T) {
	rec := newPendingRecord()
	require.NoError(t, rec.SetRegistryNumber("1234567890"))

	err := rec.SetRegistryNumber("9999999999")
	assert.Error(t, err, "el número de registro es inmutable una vez asignado")
	assert.Equal(t, "1234567890", rec.RegistryNumber)
}

func TestSetRegistryNumber_Vacio_Falla(t *testing.T) {
	rec := newPendingRecord()
	assert.Error(t, rec.SetRegistryNumber(""))
}
