package exchange

import (
	"context"
	"time"

	"github.com/invorya/facturae-faceb2b/internal/domain/repository"
	"github.com/invorya/facturae-faceb2b/pkg/logger"
)

// SchedulerConfig parámetros del bucle de despacho diferido.
type SchedulerConfig struct {
	Interval  time.Duration // periodo entre pasadas
	BatchSize int           // máximo de registros por pasada
	Lease     time.Duration // reserva sobre cada registro reclamado
}

// Scheduler recoge periódicamente los registros pending vencidos y los
// despacha. El claim con lease en el repositorio garantiza que dos procesos
// concurrentes no reclamen el mismo registro; dentro del proceso el lock por
// registro del Dispatcher hace el resto.
//
// Un registro abandonado (proceso caído a mitad) simplemente sigue pending y
// lo recoge una pasada posterior cuando expira su lease.
type Scheduler struct {
	records    repository.ExchangeRecordRepository
	dispatcher *Dispatcher
	cfg        SchedulerConfig
	log        *logger.Logger
}

// NewScheduler construye el scheduler con valores por defecto razonables.
func NewScheduler(records repository.ExchangeRecordRepository, dispatcher *Dispatcher, cfg SchedulerConfig, log *logger.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}
	return &Scheduler{records: records, dispatcher: dispatcher, cfg: cfg, log: log}
}

// Run ejecuta el bucle hasta que el contexto se cancele.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.cfg.Interval).Int("batch", s.cfg.BatchSize).
		Msg("scheduler de intercambio iniciado")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce hace una pasada: reclama un lote y despacha cada registro.
// Devuelve cuántos registros procesó.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	recs, err := s.records.ClaimPending(ctx, s.cfg.BatchSize, s.cfg.Lease)
	if err != nil {
		s.log.Error().Err(err).Msg("no se pudo reclamar lote de registros pending")
		return 0
	}
	for _, rec := range recs {
		// El lote ya viene reclamado: se ejecuta sin volver a reclamar.
		if err := s.dispatcher.dispatchClaimed(ctx, rec.ID); err != nil {
			// Errores prevenibles (p.ej. consulta sin número de registro
			// todavía): el registro sigue pending y se reintenta al expirar
			// el lease.
			s.log.Warn().Err(err).Str("record_id", rec.ID).Msg("despacho diferido no completado")
		}
		if ctx.Err() != nil {
			break
		}
	}
	return len(recs)
}
