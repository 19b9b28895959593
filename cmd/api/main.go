package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/invorya/facturae-faceb2b/internal/application/auth"
	"github.com/invorya/facturae-faceb2b/internal/application/billing"
	"github.com/invorya/facturae-faceb2b/internal/application/exchange"
	infrafaceb2b "github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
	infrafacturae "github.com/invorya/facturae-faceb2b/internal/infrastructure/facturae"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/postgres"
	httpRouter "github.com/invorya/facturae-faceb2b/internal/interfaces/http"
	"github.com/invorya/facturae-faceb2b/pkg/config"
	"github.com/invorya/facturae-faceb2b/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("dispatch_mode", cfg.FaceB2B.DispatchMode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	partnerRepo := postgres.NewPartnerRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	recordRepo := postgres.NewExchangeRecordRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cliente SOAP FACeB2B. Con endpoint vacío las llamadas fallan y quedan
	// registradas como error_on_send; útil en desarrollo sin pasarela.
	if cfg.FaceB2B.Endpoint == "" {
		log.Warn().Msg("FACEB2B_ENDPOINT vacío: los envíos terminarán en error_on_send")
	}
	soapClient := infrafaceb2b.NewSOAPClient(cfg.FaceB2B.Endpoint)

	validator := exchange.NewValidator(exchange.ValidatorConfig{
		RequireContactEmail: cfg.FaceB2B.RequireEmail,
		ForceFacturae:       cfg.FaceB2B.ForceFacturae,
	})
	dispatcher := exchange.NewDispatcher(
		recordRepo, invoiceRepo, partnerRepo, companyRepo,
		soapClient, infrafacturae.NewDocumentBuilder(), validator,
		exchange.Config{
			DispatchMode: cfg.FaceB2B.DispatchMode,
			CallTimeout:  cfg.FaceB2B.CallTimeout,
			ClaimLease:   cfg.FaceB2B.PollLease,
		},
		log,
	)

	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, partnerRepo, recordRepo, dispatcher)
	partnerUC := billing.NewPartnerUseCase(partnerRepo)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// En modo deferred, el scheduler recoge los registros pending.
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.FaceB2B.DispatchMode == exchange.DispatchModeDeferred {
		scheduler := exchange.NewScheduler(recordRepo, dispatcher, exchange.SchedulerConfig{
			Interval:  cfg.FaceB2B.PollInterval,
			BatchSize: cfg.FaceB2B.PollBatchSize,
			Lease:     cfg.FaceB2B.PollLease,
		}, log)
		go func() {
			if err := scheduler.Run(schedulerCtx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("scheduler finalizado")
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FACeB2B API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		PartnerUC: partnerUC,
		InvoiceUC: invoiceUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
