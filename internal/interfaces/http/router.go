package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/invorya/facturae-faceb2b/internal/application/auth"
	"github.com/invorya/facturae-faceb2b/internal/application/billing"
	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	PartnerUC *billing.PartnerUseCase
	InvoiceUC *billing.InvoiceUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Escritura reservada a admin y gestor; lectura abierta a todos los roles.
	canWrite := RequireRole(entity.RoleAdmin, entity.RoleGestor)

	// Partners (protegido)
	partners := protected.Group("/partners")
	partnerHandler := NewPartnerHandler(deps.PartnerUC)
	partners.Post("/", canWrite, partnerHandler.Create)
	partners.Get("/", partnerHandler.List)
	partners.Get("/:id", partnerHandler.GetByID)

	// Invoices y ciclo de intercambio (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", canWrite, invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/post", canWrite, invoiceHandler.Post)
	invoices.Post("/:id/status-update", canWrite, invoiceHandler.RequestStatusUpdate)
	invoices.Get("/:id/exchange-records", invoiceHandler.ListExchangeRecords)

	// Exchange records (protegido, solo lectura)
	records := protected.Group("/exchange-records")
	exchangeHandler := NewExchangeHandler(deps.InvoiceUC)
	records.Get("/:id", exchangeHandler.GetByID)
}
