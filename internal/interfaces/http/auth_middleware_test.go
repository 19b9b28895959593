package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	httpiface "github.com/invorya/facturae-faceb2b/internal/interfaces/http"
	"github.com/invorya/facturae-faceb2b/pkg/jwt"
)

const (
	testJWTSecret = "secreto-de-pruebas-no-usar-en-produccion"
	testUserID    = "u-0001"
	testCompanyID = "co-0001"
	testIssuer    = "facturae-faceb2b-test"
	testTTL       = 15 * time.Minute
)

// buildTestApp monta una app mínima con el middleware de auth y una ruta
// protegida por rol que devuelve los claims extraídos del token.
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", httpiface.AuthMiddleware(testJWTSecret))
	handler := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    httpiface.GetUserID(c),
			"company_id": httpiface.GetCompanyID(c),
			"role":       httpiface.GetRole(c),
		})
	}
	if len(allowedRoles) > 0 {
		api.Get("/protegida", httpiface.RequireRole(allowedRoles...), handler)
	} else {
		api.Get("/protegida", handler)
	}
	return app
}

func testToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.Generate(secret, testIssuer, ttl, jwt.TokenData{
		UserID:    testUserID,
		CompanyID: testCompanyID,
		Role:      role,
	})
	require.NoError(t, err)
	return token
}

func authedRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/api/protegida", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_TokenValido_ExtraeClaims(t *testing.T) {
	app := buildTestApp()
	token := testToken(t, testJWTSecret, entity.RoleAdmin, testTTL)

	resp, err := app.Test(authedRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_SinCabecera_401(t *testing.T) {
	app := buildTestApp()

	resp, err := app.Test(authedRequest(t, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_FormatoIncorrecto_401(t *testing.T) {
	app := buildTestApp()
	req, err := http.NewRequest(http.MethodGet, "/api/protegida", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic abc123")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenInvalido_401(t *testing.T) {
	app := buildTestApp()

	resp, err := app.Test(authedRequest(t, "no.es.un.jwt"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_FirmaDeOtroSecreto_401(t *testing.T) {
	app := buildTestApp()
	token := testToken(t, "otro-secreto", entity.RoleAdmin, testTTL)

	resp, err := app.Test(authedRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenExpirado_401(t *testing.T) {
	app := buildTestApp()
	token := testToken(t, testJWTSecret, entity.RoleAdmin, -5*time.Minute)

	resp, err := app.Test(authedRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_RolPermitido_200(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin, entity.RoleGestor)

	// Caso 1: admin accede.
	resp, err := app.Test(authedRequest(t, testToken(t, testJWTSecret, entity.RoleAdmin, testTTL)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Caso 2: gestor también.
	resp, err = app.Test(authedRequest(t, testToken(t, testJWTSecret, entity.RoleGestor, testTTL)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole_RolNoPermitido_403(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin, entity.RoleGestor)
	token := testToken(t, testJWTSecret, entity.RoleLector, testTTL)

	resp, err := app.Test(authedRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_TokenSinRol_401(t *testing.T) {
	app := buildTestApp(entity.RoleAdmin)
	token := testToken(t, testJWTSecret, "", testTTL)

	resp, err := app.Test(authedRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// pkg/jwt
// ──────────────────────────────────────────────────────────────────────────────

func TestJWT_IdaYVuelta(t *testing.T) {
	token := testToken(t, testJWTSecret, entity.RoleGestor, testTTL)
	require.NotEmpty(t, token)

	data, err := jwt.Parse(testJWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, data.UserID)
	assert.Equal(t, testCompanyID, data.CompanyID)
	assert.Equal(t, entity.RoleGestor, data.Role)
}

func TestJWT_SecretoVacio_Falla(t *testing.T) {
	_, err := jwt.Generate("", testIssuer, testTTL, jwt.TokenData{UserID: testUserID})
	assert.Error(t, err)

	_, err = jwt.Parse("", "cualquier-cosa")
	assert.Error(t, err)
}
