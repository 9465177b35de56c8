package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	apphttp "github.com/jhoicas/Gestion-api/internal/interfaces/http"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles
// ──────────────────────────────────────────────────────────────────────────────

type stubResolver struct {
	company *entity.Company
	err     error
}

func (s stubResolver) Resolve(context.Context, string) (*entity.Company, *entity.Member, error) {
	return s.company, nil, s.err
}

type stubMatrices struct {
	matrix permission.Matrix
	member *entity.Member
}

func (s stubMatrices) ResolveForMember(context.Context, string, string) (permission.Matrix, *entity.Member, error) {
	return s.matrix, s.member, nil
}

var (
	activeCompany = &entity.Company{ID: testCompanyID, Name: "Acme", Status: entity.CompanyStatusActive}
	plainMember   = &entity.Member{ID: "m-1", CompanyID: testCompanyID, UserID: testUserID, IsActive: true}
)

// tenantApp monta Auth + Tenant y una ruta de empleados protegida por permiso y caché.
func tenantApp(resolver stubResolver, matrices stubMatrices, versions *cache.MemoryRevalidator) *fiber.App {
	app := fiber.New(apphttp.AppConfig(logger.Nop()))
	mod := permission.ModuleEmployees
	app.Get("/employees",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.TenantMiddleware(resolver, matrices),
		apphttp.CacheTag(versions, string(mod)),
		apphttp.RequirePermission(mod, permission.View),
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"items": []string{}}) },
	)
	app.Delete("/employees/:id",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.TenantMiddleware(resolver, matrices),
		apphttp.RequirePermission(mod, permission.Delete),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	return app
}

func viewOnly() permission.Matrix {
	return permission.Resolve(permission.Subject{Active: true}, []permission.Grant{
		permission.FromRole(string(permission.ModuleEmployees), string(permission.View)),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// TenantMiddleware y RequirePermission
// ──────────────────────────────────────────────────────────────────────────────

func TestTenantMiddleware_SinEmpresa_NoActiveTenant(t *testing.T) {
	app := tenantApp(stubResolver{err: domain.ErrNoActiveTenant}, stubMatrices{}, cache.NewMemoryRevalidator())

	resp := doGet(t, app, "/employees", map[string]string{"Authorization": bearer(t, testUserID)})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNoActiveTenant, decodeError(t, resp).Code)
}

func TestTenantMiddleware_MembresiaInactiva_NoActiveTenant(t *testing.T) {
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: permission.Empty()}, cache.NewMemoryRevalidator())

	resp := doGet(t, app, "/employees", map[string]string{"Authorization": bearer(t, testUserID)})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNoActiveTenant, decodeError(t, resp).Code)
}

func TestRequirePermission_ConPermiso_200(t *testing.T) {
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: viewOnly(), member: plainMember}, cache.NewMemoryRevalidator())

	resp := doGet(t, app, "/employees", map[string]string{"Authorization": bearer(t, testUserID)})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePermission_SinAccion_403(t *testing.T) {
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: viewOnly(), member: plainMember}, cache.NewMemoryRevalidator())

	req := httptest.NewRequest(http.MethodDelete, "/employees/e-1", nil)
	req.Header.Set("Authorization", bearer(t, testUserID))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apphttp.CodeForbidden, decodeError(t, resp).Code)
}

func TestRequirePermission_MatrizVacia_403(t *testing.T) {
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: permission.Empty(), member: plainMember}, cache.NewMemoryRevalidator())

	resp := doGet(t, app, "/employees", map[string]string{"Authorization": bearer(t, testUserID)})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequirePermission_AccesoTotal_200(t *testing.T) {
	owner := &entity.Member{ID: "m-owner", CompanyID: testCompanyID, UserID: testUserID, IsOwner: true, IsActive: true}
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: permission.FullAccess(), member: owner}, cache.NewMemoryRevalidator())

	req := httptest.NewRequest(http.MethodDelete, "/employees/e-1", nil)
	req.Header.Set("Authorization", bearer(t, testUserID))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// CacheTag
// ──────────────────────────────────────────────────────────────────────────────

func TestCacheTag_MismaVersion_304(t *testing.T) {
	versions := cache.NewMemoryRevalidator()
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: viewOnly(), member: plainMember}, versions)
	auth := bearer(t, testUserID)

	first := doGet(t, app, "/employees", map[string]string{"Authorization": auth})
	require.Equal(t, fiber.StatusOK, first.StatusCode)
	etag := first.Header.Get(fiber.HeaderETag)
	require.NotEmpty(t, etag)
	assert.Contains(t, etag, `W/"`)

	second := doGet(t, app, "/employees", map[string]string{"Authorization": auth, fiber.HeaderIfNoneMatch: etag})
	assert.Equal(t, fiber.StatusNotModified, second.StatusCode)
}

func TestCacheTag_TrasRevalidar_200ConNuevoETag(t *testing.T) {
	versions := cache.NewMemoryRevalidator()
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: viewOnly(), member: plainMember}, versions)
	auth := bearer(t, testUserID)

	first := doGet(t, app, "/employees", map[string]string{"Authorization": auth})
	etag := first.Header.Get(fiber.HeaderETag)

	versions.Revalidate(context.Background(), testCompanyID, string(permission.ModuleEmployees))

	second := doGet(t, app, "/employees", map[string]string{"Authorization": auth, fiber.HeaderIfNoneMatch: etag})
	assert.Equal(t, fiber.StatusOK, second.StatusCode)
	assert.NotEqual(t, etag, second.Header.Get(fiber.HeaderETag))
}

func TestCacheTag_OtraEtiqueta_NoInvalida(t *testing.T) {
	versions := cache.NewMemoryRevalidator()
	app := tenantApp(stubResolver{company: activeCompany}, stubMatrices{matrix: viewOnly(), member: plainMember}, versions)
	auth := bearer(t, testUserID)

	etag := doGet(t, app, "/employees", map[string]string{"Authorization": auth}).Header.Get(fiber.HeaderETag)
	versions.Revalidate(context.Background(), testCompanyID, string(permission.ModuleClients))

	resp := doGet(t, app, "/employees", map[string]string{"Authorization": auth, fiber.HeaderIfNoneMatch: etag})
	assert.Equal(t, fiber.StatusNotModified, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// RateLimiter
// ──────────────────────────────────────────────────────────────────────────────

func TestRateLimiter_AgotaRafaga_429(t *testing.T) {
	limiter := apphttp.NewRateLimiter(0.001, 2)
	app := fiber.New()
	app.Post("/login", limiter.Middleware(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}

func TestRateLimiter_ClavesIndependientes(t *testing.T) {
	limiter := apphttp.NewRateLimiter(0.001, 1)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorHandler
// ──────────────────────────────────────────────────────────────────────────────

func TestErrorHandler_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, fiber.StatusNotFound, apphttp.CodeNotFound},
		{domain.ErrInvalidInput, fiber.StatusBadRequest, apphttp.CodeValidation},
		{domain.ErrForbidden, fiber.StatusForbidden, apphttp.CodeForbidden},
		{domain.ErrSystemRole, fiber.StatusForbidden, apphttp.CodeSystemRole},
		{domain.ErrDuplicate, fiber.StatusConflict, apphttp.CodeDuplicate},
		{domain.ErrInvalidTransition, fiber.StatusUnprocessableEntity, apphttp.CodeInvalidTransition},
		{domain.ErrNotApplicable, fiber.StatusUnprocessableEntity, apphttp.CodeNotApplicable},
		{errors.New("pgx: conexión rota"), fiber.StatusInternalServerError, apphttp.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New(apphttp.AppConfig(logger.Nop()))
			app.Get("/x", func(c *fiber.Ctx) error { return tc.err })

			resp := doGet(t, app, "/x", nil)
			assert.Equal(t, tc.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Code)
			if tc.status == fiber.StatusInternalServerError {
				assert.NotContains(t, body.Message, "pgx", "los errores internos no exponen detalle")
			}
		})
	}
}

func TestErrorHandler_RutaInexistente_404(t *testing.T) {
	app := fiber.New(apphttp.AppConfig(logger.Nop()))
	resp := doGet(t, app, "/no-existe", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apphttp.CodeNotFound, decodeError(t, resp).Code)
}

func TestAppConfig_ParametrosSobrevivenALaPeticion(t *testing.T) {
	app := fiber.New(apphttp.AppConfig(logger.Nop()))
	var seen []string
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		seen = append(seen, c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	ids := []string{"7ef8a605-aaaa", "sef8a605-bbbb", "0000aaaa-cccc"}
	for _, id := range ids {
		doGet(t, app, "/items/"+id, nil)
	}
	assert.Equal(t, ids, seen)
}
