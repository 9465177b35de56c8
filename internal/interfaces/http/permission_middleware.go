package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// RequirePermission exige la acción sobre el módulo en la matriz del tenant.
// Debe usarse DESPUÉS de TenantMiddleware.
//
// Comportamiento:
//   - 409 NO_ACTIVE_TENANT → no hay tenant resuelto en el contexto.
//   - 403 FORBIDDEN → la matriz no concede el par (módulo, acción).
func RequirePermission(module permission.Module, action permission.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tc, err := mustTenant(c)
		if err != nil {
			return writeError(c, err)
		}
		if !tc.Can(module, action) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    CodeForbidden,
				Message: "sin permiso para " + string(action) + " en " + string(module),
			})
		}
		return c.Next()
	}
}
