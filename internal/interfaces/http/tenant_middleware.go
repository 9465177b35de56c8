package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// LocalTenant llave en c.Locals del tenant.Context resuelto.
const LocalTenant = "tenant"

// tenantResolver lo implementa *tenant.Resolver.
type tenantResolver interface {
	Resolve(ctx context.Context, userID string) (*entity.Company, *entity.Member, error)
}

// matrixResolver lo implementa *access.Service.
type matrixResolver interface {
	ResolveForMember(ctx context.Context, companyID, userID string) (permission.Matrix, *entity.Member, error)
}

// TenantMiddleware resuelve la empresa activa y la matriz efectiva una sola vez por petición.
// Debe ir DESPUÉS de AuthMiddleware. Sin empresa activa responde 409 NO_ACTIVE_TENANT.
func TenantMiddleware(resolver tenantResolver, matrices matrixResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeUnauthorized, Message: "usuario no autenticado"})
		}
		ctx := c.UserContext()
		company, _, err := resolver.Resolve(ctx, userID)
		if err != nil {
			return writeError(c, err)
		}
		matrix, member, err := matrices.ResolveForMember(ctx, company.ID, userID)
		if err != nil {
			return writeError(c, err)
		}
		if member == nil {
			return writeError(c, domain.ErrNoActiveTenant)
		}
		c.Locals(LocalTenant, tenant.Context{
			UserID:      userID,
			CompanyID:   company.ID,
			MemberID:    member.ID,
			IsOwner:     member.IsOwner,
			Permissions: matrix,
		})
		return c.Next()
	}
}

// GetTenant devuelve el tenant.Context resuelto por TenantMiddleware.
func GetTenant(c *fiber.Ctx) (tenant.Context, bool) {
	tc, ok := c.Locals(LocalTenant).(tenant.Context)
	return tc, ok
}

// mustTenant para handlers montados detrás de TenantMiddleware.
func mustTenant(c *fiber.Ctx) (tenant.Context, error) {
	tc, ok := GetTenant(c)
	if !ok {
		return tenant.Context{}, domain.ErrNoActiveTenant
	}
	return tc, nil
}
