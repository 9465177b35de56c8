package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// RoleRepository persistencia de roles y sus concesiones.
// GetByID y List incluyen los roles del sistema (company_id NULL).
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Role, error)
	GetBySlug(ctx context.Context, companyID, slug string) (*entity.Role, error)
	List(ctx context.Context, companyID string) ([]*entity.Role, error)
	Update(ctx context.Context, role *entity.Role) error
	ReplaceGrants(ctx context.Context, roleID string, grants []entity.RoleGrant) error
	Delete(ctx context.Context, companyID, id string) error
}

// OverrideRepository excepciones de permisos por miembro.
type OverrideRepository interface {
	ListByMember(ctx context.Context, companyID, memberID string) ([]*entity.PermissionOverride, error)
	GetByID(ctx context.Context, companyID, id string) (*entity.PermissionOverride, error)
	// Upsert reemplaza el override existente para (member, module, action).
	Upsert(ctx context.Context, o *entity.PermissionOverride) error
	Delete(ctx context.Context, companyID, id string) error
}

// InvitationRepository invitaciones pendientes a una empresa.
type InvitationRepository interface {
	Create(ctx context.Context, inv *entity.Invitation) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Invitation, error)
	GetByToken(ctx context.Context, token string) (*entity.Invitation, error)
	GetPendingByEmail(ctx context.Context, companyID, email string) (*entity.Invitation, error)
	List(ctx context.Context, companyID, status string) ([]*entity.Invitation, error)
	Update(ctx context.Context, inv *entity.Invitation) error
}

// AuditLogRepository bitácora append-only.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *entity.AuditLog) error
	List(ctx context.Context, companyID string, filter entity.AuditLogFilter, limit, offset int) ([]*entity.AuditLog, int, error)
}
