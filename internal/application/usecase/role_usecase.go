package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
	"github.com/jhoicas/Gestion-api/pkg/slug"
)

// RoleTxRunner ejecuta fn con el repo de roles dentro de una transacción.
type RoleTxRunner interface {
	RunRoles(ctx context.Context, fn func(roleRepo repository.RoleRepository) error) error
}

var (
	tagRoles = string(permission.ModuleRoles)
	tagUsers = string(permission.ModuleUsers)
)

// RoleUseCase administra los roles propios de la empresa. Los roles del sistema se listan pero no se tocan.
type RoleUseCase struct {
	repo        repository.RoleRepository
	members     repository.MemberRepository
	tx          RoleTxRunner
	audit       *audit.Logger
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(
	repo repository.RoleRepository,
	members repository.MemberRepository,
	tx RoleTxRunner,
	auditLog *audit.Logger,
	revalidator ports.Revalidator,
	log *logger.Logger,
) *RoleUseCase {
	return &RoleUseCase{
		repo:        repo,
		members:     members,
		tx:          tx,
		audit:       auditLog,
		revalidator: revalidator,
		log:         log.Component("roles"),
		now:         time.Now,
	}
}

// List roles del sistema y de la empresa.
func (uc *RoleUseCase) List(ctx context.Context, tc tenant.Context) ([]dto.RoleResponse, error) {
	list, err := uc.repo.List(ctx, tc.CompanyID)
	if err != nil {
		return nil, persistErr(uc.log, "roles.List", tc.CompanyID, err)
	}
	out := make([]dto.RoleResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRoleResponse(r))
	}
	return out, nil
}

// Get un rol visible para la empresa.
func (uc *RoleUseCase) Get(ctx context.Context, tc tenant.Context, id string) (*dto.RoleResponse, error) {
	r, err := uc.role(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, err
	}
	out := toRoleResponse(r)
	return &out, nil
}

// Create crea un rol propio; el slug se deriva del nombre.
func (uc *RoleUseCase) Create(ctx context.Context, tc tenant.Context, in dto.RoleRequest) (*dto.RoleResponse, error) {
	name, roleSlug, err := roleName(in.Name)
	if err != nil {
		return nil, err
	}
	grants, err := GrantsFromMatrix(in.Permissions)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	companyID := tc.CompanyID
	r := &entity.Role{
		ID:          uuid.New().String(),
		CompanyID:   &companyID,
		Name:        name,
		Slug:        roleSlug,
		Description: strings.TrimSpace(in.Description),
		Grants:      grants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.tx.RunRoles(ctx, func(roleRepo repository.RoleRepository) error {
		existing, err := roleRepo.GetBySlug(ctx, tc.CompanyID, roleSlug)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ya existe un rol %q", domain.ErrDuplicate, existing.Name)
		}
		return roleRepo.Create(ctx, r)
	})
	if err != nil {
		return nil, persistErr(uc.log, "roles.Create", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.RoleCreated,
		TargetType: audit.TargetRole,
		TargetID:   r.ID,
		TargetName: &r.Name,
		NewValue:   map[string]any{"name": r.Name, "slug": r.Slug, "permissions": MatrixFromGrants(r.Grants)},
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagRoles)
	out := toRoleResponse(r)
	return &out, nil
}

// Update cambia nombre y descripción. Si trae Permissions reemplaza también las concesiones.
func (uc *RoleUseCase) Update(ctx context.Context, tc tenant.Context, id string, in dto.RoleRequest) (*dto.RoleResponse, error) {
	name, roleSlug, err := roleName(in.Name)
	if err != nil {
		return nil, err
	}
	var grants []entity.RoleGrant
	if in.Permissions != nil {
		if grants, err = GrantsFromMatrix(in.Permissions); err != nil {
			return nil, err
		}
	}

	var before, after entity.Role
	err = uc.tx.RunRoles(ctx, func(roleRepo repository.RoleRepository) error {
		r, err := editableRole(ctx, roleRepo, tc.CompanyID, id)
		if err != nil {
			return err
		}
		before = *r
		if other, err := roleRepo.GetBySlug(ctx, tc.CompanyID, roleSlug); err != nil {
			return err
		} else if other != nil && other.ID != r.ID {
			return fmt.Errorf("%w: ya existe un rol %q", domain.ErrDuplicate, other.Name)
		}
		r.Name = name
		r.Slug = roleSlug
		r.Description = strings.TrimSpace(in.Description)
		r.UpdatedAt = uc.now()
		if err := roleRepo.Update(ctx, r); err != nil {
			return err
		}
		if in.Permissions != nil {
			if err := roleRepo.ReplaceGrants(ctx, r.ID, grants); err != nil {
				return err
			}
			r.Grants = grants
		}
		after = *r
		return nil
	})
	if err != nil {
		return nil, persistErr(uc.log, "roles.Update", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.RoleUpdated,
		TargetType: audit.TargetRole,
		TargetID:   after.ID,
		TargetName: &after.Name,
		OldValue:   map[string]any{"name": before.Name, "description": before.Description},
		NewValue:   map[string]any{"name": after.Name, "description": after.Description},
	})
	if in.Permissions != nil {
		uc.auditPermissions(ctx, tc, &before, &after)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagRoles, tagUsers)
	out := toRoleResponse(&after)
	return &out, nil
}

// UpdatePermissions reemplaza las concesiones del rol.
func (uc *RoleUseCase) UpdatePermissions(ctx context.Context, tc tenant.Context, id string, in dto.RolePermissionsRequest) (*dto.RoleResponse, error) {
	grants, err := GrantsFromMatrix(in.Permissions)
	if err != nil {
		return nil, err
	}
	var before, after entity.Role
	err = uc.tx.RunRoles(ctx, func(roleRepo repository.RoleRepository) error {
		r, err := editableRole(ctx, roleRepo, tc.CompanyID, id)
		if err != nil {
			return err
		}
		before = *r
		if err := roleRepo.ReplaceGrants(ctx, r.ID, grants); err != nil {
			return err
		}
		r.Grants = grants
		after = *r
		return nil
	})
	if err != nil {
		return nil, persistErr(uc.log, "roles.ReplaceGrants", tc.CompanyID, err)
	}
	uc.auditPermissions(ctx, tc, &before, &after)
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagRoles, tagUsers)
	out := toRoleResponse(&after)
	return &out, nil
}

// Delete elimina un rol propio sin miembros asignados.
func (uc *RoleUseCase) Delete(ctx context.Context, tc tenant.Context, id string) error {
	r, err := editableRole(ctx, uc.repo, tc.CompanyID, id)
	if err != nil {
		return persistErr(uc.log, "roles.GetByID", tc.CompanyID, err)
	}
	n, err := uc.members.CountByRole(ctx, r.ID)
	if err != nil {
		return persistErr(uc.log, "members.CountByRole", tc.CompanyID, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: el rol está asignado a %d miembro(s)", domain.ErrConflict, n)
	}
	if err := uc.repo.Delete(ctx, tc.CompanyID, r.ID); err != nil {
		return persistErr(uc.log, "roles.Delete", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.RoleDeleted,
		TargetType: audit.TargetRole,
		TargetID:   r.ID,
		TargetName: &r.Name,
		OldValue:   map[string]any{"name": r.Name, "slug": r.Slug, "permissions": MatrixFromGrants(r.Grants)},
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagRoles)
	return nil
}

func (uc *RoleUseCase) auditPermissions(ctx context.Context, tc tenant.Context, before, after *entity.Role) {
	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.RolePermissionsUpdated,
		TargetType: audit.TargetRole,
		TargetID:   after.ID,
		TargetName: &after.Name,
		OldValue:   MatrixFromGrants(before.Grants),
		NewValue:   MatrixFromGrants(after.Grants),
	})
}

func (uc *RoleUseCase) role(ctx context.Context, companyID, id string) (*entity.Role, error) {
	r, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "roles.GetByID", companyID, err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// editableRole carga un rol y rechaza los del sistema.
func editableRole(ctx context.Context, repo repository.RoleRepository, companyID, id string) (*entity.Role, error) {
	r, err := repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if r.IsSystem || r.CompanyID == nil {
		return nil, domain.ErrSystemRole
	}
	return r, nil
}

func roleName(raw string) (name, roleSlug string, err error) {
	name = strings.TrimSpace(raw)
	if name == "" {
		return "", "", fmt.Errorf("%w: el nombre del rol es obligatorio", domain.ErrInvalidInput)
	}
	roleSlug = slug.Make(name)
	if roleSlug == "" {
		return "", "", fmt.Errorf("%w: nombre de rol %q", domain.ErrInvalidInput, raw)
	}
	if permission.IsSystemSlug(roleSlug) {
		return "", "", fmt.Errorf("%w: %q es un nombre reservado", domain.ErrInvalidInput, name)
	}
	return name, roleSlug, nil
}

// GrantsFromMatrix convierte la matriz de la UI en concesiones, validando módulos contra el catálogo.
func GrantsFromMatrix(m map[string]permission.Actions) ([]entity.RoleGrant, error) {
	modules := make([]string, 0, len(m))
	for module := range m {
		if !permission.IsKnownModule(module) {
			return nil, fmt.Errorf("%w: módulo desconocido %q", domain.ErrInvalidInput, module)
		}
		modules = append(modules, module)
	}
	sort.Strings(modules)

	var grants []entity.RoleGrant
	for _, module := range modules {
		acts := m[module]
		for _, a := range []permission.Action{permission.View, permission.Create, permission.Update, permission.Delete} {
			if acts.Has(a) {
				grants = append(grants, entity.RoleGrant{Module: module, Action: string(a)})
			}
		}
	}
	return grants, nil
}

// MatrixFromGrants vista módulo -> acciones de las concesiones de un rol.
func MatrixFromGrants(grants []entity.RoleGrant) map[string]permission.Actions {
	rg := make([]permission.Grant, 0, len(grants))
	for _, g := range grants {
		rg = append(rg, permission.FromRole(g.Module, g.Action))
	}
	return permission.Resolve(permission.Subject{Active: true}, rg).Map()
}

func toRoleResponse(r *entity.Role) dto.RoleResponse {
	perms := MatrixFromGrants(r.Grants)
	if r.IsSystem || permission.IsSystemSlug(r.Slug) {
		perms = permission.FullAccess().Map()
	}
	return dto.RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
