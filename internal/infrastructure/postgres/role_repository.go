package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles y concesiones (role_permissions) sobre PostgreSQL.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

const roleColumns = `id, company_id, name, slug, description, is_system, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (*entity.Role, error) {
	var ro entity.Role
	if err := row.Scan(&ro.ID, &ro.CompanyID, &ro.Name, &ro.Slug, &ro.Description, &ro.IsSystem, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
		return nil, err
	}
	return &ro, nil
}

// Create persiste el rol con sus concesiones.
func (r *RoleRepo) Create(ctx context.Context, role *entity.Role) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO roles (id, company_id, name, slug, description, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		role.ID, role.CompanyID, role.Name, role.Slug, role.Description, role.IsSystem, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return r.ReplaceGrants(ctx, role.ID, role.Grants)
}

// GetByID rol de la empresa o del sistema, con concesiones.
func (r *RoleRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Role, error) {
	ro, err := scanRole(r.q.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $2 AND (company_id = $1 OR company_id IS NULL)`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	if err := r.loadGrants(ctx, []*entity.Role{ro}); err != nil {
		return nil, err
	}
	return ro, nil
}

// GetBySlug rol por slug (empresa o sistema).
func (r *RoleRepo) GetBySlug(ctx context.Context, companyID, slug string) (*entity.Role, error) {
	ro, err := scanRole(r.q.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE slug = $2 AND (company_id = $1 OR company_id IS NULL)
		 ORDER BY company_id NULLS LAST LIMIT 1`, companyID, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role by slug: %w", err)
	}
	if err := r.loadGrants(ctx, []*entity.Role{ro}); err != nil {
		return nil, err
	}
	return ro, nil
}

// List roles del sistema primero y luego los de la empresa por nombre.
func (r *RoleRepo) List(ctx context.Context, companyID string) ([]*entity.Role, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE company_id = $1 OR company_id IS NULL
		 ORDER BY is_system DESC, name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	var list []*entity.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan role: %w", err)
		}
		list = append(list, ro)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	if err := r.loadGrants(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *RoleRepo) loadGrants(ctx context.Context, roles []*entity.Role) error {
	if len(roles) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Role, len(roles))
	ids := make([]string, 0, len(roles))
	for _, ro := range roles {
		byID[ro.ID] = ro
		ids = append(ids, ro.ID)
	}
	rows, err := r.q.Query(ctx,
		`SELECT role_id, module, action FROM role_permissions WHERE role_id = ANY($1::uuid[]) ORDER BY module, action`, ids)
	if err != nil {
		return fmt.Errorf("list role permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var roleID string
		var g entity.RoleGrant
		if err := rows.Scan(&roleID, &g.Module, &g.Action); err != nil {
			return fmt.Errorf("scan role permission: %w", err)
		}
		if ro := byID[roleID]; ro != nil {
			ro.Grants = append(ro.Grants, g)
		}
	}
	return rows.Err()
}

// Update actualiza nombre, slug y descripción.
func (r *RoleRepo) Update(ctx context.Context, role *entity.Role) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE roles SET name = $3, slug = $4, description = $5, updated_at = $6
		WHERE company_id = $1 AND id = $2 AND NOT is_system`,
		role.CompanyID, role.ID, role.Name, role.Slug, role.Description, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update role: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceGrants reemplaza todas las concesiones del rol.
func (r *RoleRepo) ReplaceGrants(ctx context.Context, roleID string, grants []entity.RoleGrant) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("delete role permissions: %w", err)
	}
	for _, g := range grants {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO role_permissions (role_id, module, action) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			roleID, g.Module, g.Action); err != nil {
			return fmt.Errorf("insert role permission: %w", err)
		}
	}
	return nil
}

// Delete elimina un rol propio de la empresa.
func (r *RoleRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM roles WHERE company_id = $1 AND id = $2 AND NOT is_system`, companyID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete role: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Overrides ─────────────────────────────────────────────────────────────────

var _ repository.OverrideRepository = (*OverrideRepo)(nil)

// OverrideRepo excepciones de permisos por miembro.
type OverrideRepo struct {
	q Querier
}

// NewOverrideRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOverrideRepository(q Querier) *OverrideRepo {
	return &OverrideRepo{q: q}
}

const overrideColumns = `id, company_id, member_id, module, action, is_granted, created_by, created_at`

func scanOverride(row interface{ Scan(...any) error }) (*entity.PermissionOverride, error) {
	var o entity.PermissionOverride
	if err := row.Scan(&o.ID, &o.CompanyID, &o.MemberID, &o.Module, &o.Action, &o.IsGranted, &o.CreatedBy, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByMember overrides del miembro en orden de creación.
func (r *OverrideRepo) ListByMember(ctx context.Context, companyID, memberID string) ([]*entity.PermissionOverride, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+overrideColumns+` FROM member_permission_overrides
		 WHERE company_id = $1 AND member_id = $2 ORDER BY created_at, id`, companyID, memberID)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()
	var list []*entity.PermissionOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// GetByID override por id dentro de la empresa.
func (r *OverrideRepo) GetByID(ctx context.Context, companyID, id string) (*entity.PermissionOverride, error) {
	o, err := scanOverride(r.q.QueryRow(ctx,
		`SELECT `+overrideColumns+` FROM member_permission_overrides WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get override: %w", err)
	}
	return o, nil
}

// Upsert inserta o reemplaza el override de (member, module, action). Devuelve el id vigente en o.ID.
func (r *OverrideRepo) Upsert(ctx context.Context, o *entity.PermissionOverride) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO member_permission_overrides (id, company_id, member_id, module, action, is_granted, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (member_id, module, action)
		DO UPDATE SET is_granted = EXCLUDED.is_granted, created_by = EXCLUDED.created_by, created_at = EXCLUDED.created_at
		RETURNING id`,
		o.ID, o.CompanyID, o.MemberID, o.Module, o.Action, o.IsGranted, o.CreatedBy, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// Delete elimina un override.
func (r *OverrideRepo) Delete(ctx context.Context, companyID, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM member_permission_overrides WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Invitaciones ──────────────────────────────────────────────────────────────

var _ repository.InvitationRepository = (*InvitationRepo)(nil)

// InvitationRepo invitaciones a empresas.
type InvitationRepo struct {
	q Querier
}

// NewInvitationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvitationRepository(q Querier) *InvitationRepo {
	return &InvitationRepo{q: q}
}

const invitationColumns = `id, company_id, email, role_id, token, status, invited_by, expires_at, accepted_at, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (*entity.Invitation, error) {
	var i entity.Invitation
	if err := row.Scan(&i.ID, &i.CompanyID, &i.Email, &i.RoleID, &i.Token, &i.Status, &i.InvitedBy, &i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// Create persiste una invitación.
func (r *InvitationRepo) Create(ctx context.Context, inv *entity.Invitation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invitations (id, company_id, email, role_id, token, status, invited_by, expires_at, accepted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.CompanyID, inv.Email, inv.RoleID, inv.Token, inv.Status, inv.InvitedBy, inv.ExpiresAt, inv.AcceptedAt, inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// GetByID invitación por id dentro de la empresa.
func (r *InvitationRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invitation, error) {
	return r.getOne(ctx, `company_id = $1 AND id = $2`, companyID, id)
}

// GetByToken invitación por token (aceptación).
func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*entity.Invitation, error) {
	return r.getOne(ctx, `token = $1`, token)
}

// GetPendingByEmail invitación pendiente para el email en la empresa.
func (r *InvitationRepo) GetPendingByEmail(ctx context.Context, companyID, email string) (*entity.Invitation, error) {
	return r.getOne(ctx, `company_id = $1 AND email = $2 AND status = 'pending' ORDER BY created_at DESC LIMIT 1`, companyID, email)
}

// List invitaciones de la empresa; status vacío = todas.
func (r *InvitationRepo) List(ctx context.Context, companyID, status string) ([]*entity.Invitation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE company_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_at DESC`, companyID, status)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Update persiste estado y fecha de aceptación.
func (r *InvitationRepo) Update(ctx context.Context, inv *entity.Invitation) error {
	_, err := r.q.Exec(ctx,
		`UPDATE invitations SET status = $3, accepted_at = $4 WHERE company_id = $1 AND id = $2`,
		inv.CompanyID, inv.ID, inv.Status, inv.AcceptedAt)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}
