package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `id, name, nit, address, phone, email, status, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (*entity.Company, error) {
	var c entity.Company
	if err := row.Scan(&c.ID, &c.Name, &c.NIT, &c.Address, &c.Phone, &c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, nit, address, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.NIT, company.Address,
		company.Phone, company.Email, company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByNIT obtiene una empresa por NIT.
func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE nit = $1`, nit))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by NIT: %w", err)
	}
	return c, nil
}

// Update actualiza una empresa existente.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	query := `
		UPDATE companies SET name = $2, nit = $3, address = $4, phone = $5, email = $6, status = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.NIT, company.Address,
		company.Phone, company.Email, company.Status, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser empresas activas con membresía activa del usuario, por antigüedad de la membresía.
func (r *CompanyRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Company, error) {
	query := `
		SELECT c.id, c.name, c.nit, c.address, c.phone, c.email, c.status, c.created_at, c.updated_at
		FROM companies c
		JOIN company_members m ON m.company_id = c.id
		WHERE m.user_id = $1 AND m.is_active AND c.status = 'active'
		ORDER BY m.created_at`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list companies by user: %w", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ── Membresías ────────────────────────────────────────────────────────────────

var _ repository.MemberRepository = (*MemberRepo)(nil)

// MemberRepo membresías usuario-empresa sobre PostgreSQL.
type MemberRepo struct {
	q Querier
}

// NewMemberRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMemberRepository(q Querier) *MemberRepo {
	return &MemberRepo{q: q}
}

const memberColumns = `id, company_id, user_id, role_id, is_owner, is_active, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (*entity.Member, error) {
	var m entity.Member
	if err := row.Scan(&m.ID, &m.CompanyID, &m.UserID, &m.RoleID, &m.IsOwner, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persiste una membresía.
func (r *MemberRepo) Create(ctx context.Context, m *entity.Member) error {
	query := `
		INSERT INTO company_members (id, company_id, user_id, role_id, is_owner, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, m.ID, m.CompanyID, m.UserID, m.RoleID, m.IsOwner, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// GetByID membresía por id dentro de la empresa.
func (r *MemberRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Member, error) {
	m, err := scanMember(r.q.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM company_members WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetByUserAndCompany membresía del usuario en la empresa.
func (r *MemberRepo) GetByUserAndCompany(ctx context.Context, userID, companyID string) (*entity.Member, error) {
	m, err := scanMember(r.q.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM company_members WHERE user_id = $1 AND company_id = $2`, userID, companyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member by user: %w", err)
	}
	return m, nil
}

// ListActiveByUser membresías activas del usuario, la más antigua primero.
func (r *MemberRepo) ListActiveByUser(ctx context.Context, userID string) ([]*entity.Member, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+memberColumns+` FROM company_members WHERE user_id = $1 AND is_active ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list members by user: %w", err)
	}
	defer rows.Close()
	var list []*entity.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListByCompany miembros con datos de usuario y rol, con total para paginación.
func (r *MemberRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.MemberWithUser, int, error) {
	query := `
		SELECT m.id, m.company_id, m.user_id, m.role_id, m.is_owner, m.is_active, m.created_at, m.updated_at,
		       u.email, u.name, COALESCE(ro.name, ''), COALESCE(ro.slug, ''),
		       COUNT(*) OVER()
		FROM company_members m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN roles ro ON ro.id = m.role_id
		WHERE m.company_id = $1
		ORDER BY m.created_at
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.MemberWithUser
		total int
	)
	for rows.Next() {
		var mw entity.MemberWithUser
		if err := rows.Scan(
			&mw.ID, &mw.CompanyID, &mw.UserID, &mw.RoleID, &mw.IsOwner, &mw.IsActive, &mw.CreatedAt, &mw.UpdatedAt,
			&mw.UserEmail, &mw.UserName, &mw.RoleName, &mw.RoleSlug, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan member: %w", err)
		}
		list = append(list, &mw)
	}
	return list, total, rows.Err()
}

// Update persiste rol y estado de la membresía.
func (r *MemberRepo) Update(ctx context.Context, m *entity.Member) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE company_members SET role_id = $3, is_owner = $4, is_active = $5, updated_at = $6
		WHERE company_id = $1 AND id = $2`,
		m.CompanyID, m.ID, m.RoleID, m.IsOwner, m.IsActive, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByRole cuántas membresías usan el rol.
func (r *MemberRepo) CountByRole(ctx context.Context, roleID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM company_members WHERE role_id = $1`, roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members by role: %w", err)
	}
	return n, nil
}

// ── Preferencias ──────────────────────────────────────────────────────────────

var _ repository.PreferenceRepository = (*PreferenceRepo)(nil)

// PreferenceRepo empresa activa por usuario (una fila por usuario).
type PreferenceRepo struct {
	q Querier
}

// NewPreferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPreferenceRepository(q Querier) *PreferenceRepo {
	return &PreferenceRepo{q: q}
}

// Get devuelve la preferencia o nil si el usuario nunca eligió empresa.
func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*entity.UserPreference, error) {
	var p entity.UserPreference
	err := r.q.QueryRow(ctx,
		`SELECT user_id, active_company_id, updated_at FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.ActiveCompanyID, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &p, nil
}

// Upsert inserta o reemplaza la empresa activa del usuario.
func (r *PreferenceRepo) Upsert(ctx context.Context, p *entity.UserPreference) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_preferences (user_id, active_company_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET active_company_id = EXCLUDED.active_company_id, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.ActiveCompanyID, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}
