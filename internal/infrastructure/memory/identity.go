package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository    = (*CompanyRepo)(nil)
	_ repository.UserRepository       = (*UserRepo)(nil)
	_ repository.MemberRepository     = (*MemberRepo)(nil)
	_ repository.PreferenceRepository = (*PreferenceRepo)(nil)
	_ repository.RoleRepository       = (*RoleRepo)(nil)
	_ repository.OverrideRepository   = (*OverrideRepo)(nil)
	_ repository.InvitationRepository = (*InvitationRepo)(nil)
	_ repository.AuditLogRepository   = (*AuditLogRepo)(nil)
)

func copyRole(r entity.Role) entity.Role {
	r.Grants = append([]entity.RoleGrant(nil), r.Grants...)
	return r
}

// CompanyRepo empresas.
type CompanyRepo struct{ s *Store }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	defer r.s.lock()()
	for _, existing := range r.s.st.companies {
		if existing.NIT == c.NIT {
			return domain.ErrDuplicate
		}
	}
	r.s.st.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	defer r.s.lock()()
	c, ok := r.s.st.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	defer r.s.lock()()
	for _, c := range r.s.st.companies {
		if c.NIT == nit {
			return ptr(c), nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) Update(_ context.Context, c *entity.Company) error {
	defer r.s.lock()()
	if _, ok := r.s.st.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) ListByUser(_ context.Context, userID string) ([]*entity.Company, error) {
	defer r.s.lock()()
	var out []*entity.Company
	for _, m := range r.s.st.members {
		if m.UserID != userID || !m.IsActive {
			continue
		}
		if c, ok := r.s.st.companies[m.CompanyID]; ok && c.IsActive() {
			out = append(out, ptr(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UserRepo usuarios; el email se compara en minúsculas.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.s.st.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lock()()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.s.lock()()
	email = strings.ToLower(email)
	for _, u := range r.s.st.users {
		if u.Email == email {
			return ptr(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	if _, ok := r.s.st.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.users[u.ID] = *u
	return nil
}

// MemberRepo membresías.
type MemberRepo struct{ s *Store }

func (r *MemberRepo) Create(_ context.Context, m *entity.Member) error {
	defer r.s.lock()()
	for _, existing := range r.s.st.members {
		if existing.CompanyID == m.CompanyID && existing.UserID == m.UserID {
			return domain.ErrDuplicate
		}
	}
	r.s.st.members[m.ID] = *m
	return nil
}

func (r *MemberRepo) GetByID(_ context.Context, companyID, id string) (*entity.Member, error) {
	defer r.s.lock()()
	m, ok := r.s.st.members[id]
	if !ok || m.CompanyID != companyID {
		return nil, nil
	}
	return &m, nil
}

func (r *MemberRepo) GetByUserAndCompany(_ context.Context, userID, companyID string) (*entity.Member, error) {
	defer r.s.lock()()
	for _, m := range r.s.st.members {
		if m.UserID == userID && m.CompanyID == companyID {
			return ptr(m), nil
		}
	}
	return nil, nil
}

func (r *MemberRepo) ListActiveByUser(_ context.Context, userID string) ([]*entity.Member, error) {
	defer r.s.lock()()
	var out []*entity.Member
	for _, m := range r.s.st.members {
		if m.UserID == userID && m.IsActive {
			out = append(out, ptr(m))
		}
	}
	out, _ = paginate(out, func(m *entity.Member) time.Time { return m.CreatedAt }, 0, 0)
	return out, nil
}

func (r *MemberRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.MemberWithUser, int, error) {
	defer r.s.lock()()
	var out []*entity.MemberWithUser
	for _, m := range r.s.st.members {
		if m.CompanyID != companyID {
			continue
		}
		mw := &entity.MemberWithUser{Member: m}
		if u, ok := r.s.st.users[m.UserID]; ok {
			mw.UserEmail, mw.UserName = u.Email, u.Name
		}
		if m.RoleID != nil {
			if role, ok := r.s.st.roles[*m.RoleID]; ok {
				mw.RoleName, mw.RoleSlug = role.Name, role.Slug
			}
		}
		out = append(out, mw)
	}
	page, total := paginate(out, func(m *entity.MemberWithUser) time.Time { return m.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *MemberRepo) Update(_ context.Context, m *entity.Member) error {
	defer r.s.lock()()
	existing, ok := r.s.st.members[m.ID]
	if !ok || existing.CompanyID != m.CompanyID {
		return domain.ErrNotFound
	}
	r.s.st.members[m.ID] = *m
	return nil
}

func (r *MemberRepo) CountByRole(_ context.Context, roleID string) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, m := range r.s.st.members {
		if m.RoleID != nil && *m.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

// PreferenceRepo empresa activa por usuario.
type PreferenceRepo struct{ s *Store }

func (r *PreferenceRepo) Get(_ context.Context, userID string) (*entity.UserPreference, error) {
	defer r.s.lock()()
	p, ok := r.s.st.prefs[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PreferenceRepo) Upsert(_ context.Context, p *entity.UserPreference) error {
	defer r.s.lock()()
	r.s.st.prefs[p.UserID] = *p
	return nil
}

// RoleRepo roles de la empresa y del sistema.
type RoleRepo struct{ s *Store }

func visibleRole(role entity.Role, companyID string) bool {
	return role.CompanyID == nil || *role.CompanyID == companyID
}

func (r *RoleRepo) Create(_ context.Context, role *entity.Role) error {
	defer r.s.lock()()
	for _, existing := range r.s.st.roles {
		if eqPtr(existing.CompanyID, role.CompanyID) && existing.Slug == role.Slug {
			return domain.ErrDuplicate
		}
	}
	r.s.st.roles[role.ID] = copyRole(*role)
	return nil
}

func (r *RoleRepo) GetByID(_ context.Context, companyID, id string) (*entity.Role, error) {
	defer r.s.lock()()
	role, ok := r.s.st.roles[id]
	if !ok || !visibleRole(role, companyID) {
		return nil, nil
	}
	return ptr(copyRole(role)), nil
}

func (r *RoleRepo) GetBySlug(_ context.Context, companyID, slug string) (*entity.Role, error) {
	defer r.s.lock()()
	for _, role := range r.s.st.roles {
		if role.Slug == slug && visibleRole(role, companyID) {
			return ptr(copyRole(role)), nil
		}
	}
	return nil, nil
}

func (r *RoleRepo) List(_ context.Context, companyID string) ([]*entity.Role, error) {
	defer r.s.lock()()
	var out []*entity.Role
	for _, role := range r.s.st.roles {
		if visibleRole(role, companyID) {
			out = append(out, ptr(copyRole(role)))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsSystem != out[j].IsSystem {
			return out[i].IsSystem
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *RoleRepo) Update(_ context.Context, role *entity.Role) error {
	defer r.s.lock()()
	existing, ok := r.s.st.roles[role.ID]
	if !ok || existing.IsSystem {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.roles {
		if id != role.ID && eqPtr(other.CompanyID, role.CompanyID) && other.Slug == role.Slug {
			return domain.ErrDuplicate
		}
	}
	role.Grants = existing.Grants
	r.s.st.roles[role.ID] = copyRole(*role)
	return nil
}

func (r *RoleRepo) ReplaceGrants(_ context.Context, roleID string, grants []entity.RoleGrant) error {
	defer r.s.lock()()
	role, ok := r.s.st.roles[roleID]
	if !ok {
		return domain.ErrNotFound
	}
	role.Grants = append([]entity.RoleGrant(nil), grants...)
	r.s.st.roles[roleID] = role
	return nil
}

func (r *RoleRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	role, ok := r.s.st.roles[id]
	if !ok || role.CompanyID == nil || *role.CompanyID != companyID {
		return domain.ErrNotFound
	}
	for _, m := range r.s.st.members {
		if m.RoleID != nil && *m.RoleID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.st.roles, id)
	return nil
}

// OverrideRepo overrides por miembro.
type OverrideRepo struct{ s *Store }

func (r *OverrideRepo) ListByMember(_ context.Context, companyID, memberID string) ([]*entity.PermissionOverride, error) {
	defer r.s.lock()()
	var out []*entity.PermissionOverride
	for _, o := range r.s.st.overrides {
		if o.CompanyID == companyID && o.MemberID == memberID {
			out = append(out, ptr(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

func (r *OverrideRepo) GetByID(_ context.Context, companyID, id string) (*entity.PermissionOverride, error) {
	defer r.s.lock()()
	o, ok := r.s.st.overrides[id]
	if !ok || o.CompanyID != companyID {
		return nil, nil
	}
	return &o, nil
}

func (r *OverrideRepo) Upsert(_ context.Context, o *entity.PermissionOverride) error {
	defer r.s.lock()()
	for id, existing := range r.s.st.overrides {
		if existing.MemberID == o.MemberID && existing.Module == o.Module && existing.Action == o.Action {
			o.ID = id
			break
		}
	}
	r.s.st.overrides[o.ID] = *o
	return nil
}

func (r *OverrideRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	o, ok := r.s.st.overrides[id]
	if !ok || o.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.overrides, id)
	return nil
}

// InvitationRepo invitaciones.
type InvitationRepo struct{ s *Store }

func (r *InvitationRepo) Create(_ context.Context, inv *entity.Invitation) error {
	defer r.s.lock()()
	for _, existing := range r.s.st.invitations {
		if existing.Token == inv.Token {
			return domain.ErrDuplicate
		}
	}
	r.s.st.invitations[inv.ID] = *inv
	return nil
}

func (r *InvitationRepo) GetByID(_ context.Context, companyID, id string) (*entity.Invitation, error) {
	defer r.s.lock()()
	inv, ok := r.s.st.invitations[id]
	if !ok || inv.CompanyID != companyID {
		return nil, nil
	}
	return &inv, nil
}

func (r *InvitationRepo) GetByToken(_ context.Context, token string) (*entity.Invitation, error) {
	defer r.s.lock()()
	for _, inv := range r.s.st.invitations {
		if inv.Token == token {
			return ptr(inv), nil
		}
	}
	return nil, nil
}

func (r *InvitationRepo) GetPendingByEmail(_ context.Context, companyID, email string) (*entity.Invitation, error) {
	defer r.s.lock()()
	for _, inv := range r.s.st.invitations {
		if inv.CompanyID == companyID && strings.EqualFold(inv.Email, email) && inv.Status == entity.InvitationPending {
			return ptr(inv), nil
		}
	}
	return nil, nil
}

func (r *InvitationRepo) List(_ context.Context, companyID, status string) ([]*entity.Invitation, error) {
	defer r.s.lock()()
	var out []*entity.Invitation
	for _, inv := range r.s.st.invitations {
		if inv.CompanyID == companyID && (status == "" || inv.Status == status) {
			out = append(out, ptr(inv))
		}
	}
	out, _ = paginate(out, func(i *entity.Invitation) time.Time { return i.CreatedAt }, 0, 0)
	return out, nil
}

func (r *InvitationRepo) Update(_ context.Context, inv *entity.Invitation) error {
	defer r.s.lock()()
	if _, ok := r.s.st.invitations[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.st.invitations[inv.ID] = *inv
	return nil
}

// AuditLogRepo bitácora; List devuelve lo más reciente primero.
type AuditLogRepo struct{ s *Store }

func (r *AuditLogRepo) Insert(_ context.Context, e *entity.AuditLog) error {
	defer r.s.lock()()
	r.s.st.audit = append(r.s.st.audit, *e)
	return nil
}

func (r *AuditLogRepo) List(_ context.Context, companyID string, f entity.AuditLogFilter, limit, offset int) ([]*entity.AuditLog, int, error) {
	defer r.s.lock()()
	var out []*entity.AuditLog
	for i := len(r.s.st.audit) - 1; i >= 0; i-- {
		e := r.s.st.audit[i]
		if e.CompanyID != companyID ||
			(f.ActorID != "" && e.ActorID != f.ActorID) ||
			(f.TargetType != "" && e.TargetType != f.TargetType) ||
			(f.Action != "" && e.Action != f.Action) {
			continue
		}
		out = append(out, ptr(e))
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}
