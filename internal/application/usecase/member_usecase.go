package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
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
)

// InvitationTTL vigencia de una invitación.
const InvitationTTL = 7 * 24 * time.Hour

// MembershipTxRunner ejecuta fn con los repos de empresa y membresía en una transacción.
type MembershipTxRunner interface {
	RunMembership(ctx context.Context, fn func(
		companyRepo repository.CompanyRepository,
		memberRepo repository.MemberRepository,
		prefRepo repository.PreferenceRepository,
		invitationRepo repository.InvitationRepository,
	) error) error
}

var tagInvitations = string(permission.ModuleInvitations)

// MemberUseCase administra miembros e invitaciones de la empresa activa.
type MemberUseCase struct {
	members     repository.MemberRepository
	users       repository.UserRepository
	roles       repository.RoleRepository
	invitations repository.InvitationRepository
	companies   repository.CompanyRepository
	tx          MembershipTxRunner
	audit       *audit.Logger
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// MemberDeps dependencias de MemberUseCase.
type MemberDeps struct {
	Members     repository.MemberRepository
	Users       repository.UserRepository
	Roles       repository.RoleRepository
	Invitations repository.InvitationRepository
	Companies   repository.CompanyRepository
	Tx          MembershipTxRunner
	Audit       *audit.Logger
	Revalidator ports.Revalidator
	Log         *logger.Logger
}

// NewMemberUseCase construye el caso de uso.
func NewMemberUseCase(d MemberDeps) *MemberUseCase {
	return &MemberUseCase{
		members:     d.Members,
		users:       d.Users,
		roles:       d.Roles,
		invitations: d.Invitations,
		companies:   d.Companies,
		tx:          d.Tx,
		audit:       d.Audit,
		revalidator: d.Revalidator,
		log:         d.Log.Component("members"),
		now:         time.Now,
	}
}

// List miembros de la empresa con datos de usuario y rol.
func (uc *MemberUseCase) List(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.MemberResponse], error) {
	page.DefaultPage()
	list, total, err := uc.members.ListByCompany(ctx, tc.CompanyID, page.Limit, page.Offset)
	if err != nil {
		return nil, persistErr(uc.log, "members.ListByCompany", tc.CompanyID, err)
	}
	items := make([]dto.MemberResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMemberResponse(m))
	}
	return &dto.ListResponse[dto.MemberResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// ChangeRole asigna un rol al miembro (nil lo deja sin rol). El propietario no se re-asigna.
func (uc *MemberUseCase) ChangeRole(ctx context.Context, tc tenant.Context, memberID string, roleID *string) error {
	m, err := uc.member(ctx, tc.CompanyID, memberID)
	if err != nil {
		return err
	}
	if m.IsOwner {
		return fmt.Errorf("%w: el rol del propietario no se puede cambiar", domain.ErrConflict)
	}
	var roleName *string
	if roleID != nil {
		role, err := uc.assignableRole(ctx, tc.CompanyID, *roleID)
		if err != nil {
			return err
		}
		roleName = &role.Name
	}
	old := m.RoleID
	m.RoleID = roleID
	m.UpdatedAt = uc.now()
	if err := uc.members.Update(ctx, m); err != nil {
		return persistErr(uc.log, "members.Update", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.MemberRoleChanged,
		TargetType: audit.TargetMember,
		TargetID:   m.ID,
		TargetName: roleName,
		OldValue:   map[string]any{"roleId": old},
		NewValue:   map[string]any{"roleId": roleID},
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagUsers)
	return nil
}

// Deactivate desactiva la membresía. No aplica al propietario ni a uno mismo.
func (uc *MemberUseCase) Deactivate(ctx context.Context, tc tenant.Context, memberID string) error {
	return uc.setActive(ctx, tc, memberID, false)
}

// Reactivate reactiva una membresía desactivada.
func (uc *MemberUseCase) Reactivate(ctx context.Context, tc tenant.Context, memberID string) error {
	return uc.setActive(ctx, tc, memberID, true)
}

func (uc *MemberUseCase) setActive(ctx context.Context, tc tenant.Context, memberID string, active bool) error {
	m, err := uc.member(ctx, tc.CompanyID, memberID)
	if err != nil {
		return err
	}
	if !active {
		if m.IsOwner {
			return fmt.Errorf("%w: el propietario no se puede desactivar", domain.ErrConflict)
		}
		if m.UserID == tc.UserID {
			return fmt.Errorf("%w: no puede desactivarse a sí mismo", domain.ErrConflict)
		}
	}
	if m.IsActive == active {
		return nil
	}
	m.IsActive = active
	m.UpdatedAt = uc.now()
	if err := uc.members.Update(ctx, m); err != nil {
		return persistErr(uc.log, "members.Update", tc.CompanyID, err)
	}

	action := audit.MemberDeactivated
	if active {
		action = audit.MemberReactivated
	}
	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     action,
		TargetType: audit.TargetMember,
		TargetID:   m.ID,
		OldValue:   map[string]any{"isActive": !active},
		NewValue:   map[string]any{"isActive": active},
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagUsers)
	return nil
}

// ── Invitaciones ──────────────────────────────────────────────────────────────

// ListInvitations invitaciones de la empresa, opcionalmente por estado.
func (uc *MemberUseCase) ListInvitations(ctx context.Context, tc tenant.Context, status string) ([]dto.InvitationResponse, error) {
	list, err := uc.invitations.List(ctx, tc.CompanyID, strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, persistErr(uc.log, "invitations.List", tc.CompanyID, err)
	}
	out := make([]dto.InvitationResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvitationResponse(inv, false))
	}
	return out, nil
}

// Invite crea una invitación pendiente con vigencia de 7 días. El token solo viaja en esta respuesta.
func (uc *MemberUseCase) Invite(ctx context.Context, tc tenant.Context, in dto.CreateInvitationRequest) (*dto.InvitationResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := required("email", email); err != nil {
		return nil, err
	}
	if err := validEmail(email); err != nil {
		return nil, err
	}
	if in.RoleID != nil {
		if _, err := uc.assignableRole(ctx, tc.CompanyID, *in.RoleID); err != nil {
			return nil, err
		}
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, persistErr(uc.log, "users.GetByEmail", tc.CompanyID, err)
	}
	if user != nil {
		m, err := uc.members.GetByUserAndCompany(ctx, user.ID, tc.CompanyID)
		if err != nil {
			return nil, persistErr(uc.log, "members.GetByUserAndCompany", tc.CompanyID, err)
		}
		if m != nil && m.IsActive {
			return nil, fmt.Errorf("%w: %s ya es miembro de la empresa", domain.ErrConflict, email)
		}
	}
	pending, err := uc.invitations.GetPendingByEmail(ctx, tc.CompanyID, email)
	if err != nil {
		return nil, persistErr(uc.log, "invitations.GetPendingByEmail", tc.CompanyID, err)
	}
	if pending != nil && !pending.IsExpired(uc.now()) {
		return nil, fmt.Errorf("%w: ya hay una invitación pendiente para %s", domain.ErrDuplicate, email)
	}

	token, err := newToken()
	if err != nil {
		return nil, persistErr(uc.log, "invitations.token", tc.CompanyID, err)
	}
	now := uc.now()
	inv := &entity.Invitation{
		ID:        uuid.New().String(),
		CompanyID: tc.CompanyID,
		Email:     email,
		RoleID:    in.RoleID,
		Token:     token,
		Status:    entity.InvitationPending,
		InvitedBy: tc.UserID,
		ExpiresAt: now.Add(InvitationTTL),
		CreatedAt: now,
	}
	if err := uc.invitations.Create(ctx, inv); err != nil {
		return nil, persistErr(uc.log, "invitations.Create", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.InvitationSent,
		TargetType: audit.TargetInvitation,
		TargetID:   inv.ID,
		TargetName: &inv.Email,
		NewValue:   map[string]any{"email": inv.Email, "roleId": inv.RoleID, "expiresAt": inv.ExpiresAt},
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagInvitations)
	out := toInvitationResponse(inv, true)
	return &out, nil
}

// CancelInvitation cancela una invitación pendiente.
func (uc *MemberUseCase) CancelInvitation(ctx context.Context, tc tenant.Context, id string) error {
	inv, err := uc.invitations.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return persistErr(uc.log, "invitations.GetByID", tc.CompanyID, err)
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if inv.Status != entity.InvitationPending {
		return fmt.Errorf("%w: la invitación está %s", domain.ErrInvalidTransition, inv.Status)
	}
	inv.Status = entity.InvitationCancelled
	if err := uc.invitations.Update(ctx, inv); err != nil {
		return persistErr(uc.log, "invitations.Update", tc.CompanyID, err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.InvitationCancelled,
		TargetType: audit.TargetInvitation,
		TargetID:   inv.ID,
		TargetName: &inv.Email,
	})
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagInvitations)
	return nil
}

// AcceptInvitation incorpora al usuario autenticado a la empresa de la invitación y la deja como activa.
// El email del usuario debe coincidir con el invitado.
func (uc *MemberUseCase) AcceptInvitation(ctx context.Context, userID, token string) (*dto.CompanyResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token requerido", domain.ErrInvalidInput)
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, persistErr(uc.log, "users.GetByID", "", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	now := uc.now()
	var (
		inv     *entity.Invitation
		company *entity.Company
		member  *entity.Member
	)
	err = uc.tx.RunMembership(ctx, func(companyRepo repository.CompanyRepository, memberRepo repository.MemberRepository, prefRepo repository.PreferenceRepository, invitationRepo repository.InvitationRepository) error {
		i, err := invitationRepo.GetByToken(ctx, token)
		if err != nil {
			return err
		}
		if i == nil {
			return domain.ErrNotFound
		}
		if i.Status != entity.InvitationPending {
			return fmt.Errorf("%w: la invitación está %s", domain.ErrInvalidTransition, i.Status)
		}
		if i.IsExpired(now) {
			return fmt.Errorf("%w: la invitación venció", domain.ErrInvalidTransition)
		}
		if !strings.EqualFold(i.Email, user.Email) {
			return fmt.Errorf("%w: la invitación es para otro email", domain.ErrForbidden)
		}
		c, err := companyRepo.GetByID(ctx, i.CompanyID)
		if err != nil {
			return err
		}
		if !c.IsActive() {
			return fmt.Errorf("%w: la empresa no está activa", domain.ErrConflict)
		}

		m, err := memberRepo.GetByUserAndCompany(ctx, user.ID, i.CompanyID)
		if err != nil {
			return err
		}
		switch {
		case m == nil:
			m = &entity.Member{
				ID:        uuid.New().String(),
				CompanyID: i.CompanyID,
				UserID:    user.ID,
				RoleID:    i.RoleID,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := memberRepo.Create(ctx, m); err != nil {
				return err
			}
		case m.IsActive:
			return fmt.Errorf("%w: ya es miembro de la empresa", domain.ErrConflict)
		default:
			m.IsActive = true
			if !m.IsOwner {
				m.RoleID = i.RoleID
			}
			m.UpdatedAt = now
			if err := memberRepo.Update(ctx, m); err != nil {
				return err
			}
		}

		i.Status = entity.InvitationAccepted
		i.AcceptedAt = &now
		if err := invitationRepo.Update(ctx, i); err != nil {
			return err
		}
		if err := prefRepo.Upsert(ctx, &entity.UserPreference{UserID: user.ID, ActiveCompanyID: i.CompanyID, UpdatedAt: now}); err != nil {
			return err
		}
		inv, company, member = i, c, m
		return nil
	})
	if err != nil {
		return nil, persistErr(uc.log, "invitations.Accept", "", err)
	}

	uc.audit.Log(ctx, audit.Entry{
		CompanyID:  inv.CompanyID,
		ActorID:    user.ID,
		Action:     audit.InvitationAccepted,
		TargetType: audit.TargetInvitation,
		TargetID:   inv.ID,
		TargetName: &inv.Email,
		NewValue:   map[string]any{"memberId": member.ID, "roleId": member.RoleID},
	})
	uc.revalidator.Revalidate(ctx, inv.CompanyID, tagInvitations, tagUsers)
	return toCompanyResponse(company), nil
}

func (uc *MemberUseCase) member(ctx context.Context, companyID, id string) (*entity.Member, error) {
	m, err := uc.members.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "members.GetByID", companyID, err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// assignableRole rol visible para la empresa. El rol owner no se asigna: la propiedad es una bandera del miembro.
func (uc *MemberUseCase) assignableRole(ctx context.Context, companyID, roleID string) (*entity.Role, error) {
	role, err := uc.roles.GetByID(ctx, companyID, roleID)
	if err != nil {
		return nil, persistErr(uc.log, "roles.GetByID", companyID, err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: rol no encontrado", domain.ErrInvalidInput)
	}
	if role.Slug == "owner" {
		return nil, fmt.Errorf("%w: el rol owner no se asigna", domain.ErrInvalidInput)
	}
	return role, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func toMemberResponse(m *entity.MemberWithUser) dto.MemberResponse {
	return dto.MemberResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Email:     m.UserEmail,
		Name:      m.UserName,
		RoleID:    m.RoleID,
		RoleName:  m.RoleName,
		RoleSlug:  m.RoleSlug,
		IsOwner:   m.IsOwner,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func toInvitationResponse(inv *entity.Invitation, withToken bool) dto.InvitationResponse {
	out := dto.InvitationResponse{
		ID:         inv.ID,
		Email:      inv.Email,
		RoleID:     inv.RoleID,
		Status:     inv.Status,
		InvitedBy:  inv.InvitedBy,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
	}
	if withToken {
		out.Token = inv.Token
	}
	return out
}
