package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const companyID = "company-1"

type failingAudit struct{}

func (failingAudit) Insert(context.Context, *entity.AuditLog) error {
	return errors.New("bitácora caída")
}

func (failingAudit) List(context.Context, string, entity.AuditLogFilter, int, int) ([]*entity.AuditLog, int, error) {
	return nil, 0, nil
}

type world struct {
	store   *memory.Store
	roles   *usecase.RoleUseCase
	members *usecase.MemberUseCase
	tc      tenant.Context
	ownerID string
}

func newWorld(t *testing.T) *world {
	return newWorldWithAudit(t, nil)
}

func newWorldWithAudit(t *testing.T, auditRepo repository.AuditLogRepository) *world {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	log := logger.Nop()
	rev := cache.NewMemoryRevalidator()

	if auditRepo == nil {
		auditRepo = st.AuditLogs()
	}
	auditLog := audit.NewLogger(auditRepo, log)

	require.NoError(t, st.Companies().Create(ctx, &entity.Company{ID: companyID, Name: "Acme", NIT: "900", Status: entity.CompanyStatusActive}))
	require.NoError(t, st.Users().Create(ctx, &entity.User{ID: "u-owner", Email: "owner@acme.co", Status: entity.UserStatusActive}))
	require.NoError(t, st.Members().Create(ctx, &entity.Member{ID: "m-owner", CompanyID: companyID, UserID: "u-owner", IsOwner: true, IsActive: true}))
	require.NoError(t, st.Roles().Create(ctx, &entity.Role{ID: "r-admin", Name: "Administrador", Slug: "admin", IsSystem: true}))
	require.NoError(t, st.Roles().Create(ctx, &entity.Role{ID: "r-owner", Name: "Propietario", Slug: "owner", IsSystem: true}))

	return &world{
		store: st,
		roles: usecase.NewRoleUseCase(st.Roles(), st.Members(), st, auditLog, rev, log),
		members: usecase.NewMemberUseCase(usecase.MemberDeps{
			Members:     st.Members(),
			Users:       st.Users(),
			Roles:       st.Roles(),
			Invitations: st.Invitations(),
			Companies:   st.Companies(),
			Tx:          st,
			Audit:       auditLog,
			Revalidator: rev,
			Log:         log,
		}),
		tc:      tenant.Context{UserID: "u-owner", CompanyID: companyID, MemberID: "m-owner", IsOwner: true, Permissions: permission.FullAccess()},
		ownerID: "m-owner",
	}
}

func (w *world) addMember(t *testing.T, id, userID, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.store.Users().Create(ctx, &entity.User{ID: userID, Email: email, Status: entity.UserStatusActive}))
	require.NoError(t, w.store.Members().Create(ctx, &entity.Member{ID: id, CompanyID: companyID, UserID: userID, IsActive: true}))
}

func (w *world) auditActions(t *testing.T) []string {
	t.Helper()
	list, _, err := w.store.AuditLogs().List(context.Background(), companyID, entity.AuditLogFilter{}, 0, 0)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Action)
	}
	return out
}

var viewEmployees = map[string]permission.Actions{
	string(permission.ModuleEmployees): {View: true},
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateRole_DerivaSlugYAudita(t *testing.T) {
	w := newWorld(t)
	role, err := w.roles.Create(context.Background(), w.tc, dto.RoleRequest{Name: "Jefe de Área", Permissions: viewEmployees})
	require.NoError(t, err)

	assert.Equal(t, "jefe-de-area", role.Slug)
	assert.True(t, role.Permissions[string(permission.ModuleEmployees)].View)
	assert.False(t, role.Permissions[string(permission.ModuleEmployees)].Delete)
	assert.Contains(t, w.auditActions(t), audit.RoleCreated)
}

func TestCreateRole_ModuloDesconocido(t *testing.T) {
	w := newWorld(t)
	_, err := w.roles.Create(context.Background(), w.tc, dto.RoleRequest{
		Name:        "Raro",
		Permissions: map[string]permission.Actions{"nomina": {View: true}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateRole_NombreReservado(t *testing.T) {
	w := newWorld(t)
	_, err := w.roles.Create(context.Background(), w.tc, dto.RoleRequest{Name: "Admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateRole_SlugDuplicado(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	_, err := w.roles.Create(ctx, w.tc, dto.RoleRequest{Name: "Supervisor"})
	require.NoError(t, err)
	_, err = w.roles.Create(ctx, w.tc, dto.RoleRequest{Name: "supervisor"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateRole_RolDelSistema(t *testing.T) {
	w := newWorld(t)
	_, err := w.roles.Update(context.Background(), w.tc, "r-admin", dto.RoleRequest{Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrSystemRole)

	_, err = w.roles.UpdatePermissions(context.Background(), w.tc, "r-admin", dto.RolePermissionsRequest{Permissions: viewEmployees})
	assert.ErrorIs(t, err, domain.ErrSystemRole)

	assert.ErrorIs(t, w.roles.Delete(context.Background(), w.tc, "r-admin"), domain.ErrSystemRole)
}

func TestUpdatePermissions_ReemplazaYAudita(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	role, err := w.roles.Create(ctx, w.tc, dto.RoleRequest{Name: "Auxiliar", Permissions: viewEmployees})
	require.NoError(t, err)

	updated, err := w.roles.UpdatePermissions(ctx, w.tc, role.ID, dto.RolePermissionsRequest{
		Permissions: map[string]permission.Actions{string(permission.ModuleClients): {View: true, Create: true}},
	})
	require.NoError(t, err)

	assert.False(t, updated.Permissions[string(permission.ModuleEmployees)].View)
	assert.True(t, updated.Permissions[string(permission.ModuleClients)].Create)
	assert.Contains(t, w.auditActions(t), audit.RolePermissionsUpdated)
}

func TestUpdateRole_BitacoraCaida_NoFallaLaOperacion(t *testing.T) {
	w := newWorldWithAudit(t, failingAudit{})
	ctx := context.Background()
	role, err := w.roles.Create(ctx, w.tc, dto.RoleRequest{Name: "Auxiliar"})
	require.NoError(t, err)

	updated, err := w.roles.Update(ctx, w.tc, role.ID, dto.RoleRequest{Name: "Auxiliar Senior", Description: "nivel 2"})
	require.NoError(t, err)
	assert.Equal(t, "auxiliar-senior", updated.Slug)

	stored, err := w.store.Roles().GetByID(ctx, companyID, role.ID)
	require.NoError(t, err)
	assert.Equal(t, "Auxiliar Senior", stored.Name)
}

func TestDeleteRole_EnUso_Conflicto(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	role, err := w.roles.Create(ctx, w.tc, dto.RoleRequest{Name: "Auxiliar"})
	require.NoError(t, err)
	w.addMember(t, "m-1", "u-1", "uno@acme.co")
	require.NoError(t, w.members.ChangeRole(ctx, w.tc, "m-1", &role.ID))

	assert.ErrorIs(t, w.roles.Delete(ctx, w.tc, role.ID), domain.ErrConflict)

	require.NoError(t, w.members.ChangeRole(ctx, w.tc, "m-1", nil))
	require.NoError(t, w.roles.Delete(ctx, w.tc, role.ID))
	assert.Contains(t, w.auditActions(t), audit.RoleDeleted)
}

func TestListRoles_IncluyeSistemaConAccesoTotal(t *testing.T) {
	w := newWorld(t)
	list, err := w.roles.List(context.Background(), w.tc)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.True(t, list[0].IsSystem)
	assert.True(t, list[0].Permissions[string(permission.ModuleAudit)].Delete)
}

// ──────────────────────────────────────────────────────────────────────────────
// Miembros
// ──────────────────────────────────────────────────────────────────────────────

func TestDeactivate_Propietario_Conflicto(t *testing.T) {
	w := newWorld(t)
	assert.ErrorIs(t, w.members.Deactivate(context.Background(), w.tc, w.ownerID), domain.ErrConflict)
}

func TestChangeRole_Propietario_Conflicto(t *testing.T) {
	w := newWorld(t)
	assert.ErrorIs(t, w.members.ChangeRole(context.Background(), w.tc, w.ownerID, nil), domain.ErrConflict)
}

func TestChangeRole_RolOwnerNoAsignable(t *testing.T) {
	w := newWorld(t)
	w.addMember(t, "m-1", "u-1", "uno@acme.co")
	err := w.members.ChangeRole(context.Background(), w.tc, "m-1", ptr("r-owner"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeactivateReactivate_Audita(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.addMember(t, "m-1", "u-1", "uno@acme.co")

	require.NoError(t, w.members.Deactivate(ctx, w.tc, "m-1"))
	m, err := w.store.Members().GetByID(ctx, companyID, "m-1")
	require.NoError(t, err)
	assert.False(t, m.IsActive)

	require.NoError(t, w.members.Reactivate(ctx, w.tc, "m-1"))
	actions := w.auditActions(t)
	assert.Contains(t, actions, audit.MemberDeactivated)
	assert.Contains(t, actions, audit.MemberReactivated)
}

func TestListMembers_ConDatosDeUsuario(t *testing.T) {
	w := newWorld(t)
	w.addMember(t, "m-1", "u-1", "uno@acme.co")
	out, err := w.members.List(context.Background(), w.tc, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page.Total)
	emails := []string{out.Items[0].Email, out.Items[1].Email}
	assert.ElementsMatch(t, []string{"owner@acme.co", "uno@acme.co"}, emails)
}

// ──────────────────────────────────────────────────────────────────────────────
// Invitaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestInvitation_FlujoCompleto(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	require.NoError(t, w.store.Users().Create(ctx, &entity.User{ID: "u-new", Email: "nuevo@acme.co", Status: entity.UserStatusActive}))

	inv, err := w.members.Invite(ctx, w.tc, dto.CreateInvitationRequest{Email: "Nuevo@Acme.co", RoleID: ptr("r-admin")})
	require.NoError(t, err)
	require.NotEmpty(t, inv.Token)
	assert.Equal(t, "nuevo@acme.co", inv.Email)
	assert.WithinDuration(t, inv.CreatedAt.Add(usecase.InvitationTTL), inv.ExpiresAt, 0)

	_, err = w.members.Invite(ctx, w.tc, dto.CreateInvitationRequest{Email: "nuevo@acme.co"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	company, err := w.members.AcceptInvitation(ctx, "u-new", inv.Token)
	require.NoError(t, err)
	assert.Equal(t, companyID, company.ID)

	m, err := w.store.Members().GetByUserAndCompany(ctx, "u-new", companyID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.IsActive)
	assert.Equal(t, "r-admin", *m.RoleID)

	pref, err := w.store.Preferences().Get(ctx, "u-new")
	require.NoError(t, err)
	assert.Equal(t, companyID, pref.ActiveCompanyID)

	_, err = w.members.AcceptInvitation(ctx, "u-new", inv.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	actions := w.auditActions(t)
	assert.Contains(t, actions, audit.InvitationSent)
	assert.Contains(t, actions, audit.InvitationAccepted)
}

func TestAcceptInvitation_OtroEmail_Prohibido(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	require.NoError(t, w.store.Users().Create(ctx, &entity.User{ID: "u-x", Email: "intruso@otro.co", Status: entity.UserStatusActive}))
	inv, err := w.members.Invite(ctx, w.tc, dto.CreateInvitationRequest{Email: "nuevo@acme.co"})
	require.NoError(t, err)

	_, err = w.members.AcceptInvitation(ctx, "u-x", inv.Token)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	m, err := w.store.Members().GetByUserAndCompany(ctx, "u-x", companyID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestInvite_MiembroActivo_Conflicto(t *testing.T) {
	w := newWorld(t)
	w.addMember(t, "m-1", "u-1", "uno@acme.co")
	_, err := w.members.Invite(context.Background(), w.tc, dto.CreateInvitationRequest{Email: "uno@acme.co"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancelInvitation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	inv, err := w.members.Invite(ctx, w.tc, dto.CreateInvitationRequest{Email: "nuevo@acme.co"})
	require.NoError(t, err)

	require.NoError(t, w.members.CancelInvitation(ctx, w.tc, inv.ID))
	assert.ErrorIs(t, w.members.CancelInvitation(ctx, w.tc, inv.ID), domain.ErrInvalidTransition)

	pending, err := w.members.ListInvitations(ctx, w.tc, entity.InvitationPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	for _, i := range mustList(t, w) {
		assert.Empty(t, i.Token)
	}
}

func mustList(t *testing.T, w *world) []dto.InvitationResponse {
	t.Helper()
	list, err := w.members.ListInvitations(context.Background(), w.tc, "")
	require.NoError(t, err)
	return list
}

func ptr(s string) *string { return &s }
