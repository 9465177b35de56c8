package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/auth"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gestion-api/pkg/jwt"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

const secret = "test-secret"

func newAuth(st *memory.Store) *auth.AuthUseCase {
	log := logger.Nop()
	resolver := tenant.NewResolver(st.Companies(), st.Members(), st.Preferences(), log)
	accessSvc := access.NewService(st.Members(), st.Roles(), st.Overrides(), audit.NewLogger(st.AuditLogs(), log), cache.NewMemoryRevalidator(), log)
	return auth.NewAuthUseCase(st.Users(), resolver, accessSvc, auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "gestion-api"}, log)
}

func seedCompany(t *testing.T, st *memory.Store, id string, created time.Time) {
	t.Helper()
	require.NoError(t, st.Companies().Create(context.Background(), &entity.Company{
		ID: id, Name: "Empresa " + id, NIT: id, Status: entity.CompanyStatusActive, CreatedAt: created,
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro y login
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterUser_TokenConUserID(t *testing.T) {
	uc := newAuth(memory.New())
	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: " Ana@Acme.CO ", Password: "secreto123", Name: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, "ana@acme.co", out.User.Email)
	userID, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
}

func TestRegisterUser_EmailExistente(t *testing.T) {
	uc := newAuth(memory.New())
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ANA@acme.co", Password: "otro12345"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterUser_PasswordCorta(t *testing.T) {
	uc := newAuth(memory.New())
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "ana@acme.co", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	st := memory.New()
	uc := newAuth(st)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, out.User.ID)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.co", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@acme.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	u, err := st.Users().GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	u.Status = entity.UserStatusInactive
	require.NoError(t, st.Users().Update(ctx, u))
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@acme.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestMe_SinEmpresa(t *testing.T) {
	uc := newAuth(memory.New())
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)

	me, err := uc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Nil(t, me.Company)
	assert.False(t, me.Permissions[string(permission.ModuleEmployees)].View)
}

func TestMe_PropietarioTieneAccesoTotal(t *testing.T) {
	st := memory.New()
	uc := newAuth(st)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)
	seedCompany(t, st, "c-1", time.Now())
	require.NoError(t, st.Members().Create(ctx, &entity.Member{ID: "m-1", CompanyID: "c-1", UserID: reg.User.ID, IsOwner: true, IsActive: true}))

	me, err := uc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Company)
	assert.Equal(t, "c-1", me.Company.ID)
	assert.True(t, me.IsOwner)
	assert.True(t, me.Permissions[string(permission.ModuleRoles)].Delete)
}

func TestMe_RolConOverride(t *testing.T) {
	st := memory.New()
	uc := newAuth(st)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)
	seedCompany(t, st, "c-1", time.Now())
	company := "c-1"
	require.NoError(t, st.Roles().Create(ctx, &entity.Role{
		ID: "r-1", CompanyID: &company, Name: "Auxiliar", Slug: "auxiliar",
		Grants: []entity.RoleGrant{
			{Module: string(permission.ModuleEmployees), Action: string(permission.View)},
			{Module: string(permission.ModuleEmployees), Action: string(permission.Update)},
		},
	}))
	require.NoError(t, st.Members().Create(ctx, &entity.Member{ID: "m-1", CompanyID: "c-1", UserID: reg.User.ID, RoleID: ptr("r-1"), IsActive: true}))
	require.NoError(t, st.Overrides().Upsert(ctx, &entity.PermissionOverride{
		ID: "o-1", CompanyID: "c-1", MemberID: "m-1",
		Module: string(permission.ModuleEmployees), Action: string(permission.Update), IsGranted: false,
	}))

	me, err := uc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	emp := me.Permissions[string(permission.ModuleEmployees)]
	assert.True(t, emp.View)
	assert.False(t, emp.Update)
	assert.False(t, me.IsOwner)
}

func TestSwitchCompany(t *testing.T) {
	st := memory.New()
	uc := newAuth(st)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@acme.co", Password: "secreto123"})
	require.NoError(t, err)
	seedCompany(t, st, "c-1", time.Now().Add(-time.Hour))
	seedCompany(t, st, "c-2", time.Now())
	seedCompany(t, st, "c-ajena", time.Now())
	require.NoError(t, st.Members().Create(ctx, &entity.Member{ID: "m-1", CompanyID: "c-1", UserID: reg.User.ID, IsOwner: true, IsActive: true, CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, st.Members().Create(ctx, &entity.Member{ID: "m-2", CompanyID: "c-2", UserID: reg.User.ID, IsActive: true, CreatedAt: time.Now()}))

	me, err := uc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "c-1", me.Company.ID)

	switched, err := uc.SwitchCompany(ctx, reg.User.ID, "c-2")
	require.NoError(t, err)
	assert.Equal(t, "c-2", switched.Company.ID)
	assert.Equal(t, "m-2", switched.MemberID)
	assert.False(t, switched.Permissions[string(permission.ModuleEmployees)].View)

	me, err = uc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "c-2", me.Company.ID)

	_, err = uc.SwitchCompany(ctx, reg.User.ID, "c-ajena")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func ptr(s string) *string { return &s }
