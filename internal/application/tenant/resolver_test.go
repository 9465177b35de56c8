package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const userID = "user-1"

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	resolver *tenant.Resolver
}

func newFixture() *fixture {
	st := memory.New()
	return &fixture{
		store:    st,
		resolver: tenant.NewResolver(st.Companies(), st.Members(), st.Preferences(), logger.Nop()),
	}
}

func (f *fixture) company(t *testing.T, id, status string) {
	t.Helper()
	require.NoError(t, f.store.Companies().Create(context.Background(), &entity.Company{ID: id, Name: id, NIT: id, Status: status}))
}

func (f *fixture) member(t *testing.T, id, companyID string, active bool, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.store.Members().Create(context.Background(), &entity.Member{
		ID: id, CompanyID: companyID, UserID: userID, IsActive: active, CreatedAt: createdAt,
	}))
}

func (f *fixture) prefer(t *testing.T, companyID string) {
	t.Helper()
	require.NoError(t, f.store.Preferences().Upsert(context.Background(), &entity.UserPreference{UserID: userID, ActiveCompanyID: companyID}))
}

func (f *fixture) preference(t *testing.T) *entity.UserPreference {
	t.Helper()
	p, err := f.store.Preferences().Get(context.Background(), userID)
	require.NoError(t, err)
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolve
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_PreferenciaValidaNoEscribe(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusActive)
	f.company(t, "c2", entity.CompanyStatusActive)
	f.member(t, "m1", "c1", true, base)
	f.member(t, "m2", "c2", true, base.Add(time.Hour))
	f.prefer(t, "c2")
	before := f.preference(t)

	company, member, err := f.resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "c2", company.ID)
	assert.Equal(t, "m2", member.ID)
	assert.Equal(t, before.UpdatedAt, f.preference(t).UpdatedAt, "una preferencia válida no se reescribe")
}

func TestResolve_PreferenciaConMembresiaInactivaCaeALaMasAntigua(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusActive)
	f.company(t, "c2", entity.CompanyStatusActive)
	f.company(t, "c3", entity.CompanyStatusActive)
	f.member(t, "m3", "c3", true, base.Add(2*time.Hour))
	f.member(t, "m1", "c1", true, base)
	f.member(t, "m2", "c2", false, base.Add(time.Hour))
	f.prefer(t, "c2")

	company, member, err := f.resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "c1", company.ID)
	assert.Equal(t, "m1", member.ID)
	assert.Equal(t, "c1", f.preference(t).ActiveCompanyID, "la nueva elección se persiste")
}

func TestResolve_SaltaEmpresasInactivas(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusInactive)
	f.company(t, "c2", entity.CompanyStatusActive)
	f.member(t, "m1", "c1", true, base)
	f.member(t, "m2", "c2", true, base.Add(time.Hour))

	company, _, err := f.resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "c2", company.ID)
	assert.Equal(t, "c2", f.preference(t).ActiveCompanyID)
}

func TestResolve_SinEmpresaActiva(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusInactive)
	f.member(t, "m1", "c1", true, base)

	_, _, err := f.resolver.Resolve(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrNoActiveTenant)
	assert.Nil(t, f.preference(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Switch / ListAccessible
// ──────────────────────────────────────────────────────────────────────────────

func TestSwitch_RequiereMembresiaActiva(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusActive)
	f.company(t, "c2", entity.CompanyStatusActive)
	f.member(t, "m1", "c1", true, base)
	f.member(t, "m2", "c2", false, base)

	_, _, err := f.resolver.Switch(context.Background(), userID, "c2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	company, _, err := f.resolver.Switch(context.Background(), userID, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", company.ID)
	assert.Equal(t, "c1", f.preference(t).ActiveCompanyID)
}

func TestListAccessible_SoloActivas(t *testing.T) {
	f := newFixture()
	f.company(t, "c1", entity.CompanyStatusActive)
	f.company(t, "c2", entity.CompanyStatusInactive)
	f.company(t, "c3", entity.CompanyStatusActive)
	f.member(t, "m1", "c1", true, base)
	f.member(t, "m2", "c2", true, base)
	f.member(t, "m3", "c3", false, base)

	list, err := f.resolver.ListAccessible(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}
