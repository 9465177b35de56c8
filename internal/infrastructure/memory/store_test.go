package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Unicidad (mismas restricciones que migrations/001_init.sql)
// ──────────────────────────────────────────────────────────────────────────────

func TestClientes_NITVacioNoEsUnico(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c1", CompanyID: "e1", Name: "A"}))
	require.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c2", CompanyID: "e1", Name: "B"}))
}

func TestClientes_NITRepetidoEnLaMismaEmpresa_Duplicado(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c1", CompanyID: "e1", Name: "A", TaxID: "900"}))

	err := st.Clients().Create(ctx, &entity.Client{ID: "c2", CompanyID: "e1", Name: "B", TaxID: "900"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c3", CompanyID: "e2", Name: "C", TaxID: "900"}))
}

func TestClientes_ActualizarANITAjeno_Duplicado(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c1", CompanyID: "e1", Name: "A", TaxID: "900"}))
	require.NoError(t, st.Clients().Create(ctx, &entity.Client{ID: "c2", CompanyID: "e1", Name: "B"}))

	err := st.Clients().Update(ctx, &entity.Client{ID: "c2", CompanyID: "e1", Name: "B", TaxID: "900"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestEmpresas_NITUnicoGlobal(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Companies().Create(ctx, &entity.Company{ID: "e1", Name: "A", NIT: "900123"}))

	err := st.Companies().Create(ctx, &entity.Company{ID: "e2", Name: "B", NIT: "900123"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestInvitaciones_TokenUnico(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Invitations().Create(ctx, &entity.Invitation{ID: "i1", CompanyID: "e1", Email: "a@x.co", Token: "tok"}))

	err := st.Invitations().Create(ctx, &entity.Invitation{ID: "i2", CompanyID: "e1", Email: "b@x.co", Token: "tok"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestEmpleados_DocumentoUnicoPorEmpresa(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Employees().Create(ctx, &entity.Employee{ID: "p1", CompanyID: "e1", DocumentNumber: "1010"}))

	err := st.Employees().Create(ctx, &entity.Employee{ID: "p2", CompanyID: "e1", DocumentNumber: "1010"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, st.Employees().Create(ctx, &entity.Employee{ID: "p3", CompanyID: "e2", DocumentNumber: "1010"}))
}
