package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

func ownerContext() tenant.Context {
	return tenant.Context{UserID: "u-owner", CompanyID: companyID, MemberID: "m-owner", IsOwner: true, Permissions: permission.FullAccess()}
}

// ──────────────────────────────────────────────────────────────────────────────
// Empresas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateCompany_CreadorQuedaPropietario(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uc := usecase.NewCompanyUseCase(st.Companies(), st, cache.NewMemoryRevalidator(), logger.Nop())

	out, err := uc.Create(ctx, "u-1", dto.CreateCompanyRequest{Name: "Transportes Andinos", NIT: "900.123.456-7"})
	require.NoError(t, err)
	assert.Equal(t, "900123456-7", out.NIT)

	m, err := st.Members().GetByUserAndCompany(ctx, "u-1", out.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.IsOwner)
	assert.True(t, m.IsActive)

	pref, err := st.Preferences().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, out.ID, pref.ActiveCompanyID)

	list, err := uc.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateCompany_NITDuplicado(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	uc := usecase.NewCompanyUseCase(st.Companies(), st, cache.NewMemoryRevalidator(), logger.Nop())

	_, err := uc.Create(ctx, "u-1", dto.CreateCompanyRequest{Name: "A", NIT: "900123456"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, "u-2", dto.CreateCompanyRequest{Name: "B", NIT: "900.123.456"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	m, err := st.Members().ListActiveByUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestCreateCompany_SinNombre(t *testing.T) {
	st := memory.New()
	uc := usecase.NewCompanyUseCase(st.Companies(), st, cache.NewMemoryRevalidator(), logger.Nop())
	_, err := uc.Create(context.Background(), "u-1", dto.CreateCompanyRequest{NIT: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Empleados
// ──────────────────────────────────────────────────────────────────────────────

func newEmployees(st *memory.Store) (*usecase.EmployeeUseCase, *cache.MemoryRevalidator) {
	rev := cache.NewMemoryRevalidator()
	return usecase.NewEmployeeUseCase(st.Employees(), st.JobPositions(), rev, logger.Nop()), rev
}

func TestCreateEmployee_DocumentoDuplicado(t *testing.T) {
	uc, _ := newEmployees(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	_, err := uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "Ana", DocumentNumber: "1010"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "Luis", DocumentNumber: " 1010 "})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateEmployee_ValoresPorDefectoYValidacion(t *testing.T) {
	uc, _ := newEmployees(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	e, err := uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "Ana", LastName: "Gómez", DocumentNumber: "1", Gender: "female"})
	require.NoError(t, err)
	assert.Equal(t, entity.EmployeeStatusActive, e.Status)
	assert.Equal(t, entity.GenderFemale, e.Gender)
	assert.Equal(t, "Ana Gómez", e.FullName)

	_, err = uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "X", DocumentNumber: "2", CostType: "OTRO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "X", DocumentNumber: "3", JobPositionID: ptr("no-existe")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateEmployee_RevalidaDocumentos(t *testing.T) {
	uc, rev := newEmployees(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	e, err := uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "Ana", DocumentNumber: "1"})
	require.NoError(t, err)
	tag := string(permission.ModuleEmployeeDocuments)
	before, err := rev.Version(ctx, companyID, tag)
	require.NoError(t, err)

	_, err = uc.Update(ctx, tc, e.ID, dto.EmployeeRequest{FirstName: "Ana", DocumentNumber: "1", Gender: entity.GenderFemale})
	require.NoError(t, err)
	after, err := rev.Version(ctx, companyID, tag)
	require.NoError(t, err)
	assert.Greater(t, after, before)
}

func TestDeletePosition_EnUso_Conflicto(t *testing.T) {
	uc, _ := newEmployees(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	p, err := uc.CreatePosition(ctx, tc, dto.JobPositionRequest{Name: "Conductor"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, tc, dto.EmployeeRequest{FirstName: "Ana", DocumentNumber: "1", JobPositionID: &p.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeletePosition(ctx, tc, p.ID), domain.ErrConflict)
}

func TestGetEmployee_OtraEmpresa_NoEncontrado(t *testing.T) {
	uc, _ := newEmployees(memory.New())
	ctx := context.Background()
	e, err := uc.Create(ctx, ownerContext(), dto.EmployeeRequest{FirstName: "Ana", DocumentNumber: "1"})
	require.NoError(t, err)

	other := tenant.Context{UserID: "u-2", CompanyID: "company-2"}
	_, err = uc.GetByID(ctx, other, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Equipos y contratistas
// ──────────────────────────────────────────────────────────────────────────────

func newEquipment(st *memory.Store) *usecase.EquipmentUseCase {
	return usecase.NewEquipmentUseCase(st.Equipment(), st.Contractors(), st, cache.NewMemoryRevalidator(), logger.Nop())
}

func TestEquipment_ReemplazaContratistas(t *testing.T) {
	st := memory.New()
	uc := newEquipment(st)
	ctx := context.Background()
	tc := ownerContext()

	c1, err := uc.CreateContractor(ctx, tc, dto.ContractorRequest{Name: "Montajes SAS"})
	require.NoError(t, err)
	c2, err := uc.CreateContractor(ctx, tc, dto.ContractorRequest{Name: "Grúas Ltda"})
	require.NoError(t, err)

	eq, err := uc.Create(ctx, tc, dto.EquipmentRequest{
		InternalCode:    "EQ-01",
		Plate:           "abc123",
		AcquisitionCost: decimal.RequireFromString("150000000.50"),
		ContractorIDs:   &[]string{c1.ID, c1.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", eq.Plate)
	assert.Equal(t, []string{c1.ID}, eq.ContractorIDs)

	updated, err := uc.Update(ctx, tc, eq.ID, dto.EquipmentRequest{InternalCode: "EQ-01", ContractorIDs: &[]string{c2.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID}, updated.ContractorIDs)

	got, err := uc.GetByID(ctx, tc, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID}, got.ContractorIDs)

	assert.ErrorIs(t, uc.DeleteContractor(ctx, tc, c2.ID), domain.ErrConflict)
	require.NoError(t, uc.DeleteContractor(ctx, tc, c1.ID))
}

func TestEquipment_ContratistaInvalido_Revierte(t *testing.T) {
	st := memory.New()
	uc := newEquipment(st)
	ctx := context.Background()
	tc := ownerContext()

	eq, err := uc.Create(ctx, tc, dto.EquipmentRequest{InternalCode: "EQ-01", Brand: "Volvo"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, tc, eq.ID, dto.EquipmentRequest{InternalCode: "EQ-01", Brand: "Scania", ContractorIDs: &[]string{"fantasma"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := uc.GetByID(ctx, tc, eq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Volvo", got.Brand)
	assert.Empty(t, got.ContractorIDs)
}

func TestEquipment_CodigoDuplicadoYCostoNegativo(t *testing.T) {
	uc := newEquipment(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	_, err := uc.Create(ctx, tc, dto.EquipmentRequest{InternalCode: "EQ-01"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, tc, dto.EquipmentRequest{InternalCode: "EQ-01"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, tc, dto.EquipmentRequest{InternalCode: "EQ-02", AcquisitionCost: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tipos de documento
// ──────────────────────────────────────────────────────────────────────────────

func newDocumentTypes(st *memory.Store) *usecase.DocumentTypeUseCase {
	return usecase.NewDocumentTypeUseCase(st.DocumentTypes(), st.Documents(), st.JobPositions(), cache.NewMemoryRevalidator(), logger.Nop())
}

func TestDocumentType_ReglasSegunSujeto(t *testing.T) {
	uc := newDocumentTypes(memory.New())
	ctx := context.Background()
	tc := ownerContext()

	_, err := uc.Create(ctx, tc, dto.DocumentTypeRequest{
		Name:        "SOAT",
		SubjectType: entity.SubjectEquipment,
		Rules:       dto.DocumentRulesDTO{Genders: []string{entity.GenderMale}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, tc, dto.DocumentTypeRequest{Name: "Cámara de comercio", SubjectType: entity.SubjectCompany, IsMultiResource: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	dt, err := uc.Create(ctx, tc, dto.DocumentTypeRequest{
		Name:          "SOAT",
		SubjectType:   "equipment",
		HasExpiration: true,
		Rules:         dto.DocumentRulesDTO{VehicleTypes: []string{" camión "}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SubjectEquipment, dt.SubjectType)
	assert.Equal(t, []string{"camión"}, dt.Rules.VehicleTypes)
}

func TestDocumentType_ConDocumentos_NoSeBorraNiCambiaSujeto(t *testing.T) {
	st := memory.New()
	uc := newDocumentTypes(st)
	ctx := context.Background()
	tc := ownerContext()

	dt, err := uc.Create(ctx, tc, dto.DocumentTypeRequest{Name: "Cédula", SubjectType: entity.SubjectEmployee, IsMandatory: true})
	require.NoError(t, err)
	require.NoError(t, st.Documents().Create(ctx, &entity.Document{
		ID:             "doc-1",
		CompanyID:      companyID,
		DocumentTypeID: dt.ID,
		SubjectType:    entity.SubjectEmployee,
		SubjectID:      ptr("emp-1"),
		State:          entity.DocumentSubmitted,
	}))

	assert.ErrorIs(t, uc.Delete(ctx, tc, dt.ID), domain.ErrConflict)

	_, err = uc.Update(ctx, tc, dt.ID, dto.DocumentTypeRequest{Name: "Cédula", SubjectType: entity.SubjectEquipment})
	assert.ErrorIs(t, err, domain.ErrConflict)

	renamed, err := uc.Update(ctx, tc, dt.ID, dto.DocumentTypeRequest{Name: "Cédula de ciudadanía", SubjectType: entity.SubjectEmployee})
	require.NoError(t, err)
	assert.Equal(t, "Cédula de ciudadanía", renamed.Name)
}

func TestDocumentType_CargoInexistente(t *testing.T) {
	uc := newDocumentTypes(memory.New())
	_, err := uc.Create(context.Background(), ownerContext(), dto.DocumentTypeRequest{
		Name:        "Licencia",
		SubjectType: entity.SubjectEmployee,
		Rules:       dto.DocumentRulesDTO{JobPositionIDs: []string{"no-existe"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
