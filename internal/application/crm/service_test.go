package crm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
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

// brokenLeadTx corre la transacción real pero el Update de prospectos falla,
// simulando una caída a mitad de la conversión.
type brokenLeadTx struct {
	store  *memory.Store
	broken bool
	locked []string
}

// lockSpyLeadRepo registra los prospectos leídos con bloqueo.
type lockSpyLeadRepo struct {
	repository.LeadRepository
	tx *brokenLeadTx
}

func (r lockSpyLeadRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	r.tx.locked = append(r.tx.locked, id)
	return r.LeadRepository.GetForUpdate(ctx, companyID, id)
}

// conflictContacts y conflictLeads fallan el alta con un error de negocio (FK violada).
type conflictContacts struct{ repository.ContactRepository }

func (conflictContacts) Create(context.Context, *entity.Contact) error {
	return fmt.Errorf("%w: el cliente ya no existe", domain.ErrConflict)
}

type conflictLeads struct{ repository.LeadRepository }

func (conflictLeads) Create(context.Context, *entity.Lead) error {
	return fmt.Errorf("%w: el contacto ya no existe", domain.ErrConflict)
}

type failingLeadRepo struct {
	repository.LeadRepository
}

func (failingLeadRepo) Update(context.Context, *entity.Lead) error {
	return errors.New("conexión perdida")
}

func (b *brokenLeadTx) RunCRM(ctx context.Context, fn func(repository.ClientRepository, repository.ContactRepository, repository.LeadRepository) error) error {
	return b.store.RunCRM(ctx, func(c repository.ClientRepository, ct repository.ContactRepository, l repository.LeadRepository) error {
		l = lockSpyLeadRepo{LeadRepository: l, tx: b}
		if b.broken {
			l = failingLeadRepo{l}
		}
		return fn(c, ct, l)
	})
}

type fixture struct {
	store *memory.Store
	tx    *brokenLeadTx
	rev   *cache.MemoryRevalidator
	svc   *crm.Service
	tc    tenant.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	tx := &brokenLeadTx{store: st}
	rev := cache.NewMemoryRevalidator()
	return &fixture{
		store: st,
		tx:    tx,
		rev:   rev,
		svc:   crm.NewService(st.Clients(), st.Contacts(), st.Leads(), tx, rev, logger.Nop()),
		tc:    tenant.Context{UserID: "u1", CompanyID: companyID, Permissions: permission.FullAccess()},
	}
}

func str(s string) *string { return &s }

func (f *fixture) contacts(t *testing.T) []*entity.Contact {
	t.Helper()
	list, _, err := f.store.Contacts().List(context.Background(), companyID, "", 0, 0)
	require.NoError(t, err)
	return list
}

func (f *fixture) clients(t *testing.T) []*entity.Client {
	t.Helper()
	list, _, err := f.store.Clients().List(context.Background(), companyID, "", 0, 0)
	require.NoError(t, err)
	return list
}

// ──────────────────────────────────────────────────────────────────────────────
// Clientes
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateClient_ConContactoExistente_VinculaSinDuplicar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact, err := f.svc.CreateContact(ctx, f.tc, dto.ContactRequest{Name: "Marta Gómez", Email: "marta@acme.co"})
	require.NoError(t, err)

	client, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme", TaxID: "900123", ContactID: &contact.ID})
	require.NoError(t, err)

	all := f.contacts(t)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].ClientID)
	assert.Equal(t, client.ID, *all[0].ClientID)
	require.Len(t, client.Contacts, 1)
	assert.Equal(t, contact.ID, client.Contacts[0].ID)

	available, err := f.svc.ListAvailableContacts(ctx, f.tc)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestCreateClient_ConContactoNuevo_CreaExactamenteUno(t *testing.T) {
	f := newFixture(t)

	client, err := f.svc.CreateClient(context.Background(), f.tc, dto.ClientRequest{
		Name:    "Acme",
		Contact: &dto.ContactRequest{Name: "Pedro Ruiz", Phone: "3001234567"},
	})
	require.NoError(t, err)

	all := f.contacts(t)
	require.Len(t, all, 1)
	assert.Equal(t, companyID, all[0].CompanyID)
	assert.Equal(t, "Pedro Ruiz", all[0].Name)
	require.NotNil(t, all[0].ClientID)
	assert.Equal(t, client.ID, *all[0].ClientID)
}

func TestCreateClient_ContactoDeOtroCliente_ConflictoSinCrearCliente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Primero", Contact: &dto.ContactRequest{Name: "Laura"}})
	require.NoError(t, err)

	_, err = f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Segundo", ContactID: &first.Contacts[0].ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.clients(t), 1)
}

func TestCreateClient_ContactoDeOtraEmpresa_Rechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Contacts().Create(ctx, &entity.Contact{ID: "ajeno", CompanyID: "company-2", Name: "Ajeno"}))

	_, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme", ContactID: str("ajeno")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.clients(t))
}

func TestCreateClient_AmbasFormasDeContacto_Invalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateClient(context.Background(), f.tc, dto.ClientRequest{
		Name:      "Acme",
		ContactID: str("x"),
		Contact:   &dto.ContactRequest{Name: "Y"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateClient_NITDuplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme", TaxID: "900123"})
	require.NoError(t, err)

	_, err = f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme 2", TaxID: "900123", Contact: &dto.ContactRequest{Name: "Z"}})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Empty(t, f.contacts(t))
}

func TestCreateClient_RevalidaEtiquetas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before, _ := f.rev.Version(ctx, companyID, string(permission.ModuleClients))

	_, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme"})
	require.NoError(t, err)

	after, _ := f.rev.Version(ctx, companyID, string(permission.ModuleClients))
	assert.Greater(t, after, before)
}

func TestDeleteClient_LiberaContactos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client, err := f.svc.CreateClient(ctx, f.tc, dto.ClientRequest{Name: "Acme", Contact: &dto.ContactRequest{Name: "Laura"}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteClient(ctx, f.tc, client.ID))

	available, err := f.svc.ListAvailableContacts(ctx, f.tc)
	require.NoError(t, err)
	assert.Len(t, available, 1)
	assert.ErrorIs(t, f.svc.DeleteClient(ctx, f.tc, client.ID), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Prospectos
// ──────────────────────────────────────────────────────────────────────────────

func newLead(t *testing.T, f *fixture, contactID *string) *dto.LeadResponse {
	t.Helper()
	lead, err := f.svc.CreateLead(context.Background(), f.tc, dto.LeadRequest{
		Name:           "Transportes del Sur",
		TaxID:          "901555",
		Email:          "compras@tdsur.co",
		Source:         "feria",
		EstimatedValue: decimal.NewFromInt(15_000_000),
		ContactID:      contactID,
	})
	require.NoError(t, err)
	return lead
}

func TestConvertLead_CreaClienteYMueveContacto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact, err := f.svc.CreateContact(ctx, f.tc, dto.ContactRequest{Name: "Jorge"})
	require.NoError(t, err)
	lead := newLead(t, f, &contact.ID)
	assert.Equal(t, entity.LeadStatusNew, lead.Status)

	out, err := f.svc.ConvertLead(ctx, f.tc, lead.ID)
	require.NoError(t, err)

	clients := f.clients(t)
	require.Len(t, clients, 1)
	assert.Equal(t, "Transportes del Sur", clients[0].Name)
	assert.Equal(t, "901555", clients[0].TaxID)

	assert.Equal(t, entity.LeadStatusConverted, out.Lead.Status)
	require.NotNil(t, out.Lead.ConvertedToClientID)
	assert.Equal(t, clients[0].ID, *out.Lead.ConvertedToClientID)

	moved, err := f.svc.GetContact(ctx, f.tc, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ClientID)
	assert.Equal(t, clients[0].ID, *moved.ClientID)
}

func TestConvertLead_DosProspectosSinNIT_CreaUnClienteCadaUno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"Ferretería La 14", "Panadería Central"} {
		lead, err := f.svc.CreateLead(ctx, f.tc, dto.LeadRequest{Name: name})
		require.NoError(t, err)
		ids = append(ids, lead.ID)
	}

	for _, id := range ids {
		out, err := f.svc.ConvertLead(ctx, f.tc, id)
		require.NoError(t, err)
		assert.Equal(t, entity.LeadStatusConverted, out.Lead.Status)
	}

	clients := f.clients(t)
	require.Len(t, clients, 2)
	for _, c := range clients {
		assert.Empty(t, c.TaxID)
	}
}

func TestConvertLead_BloqueaElProspecto(t *testing.T) {
	f := newFixture(t)
	lead := newLead(t, f, nil)

	_, err := f.svc.GetLead(context.Background(), f.tc, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, f.tx.locked, "una lectura simple no bloquea")

	_, err = f.svc.ConvertLead(context.Background(), f.tc, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{lead.ID}, f.tx.locked)
}

func TestCreateContact_ErrorDeNegocio_NoSeVuelveInterno(t *testing.T) {
	st := memory.New()
	svc := crm.NewService(st.Clients(), conflictContacts{st.Contacts()}, st.Leads(), st, cache.NewMemoryRevalidator(), logger.Nop())
	tc := tenant.Context{UserID: "u1", CompanyID: companyID, Permissions: permission.FullAccess()}

	_, err := svc.CreateContact(context.Background(), tc, dto.ContactRequest{Name: "Marta"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrInternal)
}

func TestCreateLead_ErrorDeNegocio_NoSeVuelveInterno(t *testing.T) {
	st := memory.New()
	svc := crm.NewService(st.Clients(), st.Contacts(), conflictLeads{st.Leads()}, st, cache.NewMemoryRevalidator(), logger.Nop())
	tc := tenant.Context{UserID: "u1", CompanyID: companyID, Permissions: permission.FullAccess()}

	_, err := svc.CreateLead(context.Background(), tc, dto.LeadRequest{Name: "Transportes del Sur"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrInternal)
}

func TestConvertLead_YaConvertido_Falla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := newLead(t, f, nil)
	_, err := f.svc.ConvertLead(ctx, f.tc, lead.ID)
	require.NoError(t, err)

	_, err = f.svc.ConvertLead(ctx, f.tc, lead.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, f.clients(t), 1)
}

func TestConvertLead_FalloIntermedio_RevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contact, err := f.svc.CreateContact(ctx, f.tc, dto.ContactRequest{Name: "Jorge"})
	require.NoError(t, err)
	lead := newLead(t, f, &contact.ID)

	f.tx.broken = true
	_, err = f.svc.ConvertLead(ctx, f.tc, lead.ID)
	assert.ErrorIs(t, err, domain.ErrInternal)

	assert.Empty(t, f.clients(t))
	stored, err := f.svc.GetLead(ctx, f.tc, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusNew, stored.Status)
	assert.Nil(t, stored.ConvertedToClientID)
	still, err := f.svc.GetContact(ctx, f.tc, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, still.ClientID)
}

func TestConvertLead_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ConvertLead(context.Background(), f.tc, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateLead_Convertido_NoEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := newLead(t, f, nil)
	_, err := f.svc.ConvertLead(ctx, f.tc, lead.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateLead(ctx, f.tc, lead.ID, dto.LeadRequest{Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateLead_EstadoConvertidoNoPermitido(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateLead(context.Background(), f.tc, dto.LeadRequest{Name: "X", Status: entity.LeadStatusConverted})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListLeads_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	newLead(t, f, nil)
	_, err := f.svc.CreateLead(ctx, f.tc, dto.LeadRequest{Name: "Perdido", Status: "lost"})
	require.NoError(t, err)

	out, err := f.svc.ListLeads(ctx, f.tc, dto.LeadListRequest{Status: entity.LeadStatusLost})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Perdido", out.Items[0].Name)
	assert.Equal(t, 1, out.Page.Total)
	assert.Equal(t, 20, out.Page.Limit)
}
