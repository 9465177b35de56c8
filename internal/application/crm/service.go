// Package crm casos de uso comerciales: clientes, contactos y prospectos.
// La creación de un cliente con su contacto y la conversión de un prospecto ocurren en una sola transacción.
package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// TxRunner ejecuta fn con repositorios comerciales ligados a una misma transacción.
type TxRunner interface {
	RunCRM(ctx context.Context, fn func(clientRepo repository.ClientRepository, contactRepo repository.ContactRepository, leadRepo repository.LeadRepository) error) error
}

var (
	tagClients  = string(permission.ModuleClients)
	tagContacts = string(permission.ModuleContacts)
	tagLeads    = string(permission.ModuleLeads)
)

// Service casos de uso comerciales.
type Service struct {
	clients     repository.ClientRepository
	contacts    repository.ContactRepository
	leads       repository.LeadRepository
	tx          TxRunner
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewService construye el servicio.
func NewService(
	clients repository.ClientRepository,
	contacts repository.ContactRepository,
	leads repository.LeadRepository,
	tx TxRunner,
	revalidator ports.Revalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		clients:     clients,
		contacts:    contacts,
		leads:       leads,
		tx:          tx,
		revalidator: revalidator,
		log:         log.Component("crm"),
		now:         time.Now,
	}
}

// ── Clientes ──────────────────────────────────────────────────────────────────

// ListClients lista clientes de la empresa con búsqueda por nombre, NIT o email.
func (s *Service) ListClients(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.ClientResponse], error) {
	page.DefaultPage()
	list, total, err := s.clients.List(ctx, tc.CompanyID, page.Search, page.Limit, page.Offset)
	if err != nil {
		return nil, s.internal("clients.List", tc.CompanyID, err)
	}
	items := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, toClientResponse(c, nil))
	}
	return &dto.ListResponse[dto.ClientResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetClient devuelve un cliente de la empresa.
func (s *Service) GetClient(ctx context.Context, tc tenant.Context, id string) (*dto.ClientResponse, error) {
	c, err := s.clients.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, s.internal("clients.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := toClientResponse(c, nil)
	return &out, nil
}

// CreateClient crea el cliente y, según la entrada, vincula un contacto disponible (contactId)
// o crea exactamente un contacto nuevo (contact). Todo en una transacción.
func (s *Service) CreateClient(ctx context.Context, tc tenant.Context, in dto.ClientRequest) (*dto.ClientResponse, error) {
	if err := validateClient(in); err != nil {
		return nil, err
	}
	if in.ContactID != nil && in.Contact != nil {
		return nil, fmt.Errorf("%w: indique contactId o contact, no ambos", domain.ErrInvalidInput)
	}
	if in.Contact != nil {
		if err := validateContact(*in.Contact); err != nil {
			return nil, err
		}
	}

	now := s.now()
	client := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: tc.CompanyID,
		Name:      strings.TrimSpace(in.Name),
		TaxID:     strings.TrimSpace(in.TaxID),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		Address:   in.Address,
		Status:    clientStatus(in.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var linked *entity.Contact
	err := s.tx.RunCRM(ctx, func(clientRepo repository.ClientRepository, contactRepo repository.ContactRepository, _ repository.LeadRepository) error {
		if err := clientRepo.Create(ctx, client); err != nil {
			return err
		}
		switch {
		case in.ContactID != nil:
			contact, err := contactRepo.GetByID(ctx, tc.CompanyID, *in.ContactID)
			if err != nil {
				return err
			}
			if contact == nil {
				return fmt.Errorf("%w: contacto no encontrado", domain.ErrInvalidInput)
			}
			if !contact.IsAvailable() {
				return fmt.Errorf("%w: el contacto ya pertenece a otro cliente", domain.ErrConflict)
			}
			contact.ClientID = &client.ID
			contact.UpdatedAt = now
			if err := contactRepo.Update(ctx, contact); err != nil {
				return err
			}
			linked = contact
		case in.Contact != nil:
			contact := newContact(tc.CompanyID, *in.Contact, now)
			contact.ClientID = &client.ID
			if err := contactRepo.Create(ctx, contact); err != nil {
				return err
			}
			linked = contact
		}
		return nil
	})
	if err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("crm.CreateClient", tc.CompanyID, err)
	}

	s.revalidator.Revalidate(ctx, tc.CompanyID, tagClients, tagContacts)
	var contacts []*entity.Contact
	if linked != nil {
		contacts = []*entity.Contact{linked}
	}
	out := toClientResponse(client, contacts)
	return &out, nil
}

// UpdateClient reemplaza los datos del cliente. Los contactos se administran aparte.
func (s *Service) UpdateClient(ctx context.Context, tc tenant.Context, id string, in dto.ClientRequest) (*dto.ClientResponse, error) {
	if err := validateClient(in); err != nil {
		return nil, err
	}
	c, err := s.clients.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, s.internal("clients.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.Name = strings.TrimSpace(in.Name)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = in.Phone
	c.Address = in.Address
	if in.Status != "" {
		c.Status = clientStatus(in.Status)
	}
	c.UpdatedAt = s.now()
	if err := s.clients.Update(ctx, c); err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("clients.Update", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagClients)
	out := toClientResponse(c, nil)
	return &out, nil
}

// DeleteClient elimina el cliente; sus contactos quedan disponibles.
func (s *Service) DeleteClient(ctx context.Context, tc tenant.Context, id string) error {
	if err := s.clients.Delete(ctx, tc.CompanyID, id); err != nil {
		if isBusiness(err) {
			return err
		}
		return s.internal("clients.Delete", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagClients, tagContacts)
	return nil
}

// ── Contactos ─────────────────────────────────────────────────────────────────

// ListContacts lista contactos de la empresa.
func (s *Service) ListContacts(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.ContactResponse], error) {
	page.DefaultPage()
	list, total, err := s.contacts.List(ctx, tc.CompanyID, page.Search, page.Limit, page.Offset)
	if err != nil {
		return nil, s.internal("contacts.List", tc.CompanyID, err)
	}
	return &dto.ListResponse[dto.ContactResponse]{
		Items: toContactResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// ListAvailableContacts contactos sin cliente, para el selector al crear clientes.
func (s *Service) ListAvailableContacts(ctx context.Context, tc tenant.Context) ([]dto.ContactResponse, error) {
	list, err := s.contacts.ListAvailable(ctx, tc.CompanyID)
	if err != nil {
		return nil, s.internal("contacts.ListAvailable", tc.CompanyID, err)
	}
	return toContactResponses(list), nil
}

// GetContact devuelve un contacto.
func (s *Service) GetContact(ctx context.Context, tc tenant.Context, id string) (*dto.ContactResponse, error) {
	c, err := s.contacts.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, s.internal("contacts.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := toContactResponse(c)
	return &out, nil
}

// CreateContact crea un contacto, opcionalmente ya vinculado a un cliente de la empresa.
func (s *Service) CreateContact(ctx context.Context, tc tenant.Context, in dto.ContactRequest) (*dto.ContactResponse, error) {
	if err := validateContact(in); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, tc.CompanyID, in.ClientID); err != nil {
		return nil, err
	}
	c := newContact(tc.CompanyID, in, s.now())
	c.ClientID = in.ClientID
	if err := s.contacts.Create(ctx, c); err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("contacts.Create", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagContacts)
	out := toContactResponse(c)
	return &out, nil
}

// UpdateContact reemplaza los datos del contacto, incluido el cliente al que pertenece.
func (s *Service) UpdateContact(ctx context.Context, tc tenant.Context, id string, in dto.ContactRequest) (*dto.ContactResponse, error) {
	if err := validateContact(in); err != nil {
		return nil, err
	}
	c, err := s.contacts.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, s.internal("contacts.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.ensureClient(ctx, tc.CompanyID, in.ClientID); err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = in.Phone
	c.Position = in.Position
	c.ClientID = in.ClientID
	c.UpdatedAt = s.now()
	if err := s.contacts.Update(ctx, c); err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("contacts.Update", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagContacts, tagClients)
	out := toContactResponse(c)
	return &out, nil
}

// DeleteContact elimina un contacto.
func (s *Service) DeleteContact(ctx context.Context, tc tenant.Context, id string) error {
	if err := s.contacts.Delete(ctx, tc.CompanyID, id); err != nil {
		if isBusiness(err) {
			return err
		}
		return s.internal("contacts.Delete", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagContacts, tagLeads)
	return nil
}

func (s *Service) ensureClient(ctx context.Context, companyID string, clientID *string) error {
	if clientID == nil {
		return nil
	}
	c, err := s.clients.GetByID(ctx, companyID, *clientID)
	if err != nil {
		return s.internal("clients.GetByID", companyID, err)
	}
	if c == nil {
		return fmt.Errorf("%w: cliente no encontrado", domain.ErrInvalidInput)
	}
	return nil
}

// ── Prospectos ────────────────────────────────────────────────────────────────

// ListLeads lista prospectos, opcionalmente filtrados por estado.
func (s *Service) ListLeads(ctx context.Context, tc tenant.Context, in dto.LeadListRequest) (*dto.ListResponse[dto.LeadResponse], error) {
	in.DefaultPage()
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	list, total, err := s.leads.List(ctx, tc.CompanyID, in.Search, status, in.Limit, in.Offset)
	if err != nil {
		return nil, s.internal("leads.List", tc.CompanyID, err)
	}
	items := make([]dto.LeadResponse, 0, len(list))
	for _, l := range list {
		items = append(items, toLeadResponse(l))
	}
	return &dto.ListResponse[dto.LeadResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// GetLead devuelve un prospecto.
func (s *Service) GetLead(ctx context.Context, tc tenant.Context, id string) (*dto.LeadResponse, error) {
	l, err := s.lead(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, err
	}
	out := toLeadResponse(l)
	return &out, nil
}

// CreateLead crea un prospecto en estado NEW salvo que se indique otro.
func (s *Service) CreateLead(ctx context.Context, tc tenant.Context, in dto.LeadRequest) (*dto.LeadResponse, error) {
	status, err := validateLead(in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureContact(ctx, tc.CompanyID, in.ContactID); err != nil {
		return nil, err
	}
	now := s.now()
	l := &entity.Lead{
		ID:             uuid.New().String(),
		CompanyID:      tc.CompanyID,
		Name:           strings.TrimSpace(in.Name),
		TaxID:          strings.TrimSpace(in.TaxID),
		Email:          strings.TrimSpace(in.Email),
		Phone:          in.Phone,
		Source:         in.Source,
		EstimatedValue: in.EstimatedValue,
		Status:         status,
		ContactID:      in.ContactID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.leads.Create(ctx, l); err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("leads.Create", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagLeads)
	out := toLeadResponse(l)
	return &out, nil
}

// UpdateLead reemplaza los datos de un prospecto que aún no fue convertido.
func (s *Service) UpdateLead(ctx context.Context, tc tenant.Context, id string, in dto.LeadRequest) (*dto.LeadResponse, error) {
	status, err := validateLead(in)
	if err != nil {
		return nil, err
	}
	l, err := s.lead(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if l.Status == entity.LeadStatusConverted {
		return nil, fmt.Errorf("%w: el prospecto ya fue convertido", domain.ErrInvalidTransition)
	}
	if err := s.ensureContact(ctx, tc.CompanyID, in.ContactID); err != nil {
		return nil, err
	}
	l.Name = strings.TrimSpace(in.Name)
	l.TaxID = strings.TrimSpace(in.TaxID)
	l.Email = strings.TrimSpace(in.Email)
	l.Phone = in.Phone
	l.Source = in.Source
	l.EstimatedValue = in.EstimatedValue
	if in.Status != "" {
		l.Status = status
	}
	l.ContactID = in.ContactID
	l.UpdatedAt = s.now()
	if err := s.leads.Update(ctx, l); err != nil {
		if isBusiness(err) {
			return nil, err
		}
		return nil, s.internal("leads.Update", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagLeads)
	out := toLeadResponse(l)
	return &out, nil
}

// DeleteLead elimina un prospecto.
func (s *Service) DeleteLead(ctx context.Context, tc tenant.Context, id string) error {
	if err := s.leads.Delete(ctx, tc.CompanyID, id); err != nil {
		if isBusiness(err) {
			return err
		}
		return s.internal("leads.Delete", tc.CompanyID, err)
	}
	s.revalidator.Revalidate(ctx, tc.CompanyID, tagLeads)
	return nil
}

// ConvertLead convierte el prospecto en cliente: crea un cliente con sus datos, mueve el contacto
// vinculado al nuevo cliente y marca el prospecto CONVERTED. Todo o nada.
func (s *Service) ConvertLead(ctx context.Context, tc tenant.Context, id string) (*dto.ConvertLeadResponse, error) {
	var (
		lead   *entity.Lead
		client *entity.Client
	)
	err := s.tx.RunCRM(ctx, func(clientRepo repository.ClientRepository, contactRepo repository.ContactRepository, leadRepo repository.LeadRepository) error {
		l, err := leadRepo.GetForUpdate(ctx, tc.CompanyID, id)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}
		if l.Status == entity.LeadStatusConverted {
			return fmt.Errorf("%w: el prospecto ya fue convertido", domain.ErrInvalidTransition)
		}

		now := s.now()
		c := &entity.Client{
			ID:        uuid.New().String(),
			CompanyID: tc.CompanyID,
			Name:      l.Name,
			TaxID:     l.TaxID,
			Email:     l.Email,
			Phone:     l.Phone,
			Status:    entity.ClientStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := clientRepo.Create(ctx, c); err != nil {
			return err
		}

		if l.ContactID != nil {
			contact, err := contactRepo.GetByID(ctx, tc.CompanyID, *l.ContactID)
			if err != nil {
				return err
			}
			if contact != nil {
				contact.ClientID = &c.ID
				contact.UpdatedAt = now
				if err := contactRepo.Update(ctx, contact); err != nil {
					return err
				}
			}
		}

		l.Status = entity.LeadStatusConverted
		l.ConvertedToClientID = &c.ID
		l.UpdatedAt = now
		if err := leadRepo.Update(ctx, l); err != nil {
			return err
		}
		lead, client = l, c
		return nil
	})
	if err != nil {
		if isBusiness(err) {
			return nil, err
		}
		s.log.Error().Err(err).Str("op", "crm.ConvertLead").Str("company_id", tc.CompanyID).Str("lead_id", id).Msg("crm: conversión revertida")
		return nil, domain.ErrInternal
	}

	s.revalidator.Revalidate(ctx, tc.CompanyID, tagLeads, tagClients, tagContacts)
	return &dto.ConvertLeadResponse{Lead: toLeadResponse(lead), Client: toClientResponse(client, nil)}, nil
}

func (s *Service) lead(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	l, err := s.leads.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, s.internal("leads.GetByID", companyID, err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (s *Service) ensureContact(ctx context.Context, companyID string, contactID *string) error {
	if contactID == nil {
		return nil
	}
	c, err := s.contacts.GetByID(ctx, companyID, *contactID)
	if err != nil {
		return s.internal("contacts.GetByID", companyID, err)
	}
	if c == nil {
		return fmt.Errorf("%w: contacto no encontrado", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) internal(op, companyID string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("company_id", companyID).Msg("crm: fallo de persistencia")
	return domain.ErrInternal
}

// isBusiness distingue los errores de dominio que viajan tal cual al cliente.
func isBusiness(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate,
		domain.ErrConflict, domain.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
