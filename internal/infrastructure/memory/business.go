package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var (
	_ repository.EmployeeRepository    = (*EmployeeRepo)(nil)
	_ repository.JobPositionRepository = (*JobPositionRepo)(nil)
	_ repository.EquipmentRepository   = (*EquipmentRepo)(nil)
	_ repository.ContractorRepository  = (*ContractorRepo)(nil)
	_ repository.ClientRepository      = (*ClientRepo)(nil)
	_ repository.ContactRepository     = (*ContactRepo)(nil)
	_ repository.LeadRepository        = (*LeadRepo)(nil)
)

func copyEquipment(eq entity.Equipment) entity.Equipment {
	eq.ContractorIDs = append([]string(nil), eq.ContractorIDs...)
	return eq
}

// EmployeeRepo empleados.
type EmployeeRepo struct{ s *Store }

func (r *EmployeeRepo) Create(_ context.Context, e *entity.Employee) error {
	defer r.s.lock()()
	for _, other := range r.s.st.employees {
		if other.CompanyID == e.CompanyID && other.DocumentNumber == e.DocumentNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.st.employees[e.ID] = *e
	return nil
}

func (r *EmployeeRepo) GetByID(_ context.Context, companyID, id string) (*entity.Employee, error) {
	defer r.s.lock()()
	e, ok := r.s.st.employees[id]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	return &e, nil
}

func (r *EmployeeRepo) GetByDocumentNumber(_ context.Context, companyID, number string) (*entity.Employee, error) {
	defer r.s.lock()()
	for _, e := range r.s.st.employees {
		if e.CompanyID == companyID && e.DocumentNumber == number {
			return ptr(e), nil
		}
	}
	return nil, nil
}

func (r *EmployeeRepo) List(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Employee, int, error) {
	defer r.s.lock()()
	var out []*entity.Employee
	for _, e := range r.s.st.employees {
		if e.CompanyID == companyID && matches(search, e.FirstName, e.LastName, e.DocumentNumber, e.Email) {
			out = append(out, ptr(e))
		}
	}
	page, total := paginate(out, func(e *entity.Employee) time.Time { return e.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *EmployeeRepo) Update(_ context.Context, e *entity.Employee) error {
	defer r.s.lock()()
	existing, ok := r.s.st.employees[e.ID]
	if !ok || existing.CompanyID != e.CompanyID {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.employees {
		if id != e.ID && other.CompanyID == e.CompanyID && other.DocumentNumber == e.DocumentNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.st.employees[e.ID] = *e
	return nil
}

func (r *EmployeeRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	e, ok := r.s.st.employees[id]
	if !ok || e.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.employees, id)
	return nil
}

// JobPositionRepo cargos.
type JobPositionRepo struct{ s *Store }

func (r *JobPositionRepo) Create(_ context.Context, p *entity.JobPosition) error {
	defer r.s.lock()()
	for _, other := range r.s.st.jobPositions {
		if other.CompanyID == p.CompanyID && other.Name == p.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.st.jobPositions[p.ID] = *p
	return nil
}

func (r *JobPositionRepo) GetByID(_ context.Context, companyID, id string) (*entity.JobPosition, error) {
	defer r.s.lock()()
	p, ok := r.s.st.jobPositions[id]
	if !ok || p.CompanyID != companyID {
		return nil, nil
	}
	return &p, nil
}

func (r *JobPositionRepo) List(_ context.Context, companyID string) ([]*entity.JobPosition, error) {
	defer r.s.lock()()
	var out []*entity.JobPosition
	for _, p := range r.s.st.jobPositions {
		if p.CompanyID == companyID {
			out = append(out, ptr(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *JobPositionRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	p, ok := r.s.st.jobPositions[id]
	if !ok || p.CompanyID != companyID {
		return domain.ErrNotFound
	}
	for _, e := range r.s.st.employees {
		if e.JobPositionID != nil && *e.JobPositionID == id {
			return domain.ErrConflict
		}
	}
	delete(r.s.st.jobPositions, id)
	return nil
}

// EquipmentRepo equipos con sus contratistas asignados.
type EquipmentRepo struct{ s *Store }

func (r *EquipmentRepo) Create(_ context.Context, eq *entity.Equipment) error {
	defer r.s.lock()()
	for _, other := range r.s.st.equipment {
		if other.CompanyID == eq.CompanyID && other.InternalCode == eq.InternalCode {
			return domain.ErrDuplicate
		}
	}
	stored := copyEquipment(*eq)
	stored.ContractorIDs = nil
	r.s.st.equipment[eq.ID] = stored
	return nil
}

func (r *EquipmentRepo) GetByID(_ context.Context, companyID, id string) (*entity.Equipment, error) {
	defer r.s.lock()()
	eq, ok := r.s.st.equipment[id]
	if !ok || eq.CompanyID != companyID {
		return nil, nil
	}
	return ptr(copyEquipment(eq)), nil
}

func (r *EquipmentRepo) GetByInternalCode(_ context.Context, companyID, code string) (*entity.Equipment, error) {
	defer r.s.lock()()
	for _, eq := range r.s.st.equipment {
		if eq.CompanyID == companyID && eq.InternalCode == code {
			return ptr(copyEquipment(eq)), nil
		}
	}
	return nil, nil
}

func (r *EquipmentRepo) List(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Equipment, int, error) {
	defer r.s.lock()()
	var out []*entity.Equipment
	for _, eq := range r.s.st.equipment {
		if eq.CompanyID == companyID && matches(search, eq.InternalCode, eq.Plate, eq.Brand, eq.Model) {
			out = append(out, ptr(copyEquipment(eq)))
		}
	}
	page, total := paginate(out, func(e *entity.Equipment) time.Time { return e.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *EquipmentRepo) Update(_ context.Context, eq *entity.Equipment) error {
	defer r.s.lock()()
	existing, ok := r.s.st.equipment[eq.ID]
	if !ok || existing.CompanyID != eq.CompanyID {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.equipment {
		if id != eq.ID && other.CompanyID == eq.CompanyID && other.InternalCode == eq.InternalCode {
			return domain.ErrDuplicate
		}
	}
	stored := copyEquipment(*eq)
	stored.ContractorIDs = existing.ContractorIDs
	r.s.st.equipment[eq.ID] = stored
	return nil
}

func (r *EquipmentRepo) ReplaceContractors(_ context.Context, equipmentID string, contractorIDs []string) error {
	defer r.s.lock()()
	eq, ok := r.s.st.equipment[equipmentID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, cid := range contractorIDs {
		if _, ok := r.s.st.contractors[cid]; !ok {
			return domain.ErrInvalidInput
		}
	}
	eq.ContractorIDs = append([]string(nil), contractorIDs...)
	r.s.st.equipment[equipmentID] = eq
	return nil
}

func (r *EquipmentRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	eq, ok := r.s.st.equipment[id]
	if !ok || eq.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.equipment, id)
	return nil
}

// ContractorRepo contratistas.
type ContractorRepo struct{ s *Store }

func (r *ContractorRepo) Create(_ context.Context, c *entity.Contractor) error {
	defer r.s.lock()()
	r.s.st.contractors[c.ID] = *c
	return nil
}

func (r *ContractorRepo) GetByID(_ context.Context, companyID, id string) (*entity.Contractor, error) {
	defer r.s.lock()()
	c, ok := r.s.st.contractors[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	return &c, nil
}

func (r *ContractorRepo) List(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Contractor, int, error) {
	defer r.s.lock()()
	var out []*entity.Contractor
	for _, c := range r.s.st.contractors {
		if c.CompanyID == companyID && matches(search, c.Name, c.TaxID) {
			out = append(out, ptr(c))
		}
	}
	page, total := paginate(out, func(c *entity.Contractor) time.Time { return c.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *ContractorRepo) Update(_ context.Context, c *entity.Contractor) error {
	defer r.s.lock()()
	existing, ok := r.s.st.contractors[c.ID]
	if !ok || existing.CompanyID != c.CompanyID {
		return domain.ErrNotFound
	}
	r.s.st.contractors[c.ID] = *c
	return nil
}

func (r *ContractorRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	c, ok := r.s.st.contractors[id]
	if !ok || c.CompanyID != companyID {
		return domain.ErrNotFound
	}
	for _, eq := range r.s.st.equipment {
		for _, cid := range eq.ContractorIDs {
			if cid == id {
				return domain.ErrConflict
			}
		}
	}
	delete(r.s.st.contractors, id)
	return nil
}

// ClientRepo clientes. El NIT vacío no cuenta para la unicidad (índice parcial clients_company_tax_id_uq).
type ClientRepo struct{ s *Store }

func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	defer r.s.lock()()
	for _, other := range r.s.st.clients {
		if other.CompanyID == c.CompanyID && c.TaxID != "" && other.TaxID == c.TaxID {
			return domain.ErrDuplicate
		}
	}
	r.s.st.clients[c.ID] = *c
	return nil
}

func (r *ClientRepo) GetByID(_ context.Context, companyID, id string) (*entity.Client, error) {
	defer r.s.lock()()
	c, ok := r.s.st.clients[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	return &c, nil
}

func (r *ClientRepo) List(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Client, int, error) {
	defer r.s.lock()()
	var out []*entity.Client
	for _, c := range r.s.st.clients {
		if c.CompanyID == companyID && matches(search, c.Name, c.TaxID, c.Email) {
			out = append(out, ptr(c))
		}
	}
	page, total := paginate(out, func(c *entity.Client) time.Time { return c.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *ClientRepo) Update(_ context.Context, c *entity.Client) error {
	defer r.s.lock()()
	existing, ok := r.s.st.clients[c.ID]
	if !ok || existing.CompanyID != c.CompanyID {
		return domain.ErrNotFound
	}
	for id, other := range r.s.st.clients {
		if id != c.ID && other.CompanyID == c.CompanyID && c.TaxID != "" && other.TaxID == c.TaxID {
			return domain.ErrDuplicate
		}
	}
	r.s.st.clients[c.ID] = *c
	return nil
}

// Delete elimina el cliente y libera sus contactos (ON DELETE SET NULL).
func (r *ClientRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	c, ok := r.s.st.clients[id]
	if !ok || c.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.clients, id)
	for cid, ct := range r.s.st.contacts {
		if ct.ClientID != nil && *ct.ClientID == id {
			ct.ClientID = nil
			r.s.st.contacts[cid] = ct
		}
	}
	return nil
}

// ContactRepo contactos.
type ContactRepo struct{ s *Store }

func (r *ContactRepo) Create(_ context.Context, c *entity.Contact) error {
	defer r.s.lock()()
	r.s.st.contacts[c.ID] = *c
	return nil
}

func (r *ContactRepo) GetByID(_ context.Context, companyID, id string) (*entity.Contact, error) {
	defer r.s.lock()()
	c, ok := r.s.st.contacts[id]
	if !ok || c.CompanyID != companyID {
		return nil, nil
	}
	return &c, nil
}

func (r *ContactRepo) List(_ context.Context, companyID, search string, limit, offset int) ([]*entity.Contact, int, error) {
	defer r.s.lock()()
	var out []*entity.Contact
	for _, c := range r.s.st.contacts {
		if c.CompanyID == companyID && matches(search, c.Name, c.Email, c.Phone) {
			out = append(out, ptr(c))
		}
	}
	page, total := paginate(out, func(c *entity.Contact) time.Time { return c.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *ContactRepo) ListAvailable(_ context.Context, companyID string) ([]*entity.Contact, error) {
	defer r.s.lock()()
	var out []*entity.Contact
	for _, c := range r.s.st.contacts {
		if c.CompanyID == companyID && c.IsAvailable() {
			out = append(out, ptr(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ContactRepo) Update(_ context.Context, c *entity.Contact) error {
	defer r.s.lock()()
	existing, ok := r.s.st.contacts[c.ID]
	if !ok || existing.CompanyID != c.CompanyID {
		return domain.ErrNotFound
	}
	r.s.st.contacts[c.ID] = *c
	return nil
}

func (r *ContactRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	c, ok := r.s.st.contacts[id]
	if !ok || c.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.contacts, id)
	return nil
}

// LeadRepo prospectos.
type LeadRepo struct{ s *Store }

func (r *LeadRepo) Create(_ context.Context, l *entity.Lead) error {
	defer r.s.lock()()
	r.s.st.leads[l.ID] = *l
	return nil
}

func (r *LeadRepo) GetByID(_ context.Context, companyID, id string) (*entity.Lead, error) {
	defer r.s.lock()()
	l, ok := r.s.st.leads[id]
	if !ok || l.CompanyID != companyID {
		return nil, nil
	}
	return &l, nil
}

// GetForUpdate igual a GetByID: las transacciones en memoria ya son exclusivas.
func (r *LeadRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Lead, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *LeadRepo) List(_ context.Context, companyID, search, status string, limit, offset int) ([]*entity.Lead, int, error) {
	defer r.s.lock()()
	var out []*entity.Lead
	for _, l := range r.s.st.leads {
		if l.CompanyID == companyID && (status == "" || l.Status == status) && matches(search, l.Name, l.TaxID, l.Email) {
			out = append(out, ptr(l))
		}
	}
	page, total := paginate(out, func(l *entity.Lead) time.Time { return l.CreatedAt }, limit, offset)
	return page, total, nil
}

func (r *LeadRepo) Update(_ context.Context, l *entity.Lead) error {
	defer r.s.lock()()
	existing, ok := r.s.st.leads[l.ID]
	if !ok || existing.CompanyID != l.CompanyID {
		return domain.ErrNotFound
	}
	r.s.st.leads[l.ID] = *l
	return nil
}

func (r *LeadRepo) Delete(_ context.Context, companyID, id string) error {
	defer r.s.lock()()
	l, ok := r.s.st.leads[id]
	if !ok || l.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.s.st.leads, id)
	return nil
}
