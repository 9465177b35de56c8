// Package memory implementa los puertos de repository en memoria.
// Lo usan los tests de aplicación y de HTTP; las transacciones trabajan sobre una copia del estado
// que solo se publica si el callback termina sin error.
// Las reglas de unicidad son las de migrations/001_init.sql (ver store_test.go).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

type state struct {
	companies    map[string]entity.Company
	users        map[string]entity.User
	members      map[string]entity.Member
	prefs        map[string]entity.UserPreference
	roles        map[string]entity.Role
	overrides    map[string]entity.PermissionOverride
	invitations  map[string]entity.Invitation
	audit        []entity.AuditLog
	employees    map[string]entity.Employee
	jobPositions map[string]entity.JobPosition
	equipment    map[string]entity.Equipment
	contractors  map[string]entity.Contractor
	clients      map[string]entity.Client
	contacts     map[string]entity.Contact
	leads        map[string]entity.Lead
	docTypes     map[string]entity.DocumentType
	documents    map[string]entity.Document
}

func newState() *state {
	return &state{
		companies:    map[string]entity.Company{},
		users:        map[string]entity.User{},
		members:      map[string]entity.Member{},
		prefs:        map[string]entity.UserPreference{},
		roles:        map[string]entity.Role{},
		overrides:    map[string]entity.PermissionOverride{},
		invitations:  map[string]entity.Invitation{},
		employees:    map[string]entity.Employee{},
		jobPositions: map[string]entity.JobPosition{},
		equipment:    map[string]entity.Equipment{},
		contractors:  map[string]entity.Contractor{},
		clients:      map[string]entity.Client{},
		contacts:     map[string]entity.Contact{},
		leads:        map[string]entity.Lead{},
		docTypes:     map[string]entity.DocumentType{},
		documents:    map[string]entity.Document{},
	}
}

func cloneMap[T any](m map[string]T, deep func(T) T) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		if deep != nil {
			v = deep(v)
		}
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		companies:    cloneMap(s.companies, nil),
		users:        cloneMap(s.users, nil),
		members:      cloneMap(s.members, nil),
		prefs:        cloneMap(s.prefs, nil),
		roles:        cloneMap(s.roles, copyRole),
		overrides:    cloneMap(s.overrides, nil),
		invitations:  cloneMap(s.invitations, nil),
		audit:        append([]entity.AuditLog(nil), s.audit...),
		employees:    cloneMap(s.employees, nil),
		jobPositions: cloneMap(s.jobPositions, nil),
		equipment:    cloneMap(s.equipment, copyEquipment),
		contractors:  cloneMap(s.contractors, nil),
		clients:      cloneMap(s.clients, nil),
		contacts:     cloneMap(s.contacts, nil),
		leads:        cloneMap(s.leads, nil),
		docTypes:     cloneMap(s.docTypes, nil),
		documents:    cloneMap(s.documents, copyDocument),
	}
}

// Store estado compartido por todos los repos en memoria.
type Store struct {
	mu   sync.Mutex
	txMu *sync.Mutex
	st   *state
}

// New crea un store vacío.
func New() *Store {
	return &Store{txMu: &sync.Mutex{}, st: newState()}
}

func (s *Store) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// inTx ejecuta fn sobre una copia; solo con éxito la copia reemplaza el estado.
// Las transacciones se serializan entre sí.
func (s *Store) inTx(fn func(tx *Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	tx := &Store{txMu: &sync.Mutex{}, st: s.st.clone()}
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = tx.st
	s.mu.Unlock()
	return nil
}

// Repos construye todos los puertos sobre el store.
func (s *Store) Companies() *CompanyRepo          { return &CompanyRepo{s} }
func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Members() *MemberRepo             { return &MemberRepo{s} }
func (s *Store) Preferences() *PreferenceRepo     { return &PreferenceRepo{s} }
func (s *Store) Roles() *RoleRepo                 { return &RoleRepo{s} }
func (s *Store) Overrides() *OverrideRepo         { return &OverrideRepo{s} }
func (s *Store) Invitations() *InvitationRepo     { return &InvitationRepo{s} }
func (s *Store) AuditLogs() *AuditLogRepo         { return &AuditLogRepo{s} }
func (s *Store) Employees() *EmployeeRepo         { return &EmployeeRepo{s} }
func (s *Store) JobPositions() *JobPositionRepo   { return &JobPositionRepo{s} }
func (s *Store) Equipment() *EquipmentRepo        { return &EquipmentRepo{s} }
func (s *Store) Contractors() *ContractorRepo     { return &ContractorRepo{s} }
func (s *Store) Clients() *ClientRepo             { return &ClientRepo{s} }
func (s *Store) Contacts() *ContactRepo           { return &ContactRepo{s} }
func (s *Store) Leads() *LeadRepo                 { return &LeadRepo{s} }
func (s *Store) DocumentTypes() *DocumentTypeRepo { return &DocumentTypeRepo{s} }
func (s *Store) Documents() *DocumentRepo         { return &DocumentRepo{s} }

// RunCRM misma firma que postgres.TxRunner.RunCRM.
func (s *Store) RunCRM(ctx context.Context, fn func(repository.ClientRepository, repository.ContactRepository, repository.LeadRepository) error) error {
	return s.inTx(func(tx *Store) error { return fn(tx.Clients(), tx.Contacts(), tx.Leads()) })
}

// RunEquipment misma firma que postgres.TxRunner.RunEquipment.
func (s *Store) RunEquipment(ctx context.Context, fn func(repository.EquipmentRepository, repository.ContractorRepository) error) error {
	return s.inTx(func(tx *Store) error { return fn(tx.Equipment(), tx.Contractors()) })
}

// RunDocuments misma firma que postgres.TxRunner.RunDocuments.
func (s *Store) RunDocuments(ctx context.Context, fn func(repository.DocumentRepository) error) error {
	return s.inTx(func(tx *Store) error { return fn(tx.Documents()) })
}

// RunMembership misma firma que postgres.TxRunner.RunMembership.
func (s *Store) RunMembership(ctx context.Context, fn func(repository.CompanyRepository, repository.MemberRepository, repository.PreferenceRepository, repository.InvitationRepository) error) error {
	return s.inTx(func(tx *Store) error { return fn(tx.Companies(), tx.Members(), tx.Preferences(), tx.Invitations()) })
}

// RunRoles misma firma que postgres.TxRunner.RunRoles.
func (s *Store) RunRoles(ctx context.Context, fn func(repository.RoleRepository) error) error {
	return s.inTx(func(tx *Store) error { return fn(tx.Roles()) })
}

// paginate ordena por createdAt ascendente y corta la página; limit <= 0 = sin límite.
func paginate[T any](items []*T, createdAt func(*T) time.Time, limit, offset int) ([]*T, int) {
	sort.SliceStable(items, func(i, j int) bool { return createdAt(items[i]).Before(createdAt(items[j])) })
	total := len(items)
	if offset > total {
		offset = total
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, total
}

func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }

func eqPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
