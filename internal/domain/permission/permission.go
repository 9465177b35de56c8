// Package permission resuelve la matriz efectiva (módulo × acción) de un miembro.
//
// El modelo es deny-by-default: se parte de un mapa vacío, se aplican las concesiones del rol
// y al final los overrides individuales, que siempre ganan. Owners y roles del sistema
// no pasan por la matriz: tienen acceso total.
package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Action eje de acciones de la matriz.
type Action string

const (
	View   Action = "view"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// AllActions en orden de presentación.
var AllActions = []Action{View, Create, Update, Delete}

// Module clave de un área de negocio.
type Module string

// Catálogo de módulos.
const (
	ModuleEmployees          Module = "employees"
	ModuleEquipment          Module = "equipment"
	ModuleContractors        Module = "contractors"
	ModuleClients            Module = "commercial.clients"
	ModuleLeads              Module = "commercial.leads"
	ModuleContacts           Module = "commercial.contacts"
	ModuleEmployeeDocuments  Module = "documents.employees"
	ModuleEquipmentDocuments Module = "documents.equipment"
	ModuleCompanyDocuments   Module = "documents.company"
	ModuleRoles              Module = "company.general.roles"
	ModuleUsers              Module = "company.general.users"
	ModuleInvitations        Module = "company.general.invitations"
	ModuleDocumentTypes      Module = "company.general.document_types"
	ModuleAudit              Module = "company.general.audit"
	ModuleSettings           Module = "company.general.settings"
)

var catalogue = []Module{
	ModuleEmployees, ModuleEquipment, ModuleContractors,
	ModuleClients, ModuleLeads, ModuleContacts,
	ModuleEmployeeDocuments, ModuleEquipmentDocuments, ModuleCompanyDocuments,
	ModuleRoles, ModuleUsers, ModuleInvitations, ModuleDocumentTypes, ModuleAudit, ModuleSettings,
}

// Slugs reservados de roles del sistema: acceso total sin consultar la matriz.
var systemSlugs = map[string]struct{}{
	"owner": {},
	"admin": {},
}

// Catalogue devuelve una copia del catálogo de módulos.
func Catalogue() []Module {
	out := make([]Module, len(catalogue))
	copy(out, catalogue)
	return out
}

// IsKnownModule informa si la clave pertenece al catálogo.
func IsKnownModule(m string) bool {
	for _, c := range catalogue {
		if string(c) == m {
			return true
		}
	}
	return false
}

// ParseAction valida una acción.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case View, Create, Update, Delete:
		return a, nil
	}
	return "", fmt.Errorf("acción desconocida: %q", s)
}

// IsSystemSlug informa si el slug es de un rol reservado del sistema.
func IsSystemSlug(slug string) bool {
	_, ok := systemSlugs[strings.ToLower(slug)]
	return ok
}

// Actions banderas de un módulo.
type Actions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

func (a *Actions) set(action Action, v bool) {
	switch action {
	case View:
		a.View = v
	case Create:
		a.Create = v
	case Update:
		a.Update = v
	case Delete:
		a.Delete = v
	}
}

// Has devuelve la bandera de una acción.
func (a Actions) Has(action Action) bool {
	switch action {
	case View:
		return a.View
	case Create:
		return a.Create
	case Update:
		return a.Update
	case Delete:
		return a.Delete
	}
	return false
}

// Kind distingue el origen de una concesión.
type Kind int

const (
	RoleGrant Kind = iota
	Override
)

// Grant unión etiquetada {RoleGrant, Override}. Para RoleGrant, Granted siempre es true.
type Grant struct {
	Kind    Kind
	Module  Module
	Action  Action
	Granted bool
}

// FromRole construye una concesión de rol.
func FromRole(module, action string) Grant {
	return Grant{Kind: RoleGrant, Module: Module(module), Action: Action(action), Granted: true}
}

// FromOverride construye un override individual.
func FromOverride(module, action string, granted bool) Grant {
	return Grant{Kind: Override, Module: Module(module), Action: Action(action), Granted: granted}
}

// Subject datos del miembro relevantes para la resolución.
type Subject struct {
	Active   bool
	IsOwner  bool
	RoleSlug string
}

// Matrix matriz efectiva. Un módulo ausente equivale a todo false.
type Matrix struct {
	full    bool
	modules map[Module]Actions
}

// Empty matriz sin permisos.
func Empty() Matrix {
	return Matrix{modules: map[Module]Actions{}}
}

// FullAccess matriz de owners y roles del sistema.
func FullAccess() Matrix {
	return Matrix{full: true, modules: map[Module]Actions{}}
}

// Resolve calcula la matriz: concesiones del rol primero, overrides al final.
// El orden de grants dentro de cada grupo no importa; el grupo Override siempre se aplica después.
func Resolve(subject Subject, grants []Grant) Matrix {
	if !subject.Active {
		return Empty()
	}
	if subject.IsOwner || IsSystemSlug(subject.RoleSlug) {
		return FullAccess()
	}
	m := Empty()
	for _, g := range grants {
		if g.Kind == RoleGrant {
			m.apply(g.Module, g.Action, true)
		}
	}
	for _, g := range grants {
		if g.Kind == Override {
			m.apply(g.Module, g.Action, g.Granted)
		}
	}
	return m
}

func (m *Matrix) apply(module Module, action Action, v bool) {
	a := m.modules[module]
	a.set(action, v)
	m.modules[module] = a
}

// IsFull informa si la matriz es de acceso total.
func (m Matrix) IsFull() bool { return m.full }

// Can informa si la acción está permitida sobre el módulo.
func (m Matrix) Can(module Module, action Action) bool {
	if m.full {
		return true
	}
	return m.modules[module].Has(action)
}

// For devuelve las banderas de un módulo.
func (m Matrix) For(module Module) Actions {
	if m.full {
		return Actions{View: true, Create: true, Update: true, Delete: true}
	}
	return m.modules[module]
}

// Map expande la matriz sobre el catálogo para serializarla.
func (m Matrix) Map() map[string]Actions {
	out := make(map[string]Actions, len(catalogue))
	for _, mod := range catalogue {
		out[string(mod)] = m.For(mod)
	}
	if !m.full {
		for mod, a := range m.modules {
			out[string(mod)] = a
		}
	}
	return out
}

// Modules módulos con al menos una acción, ordenados.
func (m Matrix) Modules() []Module {
	var out []Module
	for _, mod := range catalogue {
		a := m.For(mod)
		if a.View || a.Create || a.Update || a.Delete {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
