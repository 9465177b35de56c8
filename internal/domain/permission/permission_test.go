package permission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

func TestResolve_SinRolNiOverrides_TodoFalse(t *testing.T) {
	m := permission.Resolve(permission.Subject{Active: true}, nil)

	for _, mod := range permission.Catalogue() {
		for _, a := range permission.AllActions {
			assert.False(t, m.Can(mod, a), "%s/%s debe ser false por defecto", mod, a)
		}
	}
	assert.Empty(t, m.Modules())
}

func TestResolve_OverrideRevocaConcesionDelRol(t *testing.T) {
	grants := []permission.Grant{
		// El override llega antes en la lista; igual debe aplicarse al final.
		permission.FromOverride("employees", "view", false),
		permission.FromRole("employees", "view"),
		permission.FromRole("employees", "create"),
	}
	m := permission.Resolve(permission.Subject{Active: true, RoleSlug: "supervisor"}, grants)

	assert.False(t, m.Can(permission.ModuleEmployees, permission.View), "el override debe ganar")
	assert.True(t, m.Can(permission.ModuleEmployees, permission.Create))
}

func TestResolve_OverrideConcedeSinRol(t *testing.T) {
	m := permission.Resolve(permission.Subject{Active: true}, []permission.Grant{
		permission.FromOverride("commercial.leads", "update", true),
	})

	assert.True(t, m.Can(permission.ModuleLeads, permission.Update))
	assert.False(t, m.Can(permission.ModuleLeads, permission.Delete))
	assert.Equal(t, []permission.Module{permission.ModuleLeads}, m.Modules())
}

func TestResolve_OwnerTieneTodo(t *testing.T) {
	grants := []permission.Grant{
		permission.FromOverride("employees", "view", false),
		permission.FromOverride("company.general.roles", "delete", false),
	}
	m := permission.Resolve(permission.Subject{Active: true, IsOwner: true}, grants)

	assert.True(t, m.IsFull())
	for _, mod := range permission.Catalogue() {
		for _, a := range permission.AllActions {
			assert.True(t, m.Can(mod, a), "owner debe tener %s/%s", mod, a)
		}
	}
}

func TestResolve_RolDelSistemaTieneTodo(t *testing.T) {
	m := permission.Resolve(permission.Subject{Active: true, RoleSlug: "Admin"}, nil)
	assert.True(t, m.Can(permission.ModuleAudit, permission.View))
	assert.True(t, m.Can("modulo.futuro", permission.Delete))
}

func TestResolve_MiembroInactivo_SinPermisos(t *testing.T) {
	m := permission.Resolve(permission.Subject{Active: false, IsOwner: true}, []permission.Grant{
		permission.FromRole("employees", "view"),
	})
	assert.False(t, m.Can(permission.ModuleEmployees, permission.View))
	assert.False(t, m.IsFull())
}

func TestMatrix_MapCubreElCatalogo(t *testing.T) {
	m := permission.Resolve(permission.Subject{Active: true}, []permission.Grant{
		permission.FromRole("equipment", "view"),
	})
	out := m.Map()
	assert.Len(t, out, len(permission.Catalogue()))
	assert.Equal(t, permission.Actions{View: true}, out["equipment"])
	assert.Equal(t, permission.Actions{}, out["employees"])
}

func TestParseAction(t *testing.T) {
	a, err := permission.ParseAction(" VIEW ")
	assert.NoError(t, err)
	assert.Equal(t, permission.View, a)

	_, err = permission.ParseAction("approve")
	assert.Error(t, err)
}
