package entity

import "time"

// Estados de Company.
const (
	CompanyStatusActive   = "active"
	CompanyStatusInactive = "inactive"
)

// Company representa una organización/tenant del sistema. Todo dato de negocio se aísla por CompanyID.
type Company struct {
	ID        string
	Name      string
	NIT       string // NIT colombiano (con o sin dígito de verificación)
	Address   string
	Phone     string
	Email     string
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive informa si la empresa puede operar.
func (c *Company) IsActive() bool {
	return c != nil && c.Status == CompanyStatusActive
}

// Member es la pertenencia de un usuario a una empresa.
// Un owner no depende de su rol: tiene acceso total.
type Member struct {
	ID        string
	CompanyID string
	UserID    string
	RoleID    *string // nil = sin rol (solo overrides)
	IsOwner   bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberWithUser vista de listado: membresía + datos del usuario + rol.
type MemberWithUser struct {
	Member
	UserEmail string
	UserName  string
	RoleName  string
	RoleSlug  string
}

// UserPreference guarda la empresa activa elegida por el usuario (una fila por usuario).
type UserPreference struct {
	UserID          string
	ActiveCompanyID string
	UpdatedAt       time.Time
}
