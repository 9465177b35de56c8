package entity

import "time"

// Estados de Client.
const (
	ClientStatusActive   = "ACTIVE"
	ClientStatusInactive = "INACTIVE"
)

// Client representa un cliente comercial de la empresa.
type Client struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // NIT o Cédula (Colombia)
	Email     string
	Phone     string
	Address   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact persona de contacto; ClientID nil = disponible para vincular.
type Contact struct {
	ID        string
	CompanyID string
	ClientID  *string
	Name      string
	Email     string
	Phone     string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable informa si el contacto no está vinculado a ningún cliente.
func (c *Contact) IsAvailable() bool {
	return c.ClientID == nil
}
