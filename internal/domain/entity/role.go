package entity

import "time"

// Role agrupa concesiones (módulo, acción). CompanyID nil = rol del sistema (inmutable).
type Role struct {
	ID          string
	CompanyID   *string
	Name        string
	Slug        string
	Description string
	IsSystem    bool
	Grants      []RoleGrant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleGrant concede una acción sobre un módulo.
type RoleGrant struct {
	Module string
	Action string
}

// PermissionOverride excepción por miembro que concede o revoca un par (módulo, acción).
type PermissionOverride struct {
	ID        string
	CompanyID string
	MemberID  string
	Module    string
	Action    string
	IsGranted bool
	CreatedBy string
	CreatedAt time.Time
}

// Estados de Invitation.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationCancelled = "cancelled"
)

// Invitation invita un email a unirse a la empresa con un rol.
type Invitation struct {
	ID         string
	CompanyID  string
	Email      string
	RoleID     *string
	Token      string
	Status     string
	InvitedBy  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// IsExpired informa si la invitación venció.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
