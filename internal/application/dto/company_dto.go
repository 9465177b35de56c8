package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	NIT     string `json:"nit" validate:"required,min=1,max=20"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// UpdateCompanyRequest entrada para actualizar la empresa activa (campos opcionales).
type UpdateCompanyRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NIT       string    `json:"nit"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SwitchCompanyRequest cambia la empresa activa del usuario.
type SwitchCompanyRequest struct {
	CompanyID string `json:"companyId" validate:"required,uuid"`
}

// MemberResponse miembro con datos del usuario y su rol.
type MemberResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	RoleID    *string   `json:"roleId"`
	RoleName  string    `json:"roleName,omitempty"`
	RoleSlug  string    `json:"roleSlug,omitempty"`
	IsOwner   bool      `json:"isOwner"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateMemberRoleRequest asigna (o quita con null) el rol de un miembro.
type UpdateMemberRoleRequest struct {
	RoleID *string `json:"roleId"`
}

// CreateInvitationRequest invita un email con un rol opcional.
type CreateInvitationRequest struct {
	Email  string  `json:"email" validate:"required,email"`
	RoleID *string `json:"roleId"`
}

// AcceptInvitationRequest token recibido por el invitado.
type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// InvitationResponse salida de una invitación. El token solo se expone al crearla.
type InvitationResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	RoleID     *string    `json:"roleId"`
	Status     string     `json:"status"`
	Token      string     `json:"token,omitempty"`
	InvitedBy  string     `json:"invitedBy"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
