package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientRequest alta o edición de un cliente. Al crear se acepta contactId (contacto disponible
// existente) o contact (contacto nuevo), no ambos.
type ClientRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	TaxID     string          `json:"taxId" validate:"max=30"`
	Email     string          `json:"email" validate:"omitempty,email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Status    string          `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ContactID *string         `json:"contactId"`
	Contact   *ContactRequest `json:"contact"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	TaxID     string            `json:"taxId"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Address   string            `json:"address"`
	Status    string            `json:"status"`
	Contacts  []ContactResponse `json:"contacts,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ContactRequest alta o edición de un contacto.
type ContactRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Phone    string  `json:"phone"`
	Position string  `json:"position"`
	ClientID *string `json:"clientId"`
}

// ContactResponse salida de un contacto.
type ContactResponse struct {
	ID        string    `json:"id"`
	ClientID  *string   `json:"clientId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeadRequest alta o edición de un prospecto.
type LeadRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	TaxID          string          `json:"taxId"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Phone          string          `json:"phone"`
	Source         string          `json:"source"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
	Status         string          `json:"status" validate:"omitempty,oneof=NEW CONTACTED QUALIFIED LOST"`
	ContactID      *string         `json:"contactId"`
}

// LeadListRequest filtros del listado de prospectos.
type LeadListRequest struct {
	PageRequest
	Status string `query:"status"`
}

// LeadResponse salida de un prospecto.
type LeadResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	TaxID               string          `json:"taxId"`
	Email               string          `json:"email"`
	Phone               string          `json:"phone"`
	Source              string          `json:"source"`
	EstimatedValue      decimal.Decimal `json:"estimatedValue"`
	Status              string          `json:"status"`
	ContactID           *string         `json:"contactId"`
	ConvertedToClientID *string         `json:"convertedToClientId"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// ConvertLeadResponse prospecto convertido y el cliente creado.
type ConvertLeadResponse struct {
	Lead   LeadResponse   `json:"lead"`
	Client ClientResponse `json:"client"`
}
