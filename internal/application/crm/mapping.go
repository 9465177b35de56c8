package crm

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

func validateClient(in dto.ClientRequest) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: el nombre del cliente es obligatorio", domain.ErrInvalidInput)
	}
	if in.Status != "" && clientStatus(in.Status) != strings.ToUpper(in.Status) {
		return fmt.Errorf("%w: estado de cliente %q", domain.ErrInvalidInput, in.Status)
	}
	return validEmail(in.Email)
}

func validateContact(in dto.ContactRequest) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: el nombre del contacto es obligatorio", domain.ErrInvalidInput)
	}
	return validEmail(in.Email)
}

// validateLead devuelve el estado normalizado. CONVERTED solo se alcanza con ConvertLead.
func validateLead(in dto.LeadRequest) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("%w: el nombre del prospecto es obligatorio", domain.ErrInvalidInput)
	}
	if in.EstimatedValue.IsNegative() {
		return "", fmt.Errorf("%w: el valor estimado no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := validEmail(in.Email); err != nil {
		return "", err
	}
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	switch status {
	case "":
		return entity.LeadStatusNew, nil
	case entity.LeadStatusNew, entity.LeadStatusContacted, entity.LeadStatusQualified, entity.LeadStatusLost:
		return status, nil
	}
	return "", fmt.Errorf("%w: estado de prospecto %q", domain.ErrInvalidInput, in.Status)
}

func validEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email %q", domain.ErrInvalidInput, email)
	}
	return nil
}

func clientStatus(s string) string {
	if strings.EqualFold(s, entity.ClientStatusInactive) {
		return entity.ClientStatusInactive
	}
	return entity.ClientStatusActive
}

func newContact(companyID string, in dto.ContactRequest, now time.Time) *entity.Contact {
	return &entity.Contact{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		Position:  in.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func toClientResponse(c *entity.Client, contacts []*entity.Contact) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Status:    c.Status,
		Contacts:  toContactResponses(contacts),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toContactResponse(c *entity.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Position:  c.Position,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toContactResponses(list []*entity.Contact) []dto.ContactResponse {
	if len(list) == 0 {
		return nil
	}
	out := make([]dto.ContactResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toContactResponse(c))
	}
	return out
}

func toLeadResponse(l *entity.Lead) dto.LeadResponse {
	return dto.LeadResponse{
		ID:                  l.ID,
		Name:                l.Name,
		TaxID:               l.TaxID,
		Email:               l.Email,
		Phone:               l.Phone,
		Source:              l.Source,
		EstimatedValue:      l.EstimatedValue,
		Status:              l.Status,
		ContactID:           l.ContactID,
		ConvertedToClientID: l.ConvertedToClientID,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}
