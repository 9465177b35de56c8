package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client (comercial).
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Client, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Client, int, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, companyID, id string) error
}

// ContactRepository contactos comerciales; ClientID nil = disponible.
type ContactRepository interface {
	Create(ctx context.Context, c *entity.Contact) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Contact, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Contact, int, error)
	ListAvailable(ctx context.Context, companyID string) ([]*entity.Contact, error)
	Update(ctx context.Context, c *entity.Contact) error
	Delete(ctx context.Context, companyID, id string) error
}

// LeadRepository prospectos comerciales.
type LeadRepository interface {
	Create(ctx context.Context, l *entity.Lead) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Lead, error)
	// GetForUpdate como GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Lead, error)
	List(ctx context.Context, companyID, search, status string, limit, offset int) ([]*entity.Lead, int, error)
	Update(ctx context.Context, l *entity.Lead) error
	Delete(ctx context.Context, companyID, id string) error
}
