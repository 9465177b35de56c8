package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByNIT(ctx context.Context, nit string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	// ListByUser empresas activas donde el usuario tiene una membresía activa.
	ListByUser(ctx context.Context, userID string) ([]*entity.Company, error)
}

// MemberRepository persistencia de membresías usuario-empresa.
type MemberRepository interface {
	Create(ctx context.Context, m *entity.Member) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Member, error)
	// GetByUserAndCompany devuelve la membresía (activa o no) del usuario en la empresa.
	GetByUserAndCompany(ctx context.Context, userID, companyID string) (*entity.Member, error)
	// ListActiveByUser membresías activas ordenadas por created_at ascendente.
	ListActiveByUser(ctx context.Context, userID string) ([]*entity.Member, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.MemberWithUser, int, error)
	Update(ctx context.Context, m *entity.Member) error
	CountByRole(ctx context.Context, roleID string) (int, error)
}

// PreferenceRepository guarda la empresa activa por usuario.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*entity.UserPreference, error)
	Upsert(ctx context.Context, pref *entity.UserPreference) error
}
