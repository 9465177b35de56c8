package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// EmployeeRepository persistencia de empleados (scoped por empresa).
type EmployeeRepository interface {
	Create(ctx context.Context, e *entity.Employee) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Employee, error)
	GetByDocumentNumber(ctx context.Context, companyID, number string) (*entity.Employee, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Employee, int, error)
	Update(ctx context.Context, e *entity.Employee) error
	Delete(ctx context.Context, companyID, id string) error
}

// JobPositionRepository cargos de la empresa.
type JobPositionRepository interface {
	Create(ctx context.Context, p *entity.JobPosition) error
	GetByID(ctx context.Context, companyID, id string) (*entity.JobPosition, error)
	List(ctx context.Context, companyID string) ([]*entity.JobPosition, error)
	Delete(ctx context.Context, companyID, id string) error
}
