package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// EquipmentRepository persistencia de equipos/vehículos. GetByID carga ContractorIDs.
type EquipmentRepository interface {
	Create(ctx context.Context, eq *entity.Equipment) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Equipment, error)
	GetByInternalCode(ctx context.Context, companyID, code string) (*entity.Equipment, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Equipment, int, error)
	Update(ctx context.Context, eq *entity.Equipment) error
	// ReplaceContractors reemplaza todas las asignaciones del equipo.
	ReplaceContractors(ctx context.Context, equipmentID string, contractorIDs []string) error
	Delete(ctx context.Context, companyID, id string) error
}

// ContractorRepository contratistas de la empresa.
type ContractorRepository interface {
	Create(ctx context.Context, c *entity.Contractor) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Contractor, error)
	List(ctx context.Context, companyID, search string, limit, offset int) ([]*entity.Contractor, int, error)
	Update(ctx context.Context, c *entity.Contractor) error
	Delete(ctx context.Context, companyID, id string) error
}
