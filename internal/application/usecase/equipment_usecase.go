package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// EquipmentTxRunner ejecuta fn con los repos de equipos y contratistas en una transacción.
type EquipmentTxRunner interface {
	RunEquipment(ctx context.Context, fn func(equipmentRepo repository.EquipmentRepository, contractorRepo repository.ContractorRepository) error) error
}

var (
	tagEquipment   = string(permission.ModuleEquipment)
	tagContractors = string(permission.ModuleContractors)
)

// EquipmentUseCase casos de uso de equipos y contratistas.
type EquipmentUseCase struct {
	repo        repository.EquipmentRepository
	contractors repository.ContractorRepository
	tx          EquipmentTxRunner
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewEquipmentUseCase construye el caso de uso.
func NewEquipmentUseCase(
	repo repository.EquipmentRepository,
	contractors repository.ContractorRepository,
	tx EquipmentTxRunner,
	revalidator ports.Revalidator,
	log *logger.Logger,
) *EquipmentUseCase {
	return &EquipmentUseCase{
		repo:        repo,
		contractors: contractors,
		tx:          tx,
		revalidator: revalidator,
		log:         log.Component("equipment"),
		now:         time.Now,
	}
}

// List lista equipos con búsqueda por código, placa o marca.
func (uc *EquipmentUseCase) List(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.EquipmentResponse], error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, tc.CompanyID, page.Search, page.Limit, page.Offset)
	if err != nil {
		return nil, persistErr(uc.log, "equipment.List", tc.CompanyID, err)
	}
	items := make([]dto.EquipmentResponse, 0, len(list))
	for _, eq := range list {
		items = append(items, *toEquipmentResponse(eq))
	}
	return &dto.ListResponse[dto.EquipmentResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetByID obtiene un equipo con sus contratistas.
func (uc *EquipmentUseCase) GetByID(ctx context.Context, tc tenant.Context, id string) (*dto.EquipmentResponse, error) {
	eq, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "equipment.GetByID", tc.CompanyID, err)
	}
	if eq == nil {
		return nil, domain.ErrNotFound
	}
	return toEquipmentResponse(eq), nil
}

// Create da de alta un equipo y sus asignaciones en una transacción.
func (uc *EquipmentUseCase) Create(ctx context.Context, tc tenant.Context, in dto.EquipmentRequest) (*dto.EquipmentResponse, error) {
	now := uc.now()
	eq := &entity.Equipment{ID: uuid.New().String(), CompanyID: tc.CompanyID, CreatedAt: now, UpdatedAt: now}
	if err := applyEquipment(eq, in); err != nil {
		return nil, err
	}
	err := uc.tx.RunEquipment(ctx, func(equipmentRepo repository.EquipmentRepository, contractorRepo repository.ContractorRepository) error {
		if err := equipmentRepo.Create(ctx, eq); err != nil {
			return err
		}
		if in.ContractorIDs == nil {
			return nil
		}
		return uc.assign(ctx, equipmentRepo, contractorRepo, eq, *in.ContractorIDs)
	})
	if err != nil {
		return nil, persistErr(uc.log, "equipment.Create", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEquipment)
	return toEquipmentResponse(eq), nil
}

// Update reemplaza los datos del equipo. Con ContractorIDs presente reemplaza también las
// asignaciones, en la misma transacción.
func (uc *EquipmentUseCase) Update(ctx context.Context, tc tenant.Context, id string, in dto.EquipmentRequest) (*dto.EquipmentResponse, error) {
	var out *entity.Equipment
	err := uc.tx.RunEquipment(ctx, func(equipmentRepo repository.EquipmentRepository, contractorRepo repository.ContractorRepository) error {
		eq, err := equipmentRepo.GetByID(ctx, tc.CompanyID, id)
		if err != nil {
			return err
		}
		if eq == nil {
			return domain.ErrNotFound
		}
		if err := applyEquipment(eq, in); err != nil {
			return err
		}
		eq.UpdatedAt = uc.now()
		if err := equipmentRepo.Update(ctx, eq); err != nil {
			return err
		}
		if in.ContractorIDs != nil {
			if err := uc.assign(ctx, equipmentRepo, contractorRepo, eq, *in.ContractorIDs); err != nil {
				return err
			}
		}
		out = eq
		return nil
	})
	if err != nil {
		return nil, persistErr(uc.log, "equipment.Update", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEquipment, string(permission.ModuleEquipmentDocuments))
	return toEquipmentResponse(out), nil
}

func (uc *EquipmentUseCase) assign(ctx context.Context, equipmentRepo repository.EquipmentRepository, contractorRepo repository.ContractorRepository, eq *entity.Equipment, ids []string) error {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, cid := range ids {
		if _, dup := seen[cid]; dup {
			continue
		}
		seen[cid] = struct{}{}
		c, err := contractorRepo.GetByID(ctx, eq.CompanyID, cid)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("%w: contratista %s no encontrado", domain.ErrInvalidInput, cid)
		}
		unique = append(unique, cid)
	}
	if err := equipmentRepo.ReplaceContractors(ctx, eq.ID, unique); err != nil {
		return err
	}
	eq.ContractorIDs = unique
	return nil
}

// Delete elimina un equipo.
func (uc *EquipmentUseCase) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if err := uc.repo.Delete(ctx, tc.CompanyID, id); err != nil {
		return persistErr(uc.log, "equipment.Delete", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEquipment)
	return nil
}

func applyEquipment(eq *entity.Equipment, in dto.EquipmentRequest) error {
	if err := required("internalCode", in.InternalCode); err != nil {
		return err
	}
	if in.AcquisitionCost.IsNegative() {
		return fmt.Errorf("%w: el costo de adquisición no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.Year < 0 || in.Year > time.Now().Year()+1 {
		return fmt.Errorf("%w: año %d", domain.ErrInvalidInput, in.Year)
	}
	status, err := oneOf("status", in.Status, entity.EquipmentStatusActive,
		entity.EquipmentStatusActive, entity.EquipmentStatusMaintenance, entity.EquipmentStatusInactive)
	if err != nil {
		return err
	}
	eq.InternalCode = strings.TrimSpace(in.InternalCode)
	eq.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))
	eq.Brand = strings.TrimSpace(in.Brand)
	eq.Model = strings.TrimSpace(in.Model)
	eq.Year = in.Year
	eq.Type = strings.TrimSpace(in.Type)
	eq.AcquisitionCost = in.AcquisitionCost
	eq.Status = status
	return nil
}

// ── Contratistas ──────────────────────────────────────────────────────────────

// ListContractors lista contratistas.
func (uc *EquipmentUseCase) ListContractors(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.ContractorResponse], error) {
	page.DefaultPage()
	list, total, err := uc.contractors.List(ctx, tc.CompanyID, page.Search, page.Limit, page.Offset)
	if err != nil {
		return nil, persistErr(uc.log, "contractors.List", tc.CompanyID, err)
	}
	items := make([]dto.ContractorResponse, 0, len(list))
	for _, c := range list {
		items = append(items, toContractorResponse(c))
	}
	return &dto.ListResponse[dto.ContractorResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetContractor obtiene un contratista.
func (uc *EquipmentUseCase) GetContractor(ctx context.Context, tc tenant.Context, id string) (*dto.ContractorResponse, error) {
	c, err := uc.contractors.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "contractors.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := toContractorResponse(c)
	return &out, nil
}

// CreateContractor crea un contratista.
func (uc *EquipmentUseCase) CreateContractor(ctx context.Context, tc tenant.Context, in dto.ContractorRequest) (*dto.ContractorResponse, error) {
	if err := required("name", in.Name); err != nil {
		return nil, err
	}
	now := uc.now()
	c := &entity.Contractor{
		ID:        uuid.New().String(),
		CompanyID: tc.CompanyID,
		Name:      strings.TrimSpace(in.Name),
		TaxID:     strings.TrimSpace(in.TaxID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.contractors.Create(ctx, c); err != nil {
		return nil, persistErr(uc.log, "contractors.Create", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagContractors)
	out := toContractorResponse(c)
	return &out, nil
}

// UpdateContractor actualiza un contratista.
func (uc *EquipmentUseCase) UpdateContractor(ctx context.Context, tc tenant.Context, id string, in dto.ContractorRequest) (*dto.ContractorResponse, error) {
	if err := required("name", in.Name); err != nil {
		return nil, err
	}
	c, err := uc.contractors.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "contractors.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.Name = strings.TrimSpace(in.Name)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.UpdatedAt = uc.now()
	if err := uc.contractors.Update(ctx, c); err != nil {
		return nil, persistErr(uc.log, "contractors.Update", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagContractors)
	out := toContractorResponse(c)
	return &out, nil
}

// DeleteContractor elimina un contratista sin equipos asignados.
func (uc *EquipmentUseCase) DeleteContractor(ctx context.Context, tc tenant.Context, id string) error {
	if err := uc.contractors.Delete(ctx, tc.CompanyID, id); err != nil {
		return persistErr(uc.log, "contractors.Delete", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagContractors, tagEquipment)
	return nil
}

func toEquipmentResponse(eq *entity.Equipment) *dto.EquipmentResponse {
	ids := eq.ContractorIDs
	if ids == nil {
		ids = []string{}
	}
	return &dto.EquipmentResponse{
		ID:              eq.ID,
		InternalCode:    eq.InternalCode,
		Plate:           eq.Plate,
		Brand:           eq.Brand,
		Model:           eq.Model,
		Year:            eq.Year,
		Type:            eq.Type,
		AcquisitionCost: eq.AcquisitionCost,
		Status:          eq.Status,
		ContractorIDs:   ids,
		CreatedAt:       eq.CreatedAt,
		UpdatedAt:       eq.UpdatedAt,
	}
}

func toContractorResponse(c *entity.Contractor) dto.ContractorResponse {
	return dto.ContractorResponse{ID: c.ID, Name: c.Name, TaxID: c.TaxID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}
