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

var tagEmployees = string(permission.ModuleEmployees)

// EmployeeUseCase casos de uso de empleados y cargos.
type EmployeeUseCase struct {
	repo        repository.EmployeeRepository
	positions   repository.JobPositionRepository
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewEmployeeUseCase construye el caso de uso.
func NewEmployeeUseCase(repo repository.EmployeeRepository, positions repository.JobPositionRepository, revalidator ports.Revalidator, log *logger.Logger) *EmployeeUseCase {
	return &EmployeeUseCase{repo: repo, positions: positions, revalidator: revalidator, log: log.Component("employees"), now: time.Now}
}

// List lista empleados con búsqueda por nombre o documento.
func (uc *EmployeeUseCase) List(ctx context.Context, tc tenant.Context, page dto.PageRequest) (*dto.ListResponse[dto.EmployeeResponse], error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, tc.CompanyID, page.Search, page.Limit, page.Offset)
	if err != nil {
		return nil, persistErr(uc.log, "employees.List", tc.CompanyID, err)
	}
	items := make([]dto.EmployeeResponse, 0, len(list))
	for _, e := range list {
		items = append(items, *toEmployeeResponse(e))
	}
	return &dto.ListResponse[dto.EmployeeResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetByID obtiene un empleado de la empresa.
func (uc *EmployeeUseCase) GetByID(ctx context.Context, tc tenant.Context, id string) (*dto.EmployeeResponse, error) {
	e, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "employees.GetByID", tc.CompanyID, err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return toEmployeeResponse(e), nil
}

// Create da de alta un empleado. El número de documento es único por empresa.
func (uc *EmployeeUseCase) Create(ctx context.Context, tc tenant.Context, in dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	now := uc.now()
	e := &entity.Employee{ID: uuid.New().String(), CompanyID: tc.CompanyID, CreatedAt: now}
	if err := uc.apply(ctx, tc.CompanyID, e, in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByDocumentNumber(ctx, tc.CompanyID, e.DocumentNumber)
	if err != nil {
		return nil, persistErr(uc.log, "employees.GetByDocumentNumber", tc.CompanyID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe un empleado con el documento %s", domain.ErrDuplicate, e.DocumentNumber)
	}
	e.UpdatedAt = now
	if err := uc.repo.Create(ctx, e); err != nil {
		return nil, persistErr(uc.log, "employees.Create", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEmployees)
	return toEmployeeResponse(e), nil
}

// Update reemplaza los datos del empleado.
func (uc *EmployeeUseCase) Update(ctx context.Context, tc tenant.Context, id string, in dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	e, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "employees.GetByID", tc.CompanyID, err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.apply(ctx, tc.CompanyID, e, in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByDocumentNumber(ctx, tc.CompanyID, e.DocumentNumber)
	if err != nil {
		return nil, persistErr(uc.log, "employees.GetByDocumentNumber", tc.CompanyID, err)
	}
	if existing != nil && existing.ID != e.ID {
		return nil, fmt.Errorf("%w: ya existe un empleado con el documento %s", domain.ErrDuplicate, e.DocumentNumber)
	}
	e.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, e); err != nil {
		return nil, persistErr(uc.log, "employees.Update", tc.CompanyID, err)
	}
	// Cambios de género, cargo o tipo de costo alteran la aplicabilidad de documentos.
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEmployees, string(permission.ModuleEmployeeDocuments))
	return toEmployeeResponse(e), nil
}

// Delete elimina un empleado.
func (uc *EmployeeUseCase) Delete(ctx context.Context, tc tenant.Context, id string) error {
	if err := uc.repo.Delete(ctx, tc.CompanyID, id); err != nil {
		return persistErr(uc.log, "employees.Delete", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEmployees)
	return nil
}

func (uc *EmployeeUseCase) apply(ctx context.Context, companyID string, e *entity.Employee, in dto.EmployeeRequest) error {
	if err := required("firstName", in.FirstName); err != nil {
		return err
	}
	if err := required("documentNumber", in.DocumentNumber); err != nil {
		return err
	}
	if err := validEmail(in.Email); err != nil {
		return err
	}
	gender, err := oneOf("gender", in.Gender, "", entity.GenderMale, entity.GenderFemale, entity.GenderOther)
	if err != nil {
		return err
	}
	costType, err := oneOf("costType", in.CostType, "", entity.CostTypeDirect, entity.CostTypeIndirect)
	if err != nil {
		return err
	}
	status, err := oneOf("status", in.Status, entity.EmployeeStatusActive, entity.EmployeeStatusActive, entity.EmployeeStatusInactive)
	if err != nil {
		return err
	}
	if in.JobPositionID != nil {
		p, err := uc.positions.GetByID(ctx, companyID, *in.JobPositionID)
		if err != nil {
			return persistErr(uc.log, "jobPositions.GetByID", companyID, err)
		}
		if p == nil {
			return fmt.Errorf("%w: cargo no encontrado", domain.ErrInvalidInput)
		}
	}
	e.FirstName = strings.TrimSpace(in.FirstName)
	e.LastName = strings.TrimSpace(in.LastName)
	e.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	e.Gender = gender
	e.CostType = costType
	e.JobPositionID = in.JobPositionID
	e.Email = strings.TrimSpace(in.Email)
	e.Phone = in.Phone
	e.HireDate = in.HireDate
	e.Status = status
	return nil
}

// ListPositions cargos de la empresa.
func (uc *EmployeeUseCase) ListPositions(ctx context.Context, tc tenant.Context) ([]dto.JobPositionResponse, error) {
	list, err := uc.positions.List(ctx, tc.CompanyID)
	if err != nil {
		return nil, persistErr(uc.log, "jobPositions.List", tc.CompanyID, err)
	}
	out := make([]dto.JobPositionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.JobPositionResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt})
	}
	return out, nil
}

// CreatePosition crea un cargo.
func (uc *EmployeeUseCase) CreatePosition(ctx context.Context, tc tenant.Context, in dto.JobPositionRequest) (*dto.JobPositionResponse, error) {
	if err := required("name", in.Name); err != nil {
		return nil, err
	}
	p := &entity.JobPosition{ID: uuid.New().String(), CompanyID: tc.CompanyID, Name: strings.TrimSpace(in.Name), CreatedAt: uc.now()}
	if err := uc.positions.Create(ctx, p); err != nil {
		return nil, persistErr(uc.log, "jobPositions.Create", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEmployees)
	return &dto.JobPositionResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}, nil
}

// DeletePosition elimina un cargo sin empleados asignados (ErrConflict en caso contrario).
func (uc *EmployeeUseCase) DeletePosition(ctx context.Context, tc tenant.Context, id string) error {
	if err := uc.positions.Delete(ctx, tc.CompanyID, id); err != nil {
		return persistErr(uc.log, "jobPositions.Delete", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, tagEmployees)
	return nil
}

func toEmployeeResponse(e *entity.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:             e.ID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		FullName:       e.FullName(),
		DocumentNumber: e.DocumentNumber,
		Gender:         e.Gender,
		CostType:       e.CostType,
		JobPositionID:  e.JobPositionID,
		Email:          e.Email,
		Phone:          e.Phone,
		HireDate:       e.HireDate,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
