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

var tagDocumentTypes = string(permission.ModuleDocumentTypes)

// DocumentTypeUseCase plantillas de documentos de cumplimiento.
type DocumentTypeUseCase struct {
	repo        repository.DocumentTypeRepository
	documents   repository.DocumentRepository
	positions   repository.JobPositionRepository
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewDocumentTypeUseCase construye el caso de uso.
func NewDocumentTypeUseCase(
	repo repository.DocumentTypeRepository,
	documents repository.DocumentRepository,
	positions repository.JobPositionRepository,
	revalidator ports.Revalidator,
	log *logger.Logger,
) *DocumentTypeUseCase {
	return &DocumentTypeUseCase{
		repo:        repo,
		documents:   documents,
		positions:   positions,
		revalidator: revalidator,
		log:         log.Component("document_types"),
		now:         time.Now,
	}
}

// List tipos de la empresa, opcionalmente de un tipo de sujeto.
func (uc *DocumentTypeUseCase) List(ctx context.Context, tc tenant.Context, subjectType string) ([]dto.DocumentTypeResponse, error) {
	subjectType = strings.ToUpper(strings.TrimSpace(subjectType))
	list, err := uc.repo.List(ctx, tc.CompanyID, subjectType)
	if err != nil {
		return nil, persistErr(uc.log, "documentTypes.List", tc.CompanyID, err)
	}
	out := make([]dto.DocumentTypeResponse, 0, len(list))
	for _, dt := range list {
		out = append(out, ToDocumentTypeResponse(dt))
	}
	return out, nil
}

// Get un tipo de documento.
func (uc *DocumentTypeUseCase) Get(ctx context.Context, tc tenant.Context, id string) (*dto.DocumentTypeResponse, error) {
	dt, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "documentTypes.GetByID", tc.CompanyID, err)
	}
	if dt == nil {
		return nil, domain.ErrNotFound
	}
	out := ToDocumentTypeResponse(dt)
	return &out, nil
}

// Create crea un tipo de documento.
func (uc *DocumentTypeUseCase) Create(ctx context.Context, tc tenant.Context, in dto.DocumentTypeRequest) (*dto.DocumentTypeResponse, error) {
	now := uc.now()
	dt := &entity.DocumentType{ID: uuid.New().String(), CompanyID: tc.CompanyID, CreatedAt: now, UpdatedAt: now}
	if err := uc.apply(ctx, tc.CompanyID, dt, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, dt); err != nil {
		return nil, persistErr(uc.log, "documentTypes.Create", tc.CompanyID, err)
	}
	uc.revalidate(ctx, tc.CompanyID, dt.SubjectType)
	out := ToDocumentTypeResponse(dt)
	return &out, nil
}

// Update reemplaza el tipo. El tipo de sujeto no cambia si ya hay documentos cargados.
func (uc *DocumentTypeUseCase) Update(ctx context.Context, tc tenant.Context, id string, in dto.DocumentTypeRequest) (*dto.DocumentTypeResponse, error) {
	dt, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return nil, persistErr(uc.log, "documentTypes.GetByID", tc.CompanyID, err)
	}
	if dt == nil {
		return nil, domain.ErrNotFound
	}
	previous := dt.SubjectType
	if err := uc.apply(ctx, tc.CompanyID, dt, in); err != nil {
		return nil, err
	}
	if dt.SubjectType != previous {
		n, err := uc.documents.CountByType(ctx, tc.CompanyID, dt.ID)
		if err != nil {
			return nil, persistErr(uc.log, "documents.CountByType", tc.CompanyID, err)
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: el tipo ya tiene documentos de %s", domain.ErrConflict, previous)
		}
	}
	dt.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, dt); err != nil {
		return nil, persistErr(uc.log, "documentTypes.Update", tc.CompanyID, err)
	}
	uc.revalidate(ctx, tc.CompanyID, previous, dt.SubjectType)
	out := ToDocumentTypeResponse(dt)
	return &out, nil
}

// Delete elimina un tipo sin documentos cargados.
func (uc *DocumentTypeUseCase) Delete(ctx context.Context, tc tenant.Context, id string) error {
	dt, err := uc.repo.GetByID(ctx, tc.CompanyID, id)
	if err != nil {
		return persistErr(uc.log, "documentTypes.GetByID", tc.CompanyID, err)
	}
	if dt == nil {
		return domain.ErrNotFound
	}
	n, err := uc.documents.CountByType(ctx, tc.CompanyID, id)
	if err != nil {
		return persistErr(uc.log, "documents.CountByType", tc.CompanyID, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: el tipo tiene %d documento(s) cargados", domain.ErrConflict, n)
	}
	if err := uc.repo.Delete(ctx, tc.CompanyID, id); err != nil {
		return persistErr(uc.log, "documentTypes.Delete", tc.CompanyID, err)
	}
	uc.revalidate(ctx, tc.CompanyID, dt.SubjectType)
	return nil
}

func (uc *DocumentTypeUseCase) apply(ctx context.Context, companyID string, dt *entity.DocumentType, in dto.DocumentTypeRequest) error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	subjectType, err := oneOf("subjectType", in.SubjectType, "", entity.SubjectEmployee, entity.SubjectEquipment, entity.SubjectCompany)
	if err != nil {
		return err
	}
	if subjectType == "" {
		return fmt.Errorf("%w: subjectType es obligatorio", domain.ErrInvalidInput)
	}
	if in.IsMultiResource && subjectType == entity.SubjectCompany {
		return fmt.Errorf("%w: un documento de empresa ya es general", domain.ErrInvalidInput)
	}
	rules, err := uc.rules(ctx, companyID, subjectType, in.Rules)
	if err != nil {
		return err
	}
	dt.Name = strings.TrimSpace(in.Name)
	dt.SubjectType = subjectType
	dt.IsMandatory = in.IsMandatory
	dt.HasExpiration = in.HasExpiration
	dt.IsMonthly = in.IsMonthly
	dt.IsMultiResource = in.IsMultiResource
	dt.Rules = rules
	return nil
}

// rules valida que cada regla corresponda al tipo de sujeto y normaliza sus valores.
func (uc *DocumentTypeUseCase) rules(ctx context.Context, companyID, subjectType string, in dto.DocumentRulesDTO) (entity.DocumentRules, error) {
	var out entity.DocumentRules
	personRules := len(in.Genders) + len(in.CostTypes) + len(in.JobPositionIDs)
	vehicleRules := len(in.VehicleBrands) + len(in.VehicleTypes)
	switch {
	case subjectType != entity.SubjectEmployee && personRules > 0:
		return out, fmt.Errorf("%w: las reglas de género, costo y cargo solo aplican a empleados", domain.ErrInvalidInput)
	case subjectType != entity.SubjectEquipment && vehicleRules > 0:
		return out, fmt.Errorf("%w: las reglas de marca y tipo solo aplican a equipos", domain.ErrInvalidInput)
	}

	for _, g := range in.Genders {
		v, err := oneOf("genders", g, "", entity.GenderMale, entity.GenderFemale, entity.GenderOther)
		if err != nil {
			return out, err
		}
		if v != "" {
			out.Genders = append(out.Genders, v)
		}
	}
	for _, c := range in.CostTypes {
		v, err := oneOf("costTypes", c, "", entity.CostTypeDirect, entity.CostTypeIndirect)
		if err != nil {
			return out, err
		}
		if v != "" {
			out.CostTypes = append(out.CostTypes, v)
		}
	}
	for _, id := range in.JobPositionIDs {
		p, err := uc.positions.GetByID(ctx, companyID, id)
		if err != nil {
			return out, persistErr(uc.log, "jobPositions.GetByID", companyID, err)
		}
		if p == nil {
			return out, fmt.Errorf("%w: cargo %s no encontrado", domain.ErrInvalidInput, id)
		}
		out.JobPositionIDs = append(out.JobPositionIDs, id)
	}
	out.VehicleBrands = trimmed(in.VehicleBrands)
	out.VehicleTypes = trimmed(in.VehicleTypes)
	return out, nil
}

func (uc *DocumentTypeUseCase) revalidate(ctx context.Context, companyID string, subjectTypes ...string) {
	tags := []string{tagDocumentTypes}
	for _, st := range subjectTypes {
		switch st {
		case entity.SubjectEmployee:
			tags = append(tags, string(permission.ModuleEmployeeDocuments))
		case entity.SubjectEquipment:
			tags = append(tags, string(permission.ModuleEquipmentDocuments))
		case entity.SubjectCompany:
			tags = append(tags, string(permission.ModuleCompanyDocuments))
		}
	}
	uc.revalidator.Revalidate(ctx, companyID, tags...)
}

func trimmed(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ToDocumentTypeResponse mapea la entidad a su DTO; lo reutiliza el handler de documentos.
func ToDocumentTypeResponse(dt *entity.DocumentType) dto.DocumentTypeResponse {
	return dto.DocumentTypeResponse{
		ID:              dt.ID,
		Name:            dt.Name,
		SubjectType:     dt.SubjectType,
		IsMandatory:     dt.IsMandatory,
		HasExpiration:   dt.HasExpiration,
		IsMonthly:       dt.IsMonthly,
		IsMultiResource: dt.IsMultiResource,
		Rules: dto.DocumentRulesDTO{
			Genders:        nonNil(dt.Rules.Genders),
			CostTypes:      nonNil(dt.Rules.CostTypes),
			JobPositionIDs: nonNil(dt.Rules.JobPositionIDs),
			VehicleBrands:  nonNil(dt.Rules.VehicleBrands),
			VehicleTypes:   nonNil(dt.Rules.VehicleTypes),
		},
		CreatedAt: dt.CreatedAt,
		UpdatedAt: dt.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
