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

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	repo        repository.CompanyRepository
	tx          MembershipTxRunner
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository, tx MembershipTxRunner, revalidator ports.Revalidator, log *logger.Logger) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, tx: tx, revalidator: revalidator, log: log.Component("companies"), now: time.Now}
}

// Create crea una nueva empresa. El creador queda como propietario y la empresa como su empresa activa.
// Devuelve domain.ErrDuplicate si el NIT ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, userID string, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if err := required("name", in.Name); err != nil {
		return nil, err
	}
	if err := required("nit", in.NIT); err != nil {
		return nil, err
	}
	if err := validEmail(in.Email); err != nil {
		return nil, err
	}
	nit := normalizeNIT(in.NIT)
	now := uc.now()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		NIT:       nit,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     strings.TrimSpace(in.Email),
		Status:    entity.CompanyStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.RunMembership(ctx, func(companyRepo repository.CompanyRepository, memberRepo repository.MemberRepository, prefRepo repository.PreferenceRepository, _ repository.InvitationRepository) error {
		existing, err := companyRepo.GetByNIT(ctx, nit)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: ya existe una empresa con NIT %s", domain.ErrDuplicate, nit)
		}
		if err := companyRepo.Create(ctx, company); err != nil {
			return err
		}
		owner := &entity.Member{
			ID:        uuid.New().String(),
			CompanyID: company.ID,
			UserID:    userID,
			IsOwner:   true,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := memberRepo.Create(ctx, owner); err != nil {
			return err
		}
		return prefRepo.Upsert(ctx, &entity.UserPreference{UserID: userID, ActiveCompanyID: company.ID, UpdatedAt: now})
	})
	if err != nil {
		return nil, persistErr(uc.log, "companies.Create", "", err)
	}
	return toCompanyResponse(company), nil
}

// Current empresa activa del contexto.
func (uc *CompanyUseCase) Current(ctx context.Context, tc tenant.Context) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, tc.CompanyID)
	if err != nil {
		return nil, persistErr(uc.log, "companies.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toCompanyResponse(c), nil
}

// UpdateCurrent actualiza los campos presentes de la empresa activa. El NIT no se edita.
func (uc *CompanyUseCase) UpdateCurrent(ctx context.Context, tc tenant.Context, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, tc.CompanyID)
	if err != nil {
		return nil, persistErr(uc.log, "companies.GetByID", tc.CompanyID, err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if err := required("name", *in.Name); err != nil {
			return nil, err
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Email != nil {
		if err := validEmail(*in.Email); err != nil {
			return nil, err
		}
		c.Email = strings.TrimSpace(*in.Email)
	}
	c.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, persistErr(uc.log, "companies.Update", tc.CompanyID, err)
	}
	uc.revalidator.Revalidate(ctx, tc.CompanyID, string(permission.ModuleSettings))
	return toCompanyResponse(c), nil
}

// ListForUser empresas activas a las que el usuario tiene acceso.
func (uc *CompanyUseCase) ListForUser(ctx context.Context, userID string) ([]dto.CompanyResponse, error) {
	list, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistErr(uc.log, "companies.ListByUser", "", err)
	}
	out := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCompanyResponse(c))
	}
	return out, nil
}

// normalizeNIT quita puntos y espacios; conserva el guion del dígito de verificación.
func normalizeNIT(nit string) string {
	return strings.NewReplacer(".", "", " ", "").Replace(strings.TrimSpace(nit))
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		NIT:       c.NIT,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
