// Package tenant resuelve la empresa activa de un usuario autenticado.
package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// Context datos del tenant resueltos para la petición. Se pasa explícito a cada caso de uso.
type Context struct {
	UserID      string
	CompanyID   string
	MemberID    string
	IsOwner     bool
	Permissions permission.Matrix
}

// Can atajo sobre la matriz efectiva.
func (c Context) Can(module permission.Module, action permission.Action) bool {
	return c.Permissions.Can(module, action)
}

// Resolver elige la empresa activa: preferencia guardada, si no la membresía activa más antigua.
type Resolver struct {
	companies repository.CompanyRepository
	members   repository.MemberRepository
	prefs     repository.PreferenceRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewResolver construye el resolver.
func NewResolver(companies repository.CompanyRepository, members repository.MemberRepository, prefs repository.PreferenceRepository, log *logger.Logger) *Resolver {
	return &Resolver{companies: companies, members: members, prefs: prefs, log: log.Component("tenant"), now: time.Now}
}

// Resolve devuelve la empresa y membresía activas del usuario.
// Devuelve domain.ErrNoActiveTenant si no tiene ninguna membresía activa en una empresa activa.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*entity.Company, *entity.Member, error) {
	pref, err := r.prefs.Get(ctx, userID)
	if err != nil {
		return nil, nil, r.internal("prefs.Get", userID, err)
	}
	if pref != nil {
		company, member, err := r.usable(ctx, userID, pref.ActiveCompanyID)
		if err != nil {
			return nil, nil, err
		}
		if company != nil {
			return company, member, nil
		}
	}

	memberships, err := r.members.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, nil, r.internal("members.ListActiveByUser", userID, err)
	}
	for _, m := range memberships {
		company, err := r.companies.GetByID(ctx, m.CompanyID)
		if err != nil {
			return nil, nil, r.internal("companies.GetByID", userID, err)
		}
		if !company.IsActive() {
			continue
		}
		if err := r.save(ctx, userID, company.ID); err != nil {
			return nil, nil, err
		}
		return company, m, nil
	}
	return nil, nil, domain.ErrNoActiveTenant
}

// Switch cambia explícitamente la empresa activa.
func (r *Resolver) Switch(ctx context.Context, userID, companyID string) (*entity.Company, *entity.Member, error) {
	company, member, err := r.usable(ctx, userID, companyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, fmt.Errorf("%w: no pertenece a la empresa o está inactiva", domain.ErrForbidden)
	}
	if err := r.save(ctx, userID, companyID); err != nil {
		return nil, nil, err
	}
	return company, member, nil
}

// ListAccessible empresas activas donde el usuario tiene membresía activa.
func (r *Resolver) ListAccessible(ctx context.Context, userID string) ([]*entity.Company, error) {
	list, err := r.companies.ListByUser(ctx, userID)
	if err != nil {
		return nil, r.internal("companies.ListByUser", userID, err)
	}
	return list, nil
}

// usable devuelve (nil, nil, nil) si la membresía o la empresa no están activas.
func (r *Resolver) usable(ctx context.Context, userID, companyID string) (*entity.Company, *entity.Member, error) {
	member, err := r.members.GetByUserAndCompany(ctx, userID, companyID)
	if err != nil {
		return nil, nil, r.internal("members.GetByUserAndCompany", userID, err)
	}
	if member == nil || !member.IsActive {
		return nil, nil, nil
	}
	company, err := r.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, nil, r.internal("companies.GetByID", userID, err)
	}
	if !company.IsActive() {
		return nil, nil, nil
	}
	return company, member, nil
}

func (r *Resolver) save(ctx context.Context, userID, companyID string) error {
	pref := &entity.UserPreference{UserID: userID, ActiveCompanyID: companyID, UpdatedAt: r.now()}
	if err := r.prefs.Upsert(ctx, pref); err != nil {
		return r.internal("prefs.Upsert", userID, err)
	}
	return nil
}

func (r *Resolver) internal(op, userID string, err error) error {
	r.log.Error().Err(err).Str("op", op).Str("user_id", userID).Msg("tenant: fallo de persistencia")
	return domain.ErrInternal
}
