// Package access resuelve y administra los permisos efectivos de los miembros.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// Service combina rol y overrides de un miembro en su matriz efectiva.
type Service struct {
	members     repository.MemberRepository
	roles       repository.RoleRepository
	overrides   repository.OverrideRepository
	audit       *audit.Logger
	revalidator ports.Revalidator
	log         *logger.Logger
	now         func() time.Time
}

// NewService construye el servicio.
func NewService(
	members repository.MemberRepository,
	roles repository.RoleRepository,
	overrides repository.OverrideRepository,
	auditLog *audit.Logger,
	revalidator ports.Revalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		members:     members,
		roles:       roles,
		overrides:   overrides,
		audit:       auditLog,
		revalidator: revalidator,
		log:         log.Component("access"),
		now:         time.Now,
	}
}

// ResolveForMember calcula la matriz del usuario en la empresa.
// Sin membresía activa devuelve una matriz vacía y member nil.
func (s *Service) ResolveForMember(ctx context.Context, companyID, userID string) (permission.Matrix, *entity.Member, error) {
	member, err := s.members.GetByUserAndCompany(ctx, userID, companyID)
	if err != nil {
		return permission.Empty(), nil, s.internal("members.GetByUserAndCompany", companyID, err)
	}
	if member == nil || !member.IsActive {
		return permission.Empty(), nil, nil
	}
	matrix, err := s.matrixFor(ctx, member)
	if err != nil {
		return permission.Empty(), nil, err
	}
	return matrix, member, nil
}

func (s *Service) matrixFor(ctx context.Context, member *entity.Member) (permission.Matrix, error) {
	subject := permission.Subject{Active: member.IsActive, IsOwner: member.IsOwner}
	var grants []permission.Grant

	if member.RoleID != nil {
		role, err := s.roles.GetByID(ctx, member.CompanyID, *member.RoleID)
		if err != nil {
			return permission.Empty(), s.internal("roles.GetByID", member.CompanyID, err)
		}
		if role != nil {
			subject.RoleSlug = role.Slug
			for _, g := range role.Grants {
				grants = append(grants, permission.FromRole(g.Module, g.Action))
			}
		}
	}
	if member.IsOwner || permission.IsSystemSlug(subject.RoleSlug) {
		return permission.Resolve(subject, nil), nil
	}

	overrides, err := s.overrides.ListByMember(ctx, member.CompanyID, member.ID)
	if err != nil {
		return permission.Empty(), s.internal("overrides.ListByMember", member.CompanyID, err)
	}
	for _, o := range overrides {
		grants = append(grants, permission.FromOverride(o.Module, o.Action, o.IsGranted))
	}
	return permission.Resolve(subject, grants), nil
}

// MatrixForMember matriz de un miembro por id (pantalla de detalle de usuario).
func (s *Service) MatrixForMember(ctx context.Context, tc tenant.Context, memberID string) (permission.Matrix, error) {
	member, err := s.member(ctx, tc.CompanyID, memberID)
	if err != nil {
		return permission.Empty(), err
	}
	if !member.IsActive {
		return permission.Empty(), nil
	}
	return s.matrixFor(ctx, member)
}

// ListOverrides overrides del miembro.
func (s *Service) ListOverrides(ctx context.Context, tc tenant.Context, memberID string) ([]*entity.PermissionOverride, error) {
	if _, err := s.member(ctx, tc.CompanyID, memberID); err != nil {
		return nil, err
	}
	list, err := s.overrides.ListByMember(ctx, tc.CompanyID, memberID)
	if err != nil {
		return nil, s.internal("overrides.ListByMember", tc.CompanyID, err)
	}
	return list, nil
}

// SetOverride concede o revoca un par (módulo, acción) para el miembro.
func (s *Service) SetOverride(ctx context.Context, tc tenant.Context, memberID, module, action string, granted bool) (*entity.PermissionOverride, error) {
	if !permission.IsKnownModule(module) {
		return nil, fmt.Errorf("%w: módulo desconocido %q", domain.ErrInvalidInput, module)
	}
	act, err := permission.ParseAction(action)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	member, err := s.member(ctx, tc.CompanyID, memberID)
	if err != nil {
		return nil, err
	}
	if member.IsOwner {
		return nil, fmt.Errorf("%w: el propietario siempre tiene acceso total", domain.ErrConflict)
	}

	o := &entity.PermissionOverride{
		ID:        uuid.New().String(),
		CompanyID: tc.CompanyID,
		MemberID:  memberID,
		Module:    module,
		Action:    string(act),
		IsGranted: granted,
		CreatedBy: tc.UserID,
		CreatedAt: s.now(),
	}
	if err := s.overrides.Upsert(ctx, o); err != nil {
		return nil, s.internal("overrides.Upsert", tc.CompanyID, err)
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.PermissionOverrideSet,
		TargetType: audit.TargetOverride,
		TargetID:   o.ID,
		Module:     &module,
		NewValue:   map[string]any{"memberId": memberID, "action": o.Action, "granted": granted},
	})
	s.revalidator.Revalidate(ctx, tc.CompanyID, string(permission.ModuleUsers))
	return o, nil
}

// RemoveOverride borra un override; el miembro vuelve a lo que diga su rol.
func (s *Service) RemoveOverride(ctx context.Context, tc tenant.Context, memberID, overrideID string) error {
	o, err := s.overrides.GetByID(ctx, tc.CompanyID, overrideID)
	if err != nil {
		return s.internal("overrides.GetByID", tc.CompanyID, err)
	}
	if o == nil || o.MemberID != memberID {
		return domain.ErrNotFound
	}
	if err := s.overrides.Delete(ctx, tc.CompanyID, overrideID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return s.internal("overrides.Delete", tc.CompanyID, err)
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:  tc.CompanyID,
		ActorID:    tc.UserID,
		Action:     audit.PermissionOverrideRemove,
		TargetType: audit.TargetOverride,
		TargetID:   o.ID,
		Module:     &o.Module,
		OldValue:   map[string]any{"memberId": o.MemberID, "action": o.Action, "granted": o.IsGranted},
	})
	s.revalidator.Revalidate(ctx, tc.CompanyID, string(permission.ModuleUsers))
	return nil
}

func (s *Service) member(ctx context.Context, companyID, memberID string) (*entity.Member, error) {
	m, err := s.members.GetByID(ctx, companyID, memberID)
	if err != nil {
		return nil, s.internal("members.GetByID", companyID, err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (s *Service) internal(op, companyID string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("company_id", companyID).Msg("access: fallo de persistencia")
	return domain.ErrInternal
}
