// Package auth registro, login y sesión del usuario (empresa activa y permisos efectivos).
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/permission"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/jwt"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// MinPasswordLength longitud mínima de contraseña.
const MinPasswordLength = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro, login, sesión y cambio de empresa.
type AuthUseCase struct {
	userRepo repository.UserRepository
	resolver *tenant.Resolver
	access   *access.Service
	jwtCfg   JWTConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, resolver *tenant.Resolver, accessSvc *access.Service, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		resolver: resolver,
		access:   accessSvc,
		jwtCfg:   jwtCfg,
		log:      log.Component("auth"),
		now:      time.Now,
	}
}

// RegisterUser crea un usuario: hashea password con bcrypt y persiste.
// Devuelve ErrEmailAlreadyExists si el email ya está registrado. El usuario nace sin empresa.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, uc.internal("users.GetByEmail", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, uc.internal("bcrypt", err)
	}
	now := uc.now()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, uc.internal("users.Create", err)
	}
	return uc.issue(user)
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Email desconocido y contraseña errada responden igual.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, uc.internal("users.GetByEmail", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	return uc.issue(user)
}

// Me usuario con su empresa activa y su matriz de permisos.
// Sin empresa accesible devuelve Company nil y permisos vacíos, no un error.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := uc.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &dto.MeResponse{User: *toUserResponse(user), Permissions: permission.Empty().Map()}

	company, _, err := uc.resolver.Resolve(ctx, userID)
	if errors.Is(err, domain.ErrNoActiveTenant) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return uc.withCompany(ctx, out, company)
}

// SwitchCompany cambia la empresa activa y devuelve la sesión resultante.
func (uc *AuthUseCase) SwitchCompany(ctx context.Context, userID, companyID string) (*dto.MeResponse, error) {
	user, err := uc.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	company, _, err := uc.resolver.Switch(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	out := &dto.MeResponse{User: *toUserResponse(user)}
	return uc.withCompany(ctx, out, company)
}

func (uc *AuthUseCase) withCompany(ctx context.Context, out *dto.MeResponse, company *entity.Company) (*dto.MeResponse, error) {
	matrix, member, err := uc.access.ResolveForMember(ctx, company.ID, out.User.ID)
	if err != nil {
		return nil, err
	}
	out.Company = &dto.CompanyResponse{
		ID:        company.ID,
		Name:      company.Name,
		NIT:       company.NIT,
		Address:   company.Address,
		Phone:     company.Phone,
		Email:     company.Email,
		Status:    company.Status,
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.UpdatedAt,
	}
	if member != nil {
		out.MemberID = member.ID
		out.IsOwner = member.IsOwner
	}
	out.Permissions = matrix.Map()
	return out, nil
}

func (uc *AuthUseCase) user(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, uc.internal("users.GetByID", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, uc.internal("jwt.Generate", err)
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

func (uc *AuthUseCase) internal(op string, err error) error {
	uc.log.Error().Err(err).Str("op", op).Msg("auth: fallo interno")
	return domain.ErrInternal
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
