package dto

import (
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// RegisterRequest entrada para registro (auth).
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=200"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse token JWT y datos del usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse usuario autenticado con su empresa activa y la matriz efectiva.
// Company es nil si el usuario aún no pertenece a ninguna empresa activa.
type MeResponse struct {
	User        UserResponse                  `json:"user"`
	Company     *CompanyResponse              `json:"company"`
	MemberID    string                        `json:"memberId,omitempty"`
	IsOwner     bool                          `json:"isOwner"`
	Permissions map[string]permission.Actions `json:"permissions"`
}
