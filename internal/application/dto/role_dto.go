package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/permission"
)

// RoleRequest alta o edición de un rol propio. Permissions es la matriz módulo -> acciones.
type RoleRequest struct {
	Name        string                        `json:"name" validate:"required,min=1,max=100"`
	Description string                        `json:"description"`
	Permissions map[string]permission.Actions `json:"permissions"`
}

// RolePermissionsRequest reemplaza las concesiones de un rol.
type RolePermissionsRequest struct {
	Permissions map[string]permission.Actions `json:"permissions"`
}

// RoleResponse salida de un rol.
type RoleResponse struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	Slug        string                        `json:"slug"`
	Description string                        `json:"description"`
	IsSystem    bool                          `json:"isSystem"`
	Permissions map[string]permission.Actions `json:"permissions"`
	CreatedAt   time.Time                     `json:"createdAt"`
	UpdatedAt   time.Time                     `json:"updatedAt"`
}

// OverrideRequest concede (granted=true) o revoca un par módulo/acción a un miembro.
type OverrideRequest struct {
	Module  string `json:"module" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=view create update delete"`
	Granted bool   `json:"granted"`
}

// OverrideResponse salida de un override.
type OverrideResponse struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId"`
	Module    string    `json:"module"`
	Action    string    `json:"action"`
	Granted   bool      `json:"granted"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditLogQuery filtros de la bitácora.
type AuditLogQuery struct {
	PageRequest
	ActorID    string `query:"actorId"`
	TargetType string `query:"targetType"`
	Action     string `query:"action"`
}

// AuditLogResponse entrada de la bitácora.
type AuditLogResponse struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	TargetType string          `json:"targetType"`
	TargetID   string          `json:"targetId"`
	TargetName *string         `json:"targetName,omitempty"`
	Module     *string         `json:"module,omitempty"`
	OldValue   json.RawMessage `json:"oldValue,omitempty"`
	NewValue   json.RawMessage `json:"newValue,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
