package entity

import (
	"encoding/json"
	"time"
)

// AuditLog registro inmutable de una mutación que afecta permisos.
type AuditLog struct {
	ID         string // ULID, ordenable por tiempo
	CompanyID  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	TargetName *string
	Module     *string
	OldValue   json.RawMessage
	NewValue   json.RawMessage
	CreatedAt  time.Time
}

// AuditLogFilter filtros opcionales para listar la bitácora.
type AuditLogFilter struct {
	ActorID    string
	TargetType string
	Action     string
}
