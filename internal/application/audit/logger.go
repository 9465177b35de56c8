// Package audit registra en la bitácora las mutaciones que afectan permisos y membresías.
package audit

import (
	"context"
	"encoding/json"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// Acciones registrables.
const (
	RoleCreated              = "ROLE_CREATED"
	RoleUpdated              = "ROLE_UPDATED"
	RoleDeleted              = "ROLE_DELETED"
	RolePermissionsUpdated   = "ROLE_PERMISSIONS_UPDATED"
	MemberRoleChanged        = "MEMBER_ROLE_CHANGED"
	MemberDeactivated        = "MEMBER_DEACTIVATED"
	MemberReactivated        = "MEMBER_REACTIVATED"
	PermissionOverrideSet    = "PERMISSION_OVERRIDE_SET"
	PermissionOverrideRemove = "PERMISSION_OVERRIDE_REMOVED"
	InvitationSent           = "INVITATION_SENT"
	InvitationCancelled      = "INVITATION_CANCELLED"
	InvitationAccepted       = "INVITATION_ACCEPTED"
)

// Tipos de objetivo.
const (
	TargetRole       = "ROLE"
	TargetMember     = "MEMBER"
	TargetInvitation = "INVITATION"
	TargetOverride   = "PERMISSION_OVERRIDE"
)

// Entry datos de una entrada; OldValue y NewValue se serializan a JSON.
type Entry struct {
	CompanyID  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	TargetName *string
	Module     *string
	OldValue   any
	NewValue   any
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewID identificador ordenable por tiempo.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Logger escribe en la bitácora sin hacer fallar al llamador.
type Logger struct {
	repo repository.AuditLogRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewLogger construye el logger de auditoría.
func NewLogger(repo repository.AuditLogRepository, log *logger.Logger) *Logger {
	return &Logger{repo: repo, log: log.Component("audit"), now: time.Now}
}

// Log inserta la entrada. Un fallo se registra en warn y se descarta.
func (l *Logger) Log(ctx context.Context, e Entry) {
	now := l.now()
	row := &entity.AuditLog{
		ID:         NewID(now),
		CompanyID:  e.CompanyID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		TargetName: e.TargetName,
		Module:     e.Module,
		OldValue:   marshal(e.OldValue),
		NewValue:   marshal(e.NewValue),
		CreatedAt:  now,
	}
	if err := l.repo.Insert(ctx, row); err != nil {
		l.log.Warn().Err(err).
			Str("company_id", e.CompanyID).
			Str("actor_id", e.ActorID).
			Str("action", e.Action).
			Str("target_type", e.TargetType).
			Str("target_id", e.TargetID).
			Msg("audit: no se pudo registrar la entrada")
	}
}

// List entradas de la empresa, más recientes primero.
func (l *Logger) List(ctx context.Context, companyID string, filter entity.AuditLogFilter, limit, offset int) ([]*entity.AuditLog, int, error) {
	list, total, err := l.repo.List(ctx, companyID, filter, limit, offset)
	if err != nil {
		l.log.Error().Err(err).Str("op", "audit.List").Str("company_id", companyID).Interface("filter", filter).Msg("audit: fallo de persistencia")
		return nil, 0, domain.ErrInternal
	}
	return list, total, nil
}

func marshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
