package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo bitácora append-only sobre PostgreSQL (sin UPDATE ni DELETE).
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Insert agrega una entrada.
func (r *AuditLogRepo) Insert(ctx context.Context, e *entity.AuditLog) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_logs (id, company_id, actor_id, action, target_type, target_id, target_name, module, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.CompanyID, e.ActorID, e.Action, e.TargetType, e.TargetID, e.TargetName, e.Module,
		nullJSON(e.OldValue), nullJSON(e.NewValue), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List entradas de la empresa, más recientes primero (los ULID ordenan por tiempo).
func (r *AuditLogRepo) List(ctx context.Context, companyID string, f entity.AuditLogFilter, limit, offset int) ([]*entity.AuditLog, int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, actor_id, action, target_type, target_id, target_name, module, old_value, new_value, created_at,
		       COUNT(*) OVER()
		FROM audit_logs
		WHERE company_id = $1
		  AND ($2 = '' OR actor_id::text = $2)
		  AND ($3 = '' OR target_type = $3)
		  AND ($4 = '' OR action = $4)
		ORDER BY id DESC
		LIMIT $5 OFFSET $6`,
		companyID, f.ActorID, f.TargetType, f.Action, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	var (
		list  []*entity.AuditLog
		total int
	)
	for rows.Next() {
		var e entity.AuditLog
		var oldV, newV []byte
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ActorID, &e.Action, &e.TargetType, &e.TargetID,
			&e.TargetName, &e.Module, &oldV, &newV, &e.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.OldValue, e.NewValue = oldV, newV
		list = append(list, &e)
	}
	return list, total, rows.Err()
}

// nullJSON envía NULL en lugar de un JSON vacío.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
