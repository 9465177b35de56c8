package document

import (
	"fmt"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// Operation operaciones del ciclo de vida.
type Operation string

const (
	OpApprove Operation = "approve"
	OpReject  Operation = "reject"
	OpRenew   Operation = "renew"
	OpReplace Operation = "replace"
	OpRevert  Operation = "revert"
)

// allowed estados de origen por operación (evaluados sobre el estado efectivo).
var allowed = map[Operation][]string{
	OpApprove: {entity.DocumentSubmitted},
	OpReject:  {entity.DocumentSubmitted, entity.DocumentApproved},
	OpRenew:   {entity.DocumentApproved, entity.DocumentExpired},
	OpReplace: {entity.DocumentSubmitted, entity.DocumentApproved, entity.DocumentRejected, entity.DocumentExpired},
	OpRevert:  {entity.DocumentSubmitted, entity.DocumentApproved, entity.DocumentRejected, entity.DocumentExpired},
}

// IsExpired expiración derivada: solo documentos con fecha y vencidos respecto a now.
func IsExpired(dt *entity.DocumentType, d *entity.Document, now time.Time) bool {
	if dt != nil && !dt.HasExpiration {
		return false
	}
	return d.ExpirationDate != nil && d.ExpirationDate.Before(now)
}

// EffectiveState estado visible: APPROVED/SUBMITTED vencidos se ven como EXPIRED.
func EffectiveState(dt *entity.DocumentType, d *entity.Document, now time.Time) string {
	if (d.State == entity.DocumentApproved || d.State == entity.DocumentSubmitted) && IsExpired(dt, d, now) {
		return entity.DocumentExpired
	}
	return d.State
}

// CanApply valida que la operación sea legal para el estado efectivo.
func CanApply(op Operation, effective string) error {
	for _, s := range allowed[op] {
		if s == effective {
			return nil
		}
	}
	return fmt.Errorf("%w: %s desde %s", domain.ErrInvalidTransition, op, effective)
}

// NextVersion número de la próxima versión.
func NextVersion(d *entity.Document) int {
	if latest := d.Latest(); latest != nil {
		return latest.Version + 1
	}
	return 1
}

// RevertPlan resultado de revertir: qué versión se elimina y qué queda vigente.
type RevertPlan struct {
	Removed        entity.DocumentVersion
	Restored       *entity.DocumentVersion // nil = se elimina el documento completo
	DeleteDocument bool
}

// PlanRevert calcula el efecto de revertir sin tocar persistencia.
func PlanRevert(d *entity.Document) (RevertPlan, error) {
	n := len(d.Versions)
	if n == 0 {
		return RevertPlan{}, fmt.Errorf("%w: el documento no tiene versiones", domain.ErrInvalidTransition)
	}
	plan := RevertPlan{Removed: d.Versions[n-1]}
	if n == 1 {
		plan.DeleteDocument = true
		return plan, nil
	}
	prev := d.Versions[n-2]
	plan.Restored = &prev
	return plan, nil
}

// ApplyRevert aplica el plan al documento en memoria.
func ApplyRevert(d *entity.Document, plan RevertPlan, now time.Time) {
	if plan.DeleteDocument || plan.Restored == nil {
		d.Versions = nil
		return
	}
	d.Versions = d.Versions[:len(d.Versions)-1]
	d.ExpirationDate = plan.Restored.ExpirationDate
	if plan.Restored.WasApproved {
		d.State = entity.DocumentApproved
	} else {
		d.State = entity.DocumentSubmitted
	}
	d.RejectReason = ""
	d.UpdatedAt = now
}
