package document

import (
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// Estados de un requisito en el resumen de cumplimiento.
const (
	StatusComplete      = "COMPLETE"
	StatusSubmitted     = "SUBMITTED"
	StatusMissing       = "MISSING"
	StatusExpired       = "EXPIRED"
	StatusRejected      = "REJECTED"
	StatusOptional      = "OPTIONAL"       // no obligatorio y sin cargar
	StatusNotApplicable = "NOT_APPLICABLE" // cargado históricamente, ya no aplica
)

// Requirement situación de un tipo de documento para un sujeto.
type Requirement struct {
	Type     *entity.DocumentType
	Applies  bool
	Document *entity.Document
	State    string // estado efectivo del documento, vacío si no hay
	Status   string
}

// Summary resumen de cumplimiento de un sujeto.
type Summary struct {
	Subject      Subject
	Period       string
	Requirements []Requirement
	Required     int
	Complete     int
	Missing      int
	Expired      int
	Submitted    int
	Rejected     int
}

// IsCompliant todos los obligatorios aplicables están completos.
func (s Summary) IsCompliant() bool {
	return s.Required == s.Complete
}

// Evaluate arma el resumen de cumplimiento. docs debe incluir los documentos del sujeto y los
// generales (SubjectID nil) de la empresa, que satisfacen los tipos multi-recurso.
// Un tipo que no aplica y nunca se cargó no aparece; si se cargó, aparece como NOT_APPLICABLE
// y no cuenta como faltante.
func Evaluate(types []*entity.DocumentType, docs []*entity.Document, subject Subject, now time.Time, period string) Summary {
	if period == "" {
		period = Period(now)
	}
	sum := Summary{Subject: subject, Period: period}
	for _, dt := range types {
		if dt.SubjectType != subject.Kind {
			continue
		}
		doc := pickDocument(dt, docs, subject, period)
		req := Requirement{Type: dt, Applies: AppliesTo(dt, subject), Document: doc}
		if doc != nil {
			req.State = EffectiveState(dt, doc, now)
		}

		if !req.Applies {
			if doc == nil {
				continue
			}
			req.Status = StatusNotApplicable
			sum.Requirements = append(sum.Requirements, req)
			continue
		}

		req.Status = statusFor(dt, doc, req.State)
		if dt.IsMandatory {
			sum.Required++
			switch req.Status {
			case StatusComplete:
				sum.Complete++
			case StatusMissing:
				sum.Missing++
			case StatusExpired:
				sum.Expired++
			case StatusSubmitted:
				sum.Submitted++
			case StatusRejected:
				sum.Rejected++
			}
		}
		sum.Requirements = append(sum.Requirements, req)
	}
	return sum
}

func statusFor(dt *entity.DocumentType, doc *entity.Document, state string) string {
	if doc == nil {
		if dt.IsMandatory {
			return StatusMissing
		}
		return StatusOptional
	}
	switch state {
	case entity.DocumentApproved:
		return StatusComplete
	case entity.DocumentExpired:
		return StatusExpired
	case entity.DocumentRejected:
		return StatusRejected
	default:
		return StatusSubmitted
	}
}

// pickDocument elige el documento más reciente que satisface el tipo para el sujeto y periodo.
func pickDocument(dt *entity.DocumentType, docs []*entity.Document, subject Subject, period string) *entity.Document {
	var best *entity.Document
	for _, d := range docs {
		if d.DocumentTypeID != dt.ID {
			continue
		}
		if dt.IsMultiResource {
			if d.SubjectID != nil && *d.SubjectID != subject.ID {
				continue
			}
		} else if d.SubjectID == nil || *d.SubjectID != subject.ID {
			continue
		}
		if dt.IsMonthly && (d.Period == nil || *d.Period != period) {
			continue
		}
		if best == nil || d.UpdatedAt.After(best.UpdatedAt) {
			best = d
		}
	}
	return best
}
