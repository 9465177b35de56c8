package document

import (
	"strings"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// Subject foto de los atributos actuales del recurso al que se le evalúan las reglas.
type Subject struct {
	Kind          string // entity.SubjectEmployee | SubjectEquipment | SubjectCompany
	ID            string
	Name          string
	Gender        string
	CostType      string
	JobPositionID string
	VehicleBrand  string
	VehicleType   string
}

// EmployeeSubject construye la foto de un empleado.
func EmployeeSubject(e *entity.Employee) Subject {
	s := Subject{
		Kind:     entity.SubjectEmployee,
		ID:       e.ID,
		Name:     e.FullName(),
		Gender:   e.Gender,
		CostType: e.CostType,
	}
	if e.JobPositionID != nil {
		s.JobPositionID = *e.JobPositionID
	}
	return s
}

// EquipmentSubject construye la foto de un equipo.
func EquipmentSubject(eq *entity.Equipment) Subject {
	name := eq.InternalCode
	if eq.Plate != "" {
		name += " (" + eq.Plate + ")"
	}
	return Subject{
		Kind:         entity.SubjectEquipment,
		ID:           eq.ID,
		Name:         name,
		VehicleBrand: eq.Brand,
		VehicleType:  eq.Type,
	}
}

// CompanySubject construye la foto de la empresa.
func CompanySubject(c *entity.Company) Subject {
	return Subject{Kind: entity.SubjectCompany, ID: c.ID, Name: c.Name}
}

// Rule predicado sobre la foto del sujeto.
type Rule struct {
	Name  string
	Match func(Subject) bool
}

// oneOf arma un predicado "el atributo está en la lista"; lista vacía no restringe.
func oneOf(name string, allowed []string, attr func(Subject) string) (Rule, bool) {
	if len(allowed) == 0 {
		return Rule{}, false
	}
	return Rule{
		Name: name,
		Match: func(s Subject) bool {
			v := strings.TrimSpace(attr(s))
			if v == "" {
				return false
			}
			for _, a := range allowed {
				if strings.EqualFold(strings.TrimSpace(a), v) {
					return true
				}
			}
			return false
		},
	}, true
}

// RuleSet compila las condiciones de un tipo de documento a predicados.
func RuleSet(r entity.DocumentRules) []Rule {
	var rules []Rule
	add := func(rule Rule, ok bool) {
		if ok {
			rules = append(rules, rule)
		}
	}
	add(oneOf("gender", r.Genders, func(s Subject) string { return s.Gender }))
	add(oneOf("cost_type", r.CostTypes, func(s Subject) string { return s.CostType }))
	add(oneOf("job_position", r.JobPositionIDs, func(s Subject) string { return s.JobPositionID }))
	add(oneOf("vehicle_brand", r.VehicleBrands, func(s Subject) string { return s.VehicleBrand }))
	add(oneOf("vehicle_type", r.VehicleTypes, func(s Subject) string { return s.VehicleType }))
	return rules
}

// AppliesTo informa si el tipo aplica al sujeto: mismo tipo de sujeto y todas las reglas cumplen.
func AppliesTo(dt *entity.DocumentType, s Subject) bool {
	if dt.SubjectType != s.Kind {
		return false
	}
	for _, r := range RuleSet(dt.Rules) {
		if !r.Match(s) {
			return false
		}
	}
	return true
}

// FailedRules nombres de las reglas que el sujeto no cumple (útil para mensajes).
func FailedRules(dt *entity.DocumentType, s Subject) []string {
	var out []string
	for _, r := range RuleSet(dt.Rules) {
		if !r.Match(s) {
			out = append(out, r.Name)
		}
	}
	return out
}
