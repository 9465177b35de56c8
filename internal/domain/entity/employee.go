package entity

import "time"

// Géneros de Employee (usados también por las reglas de documentos).
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Tipos de costo de Employee.
const (
	CostTypeDirect   = "DIRECT"
	CostTypeIndirect = "INDIRECT"
)

// Estados de Employee.
const (
	EmployeeStatusActive   = "ACTIVE"
	EmployeeStatusInactive = "INACTIVE"
)

// Employee representa un empleado de la empresa.
type Employee struct {
	ID             string
	CompanyID      string
	FirstName      string
	LastName       string
	DocumentNumber string
	Gender         string
	CostType       string
	JobPositionID  *string
	Email          string
	Phone          string
	HireDate       *time.Time
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName nombre completo para listados y reportes.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// JobPosition cargo de la empresa.
type JobPosition struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}
