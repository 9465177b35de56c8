package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeRequest alta o reemplazo completo (PUT) de un empleado.
type EmployeeRequest struct {
	FirstName      string     `json:"firstName" validate:"required,max=100"`
	LastName       string     `json:"lastName" validate:"max=100"`
	DocumentNumber string     `json:"documentNumber" validate:"required,max=30"`
	Gender         string     `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	CostType       string     `json:"costType" validate:"omitempty,oneof=DIRECT INDIRECT"`
	JobPositionID  *string    `json:"jobPositionId"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone"`
	HireDate       *time.Time `json:"hireDate"`
	Status         string     `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// EmployeeResponse salida de un empleado.
type EmployeeResponse struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	FullName       string     `json:"fullName"`
	DocumentNumber string     `json:"documentNumber"`
	Gender         string     `json:"gender"`
	CostType       string     `json:"costType"`
	JobPositionID  *string    `json:"jobPositionId"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	HireDate       *time.Time `json:"hireDate"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// JobPositionRequest alta de un cargo.
type JobPositionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// JobPositionResponse salida de un cargo.
type JobPositionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// EquipmentRequest alta o reemplazo de un equipo. ContractorIDs nil deja las asignaciones como están.
type EquipmentRequest struct {
	InternalCode    string          `json:"internalCode" validate:"required,max=50"`
	Plate           string          `json:"plate"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Year            int             `json:"year"`
	Type            string          `json:"type"`
	AcquisitionCost decimal.Decimal `json:"acquisitionCost"`
	Status          string          `json:"status" validate:"omitempty,oneof=ACTIVE MAINTENANCE INACTIVE"`
	ContractorIDs   *[]string       `json:"contractorIds"`
}

// EquipmentResponse salida de un equipo.
type EquipmentResponse struct {
	ID              string          `json:"id"`
	InternalCode    string          `json:"internalCode"`
	Plate           string          `json:"plate"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Year            int             `json:"year"`
	Type            string          `json:"type"`
	AcquisitionCost decimal.Decimal `json:"acquisitionCost"`
	Status          string          `json:"status"`
	ContractorIDs   []string        `json:"contractorIds"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ContractorRequest alta o edición de un contratista.
type ContractorRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	TaxID string `json:"taxId"`
}

// ContractorResponse salida de un contratista.
type ContractorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
