package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Equipment.
const (
	EquipmentStatusActive      = "ACTIVE"
	EquipmentStatusMaintenance = "MAINTENANCE"
	EquipmentStatusInactive    = "INACTIVE"
)

// Equipment representa un equipo o vehículo de la flota.
type Equipment struct {
	ID              string
	CompanyID       string
	InternalCode    string
	Plate           string
	Brand           string
	Model           string
	Year            int
	Type            string // tipo de vehículo: camioneta, camión, maquinaria...
	AcquisitionCost decimal.Decimal
	Status          string
	ContractorIDs   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Contractor contratista al que se asignan equipos.
type Contractor struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
