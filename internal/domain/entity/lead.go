package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de Lead.
const (
	LeadStatusNew       = "NEW"
	LeadStatusContacted = "CONTACTED"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusLost      = "LOST"
	LeadStatusConverted = "CONVERTED"
)

// Lead prospecto comercial.
type Lead struct {
	ID                  string
	CompanyID           string
	Name                string
	TaxID               string
	Email               string
	Phone               string
	Source              string
	EstimatedValue      decimal.Decimal
	Status              string
	ContactID           *string
	ConvertedToClientID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
