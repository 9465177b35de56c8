package entity

import "time"

// Tipos de sujeto de un documento.
const (
	SubjectEmployee  = "EMPLOYEE"
	SubjectEquipment = "EQUIPMENT"
	SubjectCompany   = "COMPANY"
)

// Estados de Document.
const (
	DocumentPending   = "PENDING"
	DocumentSubmitted = "SUBMITTED"
	DocumentApproved  = "APPROVED"
	DocumentRejected  = "REJECTED"
	DocumentExpired   = "EXPIRED"
)

// DocumentRules condiciones de aplicabilidad. Una lista vacía no restringe.
type DocumentRules struct {
	Genders        []string `json:"genders,omitempty"`
	CostTypes      []string `json:"cost_types,omitempty"`
	JobPositionIDs []string `json:"job_position_ids,omitempty"`
	VehicleBrands  []string `json:"vehicle_brands,omitempty"`
	VehicleTypes   []string `json:"vehicle_types,omitempty"`
}

// DocumentType plantilla de un documento de cumplimiento.
type DocumentType struct {
	ID              string
	CompanyID       string
	Name            string
	SubjectType     string // EMPLOYEE, EQUIPMENT, COMPANY
	IsMandatory     bool
	HasExpiration   bool
	IsMonthly       bool
	IsMultiResource bool
	Rules           DocumentRules
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Document registro de un documento de un sujeto. SubjectID nil = documento general (empresa o multi-recurso).
type Document struct {
	ID             string
	CompanyID      string
	DocumentTypeID string
	SubjectType    string
	SubjectID      *string
	State          string
	ExpirationDate *time.Time
	Period         *string // YYYY-MM, solo tipos mensuales
	RejectReason   string
	Versions       []DocumentVersion // orden ascendente por Version
	UploadedBy     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Latest devuelve la versión vigente (la de mayor número).
func (d *Document) Latest() *DocumentVersion {
	if len(d.Versions) == 0 {
		return nil
	}
	return &d.Versions[len(d.Versions)-1]
}

// DocumentVersion un archivo subido para un documento.
type DocumentVersion struct {
	ID             string
	DocumentID     string
	Version        int
	FileKey        string
	FileName       string
	MimeType       string
	SizeBytes      int64
	ExpirationDate *time.Time
	WasApproved    bool
	UploadedBy     string
	CreatedAt      time.Time
}
