package dto

import "time"

// DocumentRulesDTO reglas de aplicabilidad; listas vacías no restringen.
type DocumentRulesDTO struct {
	Genders        []string `json:"genders"`
	CostTypes      []string `json:"costTypes"`
	JobPositionIDs []string `json:"jobPositionIds"`
	VehicleBrands  []string `json:"vehicleBrands"`
	VehicleTypes   []string `json:"vehicleTypes"`
}

// DocumentTypeRequest alta o edición de un tipo de documento.
type DocumentTypeRequest struct {
	Name            string           `json:"name" validate:"required,max=200"`
	SubjectType     string           `json:"subjectType" validate:"required,oneof=EMPLOYEE EQUIPMENT COMPANY"`
	IsMandatory     bool             `json:"isMandatory"`
	HasExpiration   bool             `json:"hasExpiration"`
	IsMonthly       bool             `json:"isMonthly"`
	IsMultiResource bool             `json:"isMultiResource"`
	Rules           DocumentRulesDTO `json:"rules"`
}

// DocumentTypeResponse salida de un tipo de documento.
type DocumentTypeResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	SubjectType     string           `json:"subjectType"`
	IsMandatory     bool             `json:"isMandatory"`
	HasExpiration   bool             `json:"hasExpiration"`
	IsMonthly       bool             `json:"isMonthly"`
	IsMultiResource bool             `json:"isMultiResource"`
	Rules           DocumentRulesDTO `json:"rules"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// DocumentVersionResponse una versión del historial.
type DocumentVersionResponse struct {
	ID             string     `json:"id"`
	Version        int        `json:"version"`
	FileName       string     `json:"fileName"`
	MimeType       string     `json:"mimeType"`
	SizeBytes      int64      `json:"sizeBytes"`
	ExpirationDate *time.Time `json:"expirationDate"`
	WasApproved    bool       `json:"wasApproved"`
	UploadedBy     string     `json:"uploadedBy"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// DocumentResponse documento con su estado efectivo e historial.
type DocumentResponse struct {
	ID             string                    `json:"id"`
	DocumentTypeID string                    `json:"documentTypeId"`
	DocumentType   string                    `json:"documentType"`
	SubjectType    string                    `json:"subjectType"`
	SubjectID      *string                   `json:"subjectId"`
	State          string                    `json:"state"`
	StoredState    string                    `json:"storedState"`
	ExpirationDate *time.Time                `json:"expirationDate"`
	Period         *string                   `json:"period"`
	RejectReason   string                    `json:"rejectReason,omitempty"`
	Versions       []DocumentVersionResponse `json:"versions"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

// RejectDocumentRequest motivo del rechazo.
type RejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// DownloadResponse URL firmada de descarga.
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RequirementResponse situación de un tipo de documento para el sujeto.
type RequirementResponse struct {
	DocumentTypeID string            `json:"documentTypeId"`
	DocumentType   string            `json:"documentType"`
	IsMandatory    bool              `json:"isMandatory"`
	Applies        bool              `json:"applies"`
	Status         string            `json:"status"`
	Document       *DocumentResponse `json:"document,omitempty"`
}

// ComplianceResponse resumen de cumplimiento de un sujeto.
type ComplianceResponse struct {
	SubjectType  string                `json:"subjectType"`
	SubjectID    string                `json:"subjectId"`
	SubjectName  string                `json:"subjectName"`
	Period       string                `json:"period"`
	Compliant    bool                  `json:"compliant"`
	Required     int                   `json:"required"`
	Complete     int                   `json:"complete"`
	Missing      int                   `json:"missing"`
	Expired      int                   `json:"expired"`
	Submitted    int                   `json:"submitted"`
	Rejected     int                   `json:"rejected"`
	Requirements []RequirementResponse `json:"requirements"`
}
