package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// DocumentTypeRepository plantillas de documentos de la empresa.
type DocumentTypeRepository interface {
	Create(ctx context.Context, dt *entity.DocumentType) error
	GetByID(ctx context.Context, companyID, id string) (*entity.DocumentType, error)
	// List filtra por tipo de sujeto si subjectType no es vacío.
	List(ctx context.Context, companyID, subjectType string) ([]*entity.DocumentType, error)
	Update(ctx context.Context, dt *entity.DocumentType) error
	Delete(ctx context.Context, companyID, id string) error
}

// DocumentQuery identifica un documento por (tipo, sujeto, periodo). Nil = NULL.
type DocumentQuery struct {
	CompanyID      string
	DocumentTypeID string
	SubjectID      *string
	Period         *string
}

// DocumentRepository documentos con su historial de versiones (GetByID y listados cargan Versions).
type DocumentRepository interface {
	// Create inserta el documento y sus versiones iniciales.
	Create(ctx context.Context, d *entity.Document) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Document, error)
	Find(ctx context.Context, q DocumentQuery) (*entity.Document, error)
	// ListBySubject documentos del sujeto; con includeGeneral suma los documentos sin sujeto del mismo tipo de sujeto.
	ListBySubject(ctx context.Context, companyID, subjectType string, subjectID *string, includeGeneral bool) ([]*entity.Document, error)
	// Update persiste estado, vencimiento y motivo de rechazo.
	Update(ctx context.Context, d *entity.Document) error
	AddVersion(ctx context.Context, v *entity.DocumentVersion) error
	UpdateVersion(ctx context.Context, v *entity.DocumentVersion) error
	DeleteVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, companyID, id string) error
	CountByType(ctx context.Context, companyID, documentTypeID string) (int, error)
}
