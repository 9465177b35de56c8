package ports

import (
	"context"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// FileStore define el puerto de salida para los archivos de documentos (object store).
type FileStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// URLSigner firma URLs de descarga de corta duración.
type URLSigner interface {
	URL(key, fileName string) (string, time.Time, error)
}

// ComplianceRenderer genera el reporte PDF de cumplimiento documental.
type ComplianceRenderer interface {
	RenderCompliance(company *entity.Company, summary document.Summary, generatedAt time.Time) ([]byte, error)
}
