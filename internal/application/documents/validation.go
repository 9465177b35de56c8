package documents

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// AllowedMimeTypes tipos de archivo aceptados.
var AllowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/jpeg":         {},
	"image/png":          {},
	"image/webp":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

func normalizeMime(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

func (s *Service) validateFile(f File) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: el archivo está vacío", domain.ErrInvalidInput)
	}
	if s.MaxBytes > 0 && int64(len(f.Data)) > s.MaxBytes {
		return fmt.Errorf("%w: el archivo supera %d MB", domain.ErrInvalidInput, s.MaxBytes/(1<<20))
	}
	if _, ok := AllowedMimeTypes[normalizeMime(f.ContentType)]; !ok {
		return fmt.Errorf("%w: tipo de archivo no permitido (%s)", domain.ErrInvalidInput, f.ContentType)
	}
	return nil
}

// periodFor exige periodo en tipos mensuales y lo rechaza en los demás.
func periodFor(dt *entity.DocumentType, p *string) (*string, error) {
	if !dt.IsMonthly {
		if p != nil && *p != "" {
			return nil, fmt.Errorf("%w: el tipo de documento no es mensual", domain.ErrInvalidInput)
		}
		return nil, nil
	}
	if p == nil || *p == "" {
		return nil, fmt.Errorf("%w: el periodo (YYYY-MM) es obligatorio", domain.ErrInvalidInput)
	}
	period, err := document.ParsePeriod(*p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return &period, nil
}

// expirationFor exige fecha de vencimiento si el tipo vence; si no, la descarta.
func expirationFor(dt *entity.DocumentType, exp *time.Time) (*time.Time, error) {
	if !dt.HasExpiration {
		return nil, nil
	}
	if exp == nil || exp.IsZero() {
		return nil, fmt.Errorf("%w: la fecha de vencimiento es obligatoria", domain.ErrInvalidInput)
	}
	return exp, nil
}
