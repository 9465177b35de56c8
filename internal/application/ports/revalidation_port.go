package ports

import "context"

// Revalidator define el puerto de salida para invalidar cachés HTTP por etiqueta.
// Cada mutación revalida la etiqueta de su módulo; las lecturas usan Version para armar el ETag.
// La implementación nunca debe hacer fallar la mutación que la invoca.
type Revalidator interface {
	Revalidate(ctx context.Context, companyID string, tags ...string)
	Version(ctx context.Context, companyID, tag string) (int64, error)
}
