package storage

import (
	"fmt"
	"strings"
	"time"

	pkgjwt "github.com/jhoicas/Gestion-api/pkg/jwt"
)

// Presigner emite URLs de descarga de vida corta: un JWT HS256 con la llave del objeto.
type Presigner struct {
	secret   string
	ttl      time.Duration
	basePath string
}

// NewPresigner construye el firmador. basePath es la ruta pública del endpoint de archivos (ej. /api/files).
func NewPresigner(secret string, ttl time.Duration, basePath string) *Presigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Presigner{secret: secret, ttl: ttl, basePath: strings.TrimRight(basePath, "/")}
}

// URL firma la llave y devuelve la URL relativa y su vencimiento.
func (p *Presigner) URL(key, fileName string) (string, time.Time, error) {
	exp := time.Now().Add(p.ttl)
	tok, err := pkgjwt.SignObject(p.secret, key, fileName, p.ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("storage: firmar url: %w", err)
	}
	return p.basePath + "/" + tok, exp, nil
}

// Resolve valida el token de la URL y devuelve la llave y el nombre de archivo.
func (p *Presigner) Resolve(token string) (key, fileName string, err error) {
	return pkgjwt.ParseObject(p.secret, token)
}
