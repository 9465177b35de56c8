package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más el usuario. La empresa activa no viaja en el token:
// se resuelve en cada petición desde la preferencia del usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Generate genera un token JWT firmado para el usuario.
func Generate(secret, userID, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve el userID.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (userID string, err error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc(secret))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("claims inválidos")
	}
	return claims.UserID, nil
}

// ObjectClaims token de descarga de un archivo (URL prefirmada).
type ObjectClaims struct {
	jwt.RegisteredClaims
	Key      string `json:"key"`
	FileName string `json:"fn,omitempty"`
}

// ErrExpired token vencido.
var ErrExpired = errors.New("jwt: token expirado")

// SignObject firma una llave de objeto con vencimiento.
func SignObject(secret, key, fileName string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := ObjectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "object",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Key:      key,
		FileName: fileName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseObject valida un token de descarga y devuelve llave y nombre de archivo.
func ParseObject(secret, tokenString string) (key, fileName string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &ObjectClaims{}, keyFunc(secret))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrExpired
		}
		return "", "", err
	}
	claims, ok := token.Claims.(*ObjectClaims)
	if !ok || !token.Valid || claims.Subject != "object" || claims.Key == "" {
		return "", "", fmt.Errorf("claims inválidos")
	}
	return claims.Key, claims.FileName, nil
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
}
