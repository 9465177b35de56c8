package usecase

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// businessErrors errores de dominio que los casos de uso devuelven sin envolver en ErrInternal.
var businessErrors = []error{
	domain.ErrNotFound,
	domain.ErrInvalidInput,
	domain.ErrDuplicate,
	domain.ErrConflict,
	domain.ErrForbidden,
	domain.ErrSystemRole,
	domain.ErrInvalidTransition,
	domain.ErrEmailAlreadyExists,
	domain.ErrNoActiveTenant,
	domain.ErrNotApplicable,
	domain.ErrUserNotFound,
	domain.ErrUnauthorized,
}

func isBusiness(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// persistErr registra el fallo con su operación y lo traduce a ErrInternal.
// Los errores de negocio pasan sin cambios.
func persistErr(log *logger.Logger, op, companyID string, err error) error {
	if isBusiness(err) {
		return err
	}
	log.Error().Err(err).Str("op", op).Str("company_id", companyID).Msg("fallo de persistencia")
	return domain.ErrInternal
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s es obligatorio", domain.ErrInvalidInput, field)
	}
	return nil
}

func validEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email %q", domain.ErrInvalidInput, email)
	}
	return nil
}

// oneOf normaliza a mayúsculas y valida contra los valores permitidos; vacío devuelve def.
func oneOf(field, value, def string, allowed ...string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, field, value)
}
