package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrNoActiveTenant: el usuario no tiene ninguna empresa activa accesible.
	ErrNoActiveTenant = errors.New("no hay una empresa activa para el usuario")
	// ErrInternal es el único error que ve el cliente ante fallos de persistencia.
	ErrInternal          = errors.New("ocurrió un error inesperado, intente nuevamente")
	ErrSystemRole        = errors.New("los roles del sistema no se pueden modificar")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrNotApplicable     = errors.New("el tipo de documento no aplica a este recurso")
)
