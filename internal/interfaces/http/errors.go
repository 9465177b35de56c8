package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// Códigos de error expuestos al cliente.
const (
	CodeInvalidBody       = "INVALID_BODY"
	CodeValidation        = "VALIDATION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicate         = "DUPLICATE"
	CodeEmailExists       = "EMAIL_EXISTS"
	CodeConflict          = "CONFLICT"
	CodeNoActiveTenant    = "NO_ACTIVE_TENANT"
	CodeSystemRole        = "SYSTEM_ROLE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotApplicable     = "NOT_APPLICABLE"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: ErrEmailAlreadyExists antes que cualquier conflicto genérico.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, CodeValidation},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrForbidden, fiber.StatusForbidden, CodeForbidden},
	{domain.ErrSystemRole, fiber.StatusForbidden, CodeSystemRole},
	{domain.ErrNotFound, fiber.StatusNotFound, CodeNotFound},
	{domain.ErrUserNotFound, fiber.StatusNotFound, CodeNotFound},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, CodeEmailExists},
	{domain.ErrDuplicate, fiber.StatusConflict, CodeDuplicate},
	{domain.ErrNoActiveTenant, fiber.StatusConflict, CodeNoActiveTenant},
	{domain.ErrConflict, fiber.StatusConflict, CodeConflict},
	{domain.ErrInvalidTransition, fiber.StatusUnprocessableEntity, CodeInvalidTransition},
	{domain.ErrNotApplicable, fiber.StatusUnprocessableEntity, CodeNotApplicable},
}

// writeError traduce errores de dominio a dto.ErrorResponse. Los internos no exponen detalle.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: CodeInternal, Message: domain.ErrInternal.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidBody, Message: "cuerpo inválido"})
}

// ErrorHandler manejador de errores de fiber: errores de dominio, *fiber.Error (404 de ruta, 413) y pánicos recuperados.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := CodeInternal
			switch fe.Code {
			case fiber.StatusNotFound:
				code = CodeNotFound
			case fiber.StatusRequestEntityTooLarge:
				code = CodeValidation
			case fiber.StatusBadRequest:
				code = CodeInvalidBody
			case fiber.StatusTooManyRequests:
				code = CodeRateLimited
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
		}
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				return writeError(c, err)
			}
		}
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("http: error no controlado")
		return writeError(c, err)
	}
}
