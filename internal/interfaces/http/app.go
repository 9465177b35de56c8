package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/pkg/logger"
)

// AppConfig configuración base de fiber para la API.
// Immutable: los valores de c.Params, c.Query y c.FormValue se guardan en entidades
// y deben seguir siendo válidos después de la petición.
func AppConfig(log *logger.Logger) fiber.Config {
	return fiber.Config{
		Immutable:    true,
		ErrorHandler: ErrorHandler(log),
	}
}
