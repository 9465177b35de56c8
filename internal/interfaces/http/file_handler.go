package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/storage"
)

type tokenResolver interface {
	Resolve(token string) (key, fileName string, err error)
}

type objectReader interface {
	Get(ctx context.Context, key string) (*storage.Object, error)
}

// FileHandler sirve archivos por URL firmada. No requiere Bearer: el token es la autorización.
type FileHandler struct {
	tokens  tokenResolver
	objects objectReader
}

// NewFileHandler construye el handler.
func NewFileHandler(tokens tokenResolver, objects objectReader) *FileHandler {
	return &FileHandler{tokens: tokens, objects: objects}
}

// Get godoc
// @Summary      Descargar archivo con URL firmada
// @Tags         documents
// @Produce      octet-stream
// @Param        token  path  string  true  "Token de la URL firmada"
// @Success      200
// @Failure      401  {object}  dto.ErrorResponse  "Token inválido o vencido"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/files/{token} [get]
func (h *FileHandler) Get(c *fiber.Ctx) error {
	key, fileName, err := h.tokens.Resolve(c.Params("token"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeUnauthorized, Message: "enlace inválido o vencido"})
	}
	obj, err := h.objects.Get(c.UserContext(), key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: CodeNotFound, Message: "archivo no encontrado"})
	}
	if err != nil {
		return writeError(c, err)
	}
	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(obj.Data)
}
