package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
)

// DocumentTypeHandler catálogo de tipos de documento.
type DocumentTypeHandler struct {
	uc *usecase.DocumentTypeUseCase
}

// NewDocumentTypeHandler construye el handler.
func NewDocumentTypeHandler(uc *usecase.DocumentTypeUseCase) *DocumentTypeHandler {
	return &DocumentTypeHandler{uc: uc}
}

// List godoc
// @Summary      Listar tipos de documento
// @Tags         document-types
// @Security     Bearer
// @Produce      json
// @Param        subjectType  query  string  false  "EMPLOYEE, EQUIPMENT o COMPANY"
// @Success      200  {array}  dto.DocumentTypeResponse
// @Router       /api/document-types [get]
func (h *DocumentTypeHandler) List(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), tc, c.Query("subjectType"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *DocumentTypeHandler) Get(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear tipo de documento con reglas de aplicabilidad
// @Tags         document-types
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DocumentTypeRequest  true  "Tipo de documento"
// @Success      201   {object}  dto.DocumentTypeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/document-types [post]
func (h *DocumentTypeHandler) Create(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.DocumentTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *DocumentTypeHandler) Update(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.DocumentTypeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *DocumentTypeHandler) Delete(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
