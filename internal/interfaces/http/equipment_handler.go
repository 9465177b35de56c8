package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
)

// EquipmentHandler equipos y contratistas (protegido).
type EquipmentHandler struct {
	uc *usecase.EquipmentUseCase
}

// NewEquipmentHandler construye el handler.
func NewEquipmentHandler(uc *usecase.EquipmentUseCase) *EquipmentHandler {
	return &EquipmentHandler{uc: uc}
}

// List godoc
// @Summary      Listar equipos
// @Tags         equipment
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Param        search  query  string  false  "Código, placa, marca o modelo"
// @Success      200     {object}  dto.ListResponse[dto.EquipmentResponse]
// @Router       /api/equipment [get]
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), tc, pageRequest(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *EquipmentHandler) GetByID(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear equipo con sus contratistas
// @Tags         equipment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EquipmentRequest  true  "Datos del equipo"
// @Success      201   {object}  dto.EquipmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/equipment [post]
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.EquipmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar equipo; contractorIds presente reemplaza las asignaciones
// @Tags         equipment
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del equipo"
// @Param        body  body  dto.EquipmentRequest  true  "Datos del equipo"
// @Success      200   {object}  dto.EquipmentResponse
// @Router       /api/equipment/{id} [put]
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.EquipmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Contratistas ──────────────────────────────────────────────────────────────

func (h *EquipmentHandler) ListContractors(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListContractors(c.UserContext(), tc, pageRequest(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *EquipmentHandler) GetContractor(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetContractor(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *EquipmentHandler) CreateContractor(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ContractorRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateContractor(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *EquipmentHandler) UpdateContractor(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ContractorRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateContractor(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteContractor 409 si el contratista tiene equipos asignados.
func (h *EquipmentHandler) DeleteContractor(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteContractor(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
