package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
)

// CompanyHandler alta de empresas y datos de la empresa activa.
type CompanyHandler struct {
	uc *usecase.CompanyUseCase
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(uc *usecase.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Create godoc
// @Summary      Crear empresa (el usuario queda como propietario)
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Current godoc
// @Summary      Empresa activa
// @Tags         companies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/company [get]
func (h *CompanyHandler) Current(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Current(c.UserContext(), tc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update actualiza los datos de la empresa activa.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateCurrent(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
