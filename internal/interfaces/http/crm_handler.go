package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/crm"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
)

// CRMHandler clientes, contactos y leads (protegido).
type CRMHandler struct {
	svc *crm.Service
}

// NewCRMHandler construye el handler.
func NewCRMHandler(svc *crm.Service) *CRMHandler {
	return &CRMHandler{svc: svc}
}

// ── Clientes ──────────────────────────────────────────────────────────────────

func (h *CRMHandler) ListClients(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListClients(c.UserContext(), tc, pageRequest(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) GetClient(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.GetClient(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateClient godoc
// @Summary      Crear cliente con contactId existente o contact nuevo (no ambos)
// @Tags         crm
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ClientRequest  true  "Datos del cliente"
// @Success      201   {object}  dto.ClientResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/clients [post]
func (h *CRMHandler) CreateClient(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ClientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.CreateClient(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CRMHandler) UpdateClient(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ClientRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.UpdateClient(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) DeleteClient(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.DeleteClient(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Contactos ─────────────────────────────────────────────────────────────────

func (h *CRMHandler) ListContacts(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListContacts(c.UserContext(), tc, pageRequest(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAvailableContacts contactos sin cliente, para el selector del alta de clientes.
func (h *CRMHandler) ListAvailableContacts(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListAvailableContacts(c.UserContext(), tc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) GetContact(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.GetContact(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) CreateContact(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ContactRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.CreateContact(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CRMHandler) UpdateContact(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ContactRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.UpdateContact(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) DeleteContact(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.DeleteContact(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Leads ─────────────────────────────────────────────────────────────────────

// ListLeads godoc
// @Summary      Listar leads
// @Tags         crm
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "NEW, CONTACTED, QUALIFIED, LOST, CONVERTED"
// @Param        search  query  string  false  "Nombre, NIT o email"
// @Success      200     {object}  dto.ListResponse[dto.LeadResponse]
// @Router       /api/leads [get]
func (h *CRMHandler) ListLeads(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	in := dto.LeadListRequest{PageRequest: pageRequest(c), Status: strings.TrimSpace(c.Query("status"))}
	out, err := h.svc.ListLeads(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) GetLead(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.GetLead(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) CreateLead(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.LeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.CreateLead(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CRMHandler) UpdateLead(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.LeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.UpdateLead(c.UserContext(), tc, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CRMHandler) DeleteLead(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.DeleteLead(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ConvertLead godoc
// @Summary      Convertir lead en cliente
// @Tags         crm
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.ConvertLeadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/convert [post]
func (h *CRMHandler) ConvertLead(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ConvertLead(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
