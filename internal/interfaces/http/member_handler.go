package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/access"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/usecase"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// MemberHandler miembros, overrides de permisos e invitaciones.
type MemberHandler struct {
	uc     *usecase.MemberUseCase
	access *access.Service
}

// NewMemberHandler construye el handler.
func NewMemberHandler(uc *usecase.MemberUseCase, accessSvc *access.Service) *MemberHandler {
	return &MemberHandler{uc: uc, access: accessSvc}
}

// List godoc
// @Summary      Listar miembros de la empresa activa
// @Tags         members
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.MemberResponse]
// @Router       /api/members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
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

// ChangeRole godoc
// @Summary      Asignar o quitar (roleId null) el rol de un miembro
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                       true  "ID del miembro"
// @Param        body  body  dto.UpdateMemberRoleRequest  true  "Rol"
// @Success      204
// @Failure      409   {object}  dto.ErrorResponse  "Propietario"
// @Router       /api/members/{id}/role [put]
func (h *MemberHandler) ChangeRole(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateMemberRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.ChangeRole(c.UserContext(), tc, c.Params("id"), in.RoleID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemberHandler) Deactivate(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Deactivate(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemberHandler) Reactivate(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Reactivate(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Overrides ─────────────────────────────────────────────────────────────────

func (h *MemberHandler) ListOverrides(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.access.ListOverrides(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.OverrideResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOverrideResponse(o))
	}
	return c.JSON(out)
}

// SetOverride godoc
// @Summary      Conceder o revocar un permiso puntual a un miembro
// @Tags         members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del miembro"
// @Param        body  body  dto.OverrideRequest  true  "Módulo, acción y granted"
// @Success      200   {object}  dto.OverrideResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/members/{id}/overrides [post]
func (h *MemberHandler) SetOverride(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.OverrideRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.access.SetOverride(c.UserContext(), tc, c.Params("id"),
		strings.TrimSpace(in.Module), strings.TrimSpace(in.Action), in.Granted)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOverrideResponse(o))
}

func (h *MemberHandler) RemoveOverride(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.access.RemoveOverride(c.UserContext(), tc, c.Params("id"), c.Params("overrideId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toOverrideResponse(o *entity.PermissionOverride) dto.OverrideResponse {
	return dto.OverrideResponse{
		ID:        o.ID,
		MemberID:  o.MemberID,
		Module:    o.Module,
		Action:    o.Action,
		Granted:   o.IsGranted,
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
	}
}

// ── Invitaciones ──────────────────────────────────────────────────────────────

// ListInvitations godoc
// @Summary      Listar invitaciones
// @Tags         invitations
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING, ACCEPTED, CANCELLED, EXPIRED"
// @Success      200     {array}  dto.InvitationResponse
// @Router       /api/invitations [get]
func (h *MemberHandler) ListInvitations(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListInvitations(c.UserContext(), tc, strings.TrimSpace(c.Query("status")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *MemberHandler) Invite(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateInvitationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Invite(c.UserContext(), tc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MemberHandler) CancelInvitation(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.CancelInvitation(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptInvitation godoc
// @Summary      Aceptar una invitación (solo requiere sesión, no empresa activa)
// @Tags         invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AcceptInvitationRequest  true  "Token"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      403   {object}  dto.ErrorResponse  "La invitación es para otro email"
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invitations/accept [post]
func (h *MemberHandler) AcceptInvitation(c *fiber.Ctx) error {
	var in dto.AcceptInvitationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AcceptInvitation(c.UserContext(), GetUserID(c), strings.TrimSpace(in.Token))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
