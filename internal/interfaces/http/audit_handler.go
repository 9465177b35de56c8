package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/audit"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// AuditHandler consulta de la bitácora.
type AuditHandler struct {
	log *audit.Logger
}

// NewAuditHandler construye el handler.
func NewAuditHandler(log *audit.Logger) *AuditHandler {
	return &AuditHandler{log: log}
}

// List godoc
// @Summary      Bitácora de cambios de permisos y membresías (más reciente primero)
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        actorId     query  string  false  "Usuario que hizo el cambio"
// @Param        targetType  query  string  false  "ROLE, MEMBER, INVITATION, PERMISSION_OVERRIDE"
// @Param        action      query  string  false  "Acción, ej. ROLE_CREATED"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.AuditLogResponse]
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var q dto.AuditLogQuery
	if err := c.QueryParser(&q); err != nil {
		return badBody(c)
	}
	q.DefaultPage()

	filter := entity.AuditLogFilter{ActorID: q.ActorID, TargetType: q.TargetType, Action: q.Action}
	list, total, err := h.log.List(c.UserContext(), tc.CompanyID, filter, q.Limit, q.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.AuditLogResponse, 0, len(list))
	for _, e := range list {
		items = append(items, dto.AuditLogResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			TargetName: e.TargetName,
			Module:     e.Module,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return c.JSON(dto.ListResponse[dto.AuditLogResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	})
}
