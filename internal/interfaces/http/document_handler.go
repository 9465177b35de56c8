package http

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/documents"
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/tenant"
	"github.com/jhoicas/Gestion-api/internal/domain"
)

// DocumentHandler ciclo de vida de documentos y cumplimiento.
// Los permisos se validan en el servicio según el tipo de sujeto.
type DocumentHandler struct {
	svc *documents.Service
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(svc *documents.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload godoc
// @Summary      Cargar documento (multipart)
// @Tags         documents
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        documentTypeId  formData  string  true   "Tipo de documento"
// @Param        subjectType     formData  string  true   "EMPLOYEE, EQUIPMENT o COMPANY"
// @Param        subjectId       formData  string  false  "Vacío en tipos multi-recurso"
// @Param        period          formData  string  false  "YYYY-MM en tipos mensuales"
// @Param        expirationDate  formData  string  false  "YYYY-MM-DD"
// @Param        file            formData  file    true   "Archivo"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse  "El tipo no aplica al sujeto"
// @Router       /api/documents [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	exp, ok := parseDate(c.FormValue("expirationDate"))
	if !ok {
		return writeError(c, fmt.Errorf("%w: expirationDate debe ser YYYY-MM-DD", domain.ErrInvalidInput))
	}
	file, err := h.formFile(c)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.svc.Upload(c.UserContext(), tc, documents.UploadInput{
		DocumentTypeID: strings.TrimSpace(c.FormValue("documentTypeId")),
		SubjectType:    subjectType(c.FormValue("subjectType")),
		SubjectID:      optional(c.FormValue("subjectId")),
		Period:         optional(c.FormValue("period")),
		ExpirationDate: exp,
		File:           file,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(documents.ToResponse(view))
}

// List godoc
// @Summary      Documentos de un sujeto más los generales de su tipo
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        subjectType  query  string  true   "EMPLOYEE, EQUIPMENT o COMPANY"
// @Param        subjectId    query  string  false  "Vacío = solo generales"
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	views, err := h.svc.ListBySubject(c.UserContext(), tc, subjectType(c.Query("subjectType")), optional(c.Query("subjectId")))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, documents.ToResponse(v))
	}
	return c.JSON(out)
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.svc.Get(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(documents.ToResponse(view))
}

// Renew agrega una versión nueva (documento aprobado o vencido).
func (h *DocumentHandler) Renew(c *fiber.Ctx) error {
	return h.newVersion(c, h.svc.Renew)
}

// Replace sobrescribe la última versión y descarta su archivo.
func (h *DocumentHandler) Replace(c *fiber.Ctx) error {
	return h.newVersion(c, h.svc.Replace)
}

type versionOp func(ctx context.Context, tc tenant.Context, id string, in documents.VersionInput) (*documents.View, error)

func (h *DocumentHandler) newVersion(c *fiber.Ctx, op versionOp) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	exp, ok := parseDate(c.FormValue("expirationDate"))
	if !ok {
		return writeError(c, fmt.Errorf("%w: expirationDate debe ser YYYY-MM-DD", domain.ErrInvalidInput))
	}
	file, err := h.formFile(c)
	if err != nil {
		return writeError(c, err)
	}
	view, err := op(c.UserContext(), tc, c.Params("id"), documents.VersionInput{ExpirationDate: exp, File: file})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(documents.ToResponse(view))
}

// Revert descarta la última versión; con una sola versión borra el documento (204).
func (h *DocumentHandler) Revert(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.svc.Revert(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if view == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(documents.ToResponse(view))
}

func (h *DocumentHandler) Approve(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	view, err := h.svc.Approve(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(documents.ToResponse(view))
}

func (h *DocumentHandler) Reject(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.RejectDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	view, err := h.svc.Reject(c.UserContext(), tc, c.Params("id"), strings.TrimSpace(in.Reason))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(documents.ToResponse(view))
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.Delete(c.UserContext(), tc, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Download godoc
// @Summary      URL firmada y temporal para descargar una versión
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id       path   string  true   "ID del documento"
// @Param        version  query  int     false  "0 = vigente"
// @Success      200  {object}  dto.DownloadResponse
// @Router       /api/documents/{id}/download [get]
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	url, exp, err := h.svc.DownloadURL(c.UserContext(), tc, c.Params("id"), c.QueryInt("version", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.DownloadResponse{URL: url, ExpiresAt: exp})
}

// Compliance godoc
// @Summary      Resumen de cumplimiento documental de un sujeto
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        subjectType  path   string  true   "EMPLOYEE, EQUIPMENT o COMPANY"
// @Param        subjectId    path   string  true   "ID del sujeto"
// @Param        period       query  string  false  "YYYY-MM (por defecto el mes actual)"
// @Success      200  {object}  dto.ComplianceResponse
// @Router       /api/compliance/{subjectType}/{subjectId} [get]
func (h *DocumentHandler) Compliance(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.svc.Compliance(c.UserContext(), tc, subjectType(c.Params("subjectType")), c.Params("subjectId"), strings.TrimSpace(c.Query("period")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(documents.ToComplianceResponse(sum))
}

// ComplianceReport mismo resumen en PDF.
func (h *DocumentHandler) ComplianceReport(c *fiber.Ctx) error {
	tc, err := mustTenant(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.svc.ComplianceReport(c.UserContext(), tc, subjectType(c.Params("subjectType")), c.Params("subjectId"), strings.TrimSpace(c.Query("period")))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="cumplimiento-%s.pdf"`, c.Params("subjectId")))
	return c.Send(pdf)
}

func (h *DocumentHandler) formFile(c *fiber.Ctx) (documents.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return documents.File{}, fmt.Errorf("%w: falta el archivo", domain.ErrInvalidInput)
	}
	if limit := h.svc.MaxBytes; limit > 0 && fh.Size > limit {
		return documents.File{}, fmt.Errorf("%w: el archivo supera %d MB", domain.ErrInvalidInput, limit/(1<<20))
	}
	f, err := fh.Open()
	if err != nil {
		return documents.File{}, fmt.Errorf("%w: archivo ilegible", domain.ErrInvalidInput)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return documents.File{}, fmt.Errorf("%w: archivo ilegible", domain.ErrInvalidInput)
	}
	return documents.File{Name: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data}, nil
}

func subjectType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
