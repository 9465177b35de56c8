package documents

import (
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// ToResponse mapea la vista del documento a su DTO, con el historial de versiones.
func ToResponse(v *View) dto.DocumentResponse {
	return toResponse(v.Type, v.Document, v.State)
}

func toResponse(dt *entity.DocumentType, d *entity.Document, state string) dto.DocumentResponse {
	out := dto.DocumentResponse{
		ID:             d.ID,
		DocumentTypeID: d.DocumentTypeID,
		SubjectType:    d.SubjectType,
		SubjectID:      d.SubjectID,
		State:          state,
		StoredState:    d.State,
		ExpirationDate: d.ExpirationDate,
		Period:         d.Period,
		RejectReason:   d.RejectReason,
		Versions:       make([]dto.DocumentVersionResponse, 0, len(d.Versions)),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if dt != nil {
		out.DocumentType = dt.Name
	}
	for _, v := range d.Versions {
		out.Versions = append(out.Versions, dto.DocumentVersionResponse{
			ID:             v.ID,
			Version:        v.Version,
			FileName:       v.FileName,
			MimeType:       v.MimeType,
			SizeBytes:      v.SizeBytes,
			ExpirationDate: v.ExpirationDate,
			WasApproved:    v.WasApproved,
			UploadedBy:     v.UploadedBy,
			CreatedAt:      v.CreatedAt,
		})
	}
	return out
}

// ToComplianceResponse mapea el resumen de cumplimiento.
func ToComplianceResponse(sum document.Summary) dto.ComplianceResponse {
	out := dto.ComplianceResponse{
		SubjectType:  sum.Subject.Kind,
		SubjectID:    sum.Subject.ID,
		SubjectName:  sum.Subject.Name,
		Period:       sum.Period,
		Compliant:    sum.IsCompliant(),
		Required:     sum.Required,
		Complete:     sum.Complete,
		Missing:      sum.Missing,
		Expired:      sum.Expired,
		Submitted:    sum.Submitted,
		Rejected:     sum.Rejected,
		Requirements: make([]dto.RequirementResponse, 0, len(sum.Requirements)),
	}
	for _, r := range sum.Requirements {
		req := dto.RequirementResponse{
			DocumentTypeID: r.Type.ID,
			DocumentType:   r.Type.Name,
			IsMandatory:    r.Type.IsMandatory,
			Applies:        r.Applies,
			Status:         r.Status,
		}
		if r.Document != nil {
			d := toResponse(r.Type, r.Document, r.State)
			req.Document = &d
		}
		out.Requirements = append(out.Requirements, req)
	}
	return out
}
