package pdf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/infrastructure/pdf"
)

func TestRenderCompliance_GeneraPDF(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	exp := now.AddDate(0, 6, 0)
	company := &entity.Company{ID: "c1", Name: "Transportes Andinos S.A.S.", NIT: "900123456-7"}
	dt := &entity.DocumentType{ID: "t1", Name: "Licencia de conducción", SubjectType: entity.SubjectEmployee, IsMandatory: true, HasExpiration: true}
	opt := &entity.DocumentType{ID: "t2", Name: "Certificado de curso", SubjectType: entity.SubjectEmployee}
	doc := &entity.Document{ID: "d1", DocumentTypeID: "t1", State: entity.DocumentApproved, ExpirationDate: &exp,
		Versions: []entity.DocumentVersion{{Version: 1}}}

	sum := document.Summary{
		Subject: document.Subject{Kind: entity.SubjectEmployee, ID: "e1", Name: "Ana Gómez"},
		Period:  "2026-10",
		Requirements: []document.Requirement{
			{Type: dt, Applies: true, Document: doc, State: entity.DocumentApproved, Status: document.StatusComplete},
			{Type: opt, Applies: true, Status: document.StatusOptional},
		},
		Required: 1,
		Complete: 1,
	}

	out, err := pdf.NewMarotoReport().RenderCompliance(company, sum, now)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderCompliance_SinRequisitos(t *testing.T) {
	company := &entity.Company{ID: "c1", Name: "Empresa"}
	out, err := pdf.NewMarotoReport().RenderCompliance(company, document.Summary{
		Subject: document.Subject{Kind: entity.SubjectCompany, ID: "c1"}, Period: "2026-10",
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
