// Package pdf genera el reporte de cumplimiento documental de un sujeto (empleado, equipo o empresa).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + NIT  │  Sujeto + Periodo + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Requeridos / Completos / Faltantes / Vencidos ...  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Documento | Obligatorio | Estado | Vence | Versión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el resumen + leyenda                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Gestion-api/internal/application/ports"
	"github.com/jhoicas/Gestion-api/internal/domain/document"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorGreen   = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var _ ports.ComplianceRenderer = (*MarotoReport)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReport implementa ports.ComplianceRenderer usando Maroto v2.
type MarotoReport struct{}

// NewMarotoReport construye el generador.
func NewMarotoReport() *MarotoReport { return &MarotoReport{} }

// RenderCompliance genera el PDF y devuelve sus bytes.
func (g *MarotoReport) RenderCompliance(company *entity.Company, sum document.Summary, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de cumplimiento documental", true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(company, sum, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(countersRow(sum))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(sum)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(company, sum, generatedAt))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func subjectLabel(kind string) string {
	switch kind {
	case entity.SubjectEmployee:
		return "EMPLEADO"
	case entity.SubjectEquipment:
		return "EQUIPO"
	default:
		return "EMPRESA"
	}
}

// headerRow: razón social + NIT (izq) y sujeto + periodo (der).
func headerRow(company *entity.Company, sum document.Summary, at time.Time) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+nonEmpty(company.NIT, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CUMPLIMIENTO DOCUMENTAL · "+subjectLabel(sum.Subject.Kind), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(sum.Subject.Name, sum.Subject.ID), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New(fmt.Sprintf("Periodo: %s   |   Generado: %s", sum.Period, at.Format("02/01/2006 15:04")), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// countersRow: contadores del resumen.
func countersRow(sum document.Summary) core.Row {
	cell := func(label string, n int, c *props.Color) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(fmt.Sprintf("%d", n), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: c, Top: 5}),
		)
	}
	return row.New(14).Add(
		cell("Requeridos", sum.Required, colorPrimary),
		cell("Completos", sum.Complete, colorGreen),
		cell("Faltantes", sum.Missing, colorRed),
		cell("Vencidos", sum.Expired, colorRed),
		cell("En revisión", sum.Submitted, colorGray),
		cell("Rechazados", sum.Rejected, colorRed),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Documento", 5, align.Left),
		h("Obligatorio", 2, align.Center),
		h("Estado", 2, align.Center),
		h("Vence", 2, align.Center),
		h("Versión", 1, align.Center),
	)
}

// tableRows: una fila por requisito.
func tableRows(sum document.Summary) []core.Row {
	if len(sum.Requirements) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("No hay tipos de documento configurados para este sujeto.", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		))}
	}
	result := make([]core.Row, 0, len(sum.Requirements))
	for _, r := range sum.Requirements {
		expires, version := "—", "—"
		if r.Document != nil {
			if r.Document.ExpirationDate != nil {
				expires = r.Document.ExpirationDate.Format("02/01/2006")
			}
			if v := r.Document.Latest(); v != nil {
				version = fmt.Sprintf("v%d", v.Version)
			}
		}
		mandatory := "No"
		if r.Type.IsMandatory {
			mandatory = "Sí"
		}
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(r.Type.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(mandatory, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(statusLabel(r.Status), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: statusColor(r.Status),
			})),
			col.New(2).Add(text.New(expires, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(version, props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

// footerRow: QR con el resumen para verificación rápida + leyenda.
func footerRow(company *entity.Company, sum document.Summary, at time.Time) core.Row {
	qr := fmt.Sprintf("%s|%s|%s|%s|%d/%d|%s",
		company.NIT, sum.Subject.Kind, sum.Subject.ID, sum.Period, sum.Complete, sum.Required, at.UTC().Format(time.RFC3339))
	verdict := "CUMPLE"
	if !sum.IsCompliant() {
		verdict = "NO CUMPLE"
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New(verdict, props.Text{
				Style: fontstyle.Bold, Size: 14, Top: 4, Left: 3, Color: verdictColor(sum),
			}),
			text.New("Solo se cuentan los documentos obligatorios que aplican al sujeto según sus "+
				"atributos actuales. Los documentos cargados que ya no aplican se listan sin contar.", props.Text{
				Size: 7, Top: 16, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(s string) string {
	switch s {
	case document.StatusComplete:
		return "Completo"
	case document.StatusSubmitted:
		return "En revisión"
	case document.StatusMissing:
		return "Faltante"
	case document.StatusExpired:
		return "Vencido"
	case document.StatusRejected:
		return "Rechazado"
	case document.StatusOptional:
		return "Opcional"
	case document.StatusNotApplicable:
		return "No aplica"
	}
	return s
}

func statusColor(s string) *props.Color {
	switch s {
	case document.StatusComplete:
		return colorGreen
	case document.StatusMissing, document.StatusExpired, document.StatusRejected:
		return colorRed
	}
	return colorGray
}

func verdictColor(sum document.Summary) *props.Color {
	if sum.IsCompliant() {
		return colorGreen
	}
	return colorRed
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
