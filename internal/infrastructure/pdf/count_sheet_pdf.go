// Package pdf genera la hoja de conteo imprimible de una solicitud por ubicación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° Solicitud + Tipo   │  Ubicación + Fecha  │  QR   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Contador asignado / Generado por                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Descripción | UM | Grupo | Conteo | Obs.   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: total de ítems + firmas contador / encargado        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

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

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

var _ appinv.CountSheetRenderer = (*CountSheetGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// CountSheetGenerator implementa inventory.CountSheetRenderer usando Maroto v2.
type CountSheetGenerator struct{}

// NewCountSheetGenerator construye el generador.
func NewCountSheetGenerator() *CountSheetGenerator { return &CountSheetGenerator{} }

// RenderCountSheet genera el PDF y devuelve sus bytes.
func (g *CountSheetGenerator) RenderCountSheet(_ context.Context, sheet appinv.CountSheet) ([]byte, error) {
	if sheet.Request == nil {
		return nil, fmt.Errorf("pdf: hoja de conteo sin solicitud")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de conteo "+sheet.Request.Number, true).
		WithAuthor(sheet.GeneratedBy, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(assigneeRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(sheet.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRows(sheet)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar hoja de conteo: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: número y tipo (izq), ubicación y fecha (centro), QR para escanear la solicitud (der).
func headerRow(sheet appinv.CountSheet) core.Row {
	return row.New(24).Add(
		col.New(5).Add(
			text.New("HOJA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(sheet.Request.Number, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 6,
			}),
			text.New("Tipo: "+string(sheet.Request.Type), props.Text{
				Size: 8, Top: 14, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Ubicación: "+sheet.LocationCode, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 3,
			}),
			text.New("Generada: "+sheet.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 11, Color: colorGray,
			}),
		),
		col.New(3).Add(code.NewQr(qrPayload(sheet), props.Rect{
			Percent: 90,
			Center:  true,
		})),
	)
}

// assigneeRow: contador y usuario que generó la hoja.
func assigneeRow(sheet appinv.CountSheet) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Contador: %s   |   Generada por: %s   |   Ítems: %d",
				nonEmpty(sheet.AssignedTo, "todos"),
				nonEmpty(sheet.GeneratedBy, "-"),
				len(sheet.Items),
			), props.Text{Size: 8, Top: 3, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de ítems.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("UM", 1, align.Center),
		h("Grupo", 1, align.Center),
		h("Conteo", 2, align.Center),
		h("Observación", 2, align.Left),
	)
}

// itemRows: una fila por ítem con casillas en blanco para el conteo y la observación.
// Los ítems ya contados muestran el valor registrado.
func itemRows(items []*entity.CountItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		counted := "________"
		if it.PhysicalCount != nil {
			counted = fmt.Sprintf("%d", *it.PhysicalCount)
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(it.ItemCode, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(description(it), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.UnitMeasureCode, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(it.GroupCode, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(counted, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("", props.Text{Size: 8, Top: 1})),
		))
	}
	if len(result) == 0 {
		result = append(result, row.New(10).Add(col.New(12).Add(
			text.New("Sin ítems para esta ubicación.", props.Text{
				Size: 9, Align: align.Center, Top: 3, Color: colorGray,
			}),
		)))
	}
	return result
}

// footerRows: líneas de firma del contador y del encargado.
func footerRows(sheet appinv.CountSheet) []core.Row {
	signature := func(label string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Size: 9, Align: align.Center, Top: 8}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 14, Color: colorGray}),
		)
	}
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Solicitud %s  •  Ubicación %s  •  %d ítems",
				sheet.Request.Number, sheet.LocationCode, len(sheet.Items)),
				props.Text{Size: 7, Color: colorGray, Top: 1}),
		)),
		row.New(22).Add(signature("Firma contador"), signature("Firma encargado")),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// qrPayload referencia que la app móvil usa para abrir la solicitud en la ubicación.
func qrPayload(sheet appinv.CountSheet) string {
	return "conteo:" + sheet.Request.ID + ":" + sheet.LocationCode
}

func description(it *entity.CountItem) string {
	d := strings.TrimSpace(it.Description)
	if it.Description2 != "" {
		d += " " + strings.TrimSpace(it.Description2)
	}
	return truncate(d, 60)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// truncate corta s a n runas.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
