package barns

import (
	"fmt"
	"strconv"

	"galpones/models"

	"github.com/rohanthewiz/element"
)

// TableRootID is the element the barn list is swapped into after a refresh
const TableRootID = "barn-table"

// BarnTable lists every barn; clicking a row opens it in the panel.
type BarnTable struct {
	Barns []models.Barn
}

// Render implements the element.Component interface
func (t BarnTable) Render(b *element.Builder) any {
	b.Div("class", "barn-table", "id", TableRootID).R(
		b.DivClass("barn-row barn-row-head").R(
			b.SpanClass("barn-cell").T("Galpón"),
			b.SpanClass("barn-cell").T("Gallinas"),
			b.SpanClass("barn-cell").T("Capacidad"),
			b.SpanClass("barn-cell").T("Ocupación"),
		),
		t.renderRows(b),
	)
	return nil
}

func (t BarnTable) renderRows(b *element.Builder) any {
	if len(t.Barns) == 0 {
		return b.PClass("text-muted barn-empty").T("Todavía no hay galpones registrados.")
	}
	for _, barn := range t.Barns {
		t.renderRow(b, barn)
	}
	return nil
}

func (t BarnTable) renderRow(b *element.Builder, barn models.Barn) any {
	occupancy := barn.Occupancy()
	rowClass := "barn-row"
	if occupancy >= 1 {
		rowClass += " barn-row-full"
	}

	return b.Div("class", rowClass, "data-barn-id", barnIDAttr(barn.ID),
		"onclick", "barns.openPanel("+barnIDAttr(barn.ID)+")").R(
		b.SpanClass("barn-cell barn-number").T(strconv.Itoa(barn.BarnNumber)),
		b.SpanClass("barn-cell").T(strconv.Itoa(barn.ChickensInIt)),
		b.SpanClass("barn-cell").T(strconv.Itoa(barn.MaxCapacity)),
		b.SpanClass("barn-cell").R(
			b.Span("class", "occupancy-bar").R(
				b.Span("class", "occupancy-fill", "style", fmt.Sprintf("width:%.0f%%", occupancy*100)).R(),
			),
			b.SpanClass("occupancy-label").T(fmt.Sprintf("%.0f%%", occupancy*100)),
		),
	)
}

// RenderBarnTable renders the barn list as an HTML fragment
func RenderBarnTable(barns []models.Barn) string {
	b := element.NewBuilder()
	element.RenderComponents(b, BarnTable{Barns: barns})
	return b.String()
}
