// Package barns holds the components of the barn management page: the
// barn list, the slide-out form panel and its success notification.
package barns

import (
	"strconv"

	"galpones/models"
	"galpones/panel"
	"galpones/web/pages/comps"
	"galpones/web/pages/shared"

	"github.com/rohanthewiz/element"
)

// Page is the barn management page
type Page struct {
	shared.Page
	Barns []models.Barn
	// Panel is the current state of the session's form panel, so a reload
	// keeps an open drawer open.
	Panel panel.View
}

// NewPage creates the barn page for the given list and panel state
func NewPage(barns []models.Barn, view panel.View) Page {
	return Page{
		Page:  shared.Page{Title: "Galpones"},
		Barns: barns,
		Panel: view,
	}
}

// Render generates the complete HTML document
func (p Page) Render() string {
	b := element.NewBuilder()

	b.Html("lang", "es").R(
		p.renderHead(b),
		p.renderBody(b),
	)

	return b.String()
}

func (p Page) renderHead(b *element.Builder) any {
	return b.Head().R(
		b.Meta("charset", "UTF-8"),
		b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
		b.Title().T(p.Title),
		b.Link("rel", "stylesheet", "href", "/static/css/app.css?v=1"),
	)
}

func (p Page) renderBody(b *element.Builder) any {
	return b.Body().R(
		b.Div("class", "app-container", "id", "app").R(
			element.RenderComponents(b, p.Banner(newBarnButton{})),
			b.Main("class", "app-main").R(
				element.RenderComponents(b,
					comps.Heading{Title: "Galpones registrados", Subtitle: totalChickens(p.Barns)},
					BarnTable{Barns: p.Barns},
				),
			),
			element.RenderComponents(b, p.Footer(barnCount(p.Barns))),
		),

		element.RenderComponents(b, FormPanel{View: p.Panel}),

		b.Script("src", "/static/js/barns.js?v=1").R(),
	)
}

// newBarnButton opens the panel in create mode
type newBarnButton struct{}

func (newBarnButton) Render(b *element.Builder) any {
	b.Button("type", "button", "class", "btn btn-primary", "id", "barn-new",
		"onclick", "barns.openPanel()").T("Nuevo galpón")
	return nil
}

func totalChickens(barns []models.Barn) string {
	total := 0
	for _, barn := range barns {
		total += barn.ChickensInIt
	}
	return "Total de gallinas: " + strconv.Itoa(total)
}

func barnCount(barns []models.Barn) string {
	if len(barns) == 1 {
		return "1 galpón"
	}
	return strconv.Itoa(len(barns)) + " galpones"
}
