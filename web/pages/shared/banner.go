package shared

import "github.com/rohanthewiz/element"

// Banner is the application header bar
type Banner struct {
	Title  string
	Action element.Component
}

// Render implements the element.Component interface
func (b Banner) Render(builder *element.Builder) any {
	builder.HeaderClass("app-header").R(
		builder.H1("class", "app-title").T(b.Title),
		b.renderAction(builder),
	)
	return nil
}

func (b Banner) renderAction(builder *element.Builder) any {
	if b.Action == nil {
		return nil
	}
	return element.RenderComponents(builder, b.Action)
}
