package shared

import "github.com/rohanthewiz/element"

// Footer closes every page. An empty Note renders only the product line.
type Footer struct {
	Note string
}

// Render implements the element.Component interface
func (f Footer) Render(b *element.Builder) any {
	b.Div("class", "app-footer").R(
		b.SpanClass("text-muted").T("Galpones"),
		f.renderNote(b),
	)
	return nil
}

func (f Footer) renderNote(b *element.Builder) any {
	if f.Note == "" {
		return nil
	}
	return b.SpanClass("text-muted app-footer-note").T(f.Note)
}
