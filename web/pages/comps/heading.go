package comps

import "github.com/rohanthewiz/element"

// Heading is a section title with an optional muted subtitle
type Heading struct {
	Title    string
	Subtitle string
}

func (h Heading) Render(b *element.Builder) (x any) {
	b.DivClass("section-heading").R(
		b.H2("class", "section-title").T(h.Title),
		h.renderSubtitle(b),
	)
	return
}

func (h Heading) renderSubtitle(b *element.Builder) any {
	if h.Subtitle == "" {
		return nil
	}
	return b.SpanClass("text-muted section-subtitle").T(h.Subtitle)
}
