// Package shared contains components used by more than one page.
package shared

import "github.com/rohanthewiz/element"

// Page is embedded by page structs to provide the common layout pieces.
//
//	type BarnsPage struct {
//	    shared.Page
//	    Barns []models.Barn
//	}
type Page struct {
	Title string
}

// Banner returns the page header; action is rendered at its right edge
// and may be nil.
func (p Page) Banner(action element.Component) Banner {
	return Banner{Title: p.Title, Action: action}
}

// Footer returns the page footer
func (p Page) Footer(note string) Footer {
	return Footer{Note: note}
}
