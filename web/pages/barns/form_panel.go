package barns

import (
	"strconv"

	"galpones/panel"

	"github.com/rohanthewiz/element"
)

// PanelRootID is the element the browser script swaps panel fragments into
const PanelRootID = "barn-panel-root"

// fieldLabels are the input captions, keyed by field
var fieldLabels = map[panel.Field]string{
	panel.FieldBarnNumber:   "Número de galpón",
	panel.FieldMaxCapacity:  "Capacidad máxima",
	panel.FieldChickensInIt: "Cantidad de gallinas",
}

// FormPanel renders the slide-out barn form for one panel snapshot.
// A closed panel renders as an empty root so the fragment can always be
// swapped in place.
type FormPanel struct {
	View panel.View
}

// Render implements the element.Component interface
func (f FormPanel) Render(b *element.Builder) any {
	if !f.View.Open {
		b.Div("id", PanelRootID, "class", "panel-root").R()
		return nil
	}

	b.Div("id", PanelRootID, "class", "panel-root").R(
		// Clicking the backdrop is one of the dismissal paths
		b.Div("class", "drawer-backdrop", "onclick", "barns.closePanel()").R(
			b.Aside("class", "drawer", "id", "barn-drawer", "onclick", "event.stopPropagation()").R(
				f.renderHeader(b),
				b.Form("class", "drawer-form", "id", "barn-form", "novalidate", "novalidate",
					"onsubmit", "return barns.submit(event)").R(
					f.renderField(b, panel.FieldBarnNumber),
					f.renderField(b, panel.FieldMaxCapacity),
					f.renderField(b, panel.FieldChickensInIt),
					f.renderActions(b),
				),
			),
		),
		f.renderNotification(b),
	)
	return nil
}

func (f FormPanel) title() string {
	if f.View.Mode == panel.ModeEdit {
		return "Editar galpón " + f.View.Values.BarnNumber
	}
	return "Nuevo galpón"
}

func (f FormPanel) renderHeader(b *element.Builder) any {
	return b.DivClass("drawer-header").R(
		b.H2("class", "drawer-title").T(f.title()),
		b.ButtonClass("drawer-close", "type", "button", "title", "Cerrar",
			"onclick", "barns.closePanel()").T("×"),
	)
}

func (f FormPanel) renderField(b *element.Builder, field panel.Field) any {
	name := string(field)
	inputID := "barn-" + name
	errMsg, invalid := f.View.Errors[field]

	attrs := []string{
		"type", "number", "class", "drawer-input", "id", inputID, "name", name,
		"value", f.View.Values.Get(field), "step", "1", "inputmode", "numeric",
		"onchange", "barns.setField(this)",
	}
	if field == panel.FieldBarnNumber && f.View.BarnNumberDisabled() {
		attrs = append(attrs, "disabled", "disabled")
	}
	if invalid {
		attrs = append(attrs, "aria-invalid", "true")
	}

	wrapperClass := "drawer-field"
	if invalid {
		wrapperClass += " has-error"
	}

	return b.DivClass(wrapperClass).R(
		b.LabelClass("drawer-label", "for", inputID).T(fieldLabels[field]),
		b.Input(attrs...),
		f.renderFieldError(b, errMsg, invalid),
	)
}

func (f FormPanel) renderFieldError(b *element.Builder, msg string, invalid bool) any {
	if !invalid {
		return nil
	}
	return b.Small("class", "field-error").T(msg)
}

func (f FormPanel) renderActions(b *element.Builder) any {
	submitLabel := "Guardar"
	if f.View.Loading {
		submitLabel = "Guardando..."
	}

	return b.DivClass("drawer-actions").R(
		f.renderDeleteButton(b),
		b.Button(f.buttonAttrs("submit", "btn btn-primary", "barn-submit")...).T(submitLabel),
	)
}

// renderDeleteButton is only offered when editing an existing barn
func (f FormPanel) renderDeleteButton(b *element.Builder) any {
	if !f.View.CanDelete() {
		return nil
	}
	attrs := append(f.buttonAttrs("button", "btn btn-danger", "barn-delete"),
		"onclick", "barns.deleteBarn()")
	return b.Button(attrs...).T("Eliminar")
}

// buttonAttrs disables submit controls while a call is in flight
func (f FormPanel) buttonAttrs(typ, class, id string) []string {
	attrs := []string{"type", typ, "class", class, "id", id}
	if f.View.Loading {
		attrs = append(attrs, "disabled", "disabled")
	}
	return attrs
}

func (f FormPanel) renderNotification(b *element.Builder) any {
	if f.View.Notification == "" {
		return nil
	}
	return b.Div("class", "notification-overlay", "id", "barn-notification").R(
		b.Div("class", "notification notification-success", "role", "alert").R(
			b.PClass("notification-message").T(f.View.Notification),
			b.Button("type", "button", "class", "btn btn-primary",
				"onclick", "barns.dismissNotification()").T("Aceptar"),
		),
	)
}

// RenderFormPanel renders a panel snapshot as an HTML fragment
func RenderFormPanel(view panel.View) string {
	b := element.NewBuilder()
	element.RenderComponents(b, FormPanel{View: view})
	return b.String()
}

// barnIDAttr formats a barn id for use in markup
func barnIDAttr(id int64) string {
	return strconv.FormatInt(id, 10)
}
