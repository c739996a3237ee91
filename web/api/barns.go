package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"galpones/metrics"
	"galpones/models"
	"galpones/panel"
	"galpones/web/pages/barns"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// OutcomeHeader reports the panel action outcome alongside each fragment
const OutcomeHeader = "X-Panel-Outcome"

// BarnHandlers serves the barn page and the form panel actions. Panel
// actions answer with the re-rendered panel fragment.
type BarnHandlers struct {
	directory *models.Directory
	panels    *PanelStore
	metrics   *metrics.Metrics // may be nil
}

// NewBarnHandlers creates the handlers over a barn directory and panel store
func NewBarnHandlers(directory *models.Directory, panels *PanelStore, m *metrics.Metrics) *BarnHandlers {
	return &BarnHandlers{directory: directory, panels: panels, metrics: m}
}

// fieldInput is the body of POST /barns/panel/field
type fieldInput struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// submitInput is the body of POST /barns/panel/submit. Values stay strings
// so validation sees exactly what the user typed.
type submitInput struct {
	BarnNumber   string `json:"barnNumber"`
	ChickensInIt string `json:"chickensInIt"`
	MaxCapacity  string `json:"maxCapacity"`
}

// BarnsPage handles GET /
func (h *BarnHandlers) BarnsPage(ctx rweb.Context) error {
	if err := h.directory.Refresh(context.Background()); err != nil {
		// Still render whatever we had last
		logger.LogErr(err, "failed to refresh barn list for page")
	}

	view := h.sessionPanel(ctx).View()
	ctx.Response().SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.WriteHTML(barns.NewPage(h.directory.Barns(), view).Render())
}

// BarnTable handles GET /barns/table
func (h *BarnHandlers) BarnTable(ctx rweb.Context) error {
	return writeFragment(ctx, http.StatusOK, barns.RenderBarnTable(h.directory.Barns()))
}

// OpenPanel handles POST /barns/panel/open.
// Without an id the panel opens in create mode; ?id= edits that barn.
func (h *BarnHandlers) OpenPanel(ctx rweb.Context) error {
	p := h.sessionPanel(ctx)

	idStr := ctx.Request().QueryParam("id")
	if idStr == "" {
		// Another session may have taken the next number since our last look
		if err := h.directory.Refresh(context.Background()); err != nil {
			logger.LogErr(err, "failed to refresh barn list before create")
		}
		return writeFragment(ctx, http.StatusOK, barns.RenderFormPanel(p.Open(nil)))
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return writeError(ctx, http.StatusBadRequest, "invalid barn id")
	}

	barn, ok := h.directory.Find(id)
	if !ok {
		// The list may be stale; look once more before giving up
		if err := h.directory.Refresh(context.Background()); err != nil {
			logger.LogErr(err, "failed to refresh barn list", "barn_id", idStr)
		}
		barn, ok = h.directory.Find(id)
	}
	if !ok {
		return writeError(ctx, http.StatusNotFound, "barn not found")
	}

	return writeFragment(ctx, http.StatusOK, barns.RenderFormPanel(p.Open(&barn)))
}

// SetField handles POST /barns/panel/field
func (h *BarnHandlers) SetField(ctx rweb.Context) error {
	var input fieldInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to decode request body"), "invalid JSON")
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	field, ok := panel.ParseField(input.Field)
	if !ok {
		return writeError(ctx, http.StatusBadRequest, "unknown field")
	}

	view := h.sessionPanel(ctx).SetField(field, input.Value)
	return writeFragment(ctx, http.StatusOK, barns.RenderFormPanel(view))
}

// Submit handles POST /barns/panel/submit
func (h *BarnHandlers) Submit(ctx rweb.Context) error {
	var input submitInput
	if err := json.Unmarshal(ctx.Request().Body(), &input); err != nil {
		logger.LogErr(serr.Wrap(err, "failed to decode request body"), "invalid JSON")
		return writeError(ctx, http.StatusBadRequest, "invalid JSON body")
	}

	p := h.sessionPanel(ctx)
	p.SetValues(panel.Values{
		BarnNumber:   input.BarnNumber,
		ChickensInIt: input.ChickensInIt,
		MaxCapacity:  input.MaxCapacity,
	})

	outcome, view := p.Submit(context.Background())
	return h.writePanel(ctx, "submit", outcome, view)
}

// Delete handles POST /barns/panel/delete
func (h *BarnHandlers) Delete(ctx rweb.Context) error {
	outcome, view := h.sessionPanel(ctx).Delete(context.Background())
	return h.writePanel(ctx, "delete", outcome, view)
}

// DismissNotification handles POST /barns/panel/notification/dismiss
func (h *BarnHandlers) DismissNotification(ctx rweb.Context) error {
	outcome, view := h.sessionPanel(ctx).DismissNotification(context.Background())
	return h.writePanel(ctx, "dismiss", outcome, view)
}

// ClosePanel handles POST /barns/panel/close
func (h *BarnHandlers) ClosePanel(ctx rweb.Context) error {
	outcome, view := h.sessionPanel(ctx).ClosePanel(context.Background())
	return h.writePanel(ctx, "close", outcome, view)
}

// ListBarns handles GET /api/v1/barns.
// ?refresh=true reloads the list from the barn API first.
func (h *BarnHandlers) ListBarns(ctx rweb.Context) error {
	if ctx.Request().QueryParam("refresh") == "true" {
		if err := h.directory.Refresh(context.Background()); err != nil {
			logger.LogErr(err, "failed to refresh barn list")
			return writeError(ctx, http.StatusBadGateway, "barn API unavailable")
		}
	}
	return writeSuccess(ctx, http.StatusOK, h.directory.Barns())
}

// Metrics handles GET /metrics in the Prometheus text format
func (h *BarnHandlers) Metrics(ctx rweb.Context) error {
	body, contentType, err := h.metrics.Expose()
	if err != nil {
		logger.LogErr(err, "failed to expose metrics")
		return writeError(ctx, http.StatusInternalServerError, "metrics unavailable")
	}
	ctx.Response().SetHeader("Content-Type", contentType)
	return ctx.Bytes(body)
}

// Health handles GET /health
func (h *BarnHandlers) Health(ctx rweb.Context) error {
	data := map[string]interface{}{
		"status": "ok",
		"barns":  len(h.directory.Barns()),
	}
	if at := h.directory.RefreshedAt(); !at.IsZero() {
		data["refreshed_at"] = at.UTC().Format(time.RFC3339)
	}
	return writeSuccess(ctx, http.StatusOK, data)
}

func (h *BarnHandlers) writePanel(ctx rweb.Context, action string, outcome panel.Outcome, view panel.View) error {
	h.metrics.ObservePanelAction(action, outcome.String())
	ctx.Response().SetHeader(OutcomeHeader, outcome.String())
	return writeFragment(ctx, http.StatusOK, barns.RenderFormPanel(view))
}

// sessionPanel returns the panel for the session set by SessionMiddleware
func (h *BarnHandlers) sessionPanel(ctx rweb.Context) *panel.Panel {
	sessionID, _ := ctx.Get("session_id").(string)
	return h.panels.Get(sessionID)
}
