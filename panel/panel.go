// Package panel implements the barn form panel: the slide-out form used to
// create, edit and delete a single barn. It owns the form values, runs
// validation, drives the submission lifecycle and hands persistence to the
// remote barn API.
//
// A Panel is rendering-agnostic. The web layer calls its actions and renders
// the View snapshot it returns.
package panel

import (
	"context"
	"strconv"
	"sync"

	"galpones/models"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Notification texts shown in the success overlay
const (
	MsgSaved   = "Galpon editado exitosamente."
	MsgDeleted = "Galpon eliminado exitosamente."
)

// Mode selects between creating a new barn and editing an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Outcome tells the caller what an action did. Failures are never shown to
// the user, but callers and logs can still tell them apart.
type Outcome int

const (
	OutcomeInvalid     Outcome = iota // validation failed, no call made
	OutcomeSaved                      // create or update succeeded
	OutcomeDeleted                    // delete succeeded
	OutcomeFailed                     // the API call failed
	OutcomeBusy                       // another call is still in flight
	OutcomeDiscarded                  // the panel was closed while the call ran
	OutcomeUnavailable                // the action does not apply in the current state
	OutcomeClosed                     // the panel was closed
)

var outcomeNames = [...]string{"invalid", "saved", "deleted", "failed", "busy", "discarded", "unavailable", "closed"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

// BarnAPI is the persistence contract the panel delegates to.
type BarnAPI interface {
	Create(ctx context.Context, draft models.BarnDraft) (models.Barn, error)
	Update(ctx context.Context, id int64, draft models.BarnDraft) (models.Barn, error)
	Delete(ctx context.Context, id int64) (models.Barn, error)
}

// Numbering provides barn-number defaults and the uniqueness check.
type Numbering interface {
	NextAvailableBarnNumber() int
	IsBarnNumberUnique(number int) bool
}

// Refresher reloads the barn list owned by the surrounding context.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Config wires a Panel to its collaborators.
type Config struct {
	API       BarnAPI
	Numbering Numbering
	Refresher Refresher
	// OnClose is invoked after every close, following the list refresh.
	OnClose func()
}

// View is an immutable snapshot of the panel for rendering.
type View struct {
	Open         bool
	Mode         Mode
	BarnID       int64 // zero in create mode
	Values       Values
	Errors       Errors
	Loading      bool
	Notification string
}

// BarnNumberDisabled reports whether the barn number input is locked
func (v View) BarnNumberDisabled() bool {
	return v.Mode == ModeEdit
}

// CanDelete reports whether the delete action is offered
func (v View) CanDelete() bool {
	return v.Mode == ModeEdit
}

// Panel is the state of one barn form panel. It is safe for concurrent use;
// network calls run without holding the lock.
type Panel struct {
	cfg Config

	mu           sync.Mutex
	open         bool
	mode         Mode
	editing      models.Barn
	defaults     models.BarnDraft
	values       Values
	errors       Errors
	submitted    bool // revalidate on change once a submit was attempted
	loading      bool
	notification string
	// generation changes on every open and close so a call that completes
	// after the panel moved on can tell its result is stale.
	generation uint64
}

// New creates a closed panel.
func New(cfg Config) *Panel {
	return &Panel{cfg: cfg, errors: Errors{}}
}

// Open shows the panel. A nil barnToEdit opens it in create mode with the
// next available barn number; otherwise it edits that barn.
func (p *Panel) Open(barnToEdit *models.Barn) View {
	var defaults models.BarnDraft
	mode := ModeCreate
	var editing models.Barn

	if barnToEdit != nil {
		mode = ModeEdit
		editing = *barnToEdit
		defaults = barnToEdit.Draft()
	} else if p.cfg.Numbering != nil {
		defaults.BarnNumber = p.cfg.Numbering.NextAvailableBarnNumber()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.open = true
	p.mode = mode
	p.editing = editing
	p.defaults = defaults
	p.values = ValuesFromDraft(defaults)
	p.errors = Errors{}
	p.submitted = false
	p.loading = false
	p.notification = ""

	logger.Debug("Barn panel opened", "mode", mode.String(), "barn_id", editing.ID)
	return p.viewLocked()
}

// View returns the current snapshot
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// SetField records the in-progress value of one input. Once a submit has
// been attempted, every change re-validates the whole form. The barn number
// cannot change in edit mode.
func (p *Panel) SetField(field Field, raw string) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open || (field == FieldBarnNumber && p.mode == ModeEdit) {
		return p.viewLocked()
	}

	p.values = p.values.With(field, raw)
	if p.submitted {
		_, p.errors = Validate(p.values, p.rulesLocked())
	}
	return p.viewLocked()
}

// SetValues replaces all editable inputs at once, as a full form post does
func (p *Panel) SetValues(v Values) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return p.viewLocked()
	}
	if p.mode == ModeEdit {
		v.BarnNumber = p.values.BarnNumber
	}
	p.values = v
	if p.submitted {
		_, p.errors = Validate(p.values, p.rulesLocked())
	}
	return p.viewLocked()
}

// Submit validates the form and, when valid, creates or updates the barn.
// Failures of the API call are logged and otherwise swallowed: the panel
// stays open with its controls enabled again.
func (p *Panel) Submit(ctx context.Context) (Outcome, View) {
	p.mu.Lock()
	if !p.open {
		defer p.mu.Unlock()
		return OutcomeUnavailable, p.viewLocked()
	}
	if p.loading {
		defer p.mu.Unlock()
		return OutcomeBusy, p.viewLocked()
	}

	p.submitted = true
	draft, errs := Validate(p.values, p.rulesLocked())
	p.errors = errs
	if len(errs) > 0 {
		defer p.mu.Unlock()
		return OutcomeInvalid, p.viewLocked()
	}

	p.loading = true
	gen := p.generation
	mode := p.mode
	id := p.editing.ID
	p.mu.Unlock()

	var err error
	if mode == ModeEdit {
		_, err = p.cfg.API.Update(ctx, id, draft)
	} else {
		_, err = p.cfg.API.Create(ctx, draft)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		logger.Info("Barn panel closed before save completed, result discarded",
			"mode", mode.String(), "barn_number", draft.BarnNumber, "error", err)
		return OutcomeDiscarded, p.viewLocked()
	}

	p.loading = false
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to save barn"), "barn save failed",
			"mode", mode.String(), "barn_number", strconv.Itoa(draft.BarnNumber))
		return OutcomeFailed, p.viewLocked()
	}

	p.notification = MsgSaved
	logger.Info("Barn saved", "mode", mode.String(), "barn_number", draft.BarnNumber)
	return OutcomeSaved, p.viewLocked()
}

// Delete removes the barn being edited. It does nothing in create mode.
// Failures are logged and otherwise swallowed.
func (p *Panel) Delete(ctx context.Context) (Outcome, View) {
	p.mu.Lock()
	if !p.open || p.mode != ModeEdit {
		defer p.mu.Unlock()
		return OutcomeUnavailable, p.viewLocked()
	}
	if p.loading {
		defer p.mu.Unlock()
		return OutcomeBusy, p.viewLocked()
	}

	p.loading = true
	gen := p.generation
	id := p.editing.ID
	p.mu.Unlock()

	_, err := p.cfg.API.Delete(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		logger.Info("Barn panel closed before delete completed, result discarded", "barn_id", id, "error", err)
		return OutcomeDiscarded, p.viewLocked()
	}

	p.loading = false
	if err != nil {
		logger.LogErr(serr.Wrap(err, "failed to delete barn"), "barn delete failed",
			"barn_id", strconv.FormatInt(id, 10))
		return OutcomeFailed, p.viewLocked()
	}

	p.notification = MsgDeleted
	logger.Info("Barn deleted", "barn_id", id)
	return OutcomeDeleted, p.viewLocked()
}

// DismissNotification clears the success overlay and closes the panel.
func (p *Panel) DismissNotification(ctx context.Context) (Outcome, View) {
	p.mu.Lock()
	p.notification = ""
	p.loading = false
	p.mu.Unlock()

	return p.ClosePanel(ctx)
}

// ClosePanel hides the panel, refreshes the barn list owned by the
// surrounding context and invokes the close callback. Every dismissal path
// ends here.
func (p *Panel) ClosePanel(ctx context.Context) (Outcome, View) {
	p.mu.Lock()
	p.generation++
	p.open = false
	p.errors = Errors{}
	p.submitted = false
	p.loading = false
	p.notification = ""
	p.mu.Unlock()

	if p.cfg.Refresher != nil {
		if err := p.cfg.Refresher.Refresh(ctx); err != nil {
			logger.LogErr(err, "failed to refresh barn list on panel close")
		}
	}
	if p.cfg.OnClose != nil {
		p.cfg.OnClose()
	}

	return OutcomeClosed, p.View()
}

func (p *Panel) rulesLocked() Rules {
	rules := Rules{Mode: p.mode, Defaults: p.defaults}
	if p.cfg.Numbering != nil {
		rules.IsBarnNumberUnique = p.cfg.Numbering.IsBarnNumberUnique
	}
	return rules
}

func (p *Panel) viewLocked() View {
	errs := make(Errors, len(p.errors))
	for k, v := range p.errors {
		errs[k] = v
	}
	return View{
		Open:         p.open,
		Mode:         p.mode,
		BarnID:       p.editing.ID,
		Values:       p.values,
		Errors:       errs,
		Loading:      p.loading,
		Notification: p.notification,
	}
}
