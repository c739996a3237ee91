package panel

import (
	"strconv"
	"strings"

	"galpones/models"
)

// Field names one of the three inputs of the barn form.
// The values double as the form field names in the rendered HTML.
type Field string

const (
	FieldBarnNumber   Field = "barnNumber"
	FieldChickensInIt Field = "chickensInIt"
	FieldMaxCapacity  Field = "maxCapacity"
)

// Fields lists the form fields in display order
var Fields = []Field{FieldBarnNumber, FieldMaxCapacity, FieldChickensInIt}

// ParseField maps a form field name to a Field
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Validation messages shown under the inputs
const (
	MsgRequired             = "Este campo es obligatorio"
	MsgNotANumber           = "Debe ser un número"
	MsgBarnNumberPositive   = "El número de galpón debe ser mayor a 0"
	MsgBarnNumberTaken      = "Ya existe un galpón con este número"
	MsgMaxCapacityPositive  = "La capacidad máxima debe ser mayor a 0"
	MsgChickensNegative     = "La cantidad de gallinas no puede ser negativa"
	MsgChickensOverCapacity = "La cantidad de gallinas no puede superar la capacidad máxima"
)

// Result is the outcome of validating one field.
// The zero value is not meaningful; use Valid or Invalid.
type Result struct {
	OK     bool
	Reason string
}

// Valid is a passing Result
func Valid() Result { return Result{OK: true} }

// Invalid is a failing Result with the message to show the user
func Invalid(reason string) Result { return Result{Reason: reason} }

// Values holds the raw text of the three inputs as typed by the user.
type Values struct {
	BarnNumber   string
	ChickensInIt string
	MaxCapacity  string
}

// Get returns the raw value of field
func (v Values) Get(field Field) string {
	switch field {
	case FieldBarnNumber:
		return v.BarnNumber
	case FieldChickensInIt:
		return v.ChickensInIt
	case FieldMaxCapacity:
		return v.MaxCapacity
	}
	return ""
}

// With returns a copy of v with field set to raw
func (v Values) With(field Field, raw string) Values {
	switch field {
	case FieldBarnNumber:
		v.BarnNumber = raw
	case FieldChickensInIt:
		v.ChickensInIt = raw
	case FieldMaxCapacity:
		v.MaxCapacity = raw
	}
	return v
}

// ValuesFromDraft renders a draft as form values
func ValuesFromDraft(d models.BarnDraft) Values {
	return Values{
		BarnNumber:   strconv.Itoa(d.BarnNumber),
		ChickensInIt: strconv.Itoa(d.ChickensInIt),
		MaxCapacity:  strconv.Itoa(d.MaxCapacity),
	}
}

// Errors maps each invalid field to its message. Empty means valid.
type Errors map[Field]string

// Rules carries what validation needs besides the values themselves.
type Rules struct {
	Mode Mode
	// Defaults supplies the fallback maxCapacity when the field is left empty.
	Defaults models.BarnDraft
	// IsBarnNumberUnique is consulted in create mode only.
	IsBarnNumberUnique func(number int) bool
}

// parseNumber reports whether raw is present and whether it is an integer.
func parseNumber(raw string) (n int, present bool, numeric bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, false
	}
	return n, true, true
}

// requiredNumber applies the rules shared by every field.
// ok is false when a Result has already been decided.
func requiredNumber(raw string) (n int, res Result, ok bool) {
	n, present, numeric := parseNumber(raw)
	if !present {
		return 0, Invalid(MsgRequired), false
	}
	if !numeric {
		return 0, Invalid(MsgNotANumber), false
	}
	return n, Valid(), true
}

// ValidateBarnNumber checks the barn number. In edit mode the number is
// immutable and its uniqueness is not checked.
func ValidateBarnNumber(raw string, mode Mode, isUnique func(int) bool) Result {
	n, res, ok := requiredNumber(raw)
	if !ok {
		return res
	}
	if n <= 0 {
		return Invalid(MsgBarnNumberPositive)
	}
	if mode == ModeCreate && isUnique != nil && !isUnique(n) {
		return Invalid(MsgBarnNumberTaken)
	}
	return Valid()
}

// ValidateMaxCapacity checks that the capacity is a number above zero
func ValidateMaxCapacity(raw string) Result {
	n, res, ok := requiredNumber(raw)
	if !ok {
		return res
	}
	if n <= 0 {
		return Invalid(MsgMaxCapacityPositive)
	}
	return Valid()
}

// ValidateChickensInIt checks the occupant count against maxCapacity.
// A nil maxCapacity skips the bound check.
func ValidateChickensInIt(raw string, maxCapacity *int) Result {
	n, res, ok := requiredNumber(raw)
	if !ok {
		return res
	}
	if n < 0 {
		return Invalid(MsgChickensNegative)
	}
	if maxCapacity != nil && n > *maxCapacity {
		return Invalid(MsgChickensOverCapacity)
	}
	return Valid()
}

// capacityBound resolves the limit chickensInIt is checked against: the
// typed maxCapacity, or the default when the field is empty. A typed value
// that is not a number yields no bound.
func capacityBound(raw string, fallback int) *int {
	n, present, numeric := parseNumber(raw)
	switch {
	case !present:
		return &fallback
	case !numeric:
		return nil
	}
	return &n
}

// Validate runs every field rule plus the cross-field capacity step over
// the whole form. The draft is only meaningful when errs is empty.
func Validate(v Values, rules Rules) (draft models.BarnDraft, errs Errors) {
	errs = Errors{}

	if res := ValidateBarnNumber(v.BarnNumber, rules.Mode, rules.IsBarnNumberUnique); !res.OK {
		errs[FieldBarnNumber] = res.Reason
	}
	if res := ValidateMaxCapacity(v.MaxCapacity); !res.OK {
		errs[FieldMaxCapacity] = res.Reason
	}

	bound := capacityBound(v.MaxCapacity, rules.Defaults.MaxCapacity)
	if res := ValidateChickensInIt(v.ChickensInIt, bound); !res.OK {
		errs[FieldChickensInIt] = res.Reason
	}

	if len(errs) > 0 {
		return models.BarnDraft{}, errs
	}

	draft.BarnNumber, _, _ = parseNumber(v.BarnNumber)
	draft.ChickensInIt, _, _ = parseNumber(v.ChickensInIt)
	draft.MaxCapacity, _, _ = parseNumber(v.MaxCapacity)
	return draft, errs
}
