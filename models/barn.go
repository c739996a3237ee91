package models

import (
	"strconv"

	"github.com/rohanthewiz/serr"
)

// Barn is a poultry-housing unit as stored by the remote barn API.
// ChickensInIt must never exceed MaxCapacity.
type Barn struct {
	ID           int64 `json:"id"`
	BarnNumber   int   `json:"barnNumber"`
	ChickensInIt int   `json:"chickensInIt"`
	MaxCapacity  int   `json:"maxCapacity"`
}

// BarnDraft is the payload sent to the API for create and update.
// It has the same shape as Barn minus the identifier, which the API assigns.
type BarnDraft struct {
	BarnNumber   int `json:"barnNumber"`
	ChickensInIt int `json:"chickensInIt"`
	MaxCapacity  int `json:"maxCapacity"`
}

// Draft returns the editable part of the barn
func (b Barn) Draft() BarnDraft {
	return BarnDraft{
		BarnNumber:   b.BarnNumber,
		ChickensInIt: b.ChickensInIt,
		MaxCapacity:  b.MaxCapacity,
	}
}

// Validate checks the record-level invariants of a draft.
// The panel runs its own field rules first; this is the last check before
// a payload leaves the process.
func (d BarnDraft) Validate() error {
	if d.BarnNumber <= 0 {
		return serr.New("barn number must be positive", "barn_number", strconv.Itoa(d.BarnNumber))
	}
	if d.MaxCapacity <= 0 {
		return serr.New("max capacity must be positive", "max_capacity", strconv.Itoa(d.MaxCapacity))
	}
	if d.ChickensInIt < 0 {
		return serr.New("chickens in barn cannot be negative", "chickens_in_it", strconv.Itoa(d.ChickensInIt))
	}
	if d.ChickensInIt > d.MaxCapacity {
		return serr.New("chickens in barn exceed max capacity",
			"chickens_in_it", strconv.Itoa(d.ChickensInIt), "max_capacity", strconv.Itoa(d.MaxCapacity))
	}
	return nil
}

// Occupancy returns the fill ratio of the barn in the range [0, 1].
func (b Barn) Occupancy() float64 {
	if b.MaxCapacity <= 0 {
		return 0
	}
	ratio := float64(b.ChickensInIt) / float64(b.MaxCapacity)
	if ratio > 1 {
		return 1
	}
	return ratio
}
