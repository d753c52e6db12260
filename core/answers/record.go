// Package answers holds the numeric answer record a session fills in.
package answers

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jinzhu/copier"
)

var ErrUnknownField = errors.New("unknown answer field")

// Record is one session's answers. It is a value: With, Skip and Flag return
// an updated copy and leave the receiver untouched.
type Record struct {
	fields  []string
	values  map[string]float64
	written []string
	skipped []string
	flagged []string
}

// New creates a record with every field set to 0.
func New(fields []string) Record {
	values := make(map[string]float64, len(fields))
	for _, field := range fields {
		values[field] = 0
	}
	return Record{fields: slices.Clone(fields), values: values}
}

func (r Record) Fields() []string { return slices.Clone(r.fields) }

func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

func (r Record) Value(field string) (float64, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Written lists fields in the order they received an answer.
func (r Record) Written() []string { return slices.Clone(r.written) }

func (r Record) Skipped() []string { return slices.Clone(r.skipped) }

// Flagged lists fields that were skipped after too many unrecognized answers.
func (r Record) Flagged() []string { return slices.Clone(r.flagged) }

func (r Record) With(field string, v float64) (Record, error) {
	if !r.Has(field) {
		return r, fmt.Errorf("failed to write %q: %w", field, ErrUnknownField)
	}
	next := r.clone()
	next.values[field] = v
	next.written = append(next.written, field)
	return next, nil
}

// Skip marks field as skipped; its value stays at the default.
func (r Record) Skip(field string) (Record, error) {
	if !r.Has(field) {
		return r, fmt.Errorf("failed to skip %q: %w", field, ErrUnknownField)
	}
	next := r.clone()
	next.skipped = append(next.skipped, field)
	return next, nil
}

// Flag skips field and marks it for manual follow-up.
func (r Record) Flag(field string) (Record, error) {
	next, err := r.Skip(field)
	if err != nil {
		return r, err
	}
	next.flagged = append(next.flagged, field)
	return next, nil
}

func (r Record) clone() Record {
	values := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return Record{
		fields:  slices.Clone(r.fields),
		values:  values,
		written: slices.Clone(r.written),
		skipped: slices.Clone(r.skipped),
		flagged: slices.Clone(r.flagged),
	}
}

// Answers is the finalized snapshot handed to the surrounding application.
type Answers struct {
	Values      map[string]float64 `json:"values" yaml:"values"`
	Order       []string           `json:"order" yaml:"order"`
	Skipped     []string           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Flagged     []string           `json:"flagged,omitempty" yaml:"flagged,omitempty"`
	FinalizedAt time.Time          `json:"finalizedAt" yaml:"finalizedAt"`
}

func (a Answers) Value(field string) float64 { return a.Values[field] }

// Finalize returns a detached snapshot of the record stamped with at.
func (r Record) Finalize(at time.Time) Answers {
	snapshot := struct {
		Values  map[string]float64
		Order   []string
		Skipped []string
		Flagged []string
	}{r.values, r.written, r.skipped, r.flagged}

	var answers Answers
	if err := copier.CopyWithOption(&answers, snapshot, copier.Option{DeepCopy: true}); err != nil {
		answers = Answers{Values: r.clone().values, Order: r.Written(), Skipped: r.Skipped(), Flagged: r.Flagged()}
	}
	if answers.Values == nil {
		answers.Values = map[string]float64{}
	}
	answers.FinalizedAt = at
	return answers
}
