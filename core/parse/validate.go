package parse

import (
	"fmt"
	"strconv"

	"github.com/koscakluka/ema-heartcheck/core/questions"
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnrecognized Reason = "unrecognized"
	ReasonBelowMin     Reason = "below-minimum"
	ReasonAboveMax     Reason = "above-maximum"
)

type Verdict struct {
	Valid  bool
	Reason Reason
	// Range is the violated bound, set for range failures only.
	Range *questions.Range
}

func (v Verdict) String() string {
	if v.Valid {
		return "valid"
	}
	return string(v.Reason)
}

// Validate decides whether v is an acceptable answer to q. It is the only
// place answer ranges are checked. Yes-no answers must be 0 or 1 and
// categorical answers one of the question's coded choices.
func Validate(q questions.Question, v *float64) Verdict {
	if v == nil {
		return Verdict{Reason: ReasonUnrecognized}
	}
	switch q.ExpectedShape {
	case questions.ShapeYesNo:
		if *v != 0 && *v != 1 {
			return Verdict{Reason: ReasonUnrecognized}
		}
	case questions.ShapeCategorical:
		if !q.HasChoice(*v) {
			return Verdict{Reason: ReasonUnrecognized}
		}
	}
	if q.Validation == nil {
		return Verdict{Valid: true}
	}

	bounds := *q.Validation
	switch {
	case *v < bounds.Min:
		return Verdict{Reason: ReasonBelowMin, Range: &bounds}
	case *v > bounds.Max:
		return Verdict{Reason: ReasonAboveMax, Range: &bounds}
	}
	return Verdict{Valid: true}
}

// Correction is the prompt spoken after a failed verdict. The question is
// repeated so the user knows what to answer.
func Correction(q questions.Question, verdict Verdict) string {
	switch verdict.Reason {
	case ReasonBelowMin, ReasonAboveMax:
		if verdict.Range != nil {
			return fmt.Sprintf("That doesn't sound right. Please give a number between %s and %s. %s",
				formatNumber(verdict.Range.Min), formatNumber(verdict.Range.Max), q.Prompt)
		}
	}

	switch q.ExpectedShape {
	case questions.ShapeYesNo:
		return "Sorry, I didn't catch that. Please answer yes or no. " + q.Prompt
	case questions.ShapeNumeric:
		return "Sorry, I didn't understand. Please say a number. " + q.Prompt
	}
	return "Sorry, I didn't understand, please repeat. " + q.Prompt
}

func formatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
