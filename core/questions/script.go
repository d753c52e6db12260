package questions

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidScript = errors.New("invalid question script")

type ScriptError struct {
	Index  int
	Reason string
}

func (e *ScriptError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid question script: %s", e.Reason)
	}
	return fmt.Sprintf("invalid question script: question %d: %s", e.Index, e.Reason)
}

func (e *ScriptError) Unwrap() error { return ErrInvalidScript }

type Script struct {
	questions []Question
	fields    []string
}

// NewScript validates qs and returns an immutable script. The input slice is
// copied; later changes to it do not affect the script.
func NewScript(qs ...Question) (*Script, error) {
	if len(qs) < 2 {
		return nil, &ScriptError{Index: -1, Reason: "needs at least a preparation and a completion question"}
	}

	questions := make([]Question, len(qs))
	for i, q := range qs {
		q.Validation = cloneRange(q.Validation)
		q.Choices = cloneChoices(q.Choices)
		questions[i] = q
	}

	var fields []string
	seen := map[string]bool{}
	last := len(questions) - 1
	for i, q := range questions {
		if q.ID != i {
			return nil, &ScriptError{Index: i, Reason: fmt.Sprintf("id %d does not match position", q.ID)}
		}
		if !q.Category.IsValid() {
			return nil, &ScriptError{Index: i, Reason: fmt.Sprintf("unknown category %q", q.Category)}
		}
		if q.Prompt == "" {
			return nil, &ScriptError{Index: i, Reason: "empty prompt"}
		}

		switch {
		case i == 0 && q.Category != CategoryPreparation:
			return nil, &ScriptError{Index: i, Reason: "first question must be the preparation question"}
		case i == last && q.Category != CategoryCompletion:
			return nil, &ScriptError{Index: i, Reason: "last question must be the completion question"}
		case i != 0 && q.Category == CategoryPreparation:
			return nil, &ScriptError{Index: i, Reason: "only the first question may be a preparation question"}
		case i != last && q.Category == CategoryCompletion:
			return nil, &ScriptError{Index: i, Reason: "only the last question may be a completion question"}
		}

		if i == 0 || i == last {
			if q.TargetField != "" {
				return nil, &ScriptError{Index: i, Reason: "conversational questions cannot have a target field"}
			}
			continue
		}

		if q.TargetField == "" {
			return nil, &ScriptError{Index: i, Reason: "missing target field"}
		}
		if seen[q.TargetField] {
			return nil, &ScriptError{Index: i, Reason: fmt.Sprintf("duplicate target field %q", q.TargetField)}
		}
		seen[q.TargetField] = true
		if !q.ExpectedShape.IsValid() {
			return nil, &ScriptError{Index: i, Reason: fmt.Sprintf("unknown expected shape %q", q.ExpectedShape)}
		}
		if q.ExpectedShape == ShapeCategorical && len(q.AnswerChoices()) == 0 {
			return nil, &ScriptError{Index: i, Reason: fmt.Sprintf("categorical field %q has no choices", q.TargetField)}
		}
		if q.Validation != nil && q.Validation.Min > q.Validation.Max {
			return nil, &ScriptError{Index: i, Reason: "validation min is greater than max"}
		}
		fields = append(fields, q.TargetField)
	}

	return &Script{questions: questions, fields: fields}, nil
}

// MustScript is NewScript for statically known scripts.
func MustScript(qs ...Question) *Script {
	script, err := NewScript(qs...)
	if err != nil {
		panic(err)
	}
	return script
}

func (s *Script) Len() int { return len(s.questions) }

func (s *Script) QuestionAt(index int) (Question, bool) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, false
	}

	q := s.questions[index]
	q.Validation = cloneRange(q.Validation)
	q.Choices = cloneChoices(q.Choices)
	return q, true
}

// Fields returns the target fields in script order.
func (s *Script) Fields() []string { return slices.Clone(s.fields) }

// Questions returns a copy of all questions in order.
func (s *Script) Questions() []Question {
	qs := make([]Question, 0, len(s.questions))
	for i := range s.questions {
		q, _ := s.QuestionAt(i)
		qs = append(qs, q)
	}
	return qs
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

func cloneChoices(choices []Choice) []Choice {
	if choices == nil {
		return nil
	}
	clone := make([]Choice, len(choices))
	for i, c := range choices {
		clone[i] = Choice{Value: c.Value, Keywords: slices.Clone(c.Keywords)}
	}
	return clone
}
