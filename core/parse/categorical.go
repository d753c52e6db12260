package parse

import "github.com/koscakluka/ema-heartcheck/core/questions"

// Categorical matches text against the built-in keyword table for field.
// Unknown fields and unmatched text yield nil.
func Categorical(text, field string) *float64 {
	choices, ok := questions.BuiltinChoices(field)
	if !ok {
		return nil
	}
	return Choice(text, choices)
}

// Choice returns the value of the first choice with a keyword present in
// text.
func Choice(text string, choices []questions.Choice) *float64 {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	for _, choice := range choices {
		if containsAny(normalized, choice.Keywords) {
			return value(choice.Value)
		}
	}
	return nil
}

// Answer parses text according to the question's expected shape. Questions
// with their own choices use those instead of the built-in field tables.
func Answer(q questions.Question, text string) *float64 {
	switch q.ExpectedShape {
	case questions.ShapeYesNo:
		return YesNo(text)
	case questions.ShapeNumeric:
		return Numeric(text)
	case questions.ShapeCategorical:
		return Choice(text, q.AnswerChoices())
	}
	return nil
}
