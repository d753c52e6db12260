package questions

// builtinChoices are keyword tables for categorical fields that scripts
// commonly use without declaring their own choices.
var builtinChoices = map[string][]Choice{
	"sex": {
		{Value: 0, Keywords: []string{"female", "woman", "girl", "feminine", "f"}},
		{Value: 1, Keywords: []string{"male", "man", "boy", "masculine", "m"}},
	},
	"smoking": {
		{Value: 1, Keywords: []string{"used to", "former", "quit", "stopped"}},
		{Value: 0, Keywords: []string{"never", "no", "don't", "do not"}},
		{Value: 2, Keywords: []string{"yes", "smoke", "currently"}},
	},
}

func init() {
	builtinChoices["gender"] = builtinChoices["sex"]
}

// BuiltinChoices returns a copy of the keyword table for field.
func BuiltinChoices(field string) ([]Choice, bool) {
	choices, ok := builtinChoices[field]
	if !ok {
		return nil, false
	}
	return cloneChoices(choices), true
}

// AnswerChoices returns the question's own choices, or the built-in table
// for its target field when it declares none.
func (q Question) AnswerChoices() []Choice {
	if len(q.Choices) > 0 {
		return cloneChoices(q.Choices)
	}
	choices, _ := BuiltinChoices(q.TargetField)
	return choices
}

// HasChoice reports whether v is the coded value of one of the question's
// answer choices.
func (q Question) HasChoice(v float64) bool {
	for _, choice := range q.AnswerChoices() {
		if choice.Value == v {
			return true
		}
	}
	return false
}
