package parse

var (
	negativeMarkers = []string{
		"no", "nope", "nah", "not", "never", "none", "negative",
		"don't", "do not", "doesn't", "haven't", "have not", "hasn't", "didn't", "did not",
		"i'm not", "i am not", "not really", "no way",
	}
	affirmativeMarkers = []string{
		"yes", "yeah", "yep", "yup", "ya", "sure", "correct", "right", "true",
		"i do", "i have", "i am", "i did", "affirmative", "of course",
		"definitely", "absolutely", "ok", "okay", "ready",
	}
)

// YesNo returns 1 for an affirmative answer, 0 for a negative one and nil
// when neither marker set matches. Negative markers win when both match, so
// "not really" and "yes, I don't" read as negative. Frequency words such as
// "sometimes" are not markers; they need a yes or no to be recognized.
func YesNo(text string) *float64 {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	if containsAny(normalized, negativeMarkers) {
		return value(0)
	}
	if containsAny(normalized, affirmativeMarkers) {
		return value(1)
	}
	return nil
}

func value(v float64) *float64 { return &v }
