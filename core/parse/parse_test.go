package parse

import (
	"reflect"
	"testing"

	"github.com/koscakluka/ema-heartcheck/core/questions"
)

func TestYesNo(t *testing.T) {
	testCases := []struct {
		text     string
		expected *float64
	}{
		{text: "yes", expected: value(1)},
		{text: "  Yeah, I do.  ", expected: value(1)},
		{text: "Sure", expected: value(1)},
		{text: "no", expected: value(0)},
		{text: "Nope!", expected: value(0)},
		{text: "I don't think so", expected: value(0)},
		{text: "not really", expected: value(0)},
		{text: "yess", expected: value(1)},
		{text: "yesss!", expected: value(1)},
		{text: "yeahh", expected: value(1)},
		{text: "noo", expected: value(0)},
		{text: "nooo way", expected: value(0)},
		{text: "sometimes, not always", expected: value(0)},
		{text: "I am sometimes dizzy", expected: value(1)},
		{text: "sometimes", expected: nil},
		{text: "often", expected: nil},
		{text: "maybe", expected: nil},
		{text: "asdf", expected: nil},
		{text: "I know", expected: nil},
		{text: "", expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.text, func(t *testing.T) {
			assertValue(t, YesNo(testCase.text), testCase.expected)
		})
	}
}

func TestNumeric(t *testing.T) {
	testCases := []struct {
		text     string
		expected *float64
	}{
		{text: "45", expected: value(45)},
		{text: "I'm 45 years old", expected: value(45)},
		{text: "about 72.5 kilos", expected: value(72.5)},
		{text: "forty five", expected: value(45)},
		{text: "forty-five", expected: value(45)},
		{text: "I am sixty", expected: value(60)},
		{text: "a hundred and twenty", expected: value(120)},
		{text: "one hundred five", expected: value(105)},
		{text: "zero", expected: value(0)},
		{text: "three or four", expected: value(3)},
		{text: "twelve", expected: value(12)},
		{text: "150 and 20", expected: value(150)},
		{text: "no idea", expected: nil},
		{text: "", expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.text, func(t *testing.T) {
			assertValue(t, Numeric(testCase.text), testCase.expected)
		})
	}
}

func TestCategoricalSex(t *testing.T) {
	testCases := []struct {
		text     string
		expected *float64
	}{
		{text: "male", expected: value(1)},
		{text: "I'm a man", expected: value(1)},
		{text: "Female", expected: value(0)},
		{text: "a woman", expected: value(0)},
		{text: "prefer not to say", expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.text, func(t *testing.T) {
			assertValue(t, Categorical(testCase.text, "sex"), testCase.expected)
		})
	}
}

func TestCategoricalUnknownFieldIsUnrecognized(t *testing.T) {
	assertValue(t, Categorical("male", "bloodType"), nil)
}

func TestAnswerUsesQuestionChoices(t *testing.T) {
	script := questions.HeartAssessment()
	smoking, _ := script.QuestionAt(11)

	assertValue(t, Answer(smoking, "I used to, but I quit"), value(1))
	assertValue(t, Answer(smoking, "never"), value(0))
	assertValue(t, Answer(smoking, "yes every day"), value(2))
	assertValue(t, Answer(smoking, "hmm"), nil)
}

func TestValidateAgeBoundaries(t *testing.T) {
	age := questions.Question{
		ID: 1, Prompt: "How old are you?", TargetField: "age",
		Category: questions.CategoryBasicInfo, ExpectedShape: questions.ShapeNumeric,
		Validation: &questions.Range{Min: 1, Max: 120},
	}

	testCases := []struct {
		value    float64
		valid    bool
		expected Reason
	}{
		{value: 0, valid: false, expected: ReasonBelowMin},
		{value: 1, valid: true},
		{value: 120, valid: true},
		{value: 121, valid: false, expected: ReasonAboveMax},
	}

	for _, testCase := range testCases {
		verdict := Validate(age, value(testCase.value))
		if verdict.Valid != testCase.valid {
			t.Fatalf("validate(%v): expected valid=%t, got %t", testCase.value, testCase.valid, verdict.Valid)
		}
		if verdict.Reason != testCase.expected {
			t.Fatalf("validate(%v): expected reason %q, got %q", testCase.value, testCase.expected, verdict.Reason)
		}
	}
}

func TestValidateChecksAnswerShape(t *testing.T) {
	chestPain := questions.Question{TargetField: "chestPain", ExpectedShape: questions.ShapeYesNo}
	sex := questions.Question{TargetField: "sex", ExpectedShape: questions.ShapeCategorical}
	smoking := questions.Question{
		TargetField:   "smoking",
		ExpectedShape: questions.ShapeCategorical,
		Choices:       []questions.Choice{{Value: 0, Keywords: []string{"never"}}, {Value: 2, Keywords: []string{"yes"}}},
	}

	testCases := []struct {
		name     string
		question questions.Question
		value    float64
		valid    bool
	}{
		{name: "yes", question: chestPain, value: 1, valid: true},
		{name: "no", question: chestPain, value: 0, valid: true},
		{name: "yes-no out of set", question: chestPain, value: 42, valid: false},
		{name: "yes-no fraction", question: chestPain, value: 0.5, valid: false},
		{name: "built-in choice", question: sex, value: 1, valid: true},
		{name: "built-in unknown code", question: sex, value: 7, valid: false},
		{name: "declared choice", question: smoking, value: 2, valid: true},
		{name: "declared unknown code", question: smoking, value: 1, valid: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			verdict := Validate(testCase.question, value(testCase.value))
			if verdict.Valid != testCase.valid {
				t.Fatalf("expected valid=%t, got %+v", testCase.valid, verdict)
			}
			if !verdict.Valid && verdict.Reason != ReasonUnrecognized {
				t.Fatalf("expected unrecognized reason, got %q", verdict.Reason)
			}
		})
	}
}

func TestValidateNilIsUnrecognized(t *testing.T) {
	q := questions.Question{ExpectedShape: questions.ShapeYesNo}

	verdict := Validate(q, nil)
	if verdict.Valid || verdict.Reason != ReasonUnrecognized {
		t.Fatalf("expected unrecognized verdict, got %+v", verdict)
	}
}

func TestValidateIsPure(t *testing.T) {
	q := questions.Question{
		ExpectedShape: questions.ShapeNumeric,
		Validation:    &questions.Range{Min: 1, Max: 120},
	}
	before := q
	beforeRange := *q.Validation

	first := Validate(q, value(150))
	second := Validate(q, value(150))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical verdicts, got %+v and %+v", first, second)
	}
	if !reflect.DeepEqual(before, q) || *q.Validation != beforeRange {
		t.Fatalf("expected question to be unchanged")
	}

	first.Range.Max = 1000
	if q.Validation.Max != 120 {
		t.Fatalf("expected verdict range to be a copy")
	}
}

func TestCorrectionMentionsRange(t *testing.T) {
	q := questions.Question{
		Prompt:        "How old are you?",
		ExpectedShape: questions.ShapeNumeric,
		Validation:    &questions.Range{Min: 1, Max: 120},
	}

	got := Correction(q, Validate(q, value(150)))
	want := "That doesn't sound right. Please give a number between 1 and 120. How old are you?"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got = Correction(q, Validate(q, nil))
	want = "Sorry, I didn't understand. Please say a number. How old are you?"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func assertValue(t *testing.T, got, expected *float64) {
	t.Helper()
	switch {
	case got == nil && expected == nil:
	case got == nil || expected == nil:
		t.Fatalf("expected %v, got %v", format(expected), format(got))
	case *got != *expected:
		t.Fatalf("expected %v, got %v", *expected, *got)
	}
}

func format(v *float64) string {
	if v == nil {
		return "nil"
	}
	return formatNumber(*v)
}
