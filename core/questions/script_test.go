package questions

import (
	"errors"
	"strings"
	"testing"
)

func TestHeartAssessmentIsValid(t *testing.T) {
	script := HeartAssessment()

	if got := script.Len(); got != 17 {
		t.Fatalf("expected 17 questions, got %d", got)
	}

	first, _ := script.QuestionAt(0)
	if first.Category != CategoryPreparation {
		t.Fatalf("expected first question to be preparation, got %q", first.Category)
	}
	last, _ := script.QuestionAt(script.Len() - 1)
	if last.Category != CategoryCompletion {
		t.Fatalf("expected last question to be completion, got %q", last.Category)
	}

	fields := script.Fields()
	if len(fields) != 15 {
		t.Fatalf("expected 15 target fields, got %d: %v", len(fields), fields)
	}
	if fields[0] != "age" || fields[1] != "sex" {
		t.Fatalf("expected fields to start with [age sex], got %v", fields[:2])
	}
}

func TestNewScriptRejectsBrokenInvariants(t *testing.T) {
	prep := Question{ID: 0, Prompt: "ready?", Category: CategoryPreparation, ExpectedShape: ShapeYesNo}
	done := func(id int) Question {
		return Question{ID: id, Prompt: "bye", Category: CategoryCompletion, ExpectedShape: ShapeYesNo}
	}
	age := func(id int) Question {
		return Question{ID: id, Prompt: "age?", TargetField: "age", Category: CategoryBasicInfo, ExpectedShape: ShapeNumeric}
	}

	testCases := []struct {
		name      string
		questions []Question
	}{
		{name: "too short", questions: []Question{prep}},
		{name: "missing preparation", questions: []Question{age(0), done(1)}},
		{name: "missing completion", questions: []Question{prep, age(1)}},
		{name: "second preparation", questions: []Question{prep, {ID: 1, Prompt: "again", Category: CategoryPreparation}, done(2)}},
		{name: "completion in the middle", questions: []Question{prep, done(1), age(2), done(3)}},
		{name: "missing target field", questions: []Question{prep, {ID: 1, Prompt: "q", Category: CategorySymptom, ExpectedShape: ShapeYesNo}, done(2)}},
		{name: "duplicate target field", questions: []Question{prep, age(1), age(2), done(3)}},
		{name: "id mismatch", questions: []Question{prep, age(5), done(2)}},
		{name: "unknown shape", questions: []Question{prep, {ID: 1, Prompt: "q", TargetField: "x", Category: CategorySymptom, ExpectedShape: "free"}, done(2)}},
		{name: "inverted range", questions: []Question{prep, {ID: 1, Prompt: "q", TargetField: "x", Category: CategoryBasicInfo, ExpectedShape: ShapeNumeric, Validation: &Range{Min: 10, Max: 1}}, done(2)}},
		{name: "categorical without choices", questions: []Question{prep, {ID: 1, Prompt: "Blood type?", TargetField: "bloodType", Category: CategoryBasicInfo, ExpectedShape: ShapeCategorical}, done(2)}},
		{name: "categorical with empty choices", questions: []Question{prep, {ID: 1, Prompt: "Blood type?", TargetField: "bloodType", Category: CategoryBasicInfo, ExpectedShape: ShapeCategorical, Choices: []Choice{}}, done(2)}},
		{name: "target on preparation", questions: []Question{{ID: 0, Prompt: "p", TargetField: "x", Category: CategoryPreparation}, done(1)}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewScript(testCase.questions...)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrInvalidScript) {
				t.Fatalf("expected ErrInvalidScript, got %v", err)
			}
		})
	}
}

func TestNewScriptAcceptsCategoricalWithBuiltinChoices(t *testing.T) {
	script, err := NewScript(
		Question{ID: 0, Prompt: "ready?", Category: CategoryPreparation, ExpectedShape: ShapeYesNo},
		Question{ID: 1, Prompt: "Male or female?", TargetField: "sex", Category: CategoryBasicInfo, ExpectedShape: ShapeCategorical},
		Question{ID: 2, Prompt: "bye", Category: CategoryCompletion, ExpectedShape: ShapeYesNo},
	)
	if err != nil {
		t.Fatalf("expected script to be valid, got %v", err)
	}

	sex, _ := script.QuestionAt(1)
	if !sex.HasChoice(0) || !sex.HasChoice(1) || sex.HasChoice(2) {
		t.Fatalf("expected built-in sex choices 0 and 1, got %+v", sex.AnswerChoices())
	}
}

func TestLoadRejectsCategoricalWithoutChoices(t *testing.T) {
	_, err := Load(strings.NewReader(`[
		{"id": 0, "prompt": "Ready?", "category": "preparation", "expectedShape": "yes-no"},
		{"id": 1, "prompt": "Blood type?", "targetField": "bloodType", "category": "basic-info", "expectedShape": "categorical"},
		{"id": 2, "prompt": "Thanks", "category": "completion", "expectedShape": "yes-no"}
	]`))
	if !errors.Is(err, ErrInvalidScript) {
		t.Fatalf("expected ErrInvalidScript, got %v", err)
	}
}

func TestQuestionAtReturnsCopies(t *testing.T) {
	script := HeartAssessment()

	q, ok := script.QuestionAt(1)
	if !ok {
		t.Fatalf("expected question 1 to exist")
	}
	q.Validation.Max = 5
	q.Prompt = "changed"

	again, _ := script.QuestionAt(1)
	if again.Validation.Max != 120 {
		t.Fatalf("expected script range to stay at 120, got %v", again.Validation.Max)
	}
	if again.Prompt == "changed" {
		t.Fatalf("expected script prompt to be unchanged")
	}

	if _, ok := script.QuestionAt(-1); ok {
		t.Fatalf("expected negative index to be out of range")
	}
	if _, ok := script.QuestionAt(script.Len()); ok {
		t.Fatalf("expected index past the end to be out of range")
	}
}

func TestLoadAcceptsJSONList(t *testing.T) {
	script, err := Load(strings.NewReader(`[
		{"id": 0, "prompt": "Ready?", "category": "preparation", "expectedShape": "yes-no"},
		{"id": 1, "prompt": "Age?", "targetField": "age", "category": "basic-info", "expectedShape": "numeric", "validation": {"min": 1, "max": 120}},
		{"id": 2, "prompt": "Thanks", "category": "completion", "expectedShape": "yes-no"}
	]`))
	if err != nil {
		t.Fatalf("expected script to load, got %v", err)
	}

	q, _ := script.QuestionAt(1)
	if q.TargetField != "age" || q.Validation == nil || q.Validation.Max != 120 {
		t.Fatalf("unexpected question loaded: %+v", q)
	}
}

func TestLoadAcceptsYAMLDocument(t *testing.T) {
	script, err := Load(strings.NewReader(`questions:
  - id: 0
    prompt: Ready?
    category: preparation
    expectedShape: yes-no
  - id: 1
    prompt: Do you smoke?
    targetField: smoking
    category: basic-info
    expectedShape: categorical
    choices:
      - value: 2
        keywords: [yes]
  - id: 2
    prompt: Thanks
    category: completion
    expectedShape: yes-no
`))
	if err != nil {
		t.Fatalf("expected script to load, got %v", err)
	}

	if got := script.Fields(); len(got) != 1 || got[0] != "smoking" {
		t.Fatalf("expected [smoking], got %v", got)
	}
}

func TestLoadRejectsEmptyDocument(t *testing.T) {
	if _, err := Load(strings.NewReader("  \n")); !errors.Is(err, ErrInvalidScript) {
		t.Fatalf("expected ErrInvalidScript, got %v", err)
	}
}

func TestSchemaDescribesQuestions(t *testing.T) {
	data, err := SchemaJSON()
	if err != nil {
		t.Fatalf("expected schema to marshal, got %v", err)
	}

	for _, want := range []string{`"questions"`, `"targetField"`, `"expectedShape"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected schema to mention %s", want)
		}
	}
}
