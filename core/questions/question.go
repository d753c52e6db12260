// Package questions defines the ordered question script a voice assessment
// walks through.
//
// A script is immutable once built. Every script opens with exactly one
// preparation question and closes with exactly one completion question; all
// questions in between populate an answer field.
package questions

type Category string

const (
	CategoryPreparation Category = "preparation"
	CategoryBasicInfo   Category = "basic-info"
	CategorySymptom     Category = "symptom"
	CategoryCompletion  Category = "completion"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryPreparation, CategoryBasicInfo, CategorySymptom, CategoryCompletion:
		return true
	}
	return false
}

// Shape is the kind of value an answer is parsed into.
type Shape string

const (
	ShapeYesNo       Shape = "yes-no"
	ShapeNumeric     Shape = "numeric"
	ShapeCategorical Shape = "categorical"
)

func (s Shape) IsValid() bool {
	switch s {
	case ShapeYesNo, ShapeNumeric, ShapeCategorical:
		return true
	}
	return false
}

// Range is an inclusive numeric bound.
type Range struct {
	Min float64 `json:"min" yaml:"min" jsonschema:"title=Min,description=Smallest accepted value (inclusive)"`
	Max float64 `json:"max" yaml:"max" jsonschema:"title=Max,description=Largest accepted value (inclusive)"`
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Choice maps spoken keywords to a coded categorical value. Choices are
// matched in declaration order, so more specific keywords go first.
type Choice struct {
	Value    float64  `json:"value" yaml:"value" jsonschema:"title=Value,description=Coded value stored in the answer record"`
	Keywords []string `json:"keywords" yaml:"keywords" jsonschema:"title=Keywords,minItems=1"`
}

type Question struct {
	ID            int      `json:"id" yaml:"id" jsonschema:"title=ID,description=Position of the question in the script,minimum=0"`
	Prompt        string   `json:"prompt" yaml:"prompt" jsonschema:"title=Prompt,description=Text spoken to the user"`
	TargetField   string   `json:"targetField,omitempty" yaml:"targetField,omitempty" jsonschema:"title=Target field,description=Answer record field populated by this question"`
	Category      Category `json:"category" yaml:"category" jsonschema:"title=Category,enum=preparation,enum=basic-info,enum=symptom,enum=completion"`
	ExpectedShape Shape    `json:"expectedShape" yaml:"expectedShape" jsonschema:"title=Expected shape,enum=yes-no,enum=numeric,enum=categorical"`
	Validation    *Range   `json:"validation,omitempty" yaml:"validation,omitempty" jsonschema:"title=Validation"`
	Choices       []Choice `json:"choices,omitempty" yaml:"choices,omitempty" jsonschema:"title=Choices"`
}

// IsConversational reports whether the question only drives the
// conversation and records nothing.
func (q Question) IsConversational() bool { return q.TargetField == "" }
