package questions

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a script.
type Document struct {
	Questions []Question `json:"questions" yaml:"questions" jsonschema:"title=Questions,minItems=2"`
}

// Load reads a script from JSON or YAML. The document is either a list of
// questions or an object with a questions list.
func Load(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ScriptError{Index: -1, Reason: "empty document"}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}

	var qs []Question
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
		if err := root.Content[0].Decode(&qs); err != nil {
			return nil, fmt.Errorf("decoding questions: %w", err)
		}
	} else {
		var doc Document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding script document: %w", err)
		}
		qs = doc.Questions
	}

	return NewScript(qs...)
}

func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// MarshalYAML renders the script as a Document.
func (s *Script) MarshalYAML() (any, error) {
	return Document{Questions: s.Questions()}, nil
}
