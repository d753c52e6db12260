// Package groq interprets answers the lexical parsers could not read by
// asking a Groq-hosted model for a structured value.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-heartcheck/core/questions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"
)

var ErrMissingAPIKey = errors.New("groq api key not found")

type InterpreterOption func(*InterpreterOptions)

type InterpreterOptions struct {
	APIKey     string
	Model      string
	URL        string
	HTTPClient *http.Client
}

func WithAPIKey(apiKey string) InterpreterOption {
	return func(o *InterpreterOptions) { o.APIKey = apiKey }
}

func WithModel(model string) InterpreterOption {
	return func(o *InterpreterOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithURL(url string) InterpreterOption {
	return func(o *InterpreterOptions) {
		if url != "" {
			o.URL = url
		}
	}
}

func WithHTTPClient(client *http.Client) InterpreterOption {
	return func(o *InterpreterOptions) {
		if client != nil {
			o.HTTPClient = client
		}
	}
}

type Interpreter struct {
	options InterpreterOptions
	schema  jsonschema.Schema
}

// NewInterpreter reads GROQ_API_KEY when no key is given.
func NewInterpreter(opts ...InterpreterOption) (*Interpreter, error) {
	options := InterpreterOptions{
		Model:      DefaultModel,
		URL:        DefaultURL,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.APIKey == "" {
		options.APIKey, _ = os.LookupEnv("GROQ_API_KEY")
	}
	if options.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	return &Interpreter{options: options, schema: *reflector.Reflect(&interpretation{})}, nil
}

type interpretation struct {
	Recognized bool    `json:"recognized" jsonschema:"description=Whether the reply answers the question"`
	Value      float64 `json:"value" jsonschema:"description=The encoded answer, 0 when not recognized"`
}

// Interpret returns the encoded answer, or nil when the model does not
// recognize one. The caller still validates the value.
func (i *Interpreter) Interpret(ctx context.Context, q questions.Question, transcript string) (value *float64, err error) {
	ctx, span := tracer.Start(ctx, "interpret answer")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(
		attribute.String("request.model", i.options.Model),
		attribute.String("question.field", q.TargetField),
	)

	reqBody := requestBody{
		Model: i.options.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt(q)},
			{Role: "user", Content: transcript},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &responseSchema{
				Name:   "interpretation",
				Schema: i.schema,
				Strict: true,
			},
		},
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.options.URL, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.options.APIKey)

	resp, err := i.options.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("response.error", string(respBodyBytes)))
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	var responseBody responseBody
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}

	content := responseBody.Choices[0].Message.Content
	if split := strings.Split(content, "```"); len(split) > 1 {
		content = strings.TrimPrefix(split[1], "json")
	}
	var result interpretation
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling interpretation: %w", err)
	}

	if !result.Recognized {
		logger.DebugContext(ctx, "answer not recognized", "field", q.TargetField)
		return nil, nil
	}
	return &result.Value, nil
}

func systemPrompt(q questions.Question) string {
	var b strings.Builder
	b.WriteString("You read a spoken reply to a health questionnaire and encode it as a number.\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Prompt)

	switch q.ExpectedShape {
	case questions.ShapeYesNo:
		b.WriteString("Encode yes as 1 and no as 0.\n")
	case questions.ShapeNumeric:
		b.WriteString("Reply with the number the user said.\n")
		if q.Validation != nil {
			fmt.Fprintf(&b, "Expected range: %g to %g. Return the number even if it is outside the range.\n", q.Validation.Min, q.Validation.Max)
		}
	case questions.ShapeCategorical:
		b.WriteString("Pick the option that matches the reply:\n")
		for _, choice := range q.AnswerChoices() {
			fmt.Fprintf(&b, "- %g: %s\n", choice.Value, strings.Join(choice.Keywords, ", "))
		}
	}
	b.WriteString("If the reply is unclear, off topic or does not answer the question, set recognized to false. Never guess.")
	return b.String()
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *responseSchema `json:"json_schema,omitempty"`
}

type responseSchema struct {
	Name   string            `json:"name"`
	Schema jsonschema.Schema `json:"schema"`
	Strict bool              `json:"strict"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}
