package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"jobtrack-backend/internal/application/domain"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidResponse wraps unparsable or schema-violating model output.
var ErrInvalidResponse = errors.New("invalid model response")

const extractionSchemaURL = "https://jobtrack.local/schemas/extraction.json"

const extractionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["company", "role", "status", "intent"],
  "properties": {
    "company": {"type": "string", "minLength": 1},
    "role": {"type": "string", "minLength": 1},
    "status": {"enum": ["APPLIED", "ASSESSMENT", "INTERVIEW", "REJECTED", "OFFERED", "ACCEPTED", "WITHDRAWN"]},
    "intent": {"enum": ["NEW_APPLICATION", "APPLICATION_EVENT", "GENERAL"]},
    "location": {"type": ["string", "null"]},
    "salary_range": {"type": ["string", "null"]},
    "notes": {"type": ["string", "null"]},
    "event_type": {"enum": [
      null,
      "APPLICATION_SUBMITTED", "APPLICATION_VIEWED", "APPLICATION_REVIEWED",
      "ASSESSMENT_RECEIVED", "ASSESSMENT_COMPLETED",
      "INTERVIEW_SCHEDULED", "INTERVIEW_COMPLETED",
      "REFERENCE_REQUESTED",
      "OFFER_RECEIVED", "OFFER_ACCEPTED", "OFFER_DECLINED",
      "APPLICATION_REJECTED", "APPLICATION_WITHDRAWN"
    ]},
    "event_description": {"type": ["string", "null"]},
    "event_date": {"type": ["string", "null"]},
    "confidence_score": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var (
	fenceOpen  = regexp.MustCompile("(?m)^```(?:json)?")
	fenceClose = regexp.MustCompile("(?m)```$")
)

// CleanResponse strips code fences and isolates the first balanced JSON
// object. Braces are counted so nested objects survive. Input with no
// object is returned trimmed.
func CleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return content
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return content
}

// ResponseParser validates raw model output against the extraction schema.
type ResponseParser struct {
	schema *jsonschema.Schema
}

func NewResponseParser() (*ResponseParser, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(extractionSchema))
	if err != nil {
		return nil, fmt.Errorf("parse extraction schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(extractionSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add extraction schema: %w", err)
	}
	schema, err := c.Compile(extractionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile extraction schema: %w", err)
	}
	return &ResponseParser{schema: schema}, nil
}

type wireExtraction struct {
	Company          string   `json:"company"`
	Role             string   `json:"role"`
	Status           string   `json:"status"`
	Intent           string   `json:"intent"`
	Location         *string  `json:"location"`
	SalaryRange      *string  `json:"salary_range"`
	Notes            *string  `json:"notes"`
	EventType        *string  `json:"event_type"`
	EventDescription *string  `json:"event_description"`
	EventDate        *string  `json:"event_date"`
	ConfidenceScore  *float64 `json:"confidence_score"`
}

// Parse cleans, validates and decodes raw into an ExtractionResult.
func (p *ResponseParser) Parse(raw string) (*domain.ExtractionResult, error) {
	cleaned := CleanResponse(raw)

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := p.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var w wireExtraction
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	result := &domain.ExtractionResult{
		Company:          strings.TrimSpace(w.Company),
		Role:             strings.TrimSpace(w.Role),
		Status:           domain.ApplicationStatus(w.Status),
		Intent:           domain.Intent(w.Intent),
		Location:         optional(w.Location),
		SalaryRange:      optional(w.SalaryRange),
		Notes:            optional(w.Notes),
		EventDescription: optional(w.EventDescription),
		EventDate:        parseEventDate(w.EventDate),
	}
	if et := optional(w.EventType); et != nil {
		t := domain.EventType(*et)
		result.EventType = &t
	}
	if w.ConfidenceScore != nil {
		result.ConfidenceScore = *w.ConfidenceScore
	}
	return result, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseEventDate accepts the date shapes models tend to produce. Anything
// else is dropped rather than failing the extraction.
func parseEventDate(s *string) *time.Time {
	v := optional(s)
	if v == nil {
		return nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t
		}
	}
	return nil
}
