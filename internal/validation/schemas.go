package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaValidator validates the JSON payloads arriving on the interaction
// sync topic before they reach the handlers. Schemas are compiled once at
// startup; a payload that fails here goes to the DLQ instead of retrying.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

const syncEventSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["event_type", "member_id", "recruit_post_id", "occurred_at"],
	"properties": {
		"event_type": {
			"type": "string",
			"enum": ["apply", "bookmark", "comment", "post_status"]
		},
		"member_id": {"type": "integer", "minimum": 1},
		"recruit_post_id": {"type": "integer", "minimum": 1},
		"recruit_status": {
			"type": "string",
			"enum": ["RECRUITING", "ON_CONTACT", "RECRUIT_OVER"]
		},
		"occurred_at": {"type": "string", "format": "date-time"}
	},
	"additionalProperties": false
}`

const modelEventSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["model_version", "trained_at", "members", "posts"],
	"properties": {
		"model_version": {"type": "string"},
		"trained_at": {"type": "string", "format": "date-time"},
		"members": {"type": "integer", "minimum": 0},
		"posts": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`

// NewSchemaValidator compiles the embedded schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	sources := map[string]string{
		"sync-event":  syncEventSchema,
		"model-event": modelEventSchema,
	}

	sv := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema, len(sources))}
	for name, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		sv.schemas[name] = schema
	}
	return sv, nil
}

// ValidateSyncEvent checks a raw interaction sync payload.
func (sv *SchemaValidator) ValidateSyncEvent(payload []byte) *ValidationResult {
	return sv.validate("sync-event", payload)
}

// ValidateModelEvent checks a model publication payload.
func (sv *SchemaValidator) ValidateModelEvent(payload []byte) *ValidationResult {
	return sv.validate("model-event", payload)
}

func (sv *SchemaValidator) validate(schemaName string, payload []byte) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Message: fmt.Sprintf("Schema '%s' not found", schemaName),
			}},
		}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "payload",
				Message: fmt.Sprintf("Validation error: %v", err),
			}},
		}
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   verr.Field(),
			Message: verr.Description(),
		})
	}
	return vr
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	msg := "payload invalid"
	for _, e := range r.Errors {
		msg += fmt.Sprintf("; %s: %s", e.Field, e.Message)
	}
	return msg
}
