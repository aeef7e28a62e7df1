package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/buger/jsonparser"
	"github.com/xeipuuv/gojsonschema"
)

// attemptSchema describes the /analyze response closely enough to reject
// replies the renderer could not interpret, while leaving free-form values
// (script, details, stat values) unconstrained.
const attemptSchema = `{
  "type": "object",
  "properties": {
    "success":      {"type": "boolean"},
    "retry_count":  {"type": "integer", "minimum": 0},
    "attempt":      {"type": "integer", "minimum": 1},
    "max_attempts": {"type": "integer"},
    "can_retry":    {"type": "boolean"},
    "status":       {"type": ["string", "null"]},
    "error":        {"type": ["string", "null"]},
    "result": {
      "anyOf": [
        {"type": "null"},
        {
          "type": "object",
          "properties": {
            "sections": {
              "type": ["array", "null"],
              "items": {"$ref": "#/definitions/section"}
            }
          }
        }
      ]
    }
  },
  "definitions": {
    "section": {
      "type": "object",
      "properties": {
        "data":    {"type": ["object", "null"]},
        "content": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "properties": {
              "type": {"type": "string"},
              "data": {"type": ["array", "null"], "items": {"type": "object"}}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadAttemptSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(attemptSchema))
	})
	return compiledSchema, schemaErr
}

// validateAttempt checks an /analyze body against attemptSchema.
func validateAttempt(body []byte) error {
	schema, err := loadAttemptSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("response failed validation: %s", strings.Join(details, "; "))
}

// redact masks the API key wherever an api_config object carries one.
func redact(body []byte) []byte {
	key, err := jsonparser.GetString(body, "api_config", "key")
	if err != nil || key == "" {
		return body
	}
	masked, err := jsonparser.Set(body, []byte(`"[redacted]"`), "api_config", "key")
	if err != nil {
		return body
	}
	return masked
}
