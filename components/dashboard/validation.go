package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const settingsSchemaJSON = `{
  "type": "object",
  "properties": {
    "timeRange": {"type": "string", "enum": ["7d", "30d", "90d", "1y", "custom"]},
    "refreshInterval": {"type": "integer", "minimum": 5, "maximum": 86400},
    "autoRefresh": {"type": "boolean"},
    "customStartDate": {"type": "string"},
    "customEndDate": {"type": "string"},
    "filters": {"type": "object"}
  },
  "additionalProperties": false
}`

// SchemaSettingsValidator validates widget settings against a JSON schema,
// compiled once on first use.
type SchemaSettingsValidator struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewSchemaSettingsValidator builds the validator backed by jsonschema v5.
func NewSchemaSettingsValidator() *SchemaSettingsValidator {
	return &SchemaSettingsValidator{}
}

// Validate ensures the settings satisfy the recognized-option schema. A
// custom time range additionally requires both custom dates.
func (v *SchemaSettingsValidator) Validate(settings WidgetSettings) error {
	v.once.Do(v.compile)
	if v.err != nil {
		return v.err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("dashboard: marshal settings: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("dashboard: normalize settings: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := v.schema.Validate(payload); err != nil {
		return fmt.Errorf("dashboard: widget settings failed validation: %w", err)
	}
	if settings.TimeRange == RangeCustom {
		if settings.CustomStartDate == "" || settings.CustomEndDate == "" {
			return fmt.Errorf("dashboard: custom time range requires customStartDate and customEndDate")
		}
	}
	return nil
}

func (v *SchemaSettingsValidator) compile() {
	compiler := jsonschema.NewCompiler()
	const name = "widget-settings.json"
	if err := compiler.AddResource(name, strings.NewReader(settingsSchemaJSON)); err != nil {
		v.err = fmt.Errorf("dashboard: load settings schema: %w", err)
		return
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		v.err = fmt.Errorf("dashboard: compile settings schema: %w", err)
		return
	}
	v.schema = schema
}

type noopSettingsValidator struct{}

func (noopSettingsValidator) Validate(WidgetSettings) error { return nil }
