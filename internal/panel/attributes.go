package panel

import (
	"fmt"
	"strconv"
	"strings"

	"collapsible/internal/disclosure"
	jsonx "collapsible/internal/shared/json"

	"gopkg.in/yaml.v3"
)

// AttributeSet describes the content of a panel. It is owned by the caller
// and replaced wholesale on every update.
type AttributeSet struct {
	Kind      string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Done      *string  `json:"done,omitempty" yaml:"done,omitempty"`
	Duration  *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Arguments string   `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Result    string   `json:"result,omitempty" yaml:"result,omitempty"`
	Files     string   `json:"files,omitempty" yaml:"files,omitempty"`
}

func (a AttributeSet) content() disclosure.Content {
	return disclosure.Content{Kind: a.Kind, Done: a.Done, Duration: a.Duration, Name: a.Name}
}

// Complete reports whether done is "true".
func (a AttributeSet) Complete() bool {
	return a.content().Complete()
}

// UnmarshalJSON accepts the loose shapes hosts send: booleans or strings for
// done, numbers or numeric strings for duration, and structured values for
// arguments, result and files.
func (a *AttributeSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := jsonx.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// DecodeAttributes parses a YAML or JSON document into an AttributeSet.
func DecodeAttributes(data []byte) (AttributeSet, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return AttributeSet{}, fmt.Errorf("parse attributes: %w", err)
	}
	return FromMap(raw)
}

// FromMap builds an AttributeSet from loosely typed values. "type" is
// accepted as an alias for "kind".
func FromMap(raw map[string]any) (AttributeSet, error) {
	var attrs AttributeSet
	if raw == nil {
		return attrs, nil
	}

	attrs.Kind = stringValue(raw["kind"])
	if attrs.Kind == "" {
		attrs.Kind = stringValue(raw["type"])
	}
	attrs.Name = stringValue(raw["name"])
	attrs.ID = stringValue(raw["id"])

	if value, ok := raw["done"]; ok && value != nil {
		done := stringValue(value)
		attrs.Done = &done
	}

	if value, ok := raw["duration"]; ok && value != nil {
		seconds, err := floatValue(value)
		if err != nil {
			return AttributeSet{}, fmt.Errorf("attribute duration: %w", err)
		}
		attrs.Duration = &seconds
	}

	var err error
	if attrs.Arguments, err = encodedValue(raw["arguments"]); err != nil {
		return AttributeSet{}, fmt.Errorf("attribute arguments: %w", err)
	}
	if attrs.Result, err = encodedValue(raw["result"]); err != nil {
		return AttributeSet{}, fmt.Errorf("attribute result: %w", err)
	}
	if attrs.Files, err = encodedValue(raw["files"]); err != nil {
		return AttributeSet{}, fmt.Errorf("attribute files: %w", err)
	}
	return attrs, nil
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func floatValue(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(typed), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

// encodedValue keeps strings as-is and JSON-encodes anything structured, so
// the normalizer sees the same shape a host attribute would carry.
func encodedValue(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	default:
		out, err := jsonx.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}
