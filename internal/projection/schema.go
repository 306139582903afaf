package projection

import (
	"fmt"
	"strconv"

	"github.com/jflamy/owlcms-tracker-sub001/internal/apperr"
)

// OptionType is the closed set of projection-option value types, per
// spec.md §9 "Dynamic named options -> schemas".
type OptionType string

const (
	OptionString  OptionType = "string"
	OptionNumber  OptionType = "number"
	OptionBoolean OptionType = "boolean"
	OptionEnum    OptionType = "enum"
)

// OptionSchema declares one named, typed projection option.
type OptionSchema struct {
	Key     string
	Type    OptionType
	Enum    []string
	Default any
	Min     *float64
	Max     *float64
}

// Schema is the ordered set of options one projection accepts.
type Schema []OptionSchema

// Validate parses and validates a raw options map against the schema.
// Unknown keys and type mismatches are rejected per
// ProjectionOptionInvalid (§7). Missing keys are filled from Default.
func (s Schema) Validate(raw map[string]any) (map[string]any, error) {
	declared := make(map[string]OptionSchema, len(s))
	for _, o := range s {
		declared[o.Key] = o
	}

	for k := range raw {
		if _, ok := declared[k]; !ok {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("unknown option %q", k))
		}
	}

	out := make(map[string]any, len(s))
	for _, o := range s {
		v, present := raw[o.Key]
		if !present {
			out[o.Key] = o.Default
			continue
		}
		validated, err := o.validateValue(v)
		if err != nil {
			return nil, err
		}
		out[o.Key] = validated
	}
	return out, nil
}

// CoerceQueryStrings converts raw query-string values (always strings,
// per net/url and Fiber's c.Queries()) to the native Go type each
// declared option expects, so the GET-style projection query (§6) can
// feed the same Validate path as the JSON-bodied POST /action route.
// Unknown keys and unparseable values are passed through unchanged;
// Validate still rejects them with its normal error.
func (s Schema) CoerceQueryStrings(raw map[string]string) map[string]any {
	declared := make(map[string]OptionSchema, len(s))
	for _, o := range s {
		declared[o.Key] = o
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		o, ok := declared[k]
		if !ok {
			out[k] = v
			continue
		}
		switch o.Type {
		case OptionBoolean:
			if b, err := strconv.ParseBool(v); err == nil {
				out[k] = b
				continue
			}
		case OptionNumber:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				out[k] = n
				continue
			}
		}
		out[k] = v
	}
	return out
}

func (o OptionSchema) validateValue(v any) (any, error) {
	switch o.Type {
	case OptionString:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q must be a string", o.Key))
		}
		return s, nil
	case OptionBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q must be a boolean", o.Key))
		}
		return b, nil
	case OptionNumber:
		n, ok := asFloat(v)
		if !ok {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q must be a number", o.Key))
		}
		if o.Min != nil && n < *o.Min {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q below minimum %v", o.Key, *o.Min))
		}
		if o.Max != nil && n > *o.Max {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q above maximum %v", o.Key, *o.Max))
		}
		return n, nil
	case OptionEnum:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q must be a string enum value", o.Key))
		}
		for _, e := range o.Enum {
			if e == s {
				return s, nil
			}
		}
		return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q value %q not in enum %v", o.Key, s, o.Enum))
	default:
		return nil, apperr.New(apperr.ProjectionOptionInvalid, fmt.Sprintf("option %q has unknown declared type %q", o.Key, o.Type))
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
