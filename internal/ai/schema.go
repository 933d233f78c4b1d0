package ai

import (
	"fmt"
	"math"
)

type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeInteger     FieldType = "integer"
	TypeBool        FieldType = "boolean"
	TypeStringArray FieldType = "string_array"
	TypeObjectArray FieldType = "object_array"
)

// Schema is the closed output contract for one AI action: a named set of
// fields with primitive, enum, array, or nested-object-array types. Each
// action declares exactly one Schema and the invoker rejects any model
// response that does not satisfy it.
type Schema struct {
	Name   string
	Fields []Field
}

type Field struct {
	Name        string
	Type        FieldType
	Description string
	Enum        []string
	Min         *float64
	Max         *float64
	Optional    bool
	Items       *Schema // element contract for TypeObjectArray
}

func Float(v float64) *float64 { return &v }

// Validate checks a decoded model response against the schema: required
// fields present, declared types, enum membership, numeric ranges, and no
// undeclared fields.
func (s *Schema) Validate(obj map[string]any) error {
	declared := make(map[string]*Field, len(s.Fields))
	for i := range s.Fields {
		declared[s.Fields[i].Name] = &s.Fields[i]
	}
	for key := range obj {
		if _, ok := declared[key]; !ok {
			return fmt.Errorf("schema %s: undeclared field %q", s.Name, key)
		}
	}
	for _, f := range s.Fields {
		raw, ok := obj[f.Name]
		if !ok || raw == nil {
			if f.Optional {
				continue
			}
			return fmt.Errorf("schema %s: missing required field %q", s.Name, f.Name)
		}
		if err := f.validateValue(raw); err != nil {
			return fmt.Errorf("schema %s: %w", s.Name, err)
		}
	}
	return nil
}

func (f *Field) validateValue(raw any) error {
	switch f.Type {
	case TypeString:
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("field %q: expected string, got %T", f.Name, raw)
		}
		if len(f.Enum) > 0 {
			for _, e := range f.Enum {
				if v == e {
					return nil
				}
			}
			return fmt.Errorf("field %q: value %q not in enum", f.Name, v)
		}
	case TypeNumber, TypeInteger:
		v, ok := raw.(float64)
		if !ok {
			return fmt.Errorf("field %q: expected number, got %T", f.Name, raw)
		}
		if f.Type == TypeInteger && v != math.Trunc(v) {
			return fmt.Errorf("field %q: expected integer, got %v", f.Name, v)
		}
		if f.Min != nil && v < *f.Min {
			return fmt.Errorf("field %q: %v below minimum %v", f.Name, v, *f.Min)
		}
		if f.Max != nil && v > *f.Max {
			return fmt.Errorf("field %q: %v above maximum %v", f.Name, v, *f.Max)
		}
	case TypeBool:
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("field %q: expected boolean, got %T", f.Name, raw)
		}
	case TypeStringArray:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("field %q: expected array, got %T", f.Name, raw)
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("field %q[%d]: expected string, got %T", f.Name, i, item)
			}
		}
	case TypeObjectArray:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("field %q: expected array, got %T", f.Name, raw)
		}
		if f.Items == nil {
			return fmt.Errorf("field %q: object array without item schema", f.Name)
		}
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("field %q[%d]: expected object, got %T", f.Name, i, item)
			}
			if err := f.Items.Validate(obj); err != nil {
				return fmt.Errorf("field %q[%d]: %w", f.Name, i, err)
			}
		}
	default:
		return fmt.Errorf("field %q: unknown field type %q", f.Name, f.Type)
	}
	return nil
}

// ---- typed accessors for validated objects ----
//
// Safe only after Validate has accepted the object; they return zero
// values for anything absent.

func Str(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return v
}

func Num(obj map[string]any, key string) float64 {
	v, _ := obj[key].(float64)
	return v
}

func Bool(obj map[string]any, key string) bool {
	v, _ := obj[key].(bool)
	return v
}

func StrSlice(obj map[string]any, key string) []string {
	raw, _ := obj[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func ObjSlice(obj map[string]any, key string) []map[string]any {
	raw, _ := obj[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func OptNum(obj map[string]any, key string) *float64 {
	if v, ok := obj[key].(float64); ok {
		return &v
	}
	return nil
}
