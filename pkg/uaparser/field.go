package uaparser

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Field is an optional string. The zero value is absent, which is distinct
// from any string value including "".
type Field struct {
	value string
	set   bool
}

// Absent is the unset Field.
var Absent = Field{}

// Some returns a Field holding v.
func Some(v string) Field {
	return Field{value: v, set: true}
}

// Value returns the held string and whether the field is set.
func (f Field) Value() (string, bool) {
	return f.value, f.set
}

// IsSet reports whether the field holds a value.
func (f Field) IsSet() bool {
	return f.set
}

// Or returns the held value, or fallback when the field is absent.
func (f Field) Or(fallback string) string {
	if !f.set {
		return fallback
	}
	return f.value
}

// String returns the held value, or "" when absent.
func (f Field) String() string {
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Absent
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = Some(s)
	return nil
}

func (f Field) MarshalYAML() (any, error) {
	if !f.set {
		return nil, nil
	}
	return f.value, nil
}

// UnmarshalYAML accepts any scalar; numbers keep their source spelling so
// versions like 10.10 or 007 survive decoding.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*f = Absent
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*f = Some(node.Value)
	return nil
}
