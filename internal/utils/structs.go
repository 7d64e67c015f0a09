package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct renders v through its JSON form as a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%T is not an object: %w", v, err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes s into out through JSON.
func FromStruct(s *structpb.Struct, out any) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func StringField(s *structpb.Struct, key string) string {
	if v, ok := s.GetFields()[key]; ok {
		return strings.TrimSpace(v.GetStringValue())
	}
	return ""
}

func BoolField(s *structpb.Struct, key string) bool {
	if v, ok := s.GetFields()[key]; ok {
		return v.GetBoolValue()
	}
	return false
}

// StringsField reads a list of strings; a single string is a list of one.
func StringsField(s *structpb.Struct, key string) []string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	if str, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		return []string{str.StringValue}
	}
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		if str := strings.TrimSpace(item.GetStringValue()); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// ValueField returns the plain Go value under key: float64, string, bool,
// nil, []any or map[string]any.
func ValueField(s *structpb.Struct, key string) (any, bool) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, false
	}
	return v.AsInterface(), true
}

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
