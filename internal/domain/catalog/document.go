package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a metadata document is not a key-value mapping.
var ErrNotMapping = errors.New("document is not a mapping")

// Document is a loosely-typed nested mapping read from a YAML metadata file.
// Values are held as protobuf dynamic values (null, bool, number, string, list,
// struct), and typed accessors return type-appropriate zero values for missing
// or mistyped fields. The JSON form is kept separately so integers beyond the
// float64 range survive unchanged. The zero Document is an empty mapping.
type Document struct {
	// fields is the underlying dynamic mapping; nil means empty.
	fields *structpb.Struct
	// raw is the compact JSON of the document with sorted keys and exact numbers.
	raw []byte
}

// DecodeYAML parses a YAML document. An empty document yields an empty Document.
func DecodeYAML(data []byte) (Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}

	if raw == nil {
		return Document{}, nil
	}

	fields, ok := normalize(raw).(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}

	return NewDocument(fields)
}

// NewDocument builds a Document from plain Go values.
func NewDocument(fields map[string]any) (Document, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return Document{}, fmt.Errorf("convert document: %w", err)
	}

	raw, err := encodeCompact(fields)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}

	return Document{fields: s, raw: raw}, nil
}

// encodeCompact renders value as compact JSON. Map keys come out sorted and
// characters such as '<' are written literally.
func encodeCompact(value any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize converts YAML decoder output into values structpb accepts.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}

		return out
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}

		return v
	case nil, bool, string, int, int64, uint64, float32:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Len returns the number of top-level keys.
func (d Document) Len() int {
	return len(d.fields.GetFields())
}

// AsMap returns the document as plain Go values.
func (d Document) AsMap() map[string]any {
	if d.fields == nil {
		return map[string]any{}
	}

	return d.fields.AsMap()
}

// value returns the raw dynamic value stored under key, or nil.
func (d Document) value(key string) *structpb.Value {
	return d.fields.GetFields()[key]
}

// Has reports whether key holds a truthy value: a non-empty string, list or
// mapping, a non-zero number or true.
func (d Document) Has(key string) bool {
	v := d.value(key)

	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue != 0
	case *structpb.Value_StringValue:
		return kind.StringValue != ""
	case *structpb.Value_ListValue:
		return len(kind.ListValue.GetValues()) > 0
	case *structpb.Value_StructValue:
		return len(kind.StructValue.GetFields()) > 0
	default:
		return false
	}
}

// String renders the scalar under key as a string; non-scalars yield "".
func (d Document) String(key string) string {
	return scalarString(d.value(key))
}

// Strings renders the list under key as strings, skipping nested values.
// A missing or non-list value yields an empty, non-nil slice.
func (d Document) Strings(key string) []string {
	items := d.value(key).GetListValue().GetValues()
	out := make([]string, 0, len(items))

	for _, item := range items {
		if s := scalarString(item); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Int returns the integer under key. Numeric strings are parsed, fractions truncated.
func (d Document) Int(key string) int64 {
	switch kind := d.value(key).GetKind().(type) {
	case *structpb.Value_NumberValue:
		return int64(kind.NumberValue)
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil {
			return 0
		}

		return n
	default:
		return 0
	}
}

// Bool returns the boolean under key. Strings are parsed, numbers are true when non-zero.
func (d Document) Bool(key string) bool {
	switch kind := d.value(key).GetKind().(type) {
	case *structpb.Value_BoolValue:
		return kind.BoolValue
	case *structpb.Value_NumberValue:
		return kind.NumberValue != 0
	case *structpb.Value_StringValue:
		b, err := strconv.ParseBool(strings.TrimSpace(kind.StringValue))

		return err == nil && b
	default:
		return false
	}
}

// Child returns the mapping under key; anything else yields an empty Document.
func (d Document) Child(key string) Document {
	return Document{fields: d.value(key).GetStructValue()}
}

// scalarString renders strings, numbers and booleans.
func scalarString(v *structpb.Value) string {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue)
	default:
		return ""
	}
}

// MarshalJSON encodes the document with sorted keys, so equal documents
// always serialize to identical bytes. Integers are written exactly as decoded.
func (d Document) MarshalJSON() ([]byte, error) {
	switch {
	case d.fields == nil:
		return []byte("{}"), nil
	case len(d.raw) > 0:
		return d.raw, nil
	}

	// Nested documents returned by Child only carry the dynamic view.
	raw, err := encodeCompact(d.fields.AsMap())
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	return raw, nil
}

// UnmarshalJSON decodes a JSON object; null yields an empty Document.
func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.fields = nil
		d.raw = nil

		return nil
	}

	s := new(structpb.Struct)
	if err := protojson.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	d.fields = s
	d.raw = compact.Bytes()

	return nil
}
