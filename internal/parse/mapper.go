// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Mapper coerces segmented model output into the fields of a schema.
//
// A Lenient mapper never fails: a list field that cannot be parsed keeps its
// fence-stripped text. A Strict mapper returns an *ExtractionError naming the
// field and block instead. Both omit fields that have no matching block.
type Mapper struct {
	Mode Mode

	// StripStrings applies ParseStr to string fields.
	StripStrings bool

	Logger *zap.Logger
}

// MapFields maps blocks with a Lenient mapper.
func MapFields(blocks Blocks, schema types.Schema) map[string]any {
	out, _ := Mapper{Mode: Lenient}.Map(blocks, schema)
	return out
}

// MapFieldsStrict maps blocks with a Strict mapper.
func MapFieldsStrict(blocks Blocks, schema types.Schema) (map[string]any, error) {
	return Mapper{Mode: Strict}.Map(blocks, schema)
}

// Map resolves each schema field to the first block whose title contains the
// field name and converts its body to the field's shape.
func (m Mapper) Map(blocks Blocks, schema types.Schema) (map[string]any, error) {
	log := m.log()
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		blk, ok := blocks.Find(f.Name)
		if !ok {
			log.Debug("field has no block", zap.String("field", f.Name))
			continue
		}
		v, err := m.field(blk.Body, f.Shape)
		if err != nil {
			err = withContext(err, f.Name, blk.Title)
			if m.Mode == Strict {
				return nil, err
			}
			log.Debug("keeping raw text for field", zap.String("field", f.Name), zap.Error(err))
		}
		out[f.Name] = v
	}
	return out, nil
}

// field returns the converted value, or the fence-stripped text together
// with the reason conversion failed.
func (m Mapper) field(body string, shape types.Shape) (any, error) {
	text, _ := Extractor{Logger: m.Logger}.Fence(body, "", "", Lenient)

	if !shape.IsList() {
		if m.StripStrings {
			return ParseStr(text), nil
		}
		return text, nil
	}

	items, err := InlineList(text, m.Mode)
	if err != nil {
		return text, err
	}
	v, err := coerce(items, shape)
	if err != nil {
		return text, err
	}
	return v, nil
}

// coerce converts parsed list items to the Go form of shape: []string for
// string lists and [][]string for pair and nested lists.
func coerce(items []any, shape types.Shape) (any, error) {
	switch shape {
	case types.ShapeStringList:
		out := make([]string, 0, len(items))
		for i, it := range items {
			s, ok := scalarString(it)
			if !ok {
				return nil, newError(ShapeMismatch, "item %d is %s, want a string", i, describe(it))
			}
			out = append(out, s)
		}
		return out, nil
	case types.ShapePairList, types.ShapeListList:
		out := make([][]string, 0, len(items))
		for i, it := range items {
			row, ok := stringRow(it)
			if !ok {
				return nil, newError(ShapeMismatch, "item %d is %s, want a list of strings", i, describe(it))
			}
			if shape == types.ShapePairList && len(row) != 2 {
				return nil, newError(ShapeMismatch, "item %d has %d elements, want a pair", i, len(row))
			}
			out = append(out, row)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported shape %q", shape)
}

func stringRow(v any) ([]string, bool) {
	var elems []any
	switch x := v.(type) {
	case []any:
		elems = x
	case Tuple:
		elems = x
	default:
		return nil, false
	}
	row := make([]string, 0, len(elems))
	for _, e := range elems {
		s, ok := scalarString(e)
		if !ok {
			return nil, false
		}
		row = append(row, s)
	}
	return row, true
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// ParseFileList parses the list in the named block (or the whole text when
// no block matches) with no schema context. A missing fence is tolerated; a
// missing or malformed list is an error.
func ParseFileList(text, block string) ([]string, error) {
	code, _ := ExtractFence(text, block, "", Lenient)
	items, err := InlineList(code, Strict)
	if err != nil {
		return nil, withContext(err, "", block)
	}
	v, err := coerce(items, types.ShapeStringList)
	if err != nil {
		return nil, withContext(err, "", block)
	}
	return v.([]string), nil
}

// ParseWithSchema extracts the [CONTENT] span (or uses the whole text when
// it is absent), segments it, and maps it onto schema.
func (m Mapper) ParseWithSchema(text string, schema types.Schema) (map[string]any, error) {
	if inner, ok := FindTag(text, DefaultTag); ok {
		text = inner
	}
	return m.Map(Segment(text), schema)
}

// ParseWithSchema is Mapper{Mode: mode}.ParseWithSchema.
func ParseWithSchema(text string, schema types.Schema, mode Mode) (map[string]any, error) {
	return Mapper{Mode: mode}.ParseWithSchema(text, schema)
}

// ParseJSONWithSchema reads a reply written as one object keyed by field
// name: the [CONTENT] span (or the whole text) is parsed with ExtractMap and
// each schema field is coerced to its shape. Missing fields are omitted. A
// value of the wrong shape is kept as decoded in Lenient mode and reported
// as ShapeMismatch in Strict mode.
func (m Mapper) ParseJSONWithSchema(text string, schema types.Schema) (map[string]any, error) {
	if inner, ok := FindTag(text, DefaultTag); ok {
		text = inner
	}
	obj, err := Extractor{Logger: m.Logger}.Map(text)
	if err != nil {
		if m.Mode == Strict {
			return nil, err
		}
		m.log().Debug("reply is not an object", zap.Error(err))
		return map[string]any{}, nil
	}
	return m.MapValues(obj, schema)
}

// MapValues coerces already-decoded values onto schema.
func (m Mapper) MapValues(obj map[string]any, schema types.Schema) (map[string]any, error) {
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		v, ok := obj[f.Name]
		if !ok {
			m.log().Debug("field missing from object", zap.String("field", f.Name))
			continue
		}
		cv, err := m.value(v, f.Shape)
		if err != nil {
			err = withContext(err, f.Name, "")
			if m.Mode == Strict {
				return nil, err
			}
			m.log().Debug("keeping decoded value for field", zap.String("field", f.Name), zap.Error(err))
			cv = v
		}
		out[f.Name] = cv
	}
	return out, nil
}

func (m Mapper) value(v any, shape types.Shape) (any, error) {
	if !shape.IsList() {
		s, ok := scalarString(v)
		if !ok {
			return nil, newError(ShapeMismatch, "value is %s, want a string", describe(v))
		}
		if m.StripStrings {
			return ParseStr(s), nil
		}
		return s, nil
	}
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case Tuple:
		items = x
	default:
		return nil, newError(ShapeMismatch, "value is %s, want a list", describe(v))
	}
	return coerce(items, shape)
}

func (m Mapper) log() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}
