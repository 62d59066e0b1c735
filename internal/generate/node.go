// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/artifact-engine/internal/parse"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// NodeField is one field the model is asked to fill.
type NodeField struct {
	Name        string
	Shape       types.Shape
	Instruction string

	// Example is rendered into the format example: strings verbatim, other
	// values as JSON.
	Example any

	// Optional fields may be missing from a reply without a retry.
	Optional bool
}

// Node is a named group of fields filled by one model call.
type Node struct {
	Key    string
	Fields []NodeField
}

// Schema returns the parse schema for the node's fields.
func (n *Node) Schema() types.Schema {
	s := make(types.Schema, len(n.Fields))
	for i, f := range n.Fields {
		s[i] = types.Field{Name: f.Name, Shape: f.Shape}
	}
	return s
}

// Required returns the names of fields a reply must contain.
func (n *Node) Required() []string {
	var names []string
	for _, f := range n.Fields {
		if !f.Optional {
			names = append(names, f.Name)
		}
	}
	return names
}

const constraint = `- Language: Please use the same language as the user input.
- Format: output wrapped inside [` + parse.DefaultTag + `][/` + parse.DefaultTag + `] as format example, nothing else.`

var nodePromptTmpl = template.Must(template.New("node").Parse(`
## context
{{.Context}}

-----

## format example
[{{.Tag}}]
{{.Example}}[/{{.Tag}}]

## nodes: "<node>: <type>  # <instruction>"
{{range .Fields}}- {{.Name}}: {{.Shape}}  # {{.Instruction}}
{{end}}
## constraint
{{.Constraint}}

## action
Fill in the above nodes based on the format example.
`))

// Compile renders the prompt for context with a markdown format example.
func (n *Node) Compile(context string) (string, error) {
	return n.CompileAs(context, types.SchemaMarkdown)
}

// CompileAs renders the prompt for context: the context itself, a
// tag-wrapped format example in the given schema, the field list, and the
// output constraint.
func (n *Node) CompileAs(context string, schema types.PromptSchema) (string, error) {
	var (
		example string
		err     error
	)
	switch schema {
	case types.SchemaMarkdown, "":
		example, err = n.example()
	case types.SchemaJSON:
		example, err = n.jsonExample()
	default:
		return "", fmt.Errorf("unknown prompt schema %q", schema)
	}
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = nodePromptTmpl.Execute(&buf, struct {
		Context    string
		Tag        string
		Example    string
		Fields     []NodeField
		Constraint string
	}{context, parse.DefaultTag, example, n.Fields, constraint})
	if err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", n.Key, err)
	}
	return buf.String(), nil
}

// example renders one heading block per field, the same layout
// parse.Segment reads back.
func (n *Node) example() (string, error) {
	blocks := make(parse.Blocks, 0, len(n.Fields))
	for _, f := range n.Fields {
		body, err := exampleText(f.Example)
		if err != nil {
			return "", fmt.Errorf("rendering example for %q: %w", f.Name, err)
		}
		blocks = append(blocks, parse.Block{Title: f.Name, Body: body})
	}
	return blocks.Join(), nil
}

// jsonExample renders the examples as one indented object in field order.
func (n *Node) jsonExample() (string, error) {
	values := make(map[string]any, len(n.Fields))
	for _, f := range n.Fields {
		values[f.Name] = f.Example
	}
	out, err := encodeFields(n.Schema(), values)
	if err != nil {
		return "", fmt.Errorf("rendering %s example: %w", n.Key, err)
	}
	return out + "\n", nil
}

func exampleText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return marshalNoEscape(v)
}

func marshalNoEscape(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// encodeFields renders fields as a JSON object whose keys follow the
// schema order.
func encodeFields(schema types.Schema, fields map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range schema {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := marshalNoEscape(f.Name)
		if err != nil {
			return "", err
		}
		val, err := marshalNoEscape(v)
		if err != nil {
			return "", fmt.Errorf("encoding %q: %w", f.Name, err)
		}
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(val)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}
