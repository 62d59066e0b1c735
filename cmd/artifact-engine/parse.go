// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-engine/internal/generate"
	"github.com/pdiddy/artifact-engine/internal/parse"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a saved model reply into typed fields",
	Long: `Parse reads a model reply from file (or stdin), extracts the [CONTENT]
section, and maps its "## Title" blocks onto the task schema. The fields are
printed as YAML in schema order; fields without a block are omitted. With
--schema json the [CONTENT] section is read as one object keyed by field name.

With --strict a field that cannot be converted to its shape is an error
naming the field and block. With --block the named block is parsed as a
plain list of file names instead.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Bool("strict", false, "fail on fields that do not match their shape")
	parseCmd.Flags().Bool("strip-strings", false, `reduce string fields like name = "value" to value`)
	parseCmd.Flags().String("block", "", "parse only the list in this block")
	parseCmd.Flags().String("schema", string(types.SchemaMarkdown), "reply format: markdown or json")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	strip, _ := cmd.Flags().GetBool("strip-strings")
	block, _ := cmd.Flags().GetString("block")
	format, _ := cmd.Flags().GetString("schema")

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := string(data)

	out := cmd.OutOrStdout()
	if block != "" {
		files, err := parse.ParseFileList(text, block)
		if err != nil {
			return err
		}
		return writeYAML(out, files)
	}

	m := parse.Mapper{Mode: parse.Lenient, StripStrings: strip}
	if strict {
		m.Mode = parse.Strict
	}
	schema := generate.TasksNode.Schema()
	var fields map[string]any
	switch types.PromptSchema(format) {
	case types.SchemaMarkdown:
		fields, err = m.ParseWithSchema(text, schema)
	case types.SchemaJSON:
		fields, err = m.ParseJSONWithSchema(text, schema)
	default:
		return fmt.Errorf("unknown schema %q: want markdown or json", format)
	}
	if err != nil {
		return err
	}
	doc, err := orderedFields(schema, fields)
	if err != nil {
		return err
	}
	return writeYAML(out, doc)
}

// orderedFields builds a YAML mapping with keys in schema order.
func orderedFields(schema types.Schema, fields map[string]any) (*yaml.Node, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range schema {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		var key, val yaml.Node
		key.SetString(f.Name)
		if err := val.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.Name, err)
		}
		doc.Content = append(doc.Content, &key, &val)
	}
	return doc, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
