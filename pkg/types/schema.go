// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Shape is the expected form of one extracted field.
type Shape string

const (
	ShapeString     Shape = "string"
	ShapeStringList Shape = "list[string]"
	ShapePairList   Shape = "list[pair[string,string]]"
	ShapeListList   Shape = "list[list[string]]"
)

// IsList reports whether the shape is one of the list shapes.
func (s Shape) IsList() bool {
	switch s {
	case ShapeStringList, ShapePairList, ShapeListList:
		return true
	}
	return false
}

// Field declares one named field of a Schema.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Shape Shape  `json:"shape" yaml:"shape"`
}

// Schema is the ordered set of fields expected from one extraction call.
type Schema []Field

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}
