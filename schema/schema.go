/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package schema is the named-type model that gives every node of a
// document a semantic shape and a merge policy.
package schema

import (
	"encoding/json"
	"fmt"

	yaml "sigs.k8s.io/yaml"
)

// Scalar names a leaf kind.
type Scalar string

const (
	Numeric Scalar = "numeric"
	String  Scalar = "string"
	Boolean Scalar = "boolean"
	Untyped Scalar = "untyped"
)

// ElementRelationship names how the elements of a container type relate
// to one another for merge purposes.
type ElementRelationship string

const (
	// Atomic makes a container behave like a scalar: merge replaces the
	// whole subtree, ownership is tracked only at its root.
	Atomic ElementRelationship = "atomic"
	// Granular tracks and merges map fields (or list elements)
	// independently. The default for maps.
	Granular ElementRelationship = "granular"
	// Separable is merge-equivalent to Granular; kept as a distinct wire
	// value for compatibility with schema documents written against the
	// three-way atomic/separable/granular vocabulary.
	Separable ElementRelationship = "separable"
	// Associative merges list elements by key (or, for scalar elements
	// with no declared keys, by value -- a set).
	Associative ElementRelationship = "associative"
)

// Atom is a tagged variant: exactly one of Scalar, List or Map is set, or
// none (Untyped/deduced sentinel).
type Atom struct {
	Scalar *Scalar `json:"scalar,omitempty"`
	List   *List   `json:"list,omitempty"`
	Map    *Map    `json:"map,omitempty"`
}

// IsUntyped reports whether this atom is the deduced/untyped sentinel.
func (a Atom) IsUntyped() bool {
	return a.Scalar == nil && a.List == nil && a.Map == nil
}

// TypeRef either names a type in the owning Schema or inlines one.
type TypeRef struct {
	NamedType string `json:"namedType,omitempty"`
	Inlined   Atom   `json:",inline"`
	// ElementRelationship, when set, overrides the relationship declared
	// on the referenced map or list type.
	ElementRelationship *ElementRelationship `json:"elementRelationship,omitempty"`
}

// UnmarshalJSON decodes the inline atom keys (scalar, list, map) into
// Inlined, alongside namedType and elementRelationship.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		NamedType           string               `json:"namedType,omitempty"`
		ElementRelationship *ElementRelationship `json:"elementRelationship,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var atom Atom
	if err := json.Unmarshal(data, &atom); err != nil {
		return err
	}
	*t = TypeRef{NamedType: raw.NamedType, Inlined: atom, ElementRelationship: raw.ElementRelationship}
	return nil
}

// TypeDef is a named entry in a Schema's type table.
type TypeDef struct {
	Name string `json:"name"`
	Atom `json:",inline"`
}

// StructField pairs a field name with its type and optional default.
type StructField struct {
	Name    string      `json:"name"`
	Type    TypeRef     `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

// Map is a granular- or atomic-merged string-keyed container.
type Map struct {
	Fields                []StructField       `json:"fields,omitempty"`
	ElementType           TypeRef             `json:"elementType,omitempty"`
	ElementRelationship   ElementRelationship `json:"elementRelationship,omitempty"`
	PreserveUnknownFields bool                `json:"preserveUnknownFields,omitempty"`

	fieldIndex map[string]*StructField
}

// Relationship returns the map's effective relationship, defaulting to
// Granular per spec.
func (m *Map) Relationship() ElementRelationship {
	if m.ElementRelationship == "" {
		return Granular
	}
	return m.ElementRelationship
}

// FindField looks up a declared field by name.
func (m *Map) FindField(name string) (*StructField, bool) {
	if m.fieldIndex == nil {
		m.fieldIndex = make(map[string]*StructField, len(m.Fields))
		for i := range m.Fields {
			m.fieldIndex[m.Fields[i].Name] = &m.Fields[i]
		}
	}
	f, ok := m.fieldIndex[name]
	return f, ok
}

// List is an associative- or atomic-merged ordered container.
type List struct {
	ElementType         TypeRef             `json:"elementType,omitempty"`
	ElementRelationship ElementRelationship `json:"elementRelationship,omitempty"`
	Keys                []string            `json:"keys,omitempty"`
}

// IsSet reports whether this is a scalar set: associative with no
// declared key fields.
func (l *List) IsSet() bool {
	return l.ElementRelationship == Associative && len(l.Keys) == 0
}

// Schema is an immutable, named-type table, traversable with O(1) name
// lookup once built.
type Schema struct {
	Types []TypeDef `json:"types,omitempty"`

	byName map[string]*TypeDef
}

// New builds a Schema from a type table, indexing names eagerly so
// Resolve never needs to mutate shared state (and is safe to call from
// multiple goroutines, per spec.md §5).
func New(types []TypeDef) (*Schema, error) {
	s := &Schema{Types: types, byName: make(map[string]*TypeDef, len(types))}
	for i := range types {
		t := &types[i]
		if t.Name == "" {
			return nil, fmt.Errorf("schema error: type at index %d has no name", i)
		}
		if _, dup := s.byName[t.Name]; dup {
			return nil, fmt.Errorf("schema error: duplicate type name %q", t.Name)
		}
		s.byName[t.Name] = t
	}
	if err := s.checkInlineDepth(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromYAML decodes a Schema document written in the §6 wire format.
func FromYAML(data []byte) (*Schema, error) {
	var raw struct {
		Types []TypeDef `json:"types"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema error: %w", err)
	}
	return New(raw.Types)
}

// FindNamedType returns the TypeDef registered under name, if any.
func (s *Schema) FindNamedType(name string) (*TypeDef, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// maxInlineDepth bounds inline (unnamed) atom nesting so a malformed
// schema document can never make Resolve recurse unboundedly; a document
// with this many levels of inline list-of-list-of-... is certainly a
// mistake, not a legitimate type.
const maxInlineDepth = 250

func (s *Schema) checkInlineDepth() error {
	for i := range s.Types {
		if err := checkAtomDepth(s.Types[i].Atom, maxInlineDepth); err != nil {
			return fmt.Errorf("schema error: type %q: %w", s.Types[i].Name, err)
		}
	}
	return nil
}

func checkAtomDepth(a Atom, budget int) error {
	if budget <= 0 {
		return fmt.Errorf("inline type nesting too deep (possible infinite inline expansion)")
	}
	if a.List != nil && a.List.ElementType.NamedType == "" {
		if err := checkAtomDepth(a.List.ElementType.Inlined, budget-1); err != nil {
			return err
		}
	}
	if a.Map != nil {
		if a.Map.ElementType.NamedType == "" && !a.Map.ElementType.Inlined.IsUntyped() {
			if err := checkAtomDepth(a.Map.ElementType.Inlined, budget-1); err != nil {
				return err
			}
		}
		for _, f := range a.Map.Fields {
			if f.Type.NamedType == "" {
				if err := checkAtomDepth(f.Type.Inlined, budget-1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
