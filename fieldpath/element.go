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

// Package fieldpath is the canonical representation of "a set of leaves
// inside a document tree": PathElement, Path and the trie-structured Set.
package fieldpath

import (
	"sort"

	"sigs.k8s.io/typed-merge/value"
)

// Tag discriminates the four kinds of PathElement. Its numeric value
// fixes the first key of the total order required by spec: Field before
// Key before Index before Value.
type Tag int

const (
	TagField Tag = iota
	TagKey
	TagIndex
	TagValue
)

// KeyField is one (name, value) pair of an associative list element's
// key. A PathElement's Key field is a sorted slice of these.
type KeyField struct {
	Name  string
	Value value.Value
}

// PathElement is one step of navigation into a document: a map field
// name, the key of an associative list element, the index of an
// atomically-positioned list element, or the value of a set element.
type PathElement struct {
	tag   Tag
	field string
	key   []KeyField
	index int
	value value.Value
}

// Field builds a map-field PathElement.
func Field(name string) PathElement {
	return PathElement{tag: TagField, field: name}
}

// Key builds an associative-list-element PathElement from its key
// fields, sorting them by name so two constructions of the same
// logical key always compare and serialize identically.
func Key(fields []KeyField) PathElement {
	sorted := make([]KeyField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return PathElement{tag: TagKey, key: sorted}
}

// Index builds an atomically-positioned list-element PathElement.
func Index(i int) PathElement {
	return PathElement{tag: TagIndex, index: i}
}

// ValueElement builds a set-element PathElement from the element's
// scalar value.
func ValueElement(v value.Value) PathElement {
	return PathElement{tag: TagValue, value: v}
}

func (p PathElement) Tag() Tag { return p.tag }

// FieldName returns the field name; valid only when Tag() == TagField.
func (p PathElement) FieldName() string { return p.field }

// KeyFields returns the sorted key fields; valid only when Tag() == TagKey.
func (p PathElement) KeyFields() []KeyField { return p.key }

// IndexValue returns the index; valid only when Tag() == TagIndex.
func (p PathElement) IndexValue() int { return p.index }

// ScalarValue returns the element value; valid only when Tag() == TagValue.
func (p PathElement) ScalarValue() value.Value { return p.value }

// KeyFieldValue looks up one named field of a Key element.
func (p PathElement) KeyFieldValue(name string) (value.Value, bool) {
	for _, f := range p.key {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Less implements the PathElement total order: first by tag, then by
// contents. It must hold even across tags so Set iteration -- and hence
// serialization -- is deterministic.
func Less(a, b PathElement) bool {
	if a.tag != b.tag {
		return a.tag < b.tag
	}
	switch a.tag {
	case TagField:
		return a.field < b.field
	case TagKey:
		return keyLess(a.key, b.key)
	case TagIndex:
		return a.index < b.index
	case TagValue:
		return value.Canonical(a.value) < value.Canonical(b.value)
	default:
		return false
	}
}

func keyLess(a, b []KeyField) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Name != b[i].Name {
			return a[i].Name < b[i].Name
		}
		ac, bc := value.Canonical(a[i].Value), value.Canonical(b[i].Value)
		if ac != bc {
			return ac < bc
		}
	}
	return len(a) < len(b)
}

// Equal reports whether two PathElements are the same step.
func Equal(a, b PathElement) bool {
	return !Less(a, b) && !Less(b, a)
}
