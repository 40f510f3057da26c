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

package typed

import (
	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/value"
)

// Validate walks tv's value against its schema type, reporting every
// leaf that does not conform: a scalar of the wrong kind, a list where
// a map is declared, an associative list element missing one of its
// key fields, or -- unless the map declares PreserveUnknownFields -- a
// map key the schema does not know about.
func (tv *TypedValue) Validate() error {
	ef := &errorFormatter{}
	atom, err := tv.atom()
	if err != nil {
		return err
	}
	validateAtom(ef, tv.schema, atom, tv.value)
	return ef.error()
}

func validateAtom(ef *errorFormatter, s *schema.Schema, atom schema.Atom, v value.Value) {
	if v == nil || v.IsNull() {
		return
	}
	switch {
	case atom.Scalar != nil:
		validateScalar(ef, *atom.Scalar, v)
	case atom.List != nil:
		validateList(ef, s, atom.List, v)
	case atom.Map != nil:
		validateMap(ef, s, atom.Map, v)
	default:
		// Untyped atom: anything goes.
	}
}

func validateScalar(ef *errorFormatter, want schema.Scalar, v value.Value) {
	switch want {
	case schema.Numeric:
		if !v.IsInt() && !v.IsFloat() {
			ef.errorf("expected numeric, got %s", value.TypeName(v))
		}
	case schema.String:
		if !v.IsString() {
			ef.errorf("expected string, got %s", value.TypeName(v))
		}
	case schema.Boolean:
		if !v.IsBool() {
			ef.errorf("expected boolean, got %s", value.TypeName(v))
		}
	}
}

func validateList(ef *errorFormatter, s *schema.Schema, l *schema.List, v value.Value) {
	if !v.IsList() {
		ef.errorf("expected list, got %s", value.TypeName(v))
		return
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		ef.errorf("%v", err)
		return
	}
	seen := map[string]bool{}
	v.List().Iterate(func(i int, item value.Value) {
		pe, err := listElementPath(l, item, i)
		if err != nil {
			ef.errorf("%v", err)
			return
		}
		if l.ElementRelationship == schema.Associative {
			key, _ := fieldpath.SerializeElement(pe)
			if seen[key] {
				if l.IsSet() {
					ef.errorf("duplicate set element %s", key)
				} else {
					ef.errorf("duplicate associative list key %s", key)
				}
			}
			seen[key] = true
		}
		validateAtom(ef.descend(pe), s, elemAtom, item)
	})
}

func validateMap(ef *errorFormatter, s *schema.Schema, m *schema.Map, v value.Value) {
	if !v.IsMap() {
		ef.errorf("expected map, got %s", value.TypeName(v))
		return
	}
	mv := v.Map()
	mv.Iterate(func(key string, item value.Value) bool {
		field, ok := m.FindField(key)
		var fieldAtom schema.Atom
		var err error
		if ok {
			fieldAtom, err = s.Resolve(field.Type)
		} else if m.PreserveUnknownFields {
			return true
		} else {
			fieldAtom, err = s.Resolve(m.ElementType)
			if err != nil || (m.ElementType.NamedType == "" && m.ElementType.Inlined.IsUntyped()) {
				ef.descend(fieldpath.Field(key)).errorf("unknown field")
				return true
			}
		}
		if err != nil {
			ef.errorf("%v", err)
			return true
		}
		validateAtom(ef.descend(fieldpath.Field(key)), s, fieldAtom, item)
		return true
	})
}
