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

// ToFieldSet walks tv and returns the set of leaves it owns: every map
// field present, recorded individually unless the map's
// ElementRelationship is Atomic, in which case the map's own path
// element stands for the whole subtree. Associative and set list
// elements are recorded by key or value; atomic lists are recorded by
// their own path element, the same way an atomic map is.
func (tv *TypedValue) ToFieldSet() (*fieldpath.Set, error) {
	atom, err := tv.atom()
	if err != nil {
		return nil, err
	}
	set := &fieldpath.Set{}
	collectAtom(set, nil, tv.schema, atom, tv.value)
	return set, nil
}

func collectAtom(set *fieldpath.Set, prefix fieldpath.Path, s *schema.Schema, atom schema.Atom, v value.Value) {
	if v == nil || v.IsNull() {
		return
	}
	switch {
	case atom.Map != nil:
		collectMap(set, prefix, s, atom.Map, v)
	case atom.List != nil:
		collectList(set, prefix, s, atom.List, v)
	}
}

func collectMap(set *fieldpath.Set, prefix fieldpath.Path, s *schema.Schema, m *schema.Map, v value.Value) {
	if !v.IsMap() {
		return
	}
	if m.Relationship() == schema.Atomic {
		if len(prefix) > 0 {
			set.Insert(prefix)
		}
		return
	}
	v.Map().Iterate(func(key string, item value.Value) bool {
		elemPath := prefix.Append(fieldpath.Field(key))
		var elemAtom schema.Atom
		if field, ok := m.FindField(key); ok {
			a, err := s.Resolve(field.Type)
			if err != nil {
				return true
			}
			elemAtom = a
		} else {
			a, err := s.Resolve(m.ElementType)
			if err != nil {
				return true
			}
			elemAtom = a
		}
		if isAtomicAtom(elemAtom) {
			// The field itself is the owned leaf: a scalar, or a
			// container whose own relationship is atomic.
			set.Insert(elemPath)
			return true
		}
		collectAtom(set, elemPath, s, elemAtom, item)
		return true
	})
}

func collectList(set *fieldpath.Set, prefix fieldpath.Path, s *schema.Schema, l *schema.List, v value.Value) {
	if !v.IsList() {
		return
	}
	if l.ElementRelationship == schema.Atomic {
		if len(prefix) > 0 {
			set.Insert(prefix)
		}
		return
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		return
	}
	v.List().Iterate(func(i int, item value.Value) {
		pe, err := listElementPath(l, item, i)
		if err != nil {
			return
		}
		elemPath := prefix.Append(pe)
		if len(l.Keys) > 0 {
			// Key fields are themselves owned leaves: the key
			// uniquely identifying the element is data the manager
			// supplied, same as any other field (decision recorded
			// for the ownership of associative-list key fields).
			for _, k := range l.Keys {
				set.Insert(elemPath.Append(fieldpath.Field(k)))
			}
		}
		if isAtomicAtom(elemAtom) {
			// A set element (scalar) or an atomic-relationship element
			// type: the element's own path is the owned leaf.
			set.Insert(elemPath)
			return
		}
		collectAtom(set, elemPath, s, elemAtom, item)
	})
}
