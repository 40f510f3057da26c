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

// RemoveItems returns a copy of tv with every leaf named by toRemove
// deleted. A set Member removes the whole subtree beneath it, same as
// fieldpath.Set's own atomicity rule.
func (tv *TypedValue) RemoveItems(toRemove *fieldpath.Set) (*TypedValue, error) {
	atom, err := tv.atom()
	if err != nil {
		return nil, err
	}
	out := removeAtom(tv.schema, atom, tv.value, toRemove)
	return &TypedValue{value: out, typeRef: tv.typeRef, schema: tv.schema}, nil
}

func removeAtom(s *schema.Schema, atom schema.Atom, v value.Value, toRemove *fieldpath.Set) value.Value {
	if v == nil || v.IsNull() || toRemove.Empty() {
		return v
	}
	switch {
	case atom.Map != nil:
		return removeMap(s, atom.Map, v, toRemove)
	case atom.List != nil:
		return removeList(s, atom.List, v, toRemove)
	default:
		return v
	}
}

func removeMap(s *schema.Schema, m *schema.Map, v value.Value, toRemove *fieldpath.Set) value.Value {
	if !v.IsMap() {
		return v
	}
	mv := v.Map()
	b := value.NewMapBuilder()
	mv.Iterate(func(key string, item value.Value) bool {
		pe := fieldpath.Field(key)
		if toRemove.Members.Has(pe) {
			return true // whole subtree removed
		}
		child, hasChild := toRemove.Children[mustSerialize(pe)]
		if hasChild {
			elemAtom, err := fieldAtom(s, m, key)
			if err == nil {
				item = removeAtom(s, elemAtom, item, child.Set())
			}
		}
		b.Set(key, item)
		return true
	})
	return b.Build()
}

func removeList(s *schema.Schema, l *schema.List, v value.Value, toRemove *fieldpath.Set) value.Value {
	if !v.IsList() {
		return v
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		return v
	}
	var out []value.Value
	v.List().Iterate(func(i int, item value.Value) {
		pe, err := listElementPath(l, item, i)
		if err != nil {
			out = append(out, item)
			return
		}
		if toRemove.Members.Has(pe) {
			return // element removed entirely
		}
		if child, ok := toRemove.Children[mustSerialize(pe)]; ok {
			item = removeAtom(s, elemAtom, item, child.Set())
		}
		out = append(out, item)
	})
	return value.ListValue(out)
}

func mustSerialize(pe fieldpath.PathElement) string {
	key, err := fieldpath.SerializeElement(pe)
	if err != nil {
		panic(err)
	}
	return key
}
