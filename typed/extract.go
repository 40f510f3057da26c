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

// ExtractItems is the inverse of RemoveItems: it returns a copy of tv
// containing only the leaves named by toKeep, with every other field
// and list element dropped. A toKeep Member at a node keeps the whole
// subtree beneath it, same as the atomicity rule RemoveItems and
// fieldpath.Set itself follow. It is how a field manager's currently
// owned configuration is reconstructed out of the live object, for use
// as the apply base in a subsequent ExtractApply (spec.md §4.H).
func (tv *TypedValue) ExtractItems(toKeep *fieldpath.Set) (*TypedValue, error) {
	atom, err := tv.atom()
	if err != nil {
		return nil, err
	}
	out := extractAtom(tv.schema, atom, tv.value, toKeep)
	return &TypedValue{value: out, typeRef: tv.typeRef, schema: tv.schema}, nil
}

func extractAtom(s *schema.Schema, atom schema.Atom, v value.Value, toKeep *fieldpath.Set) value.Value {
	if v == nil || v.IsNull() || toKeep == nil || toKeep.Empty() {
		return nil
	}
	switch {
	case atom.Map != nil:
		return extractMap(s, atom.Map, v, toKeep)
	case atom.List != nil:
		return extractList(s, atom.List, v, toKeep)
	default:
		return nil
	}
}

func extractMap(s *schema.Schema, m *schema.Map, v value.Value, toKeep *fieldpath.Set) value.Value {
	if !v.IsMap() {
		return nil
	}
	mv := v.Map()
	b := value.NewMapBuilder()
	any := false
	mv.Iterate(func(key string, item value.Value) bool {
		pe := fieldpath.Field(key)
		if toKeep.Members.Has(pe) {
			b.Set(key, item)
			any = true
			return true
		}
		child, hasChild := toKeep.Children[mustSerialize(pe)]
		if !hasChild {
			return true
		}
		elemAtom, err := fieldAtom(s, m, key)
		if err != nil {
			return true
		}
		sub := extractAtom(s, elemAtom, item, child.Set())
		if sub != nil {
			b.Set(key, sub)
			any = true
		}
		return true
	})
	if !any {
		return nil
	}
	return b.Build()
}

func extractList(s *schema.Schema, l *schema.List, v value.Value, toKeep *fieldpath.Set) value.Value {
	if !v.IsList() {
		return nil
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		return nil
	}
	var out []value.Value
	v.List().Iterate(func(i int, item value.Value) {
		pe, err := listElementPath(l, item, i)
		if err != nil {
			return
		}
		if toKeep.Members.Has(pe) {
			out = append(out, item)
			return
		}
		child, hasChild := toKeep.Children[mustSerialize(pe)]
		if !hasChild {
			return
		}
		sub := extractAtom(s, elemAtom, item, child.Set())
		if sub != nil {
			out = append(out, sub)
		}
	})
	if len(out) == 0 {
		return nil
	}
	return value.ListValue(out)
}
