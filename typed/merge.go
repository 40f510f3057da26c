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
	"fmt"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/value"
)

// Merge combines tv (the live object) with rhs (the applier's intent),
// returning a new TypedValue. Atomic maps and lists are replaced
// wholesale by rhs whenever rhs supplies them. Granular maps merge
// field by field, keeping tv's field order and appending any new
// fields rhs introduces; a field rhs sets explicitly to null is a
// present null value that replaces the field, not a delete marker --
// deletion is expressed by the field's absence from rhs and handled by
// the orchestrator's pruning step, not here (spec.md §4.E). Granular
// lists merge element by element by their list key, keeping tv's
// element order and appending any new elements.
func (tv *TypedValue) Merge(rhs *TypedValue) (*TypedValue, error) {
	if tv.schema != rhs.schema {
		return nil, fmt.Errorf("internal invariant: Merge across different schemas")
	}
	atom, err := tv.atom()
	if err != nil {
		return nil, err
	}
	merged, err := mergeAtom(tv.schema, atom, tv.value, rhs.value)
	if err != nil {
		return nil, err
	}
	return &TypedValue{value: merged, typeRef: tv.typeRef, schema: tv.schema}, nil
}

// mergeAtom combines one node. rhs == nil (a Go nil, not value.Null)
// means the field is absent on the rhs side -- lhs passes through
// untouched. An explicit value.Null on rhs is a present value like any
// other and always wins, per spec.md §4.E: null on rhs means "present
// with null", never "delete".
func mergeAtom(s *schema.Schema, atom schema.Atom, lhs, rhs value.Value) (value.Value, error) {
	if rhs == nil {
		if lhs == nil {
			return value.Null, nil
		}
		return lhs, nil
	}
	if rhs.IsNull() {
		return rhs, nil
	}
	if lhs == nil || lhs.IsNull() {
		return rhs, nil
	}
	switch {
	case atom.Scalar != nil:
		return rhs, nil
	case atom.Map != nil:
		return mergeMap(s, atom.Map, lhs, rhs)
	case atom.List != nil:
		return mergeList(s, atom.List, lhs, rhs)
	default:
		return rhs, nil
	}
}

func mergeMap(s *schema.Schema, m *schema.Map, lhs, rhs value.Value) (value.Value, error) {
	if m.Relationship() == schema.Atomic {
		return rhs, nil
	}
	if !lhs.IsMap() || !rhs.IsMap() {
		return nil, fmt.Errorf("internal invariant: expected maps during merge")
	}
	lm, rm := lhs.Map(), rhs.Map()
	b := value.NewMapBuilder()
	for _, key := range lm.Keys() {
		lv, _ := lm.Get(key)
		rv, hasR := rm.Get(key)
		if !hasR {
			b.Set(key, lv)
			continue
		}
		elemAtom, err := fieldAtom(s, m, key)
		if err != nil {
			return nil, err
		}
		merged, err := mergeAtom(s, elemAtom, lv, rv)
		if err != nil {
			return nil, err
		}
		b.Set(key, merged)
	}
	for _, key := range rm.Keys() {
		if _, ok := lm.Get(key); ok {
			continue
		}
		rv, _ := rm.Get(key)
		b.Set(key, rv)
	}
	return b.Build(), nil
}

func mergeList(s *schema.Schema, l *schema.List, lhs, rhs value.Value) (value.Value, error) {
	if l.ElementRelationship == schema.Atomic {
		return rhs, nil
	}
	if !lhs.IsList() || !rhs.IsList() {
		return nil, fmt.Errorf("internal invariant: expected lists during merge")
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		return nil, err
	}
	lItems, err := indexListByElement(l, lhs)
	if err != nil {
		return nil, err
	}
	rItems, err := indexListByElement(l, rhs)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	seen := map[string]bool{}
	var itErr error
	lhs.List().Iterate(func(i int, item value.Value) {
		if itErr != nil {
			return
		}
		pe, err := listElementPath(l, item, i)
		if err != nil {
			itErr = err
			return
		}
		key, err := fieldpath.SerializeElement(pe)
		if err != nil {
			itErr = err
			return
		}
		seen[key] = true
		if r, ok := rItems[key]; ok {
			merged, err := mergeAtom(s, elemAtom, lItems[key].v, r.v)
			if err != nil {
				itErr = err
				return
			}
			out = append(out, merged)
		} else {
			out = append(out, item)
		}
	})
	if itErr != nil {
		return nil, itErr
	}
	rhs.List().Iterate(func(i int, item value.Value) {
		pe, err := listElementPath(l, item, i)
		if err != nil {
			return
		}
		key, err := fieldpath.SerializeElement(pe)
		if err != nil {
			return
		}
		if seen[key] {
			return
		}
		out = append(out, item)
	})
	return value.ListValue(out), nil
}
