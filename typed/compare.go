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

// Comparison is the result of comparing two TypedValues of the same
// type: the leaves added by rhs, the leaves rhs removed, and the
// leaves present in both but with a different value.
type Comparison struct {
	Added    *fieldpath.Set
	Removed  *fieldpath.Set
	Modified *fieldpath.Set
}

func newComparison() *Comparison {
	return &Comparison{Added: &fieldpath.Set{}, Removed: &fieldpath.Set{}, Modified: &fieldpath.Set{}}
}

// IsSame reports that rhs changed nothing relative to tv.
func (c *Comparison) IsSame() bool {
	return c.Added.Empty() && c.Removed.Empty() && c.Modified.Empty()
}

// Compare walks tv and rhs in lockstep, recording every leaf that
// differs between them. Both values must validate against the same
// type; mismatched kinds at any node are reported through err rather
// than panicking.
func (tv *TypedValue) Compare(rhs *TypedValue) (*Comparison, error) {
	if tv.schema != rhs.schema {
		return nil, fmt.Errorf("internal invariant: Compare across different schemas")
	}
	atom, err := tv.atom()
	if err != nil {
		return nil, err
	}
	c := newComparison()
	if err := compareAtom(c, nil, tv.schema, atom, tv.value, rhs.value); err != nil {
		return nil, err
	}
	return c, nil
}

func compareAtom(c *Comparison, prefix fieldpath.Path, s *schema.Schema, atom schema.Atom, lhs, rhs value.Value) error {
	lhsNull := lhs == nil || lhs.IsNull()
	rhsNull := rhs == nil || rhs.IsNull()
	switch {
	case lhsNull && rhsNull:
		return nil
	case lhsNull:
		if len(prefix) > 0 {
			c.Added.Insert(prefix)
		}
		return nil
	case rhsNull:
		if len(prefix) > 0 {
			c.Removed.Insert(prefix)
		}
		return nil
	}
	switch {
	case atom.Scalar != nil:
		if !value.Equals(lhs, rhs) && len(prefix) > 0 {
			c.Modified.Insert(prefix)
		}
		return nil
	case atom.Map != nil:
		return compareMap(c, prefix, s, atom.Map, lhs, rhs)
	case atom.List != nil:
		return compareList(c, prefix, s, atom.List, lhs, rhs)
	default:
		if !value.Equals(lhs, rhs) && len(prefix) > 0 {
			c.Modified.Insert(prefix)
		}
		return nil
	}
}

func compareMap(c *Comparison, prefix fieldpath.Path, s *schema.Schema, m *schema.Map, lhs, rhs value.Value) error {
	if m.Relationship() == schema.Atomic {
		if !value.Equals(lhs, rhs) && len(prefix) > 0 {
			c.Modified.Insert(prefix)
		}
		return nil
	}
	if !lhs.IsMap() || !rhs.IsMap() {
		return fmt.Errorf("internal invariant: expected maps at %s", fieldpath.Serialize(prefix))
	}
	lm, rm := lhs.Map(), rhs.Map()
	keys := unionKeys(lm, rm)
	for _, key := range keys {
		elemPath := prefix.Append(fieldpath.Field(key))
		elemAtom, err := fieldAtom(s, m, key)
		if err != nil {
			return err
		}
		lv, _ := lm.Get(key)
		rv, _ := rm.Get(key)
		if err := compareAtom(c, elemPath, s, elemAtom, lv, rv); err != nil {
			return err
		}
	}
	return nil
}

func fieldAtom(s *schema.Schema, m *schema.Map, key string) (schema.Atom, error) {
	if field, ok := m.FindField(key); ok {
		return s.Resolve(field.Type)
	}
	return s.Resolve(m.ElementType)
}

func unionKeys(lm, rm value.Map) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range lm.Keys() {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range rm.Keys() {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func compareList(c *Comparison, prefix fieldpath.Path, s *schema.Schema, l *schema.List, lhs, rhs value.Value) error {
	if l.ElementRelationship == schema.Atomic {
		if !value.Equals(lhs, rhs) && len(prefix) > 0 {
			c.Modified.Insert(prefix)
		}
		return nil
	}
	if !lhs.IsList() || !rhs.IsList() {
		return fmt.Errorf("internal invariant: expected lists at %s", fieldpath.Serialize(prefix))
	}
	elemAtom, err := s.Resolve(l.ElementType)
	if err != nil {
		return err
	}
	lItems, err := indexListByElement(l, lhs)
	if err != nil {
		return err
	}
	rItems, err := indexListByElement(l, rhs)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for key, litem := range lItems {
		seen[key] = true
		elemPath := prefix.Append(litem.pe)
		ritem, ok := rItems[key]
		var rv value.Value
		if ok {
			rv = ritem.v
		}
		if err := compareAtom(c, elemPath, s, elemAtom, litem.v, rv); err != nil {
			return err
		}
	}
	for key, ritem := range rItems {
		if seen[key] {
			continue
		}
		elemPath := prefix.Append(ritem.pe)
		c.Added.Insert(elemPath)
	}
	return nil
}

type listItem struct {
	pe fieldpath.PathElement
	v  value.Value
}

func indexListByElement(l *schema.List, v value.Value) (map[string]listItem, error) {
	out := map[string]listItem{}
	var walkErr error
	v.List().Iterate(func(i int, item value.Value) {
		if walkErr != nil {
			return
		}
		pe, err := listElementPath(l, item, i)
		if err != nil {
			walkErr = err
			return
		}
		key, err := fieldpath.SerializeElement(pe)
		if err != nil {
			walkErr = err
			return
		}
		out[key] = listItem{pe: pe, v: item}
	})
	return out, walkErr
}
