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

// ReconcileFieldSet rewrites set -- owned against oldSchema/oldRef -- so
// it refers to leaves that still make sense under newSchema/newRef, per
// spec.md §4.F. reference supplies the live value (interpreted under
// newSchema/newRef) to expand an atomic marker back into leaves
// (atomic->granular) or to rewrite an associative list whose key shape
// changed; it may be nil, in which case an entry that would need
// expansion keeps its single atomic marker and is reported.
//
// It returns the rewritten set and a slice of human-readable messages
// for every leaf that could not be reconciled: dropped, or left as an
// unexpanded atomic marker for lack of a reference value.
func ReconcileFieldSet(set *fieldpath.Set, oldSchema *schema.Schema, oldRef schema.TypeRef, newSchema *schema.Schema, newRef schema.TypeRef, reference value.Value) (*fieldpath.Set, []string, error) {
	if set == nil || set.Empty() {
		return &fieldpath.Set{}, nil, nil
	}
	oldRootAtom, err := oldSchema.Resolve(oldRef)
	if err != nil {
		return nil, nil, fmt.Errorf("schema error: reconciling old type: %w", err)
	}
	newRootAtom, err := newSchema.Resolve(newRef)
	if err != nil {
		return nil, nil, fmt.Errorf("schema error: reconciling new type: %w", err)
	}
	r := &reconciler{oldSchema: oldSchema, newSchema: newSchema}
	out := &fieldpath.Set{}
	set.Iterate(func(p fieldpath.Path) {
		r.reconcileLeaf(out, p, oldRootAtom, newRootAtom, reference)
	})
	return out, r.dropped, nil
}

type reconciler struct {
	oldSchema, newSchema *schema.Schema
	dropped              []string
}

func (r *reconciler) drop(p fieldpath.Path, reason string) {
	r.dropped = append(r.dropped, fmt.Sprintf("%s: %s", fieldpath.Serialize(p), reason))
}

func isAtomicAtom(a schema.Atom) bool {
	switch {
	case a.Map != nil:
		return a.Map.Relationship() == schema.Atomic
	case a.List != nil:
		return a.List.ElementRelationship == schema.Atomic
	default:
		return true // scalars and the untyped sentinel are indivisible
	}
}

// reconcileLeaf walks one leaf path p step by step, carrying the atom a
// leaf's ancestor had under the old schema and has under the new one,
// and the corresponding ancestor reference value. At the first step
// where the new schema's relationship differs from the old one it
// either collapses (granular->atomic) or expands (atomic->granular);
// otherwise it continues matching elements one for one, using the
// reference value to re-key associative-list elements whose key set
// changed.
func (r *reconciler) reconcileLeaf(out *fieldpath.Set, p fieldpath.Path, oldAtom, newAtom schema.Atom, ref value.Value) {
	prefix := fieldpath.Path{}
	for _, pe := range p {
		if isAtomicAtom(newAtom) {
			if len(prefix) > 0 {
				out.Insert(prefix)
			} else {
				out.Insert(prefix.Append(pe))
			}
			return
		}
		if isAtomicAtom(oldAtom) {
			// atomic -> granular: the old leaf was the single marker at
			// this field's root; expand everything the new schema
			// exposes starting here, from the reference value.
			fieldAtom, err := elementAtom(r.newSchema, newAtom, pe)
			if err != nil {
				r.drop(p, err.Error())
				return
			}
			subRef := stepInto(ref, pe)
			if subRef == nil {
				r.drop(p, "schema changed atomic to granular but no reference value was supplied to expand into")
				out.Insert(prefix.Append(pe))
				return
			}
			collectAtom(out, prefix.Append(pe), r.newSchema, fieldAtom, subRef)
			return
		}
		newPE, nextRef, ok := r.correspond(oldAtom, newAtom, pe, ref)
		if !ok {
			r.drop(p, "element could not be correlated across the schema change")
			return
		}
		nextOld, err := elementAtom(r.oldSchema, oldAtom, pe)
		if err != nil {
			r.drop(p, err.Error())
			return
		}
		nextNew, err := elementAtom(r.newSchema, newAtom, newPE)
		if err != nil {
			r.drop(p, err.Error())
			return
		}
		prefix = prefix.Append(newPE)
		oldAtom, newAtom, ref = nextOld, nextNew, nextRef
	}
	if isAtomicAtom(oldAtom) && !isAtomicAtom(newAtom) {
		// atomic -> granular: expand p's marker into the leaves of ref.
		if ref == nil {
			r.drop(p, "schema changed atomic to granular but no reference value was supplied to expand into")
		} else {
			collectAtom(out, prefix, r.newSchema, newAtom, ref)
			return
		}
	}
	out.Insert(prefix)
}

func stepInto(v value.Value, pe fieldpath.PathElement) value.Value {
	if v == nil {
		return nil
	}
	switch pe.Tag() {
	case fieldpath.TagField:
		if !v.IsMap() {
			return nil
		}
		child, _ := v.Map().Get(pe.FieldName())
		return child
	case fieldpath.TagIndex:
		if !v.IsList() || pe.IndexValue() >= v.List().Length() {
			return nil
		}
		return v.List().At(pe.IndexValue())
	default:
		return nil
	}
}

// elementAtom resolves the schema atom one step below container (whose
// atom is already known) through pe.
func elementAtom(s *schema.Schema, container schema.Atom, pe fieldpath.PathElement) (schema.Atom, error) {
	switch {
	case container.Map != nil:
		if pe.Tag() != fieldpath.TagField {
			return schema.Atom{}, fmt.Errorf("expected a field element under a map")
		}
		if f, ok := container.Map.FindField(pe.FieldName()); ok {
			return s.Resolve(f.Type)
		}
		return s.Resolve(container.Map.ElementType)
	case container.List != nil:
		return s.Resolve(container.List.ElementType)
	default:
		return schema.Atom{}, fmt.Errorf("cannot descend through a scalar")
	}
}

// correspond finds the PathElement and reference sub-value under the
// new schema that the same logical element -- addressed by pe under
// the old schema -- now has. Map fields keep their name unchanged; list
// elements are re-resolved from the reference value when the key shape
// changed (spec.md §4.F's "rewrite keyed elements to indexed and vice
// versa").
func (r *reconciler) correspond(oldAtom, newAtom schema.Atom, pe fieldpath.PathElement, ref value.Value) (fieldpath.PathElement, value.Value, bool) {
	if oldAtom.Map != nil || pe.Tag() == fieldpath.TagField {
		item := stepInto(ref, pe)
		return pe, item, true
	}
	if oldAtom.List == nil || newAtom.List == nil {
		return fieldpath.PathElement{}, nil, false
	}
	if ref == nil || !ref.IsList() {
		return fieldpath.PathElement{}, nil, false
	}
	item := findOldListElement(oldAtom.List, pe, ref)
	if item == nil {
		return fieldpath.PathElement{}, nil, false
	}
	newPE, err := listElementPath(newAtom.List, item, 0)
	if err != nil {
		return fieldpath.PathElement{}, nil, false
	}
	return newPE, item, true
}

// findOldListElement locates, within ref (a list interpreted under the
// *new* schema), the element that oldPE addressed under the *old*
// schema's key shape.
func findOldListElement(oldList *schema.List, oldPE fieldpath.PathElement, ref value.Value) value.Value {
	var found value.Value
	ref.List().Iterate(func(i int, item value.Value) {
		if found != nil {
			return
		}
		candidate, err := listElementPath(oldList, item, i)
		if err != nil {
			return
		}
		if fieldpath.Equal(candidate, oldPE) {
			found = item
		}
	})
	return found
}
