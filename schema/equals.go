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

package schema

import "sort"

// StructurallyEqual reports whether ref1 (in schema1) and ref2 (in
// schema2) denote the same merge policy: same atom kind, recursively
// equal element types, the same sorted field set for maps, the same key
// list, and the same element relationship. Names are ignored -- two
// differently-named types with identical shape compare equal. This is
// used by schema reconciliation (§4.F) to decide whether a stored owned
// set still matches the current schema's merge policy for a subtree.
func StructurallyEqual(schema1 *Schema, ref1 TypeRef, schema2 *Schema, ref2 TypeRef) bool {
	return refsEqual(schema1, ref1, schema2, ref2, map[[2]string]bool{})
}

// refsEqual is StructurallyEqual with cycle tracking: named types may
// refer to each other (and to themselves) cyclically, so a pair of named
// refs already being compared higher up the call stack is assumed equal
// -- standard coinductive handling of recursive type equivalence.
func refsEqual(s1 *Schema, ref1 TypeRef, s2 *Schema, ref2 TypeRef, seen map[[2]string]bool) bool {
	if ref1.NamedType != "" && ref2.NamedType != "" {
		key := [2]string{ref1.NamedType, ref2.NamedType}
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	a1, err := s1.Resolve(ref1)
	if err != nil {
		return false
	}
	a2, err := s2.Resolve(ref2)
	if err != nil {
		return false
	}
	return atomsEqual(s1, a1, s2, a2, seen)
}

func atomsEqual(s1 *Schema, a1 Atom, s2 *Schema, a2 Atom, seen map[[2]string]bool) bool {
	if (a1.Scalar == nil) != (a2.Scalar == nil) {
		return false
	}
	if a1.Scalar != nil && *a1.Scalar != *a2.Scalar {
		return false
	}
	if (a1.List == nil) != (a2.List == nil) {
		return false
	}
	if a1.List != nil && !listsEqual(s1, a1.List, s2, a2.List, seen) {
		return false
	}
	if (a1.Map == nil) != (a2.Map == nil) {
		return false
	}
	if a1.Map != nil && !mapsEqual(s1, a1.Map, s2, a2.Map, seen) {
		return false
	}
	return true
}

func listsEqual(s1 *Schema, l1 *List, s2 *Schema, l2 *List, seen map[[2]string]bool) bool {
	if l1.ElementRelationship != l2.ElementRelationship {
		return false
	}
	if !stringSliceEqual(sortedCopy(l1.Keys), sortedCopy(l2.Keys)) {
		return false
	}
	return refsEqual(s1, l1.ElementType, s2, l2.ElementType, seen)
}

func mapsEqual(s1 *Schema, m1 *Map, s2 *Schema, m2 *Map, seen map[[2]string]bool) bool {
	if m1.Relationship() != m2.Relationship() {
		return false
	}
	if m1.PreserveUnknownFields != m2.PreserveUnknownFields {
		return false
	}
	if len(m1.Fields) != len(m2.Fields) {
		return false
	}
	f1 := fieldsByName(m1.Fields)
	f2 := fieldsByName(m2.Fields)
	for name, field1 := range f1 {
		field2, ok := f2[name]
		if !ok {
			return false
		}
		if !refsEqual(s1, field1.Type, s2, field2.Type, seen) {
			return false
		}
	}
	return refsEqual(s1, m1.ElementType, s2, m2.ElementType, seen)
}

func fieldsByName(fields []StructField) map[string]StructField {
	out := make(map[string]StructField, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
