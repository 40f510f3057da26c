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

import "fmt"

// Resolve follows a TypeRef to its Atom, whether named or inlined. A
// named reference to a type the Schema doesn't have returns an error;
// callers that already validated the document against this schema can
// treat that as an internal invariant violation.
func (s *Schema) Resolve(ref TypeRef) (Atom, error) {
	var atom Atom
	if ref.NamedType != "" {
		t, ok := s.FindNamedType(ref.NamedType)
		if !ok {
			return Atom{}, fmt.Errorf("schema error: no type named %q", ref.NamedType)
		}
		atom = t.Atom
	} else {
		atom = ref.Inlined
	}
	if ref.ElementRelationship != nil {
		atom = overrideRelationship(atom, *ref.ElementRelationship)
	}
	return atom, nil
}

// overrideRelationship returns a copy of atom with its container's
// ElementRelationship replaced, without mutating the schema's stored
// type (types are immutable after construction).
func overrideRelationship(atom Atom, rel ElementRelationship) Atom {
	switch {
	case atom.Map != nil:
		m := *atom.Map
		m.ElementRelationship = rel
		atom.Map = &m
	case atom.List != nil:
		l := *atom.List
		l.ElementRelationship = rel
		atom.List = &l
	}
	return atom
}
