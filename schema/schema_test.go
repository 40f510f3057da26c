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

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/schema"
)

const podSchemaYAML = `
types:
- name: pod
  map:
    fields:
    - name: spec
      type:
        namedType: podSpec
- name: podSpec
  map:
    fields:
    - name: replicas
      type:
        scalar: numeric
    - name: containers
      type:
        list:
          elementType:
            namedType: container
          elementRelationship: associative
          keys: [name]
- name: container
  map:
    fields:
    - name: name
      type:
        scalar: string
    - name: image
      type:
        scalar: string
`

func mustSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.FromYAML([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestResolveNamedType(t *testing.T) {
	s := mustSchema(t, podSchemaYAML)
	atom, err := s.Resolve(schema.TypeRef{NamedType: "podSpec"})
	require.NoError(t, err)
	require.NotNil(t, atom.Map)
	field, ok := atom.Map.FindField("replicas")
	require.True(t, ok)
	assert.Equal(t, schema.Numeric, *field.Type.Inlined.Scalar)
}

func TestResolveUnknownTypeErrors(t *testing.T) {
	s := mustSchema(t, podSchemaYAML)
	_, err := s.Resolve(schema.TypeRef{NamedType: "nope"})
	assert.Error(t, err)
}

func TestDuplicateTypeNameRejected(t *testing.T) {
	_, err := schema.New([]schema.TypeDef{
		{Name: "a", Atom: schema.Atom{Scalar: scalarPtr(schema.String)}},
		{Name: "a", Atom: schema.Atom{Scalar: scalarPtr(schema.String)}},
	})
	assert.Error(t, err)
}

func TestStructurallyEqualIgnoresNames(t *testing.T) {
	s, err := schema.New([]schema.TypeDef{
		{Name: "a", Atom: schema.Atom{Map: &schema.Map{ElementRelationship: schema.Atomic}}},
		{Name: "b", Atom: schema.Atom{Map: &schema.Map{ElementRelationship: schema.Atomic}}},
		{Name: "c", Atom: schema.Atom{Map: &schema.Map{ElementRelationship: schema.Granular}}},
	})
	require.NoError(t, err)
	assert.True(t, schema.StructurallyEqual(s, schema.TypeRef{NamedType: "a"}, s, schema.TypeRef{NamedType: "b"}))
	assert.False(t, schema.StructurallyEqual(s, schema.TypeRef{NamedType: "a"}, s, schema.TypeRef{NamedType: "c"}))
}

func TestCyclicNamedTypesDoNotInfiniteLoop(t *testing.T) {
	s, err := schema.New([]schema.TypeDef{
		{Name: "node", Atom: schema.Atom{Map: &schema.Map{
			Fields: []schema.StructField{
				{Name: "next", Type: schema.TypeRef{NamedType: "node"}},
			},
		}}},
	})
	require.NoError(t, err)
	assert.True(t, schema.StructurallyEqual(s, schema.TypeRef{NamedType: "node"}, s, schema.TypeRef{NamedType: "node"}))
}

func scalarPtr(s schema.Scalar) *schema.Scalar { return &s }
