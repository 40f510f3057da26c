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

package typed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/typed"
	"sigs.k8s.io/typed-merge/value"
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
    - name: labels
      type:
        map:
          elementType:
            scalar: string
          elementRelationship: separable
    - name: finalizers
      type:
        list:
          elementType:
            scalar: string
          elementRelationship: associative
    - name: containers
      type:
        list:
          elementType:
            namedType: container
          elementRelationship: associative
          keys: [name]
    - name: metadata
      type:
        map:
          elementRelationship: atomic
          fields:
          - name: uid
            type:
              scalar: string
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

func mustValue(t *testing.T, doc string) value.Value {
	t.Helper()
	v, err := value.FromYAML([]byte(doc))
	require.NoError(t, err)
	return v
}

func mustTyped(t *testing.T, s *schema.Schema, typeName, doc string) *typed.TypedValue {
	t.Helper()
	tv, err := typed.AsTyped(mustValue(t, doc), s, typeName)
	require.NoError(t, err)
	return tv
}

func podSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return mustSchema(t, podSchemaYAML)
}
