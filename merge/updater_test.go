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

package merge_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/managedfields"
	"sigs.k8s.io/typed-merge/merge"
	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/typed"
	"sigs.k8s.io/typed-merge/value"
)

const deploymentSchemaYAML = `
types:
- name: deployment
  map:
    fields:
    - name: spec
      type:
        namedType: deploymentSpec
- name: deploymentSpec
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

func mustSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.FromYAML([]byte(deploymentSchemaYAML))
	require.NoError(t, err)
	return s
}

func mustTyped(t *testing.T, s *schema.Schema, doc string) *typed.TypedValue {
	t.Helper()
	v, err := value.FromYAML([]byte(doc))
	require.NoError(t, err)
	tv, err := typed.AsTyped(v, s, "deployment")
	require.NoError(t, err)
	return tv
}

// TestApplyTracksOwnershipAndDetectsConflicts walks the worked example
// spec.md §7 is built from: two managers apply disjoint fields, then a
// third apply that collides is rejected unless forced.
func TestApplyTracksOwnershipAndDetectsConflicts(t *testing.T) {
	s := mustSchema(t)
	u := &merge.Updater{}
	managers := managedfields.NewRegistry()

	live := mustTyped(t, s, `spec: {}`)
	aliceConfig := mustTyped(t, s, `
spec:
  replicas: 3
`)
	result, managers, err := u.Apply(live, aliceConfig, "v1", managers, "alice", false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.AsValue().Unstructured().(map[string]interface{})["spec"].(map[string]interface{})["replicas"])

	bobConfig := mustTyped(t, s, `
spec:
  containers:
  - name: nginx
    image: "1.19"
`)
	result, managers, err = u.Apply(result, bobConfig, "v1", managers, "bob", false)
	require.NoError(t, err)

	want := map[string]interface{}{
		"spec": map[string]interface{}{
			"replicas": int64(3),
			"containers": []interface{}{
				map[string]interface{}{"name": "nginx", "image": "1.19"},
			},
		},
	}
	if diff := cmp.Diff(want, result.AsValue().Unstructured()); diff != "" {
		t.Fatalf("unexpected merged object (-want +got):\n%s", diff)
	}

	aliceRecolor := mustTyped(t, s, `
spec:
  containers:
  - name: nginx
    image: "1.21"
`)
	_, _, err = u.Apply(result, aliceRecolor, "v1", managers, "alice", false)
	require.Error(t, err)
	conflicts, ok := err.(*merge.ConflictsError)
	require.True(t, ok, "expected a *merge.ConflictsError, got %T: %v", err, err)
	require.Len(t, conflicts.Conflicts, 1)
	assert.Equal(t, "bob", conflicts.Conflicts[0].Manager)

	result, managers, err = u.Apply(result, aliceRecolor, "v1", managers, "alice", true)
	require.NoError(t, err)
	got := result.AsValue().Unstructured().(map[string]interface{})["spec"].(map[string]interface{})["containers"].([]interface{})[0].(map[string]interface{})["image"]
	assert.Equal(t, "1.21", got, "forcing the apply should move ownership of image to alice")

	_, stillOwns := managers.Get(managedfields.ManagerKey{Name: "bob", Operation: managedfields.Apply})
	assert.False(t, stillOwns, "alice's re-apply restates the list key along with image, so bob's entry should be fully reclaimed and pruned")
}

// TestApplyPrunesFieldsDroppedFromASubsequentApply exercises spec.md
// §4.H's "fields manager previously claimed but no longer claims are
// pruned" behavior.
func TestApplyPrunesFieldsDroppedFromASubsequentApply(t *testing.T) {
	s := mustSchema(t)
	u := &merge.Updater{}
	managers := managedfields.NewRegistry()

	live := mustTyped(t, s, `spec: {}`)
	first := mustTyped(t, s, `
spec:
  replicas: 5
  containers:
  - name: nginx
    image: "1.19"
`)
	live, managers, err := u.Apply(live, first, "v1", managers, "alice", false)
	require.NoError(t, err)

	second := mustTyped(t, s, `
spec:
  containers:
  - name: nginx
    image: "1.19"
`)
	live, _, err = u.Apply(live, second, "v1", managers, "alice", false)
	require.NoError(t, err)

	_, hasReplicas := live.AsValue().Unstructured().(map[string]interface{})["spec"].(map[string]interface{})["replicas"]
	assert.False(t, hasReplicas, "dropping replicas from alice's re-apply should remove it from the live object")
}

// TestUpdateReassignsOwnershipOfEverythingItTouches exercises the
// non-apply write path, where an Update implicitly claims every field
// it changes regardless of who owned it before.
func TestUpdateReassignsOwnershipOfEverythingItTouches(t *testing.T) {
	s := mustSchema(t)
	u := &merge.Updater{}
	managers := managedfields.NewRegistry()

	live := mustTyped(t, s, `spec: {}`)
	applied := mustTyped(t, s, `
spec:
  replicas: 1
`)
	live, managers, err := u.Apply(live, applied, "v1", managers, "controller", false)
	require.NoError(t, err)

	scaled := mustTyped(t, s, `
spec:
  replicas: 9
`)
	live, managers, err = u.Update(live, scaled, "v1", managers, "operator-ui")
	require.NoError(t, err)
	assert.EqualValues(t, 9, live.AsValue().Unstructured().(map[string]interface{})["spec"].(map[string]interface{})["replicas"])

	_, stillOwns := managers.Get(managedfields.ManagerKey{Name: "controller", Operation: managedfields.Apply})
	assert.False(t, stillOwns, "controller's Apply entry should be empty (and pruned) once operator-ui's Update overwrote its only field")
	vs, ok := managers.Get(managedfields.ManagerKey{Name: "operator-ui", Operation: managedfields.Update})
	require.True(t, ok)
	assert.True(t, vs.Set.Has(fieldpath.NewPath(fieldpath.Field("spec"), fieldpath.Field("replicas"))))
}

// TestExtractApplyRoundTripsOwnedFields exercises spec.md §4.H's
// ExtractApply: a field the manager already owns but leaves out of its
// amendment (replicas) is carried over from the live object, while the
// amended field (image) takes its new value.
func TestExtractApplyRoundTripsOwnedFields(t *testing.T) {
	s := mustSchema(t)
	u := &merge.Updater{}
	managers := managedfields.NewRegistry()

	live := mustTyped(t, s, `spec: {}`)
	config := mustTyped(t, s, `
spec:
  replicas: 2
  containers:
  - name: nginx
    image: "1.19"
`)
	live, managers, err := u.Apply(live, config, "v1", managers, "alice", false)
	require.NoError(t, err)

	amendment := mustTyped(t, s, `
spec:
  containers:
  - name: nginx
    image: "1.20"
`)
	live, _, err = u.ExtractApply(live, amendment, "v1", managers, "alice", false)
	require.NoError(t, err)

	want := map[string]interface{}{
		"spec": map[string]interface{}{
			"replicas": int64(2),
			"containers": []interface{}{
				map[string]interface{}{"name": "nginx", "image": "1.20"},
			},
		},
	}
	if diff := cmp.Diff(want, live.AsValue().Unstructured()); diff != "" {
		t.Fatalf("ExtractApply should preserve replicas while amending image (-want +got):\n%s", diff)
	}
}
