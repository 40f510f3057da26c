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

package fieldpath_test

import (
	"encoding/json"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/internal/fuzzvalue"
	"sigs.k8s.io/typed-merge/value"
)

func path(elems ...fieldpath.PathElement) fieldpath.Path { return fieldpath.NewPath(elems...) }

func TestSetHasShadowsAtomicAncestor(t *testing.T) {
	s := fieldpath.NewSet(path(fieldpath.Field("spec")))
	assert.True(t, s.Has(path(fieldpath.Field("spec"))))
	assert.True(t, s.Has(path(fieldpath.Field("spec"), fieldpath.Field("replicas"))),
		"an atomic Member at spec should cover every leaf beneath it")
	assert.False(t, s.Has(path(fieldpath.Field("other"))))
}

func TestSetHasExactWithoutAncestorMember(t *testing.T) {
	s := fieldpath.NewSet(path(fieldpath.Field("spec"), fieldpath.Field("replicas")))
	assert.True(t, s.Has(path(fieldpath.Field("spec"), fieldpath.Field("replicas"))))
	assert.False(t, s.Has(path(fieldpath.Field("spec"), fieldpath.Field("image"))))
	assert.False(t, s.Has(path(fieldpath.Field("spec"))))
}

func TestSetUnionAtomicDominates(t *testing.T) {
	whole := fieldpath.NewSet(path(fieldpath.Field("spec")))
	partial := fieldpath.NewSet(path(fieldpath.Field("spec"), fieldpath.Field("replicas")))
	u := whole.Union(partial)
	assert.True(t, u.Members.Has(fieldpath.Field("spec")))
	assert.Equal(t, 1, u.Size())
}

func TestSetIntersectionAtomicVsGranular(t *testing.T) {
	whole := fieldpath.NewSet(path(fieldpath.Field("spec")))
	partial := fieldpath.NewSet(
		path(fieldpath.Field("spec"), fieldpath.Field("replicas")),
		path(fieldpath.Field("spec"), fieldpath.Field("image")),
	)
	i := whole.Intersection(partial)
	assert.True(t, i.Has(path(fieldpath.Field("spec"), fieldpath.Field("replicas"))))
	assert.True(t, i.Has(path(fieldpath.Field("spec"), fieldpath.Field("image"))))
	assert.False(t, i.Members.Has(fieldpath.Field("spec")))
}

func TestSetDifferenceAtomicRemovesWholeSubtree(t *testing.T) {
	s := fieldpath.NewSet(
		path(fieldpath.Field("spec"), fieldpath.Field("replicas")),
		path(fieldpath.Field("spec"), fieldpath.Field("image")),
	)
	ignored := fieldpath.NewSet(path(fieldpath.Field("spec")))
	d := s.Difference(ignored)
	assert.True(t, d.Empty())
}

func TestSetDifferenceGranular(t *testing.T) {
	s := fieldpath.NewSet(
		path(fieldpath.Field("spec"), fieldpath.Field("replicas")),
		path(fieldpath.Field("spec"), fieldpath.Field("image")),
	)
	other := fieldpath.NewSet(path(fieldpath.Field("spec"), fieldpath.Field("image")))
	d := s.Difference(other)
	assert.True(t, d.Has(path(fieldpath.Field("spec"), fieldpath.Field("replicas"))))
	assert.False(t, d.Has(path(fieldpath.Field("spec"), fieldpath.Field("image"))))
}

func TestSetIterateIsDeterministic(t *testing.T) {
	s := fieldpath.NewSet(
		path(fieldpath.Field("b")),
		path(fieldpath.Field("a")),
		path(fieldpath.Key([]fieldpath.KeyField{{Name: "name", Value: value.StringValue("x")}})),
	)
	var got []string
	s.Iterate(func(p fieldpath.Path) { got = append(got, fieldpath.Serialize(p)) })
	require.Len(t, got, 3)
	assert.Equal(t, []string{".a", ".b", "[name=\"x\"]"}, got)
}

func TestElementSerializeRoundTrip(t *testing.T) {
	elems := []fieldpath.PathElement{
		fieldpath.Field("replicas"),
		fieldpath.Index(3),
		fieldpath.ValueElement(value.IntValue(7)),
		fieldpath.Key([]fieldpath.KeyField{
			{Name: "name", Value: value.StringValue("nginx")},
			{Name: "port", Value: value.IntValue(80)},
		}),
	}
	for _, pe := range elems {
		s, err := fieldpath.SerializeElement(pe)
		require.NoError(t, err)
		back, err := fieldpath.DeserializeElement(s)
		require.NoError(t, err)
		assert.True(t, fieldpath.Equal(pe, back), "round trip through %q", s)
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	s := fieldpath.NewSet(
		path(fieldpath.Field("spec"), fieldpath.Field("replicas")),
		path(fieldpath.Field("spec"), fieldpath.Field("containers"),
			fieldpath.Key([]fieldpath.KeyField{{Name: "name", Value: value.StringValue("nginx")}}),
			fieldpath.Field("image")),
		path(fieldpath.Field("metadata")),
	)
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back fieldpath.Set
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, s.Equals(&back))
}

func TestSetJSONFuzzRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 4)
	for i := 0; i < 25; i++ {
		var names []string
		f.Fuzz(&names)
		s := &fieldpath.Set{}
		for _, n := range names {
			if n == "" {
				continue
			}
			s.Insert(path(fieldpath.Field(n)))
		}
		data, err := json.Marshal(s)
		require.NoError(t, err)
		back := &fieldpath.Set{}
		require.NoError(t, json.Unmarshal(data, back))
		assert.True(t, s.Equals(back))
	}
}

// TestFieldSetSerializationRoundTrip exercises the wire codec against
// randomly generated sets touching every PathElement tag (field, key,
// index, value), not just the hand-written fixtures above.
func TestFieldSetSerializationRoundTrip(t *testing.T) {
	f := fuzz.New().NilChance(0).Funcs(fuzzvalue.Funcs()...)
	for i := 0; i < 50; i++ {
		s := &fieldpath.Set{}
		f.Fuzz(s)
		data, err := json.Marshal(s)
		require.NoError(t, err)

		back := &fieldpath.Set{}
		require.NoError(t, json.Unmarshal(data, back))
		assert.True(t, s.Equals(back), "round trip changed the set: %s", string(data))
	}
}

func TestPathLessOrdersByElement(t *testing.T) {
	a := path(fieldpath.Field("a"))
	b := path(fieldpath.Field("b"))
	assert.True(t, fieldpath.PathLess(a, b))
	assert.False(t, fieldpath.PathLess(b, a))
}
