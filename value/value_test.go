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

package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/value"
)

func TestNumericEquality(t *testing.T) {
	assert.True(t, value.Equals(value.IntValue(3), value.FloatValue(3.0)))
	assert.False(t, value.Equals(value.IntValue(3), value.FloatValue(3.5)))
}

func TestMapEqualityIgnoresOrder(t *testing.T) {
	a := value.MapValue([]string{"a", "b"}, map[string]value.Value{
		"a": value.IntValue(1), "b": value.IntValue(2),
	})
	b := value.MapValue([]string{"b", "a"}, map[string]value.Value{
		"a": value.IntValue(1), "b": value.IntValue(2),
	})
	assert.True(t, value.Equals(a, b))
}

func TestFromYAMLPreservesOrder(t *testing.T) {
	v, err := value.FromYAML([]byte("z: 1\na: 2\nm: 3\n"))
	require.NoError(t, err)
	require.True(t, v.IsMap())
	assert.Equal(t, []string{"z", "a", "m"}, v.Map().Keys())
}

func TestFromYAMLScalarKinds(t *testing.T) {
	cases := map[string]func(value.Value){
		"true":  func(v value.Value) { assert.True(t, v.IsBool()); assert.True(t, v.Bool()) },
		"3":     func(v value.Value) { assert.True(t, v.IsInt()); assert.EqualValues(t, 3, v.Int()) },
		"3.5":   func(v value.Value) { assert.True(t, v.IsFloat()); assert.Equal(t, 3.5, v.Float()) },
		"hello": func(v value.Value) { assert.True(t, v.IsString()); assert.Equal(t, "hello", v.String()) },
		"null":  func(v value.Value) { assert.True(t, v.IsNull()) },
	}
	for in, check := range cases {
		v, err := value.FromYAML([]byte(in))
		require.NoErrorf(t, err, "parsing %q", in)
		check(v)
	}
}

func TestCanonicalSortsMapKeysAndTrimsFloats(t *testing.T) {
	m := value.MapValue([]string{"z", "a"}, map[string]value.Value{
		"z": value.FloatValue(1.0), "a": value.StringValue("x"),
	})
	assert.Equal(t, `{"a":"x","z":1}`, value.Canonical(m))
}

func TestLessOrdersAcrossKinds(t *testing.T) {
	assert.True(t, value.Less(value.Null, value.BoolValue(false)))
	assert.True(t, value.Less(value.BoolValue(false), value.IntValue(0)))
	assert.True(t, value.Less(value.IntValue(0), value.StringValue("")))
}
