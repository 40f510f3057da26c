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

// Package fuzzvalue generates random fieldpath.Path and fieldpath.Set
// values for round-trip serialization tests, the way apimachinery's
// apitesting/roundtrip fuzzers generate random API objects. It is
// test-only scaffolding, imported from _test.go files alone.
package fuzzvalue

import (
	"fmt"

	"github.com/google/gofuzz"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/value"
)

// Funcs returns the gofuzz custom functions needed to fuzz
// fieldpath.PathElement, fieldpath.Path and value.Value meaningfully --
// left to gofuzz's defaults, an interface like value.Value has no
// fuzzable fields and a PathElement's unexported tag/content fields
// would never be touched by reflection-based fuzzing.
func Funcs() []interface{} {
	return []interface{}{
		func(v *value.Value, c fuzz.Continue) {
			*v = fuzzScalar(c)
		},
		func(pe *fieldpath.PathElement, c fuzz.Continue) {
			*pe = fuzzElement(c)
		},
		func(p *fieldpath.Path, c fuzz.Continue) {
			n := c.Intn(4)
			elements := make([]fieldpath.PathElement, n)
			for i := range elements {
				elements[i] = fuzzFieldElement(c)
			}
			*p = fieldpath.NewPath(elements...)
		},
		// fieldpath.Set has no exported fields for gofuzz's default
		// reflection to touch, so it needs its own custom func, built
		// by inserting a handful of random paths -- the same way a
		// custom func on a type with private state (e.g. a sync.Map)
		// would build it through its exported API instead of poking
		// at its fields.
		func(s *fieldpath.Set, c fuzz.Continue) {
			n := 1 + c.Intn(12)
			for i := 0; i < n; i++ {
				depth := 1 + c.Intn(3)
				elements := make([]fieldpath.PathElement, depth)
				for j := 0; j < depth-1; j++ {
					elements[j] = fuzzFieldElement(c)
				}
				elements[depth-1] = fuzzElement(c)
				s.Insert(fieldpath.NewPath(elements...))
			}
		},
	}
}

// fuzzFieldElement favors Field and Index elements for interior path
// steps, since a Key or Value element serializes through a scalar that
// is itself fuzzed -- reserved for fuzzElement, used at a path's tail.
func fuzzFieldElement(c fuzz.Continue) fieldpath.PathElement {
	if c.RandBool() {
		return fieldpath.Field(fmt.Sprintf("f%d", c.Intn(8)))
	}
	return fieldpath.Index(c.Intn(8))
}

func fuzzElement(c fuzz.Continue) fieldpath.PathElement {
	switch c.Intn(4) {
	case 0:
		return fieldpath.Field(fmt.Sprintf("field%d", c.Intn(16)))
	case 1:
		return fieldpath.Index(c.Intn(32))
	case 2:
		return fieldpath.ValueElement(fuzzScalar(c))
	default:
		return fieldpath.Key([]fieldpath.KeyField{
			{Name: "name", Value: fuzzScalar(c)},
		})
	}
}

func fuzzScalar(c fuzz.Continue) value.Value {
	switch c.Intn(4) {
	case 0:
		return value.BoolValue(c.RandBool())
	case 1:
		return value.IntValue(int64(c.Intn(1000) - 500))
	case 2:
		return value.StringValue(fmt.Sprintf("s%d", c.Intn(1000)))
	default:
		return value.FloatValue(float64(c.Intn(1000)) / 4)
	}
}
