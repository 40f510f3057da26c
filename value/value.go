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

// Package value provides a uniform, schema-agnostic view over the
// tree-shaped documents (decoded JSON/YAML) that the rest of this module
// operates on.
package value

// Value is a recursive variant over the documents this module merges:
// null, bool, int, float, string, list or map. Implementations must never
// mutate the underlying storage from accessor methods.
//
// Accessors panic if called against the wrong kind, except that Float
// on an int Value returns the int converted to float64; callers are expected
// to check with the Is* predicates first, exactly as the schema-directed
// walkers in package typed do.
type Value interface {
	IsNull() bool
	IsBool() bool
	IsInt() bool
	IsFloat() bool
	IsString() bool
	IsList() bool
	IsMap() bool

	Bool() bool
	Int() int64
	Float() float64
	String() string
	List() List
	Map() Map

	// Unstructured returns the plain Go representation (nil, bool, int64,
	// float64, string, []interface{}, map[string]interface{}) suitable for
	// re-encoding with encoding/json or sigs.k8s.io/yaml.
	Unstructured() interface{}
}

// List is an ordered sequence of Values.
type List interface {
	Length() int
	At(i int) Value
	Iterate(fn func(i int, v Value))
}

// Map is an insertion-ordered string-keyed collection of Values.
type Map interface {
	Length() int
	Get(key string) (Value, bool)
	// Iterate walks entries in insertion order, stopping early if fn
	// returns false.
	Iterate(fn func(key string, v Value) bool) bool
	Keys() []string
}

// IsScalar reports whether v is a leaf (anything but a list or a map).
func IsScalar(v Value) bool {
	return !v.IsList() && !v.IsMap()
}

// TypeName returns a short name for v's dynamic kind, used in error
// messages and validation reasons.
func TypeName(v Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsBool():
		return "boolean"
	case v.IsInt():
		return "int"
	case v.IsFloat():
		return "float"
	case v.IsString():
		return "string"
	case v.IsList():
		return "list"
	case v.IsMap():
		return "map"
	default:
		return "unknown"
	}
}
