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

package value

import (
	"strconv"
	"strings"
)

// Equals reports deep, numeric-aware equality: an int Value equals a
// float Value carrying the same mathematical value, and map equality is
// order-independent (only key/value pairs matter).
func Equals(a, b Value) bool {
	switch {
	case a.IsNull() || b.IsNull():
		return a.IsNull() && b.IsNull()
	case a.IsBool() || b.IsBool():
		return a.IsBool() && b.IsBool() && a.Bool() == b.Bool()
	case (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()):
		return numeric(a) == numeric(b)
	case a.IsString() || b.IsString():
		return a.IsString() && b.IsString() && a.String() == b.String()
	case a.IsList() || b.IsList():
		return a.IsList() && b.IsList() && listEquals(a.List(), b.List())
	case a.IsMap() || b.IsMap():
		return a.IsMap() && b.IsMap() && mapEquals(a.Map(), b.Map())
	default:
		return true // both null-like with no recognized kind
	}
}

func numeric(v Value) float64 {
	if v.IsInt() {
		return float64(v.Int())
	}
	return v.Float()
}

func listEquals(a, b List) bool {
	if a.Length() != b.Length() {
		return false
	}
	for i := 0; i < a.Length(); i++ {
		if !Equals(a.At(i), b.At(i)) {
			return false
		}
	}
	return true
}

func mapEquals(a, b Map) bool {
	if a.Length() != b.Length() {
		return false
	}
	equal := true
	a.Iterate(func(k string, av Value) bool {
		bv, ok := b.Get(k)
		if !ok || !Equals(av, bv) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// Less gives scalar Values a total order.
// Ordering across kinds: null < bool < number < string; within a kind,
// natural ordering.
func Less(a, b Value) bool {
	rank := func(v Value) int {
		switch {
		case v.IsNull():
			return 0
		case v.IsBool():
			return 1
		case v.IsInt() || v.IsFloat():
			return 2
		case v.IsString():
			return 3
		default:
			return 4
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 1:
		return !a.Bool() && b.Bool()
	case 2:
		return numeric(a) < numeric(b)
	case 3:
		return a.String() < b.String()
	default:
		return false
	}
}

// Canonical renders v as a stable, byte-for-byte reproducible string:
// map keys sorted, floats without insignificant trailing zeroes, strings
// verbatim. It is used to compare and serialize PathElement Value tags
// and set-list elements.
func Canonical(v Value) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	switch {
	case v.IsNull():
		b.WriteString("null")
	case v.IsBool():
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case v.IsInt():
		writeInt(b, v.Int())
	case v.IsFloat():
		writeFloat(b, v.Float())
	case v.IsString():
		b.WriteByte('"')
		b.WriteString(v.String())
		b.WriteByte('"')
	case v.IsList():
		b.WriteByte('[')
		l := v.List()
		for i := 0; i < l.Length(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, l.At(i))
		}
		b.WriteByte(']')
	case v.IsMap():
		b.WriteByte('{')
		m := v.Map()
		keys := m.Keys()
		sortStrings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteByte('"')
			b.WriteByte(':')
			val, _ := m.Get(k)
			writeCanonical(b, val)
		}
		b.WriteByte('}')
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func writeInt(b *strings.Builder, i int64) {
	b.WriteString(strconv.FormatInt(i, 10))
}

// writeFloat strips insignificant trailing zeroes by using the shortest
// representation that round-trips ('g' with minimal precision).
func writeFloat(b *strings.Builder, f float64) {
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
