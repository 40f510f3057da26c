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

package fieldpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sigs.k8s.io/typed-merge/value"
)

// SerializeElement renders pe in the §6 wire form: "f:name", "k:{json}",
// "i:n" or "v:json". This string doubles as the trie's child key, so two
// PathElements that serialize identically are the same step.
func SerializeElement(pe PathElement) (string, error) {
	switch pe.Tag() {
	case TagField:
		return "f:" + pe.FieldName(), nil
	case TagKey:
		obj := make(map[string]interface{}, len(pe.KeyFields()))
		for _, f := range pe.KeyFields() {
			obj[f.Name] = f.Value.Unstructured()
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("serializing key element: %w", err)
		}
		return "k:" + string(data), nil
	case TagIndex:
		return "i:" + strconv.Itoa(pe.IndexValue()), nil
	case TagValue:
		data, err := json.Marshal(pe.ScalarValue().Unstructured())
		if err != nil {
			return "", fmt.Errorf("serializing value element: %w", err)
		}
		return "v:" + string(data), nil
	default:
		return "", fmt.Errorf("unknown path element tag %v", pe.Tag())
	}
}

// DeserializeElement parses the §6 wire form back into a PathElement; it
// is the exact inverse of SerializeElement.
func DeserializeElement(s string) (PathElement, error) {
	if len(s) < 2 || s[1] != ':' {
		return PathElement{}, fmt.Errorf("invalid path element %q: missing type prefix", s)
	}
	prefix, content := s[:2], s[2:]
	switch prefix {
	case "f:":
		return Field(content), nil
	case "i:":
		i, err := strconv.Atoi(content)
		if err != nil {
			return PathElement{}, fmt.Errorf("invalid index element %q: %w", s, err)
		}
		return Index(i), nil
	case "v:":
		v, err := scalarFromJSON(content)
		if err != nil {
			return PathElement{}, fmt.Errorf("invalid value element %q: %w", s, err)
		}
		return ValueElement(v), nil
	case "k:":
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return PathElement{}, fmt.Errorf("invalid key element %q: %w", s, err)
		}
		fields := make([]KeyField, 0, len(obj))
		for name, raw := range obj {
			v, err := value.FromInterface(raw)
			if err != nil {
				return PathElement{}, fmt.Errorf("invalid key element %q: %w", s, err)
			}
			fields = append(fields, KeyField{Name: name, Value: v})
		}
		return Key(fields), nil
	default:
		return PathElement{}, fmt.Errorf("unknown path element type %q", s)
	}
}

func scalarFromJSON(s string) (value.Value, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return value.FromInterface(raw)
}

// Serialize renders a Path as the dotted/bracketed single-line form from
// spec.md §3, e.g. `.spec.containers[name="nginx"].image`.
func Serialize(p Path) string {
	var b strings.Builder
	for _, pe := range p {
		writeElement(&b, pe)
	}
	return b.String()
}

func writeElement(b *strings.Builder, pe PathElement) {
	switch pe.Tag() {
	case TagField:
		b.WriteByte('.')
		b.WriteString(pe.FieldName())
	case TagKey:
		b.WriteByte('[')
		for i, f := range pe.KeyFields() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte('=')
			b.WriteString(value.Canonical(f.Value))
		}
		b.WriteByte(']')
	case TagIndex:
		fmt.Fprintf(b, "[%d]", pe.IndexValue())
	case TagValue:
		b.WriteString("[=")
		b.WriteString(value.Canonical(pe.ScalarValue()))
		b.WriteByte(']')
	}
}

// memberMarker is the sentinel key that marks a PathElement as a
// terminal member of its parent node, rather than (or in addition to)
// having children of its own.
const memberMarker = "."

var emptyObject = json.RawMessage(`{}`)

// MarshalJSON renders a Set as the nested-object form from spec §6: each
// level is an object keyed by the §6 element prefix. A leaf with no
// children beneath it serializes as a bare "{}", matching the reference
// format exactly (spec.md §6's `"f:image":{}` example); a "." entry is
// only added when an element is simultaneously a Member and the parent
// of further Children (an owned associative-list key that also owns
// some of its own fields).
func (s *Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return emptyObject, nil
	}
	out := map[string]json.RawMessage{}
	for key, c := range s.Children {
		data, err := c.set.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out[key] = data
	}
	for _, pe := range s.Members {
		key, err := SerializeElement(pe)
		if err != nil {
			return nil, err
		}
		if existing, hasChildren := out[key]; hasChildren {
			out[key] = mergeMember(existing)
		} else {
			out[key] = emptyObject
		}
	}
	return json.Marshal(out)
}

func mergeMember(existing json.RawMessage) json.RawMessage {
	obj := decodeObject(existing)
	obj[memberMarker] = emptyObject
	data, _ := json.Marshal(obj)
	return data
}

func decodeObject(data json.RawMessage) map[string]json.RawMessage {
	obj := map[string]json.RawMessage{}
	if len(data) == 0 {
		return obj
	}
	_ = json.Unmarshal(data, &obj)
	return obj
}

// UnmarshalJSON parses the nested-object form produced by MarshalJSON.
func (s *Set) UnmarshalJSON(data []byte) error {
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("parsing field set: %w", err)
	}
	*s = Set{}
	for key, raw := range obj {
		pe, err := DeserializeElement(key)
		if err != nil {
			return fmt.Errorf("parsing field set key %q: %w", key, err)
		}
		child := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &child); err != nil {
			return fmt.Errorf("parsing field set entry %q: %w", key, err)
		}
		if _, isMember := child[memberMarker]; isMember {
			s.Members = s.Members.Insert(pe)
			delete(child, memberMarker)
		}
		if len(child) == 0 {
			// Bare "{}": a leaf member with nothing beneath it.
			if !s.Members.Has(pe) {
				s.Members = s.Members.Insert(pe)
			}
			continue
		}
		remaining, err := json.Marshal(child)
		if err != nil {
			return err
		}
		childSet := &Set{}
		if err := childSet.UnmarshalJSON(remaining); err != nil {
			return err
		}
		s.setChildSet(key, pe, childSet)
	}
	return nil
}
