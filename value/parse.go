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
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	yamlv3 "gopkg.in/yaml.v3"
)

// FromYAML parses a single YAML or JSON document into a Value tree,
// preserving map key order the way the source document wrote them. This
// is the entry point for documents; schema files are decoded by
// schema.FromYAML instead. Decoding through
// encoding/json's map[string]interface{} would not preserve that order,
// since plain Go maps have none.
func FromYAML(data []byte) (Value, error) {
	var doc yamlv3.Node
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}
	if len(doc.Content) == 0 {
		return Null, nil
	}
	return fromNode(doc.Content[0])
}

func fromNode(n *yamlv3.Node) (Value, error) {
	switch n.Kind {
	case yamlv3.DocumentNode:
		if len(n.Content) == 0 {
			return Null, nil
		}
		return fromNode(n.Content[0])
	case yamlv3.AliasNode:
		return fromNode(n.Alias)
	case yamlv3.ScalarNode:
		return scalarFromNode(n)
	case yamlv3.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return ListValue(items), nil
	case yamlv3.MappingNode:
		b := NewMapBuilder()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yamlv3.ScalarNode {
				return nil, errors.New("map keys must be scalar strings")
			}
			val, err := fromNode(valNode)
			if err != nil {
				return nil, err
			}
			b.Set(keyNode.Value, val)
		}
		return b.Build(), nil
	default:
		return nil, fmt.Errorf("unsupported yaml node kind: %v", n.Kind)
	}
}

func scalarFromNode(n *yamlv3.Node) (Value, error) {
	if n.Tag == "!!null" || (n.Tag == "" && n.Value == "") {
		return Null, nil
	}
	switch n.Tag {
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, errors.Wrap(err, "parsing bool")
		}
		return BoolValue(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing int")
		}
		return IntValue(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing float")
		}
		return FloatValue(f), nil
	default:
		return StringValue(n.Value), nil
	}
}

// FromInterface converts a plain Go value (as produced by encoding/json's
// []interface{}/map[string]interface{} decoding, or assembled by hand in
// tests) into a Value tree. Plain Go maps carry no order, so their keys
// are sorted lexicographically; prefer FromYAML when document order
// matters.
func FromInterface(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case float64:
		if t == float64(int64(t)) {
			return IntValue(int64(t)), nil
		}
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			iv, err := FromInterface(e)
			if err != nil {
				return nil, err
			}
			items = append(items, iv)
		}
		return ListValue(items), nil
	case map[string]interface{}:
		vals := make(map[string]Value, len(t))
		for k, e := range t {
			iv, err := FromInterface(e)
			if err != nil {
				return nil, err
			}
			vals[k] = iv
		}
		return SortedMapValue(vals), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
