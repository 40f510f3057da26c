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

package typed

import (
	"fmt"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/value"
)

// listElementPath computes the PathElement that addresses one list
// item, following the list's declared ElementRelationship: a set
// element is addressed by its scalar value, an associative element by
// its key fields, and anything else (atomic or plain-ordered) by its
// numeric index.
func listElementPath(l *schema.List, item value.Value, index int) (fieldpath.PathElement, error) {
	switch {
	case l.IsSet():
		if value.IsScalar(item) {
			return fieldpath.ValueElement(item), nil
		}
		return fieldpath.PathElement{}, fmt.Errorf("set element at index %d is not a scalar", index)
	case len(l.Keys) > 0:
		if !item.IsMap() {
			return fieldpath.PathElement{}, fmt.Errorf("associative element at index %d is not a map", index)
		}
		fields := make([]fieldpath.KeyField, 0, len(l.Keys))
		m := item.Map()
		for _, k := range l.Keys {
			kv, ok := m.Get(k)
			if !ok {
				return fieldpath.PathElement{}, fmt.Errorf("associative element at index %d missing key field %q", index, k)
			}
			fields = append(fields, fieldpath.KeyField{Name: k, Value: kv})
		}
		return fieldpath.Key(fields), nil
	default:
		return fieldpath.Index(index), nil
	}
}
