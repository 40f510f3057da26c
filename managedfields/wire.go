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

package managedfields

import (
	"encoding/json"
	"fmt"
	"time"

	"sigs.k8s.io/typed-merge/fieldpath"
)

// Record is one entry of the ManagedFields wire array from spec.md §6:
// { manager, operation, apiVersion, time?, fieldsType, fieldsV1 }. Time
// is caller-supplied and display-only -- the core never invents one
// (spec.md §5, SPEC_FULL.md's "time is caller-supplied, never
// invented").
type Record struct {
	Manager    string         `json:"manager"`
	Operation  Operation      `json:"operation"`
	APIVersion string         `json:"apiVersion"`
	Time       *time.Time     `json:"time,omitempty"`
	FieldsType string         `json:"fieldsType"`
	FieldsV1   *fieldpath.Set `json:"fieldsV1"`
}

const fieldsTypeV1 = "FieldsV1"

// EncodeRecords renders r as the JSON array form of spec.md §6, in the
// order given.
func EncodeRecords(records []Record) ([]byte, error) {
	for i := range records {
		if records[i].FieldsType == "" {
			records[i].FieldsType = fieldsTypeV1
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding managed fields: %w", err)
	}
	return data, nil
}

// DecodeRecords parses the JSON array form of spec.md §6.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding managed fields: %w", err)
	}
	for i, r := range records {
		if r.FieldsType != "" && r.FieldsType != fieldsTypeV1 {
			return nil, fmt.Errorf("decoding managed fields: entry %d: unsupported fieldsType %q", i, r.FieldsType)
		}
	}
	return records, nil
}

// ToRegistry builds a Registry from a decoded record list, the
// inverse of FromRegistry.
func ToRegistry(records []Record) (*Registry, error) {
	reg := NewRegistry()
	for _, r := range records {
		set := r.FieldsV1
		if set == nil {
			set = &fieldpath.Set{}
		}
		key := ManagerKey{Name: r.Manager, Operation: r.Operation}
		if err := reg.Insert(key, VersionedSet{Set: set, Version: r.APIVersion, Applied: r.Operation == Apply}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// FromRegistry renders reg as the wire record list, sorted by (name,
// operation) for stable output.
func FromRegistry(reg *Registry) []Record {
	keys := reg.SortedKeys()
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		vs, _ := reg.Get(k)
		out = append(out, Record{
			Manager:    k.Name,
			Operation:  k.Operation,
			APIVersion: vs.Version,
			FieldsType: fieldsTypeV1,
			FieldsV1:   vs.Set,
		})
	}
	return out
}
