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

// Package managedfields is the registry of per-manager ownership:
// spec.md §3's ManagedFields, mapping (manager name, operation) to a
// VersionedSet of owned leaves.
package managedfields

import (
	"fmt"
	"sort"

	"sigs.k8s.io/typed-merge/fieldpath"
)

// Operation names which of the two ways a manager can take ownership of
// a leaf: declaring it in an SSA apply, or changing it imperatively.
type Operation string

const (
	Apply  Operation = "Apply"
	Update Operation = "Update"
)

// ManagerKey identifies one entry in a Registry: a manager can hold at
// most one Apply entry and one Update entry (spec.md §3).
type ManagerKey struct {
	Name      string
	Operation Operation
}

func (k ManagerKey) String() string {
	return fmt.Sprintf("%s(%s)", k.Name, k.Operation)
}

// VersionedSet is an owned set interpreted at a specific API version;
// Applied is true iff it came from an SSA apply rather than an Update.
type VersionedSet struct {
	Set     *fieldpath.Set
	Version string
	Applied bool
}

// Equals reports whether two VersionedSets carry the same paths, the
// same version, and the same Applied flag.
func (v VersionedSet) Equals(other VersionedSet) bool {
	if v.Version != other.Version || v.Applied != other.Applied {
		return false
	}
	return setOrEmpty(v.Set).Equals(setOrEmpty(other.Set))
}

func setOrEmpty(s *fieldpath.Set) *fieldpath.Set {
	if s == nil {
		return &fieldpath.Set{}
	}
	return s
}

// DefaultMaxManagers bounds how many (manager, operation) entries a
// Registry tracks before it starts evicting, guarding a shared object against
// unbounded manager-name churn (spec.md's supplemented field-manager
// identity capping -- see SPEC_FULL.md).
const DefaultMaxManagers = 512

// DefaultMaxManagerNameLength caps a single manager name, for the same
// reason.
const DefaultMaxManagerNameLength = 256

// Registry is an ordered mapping from ManagerKey to VersionedSet.
// Iteration order is insertion order for reproducible output; building
// one from scratch is safe from multiple goroutines only for disjoint
// Registries (spec.md §5 -- each Apply/Update call owns a Registry for
// the duration of the operation).
type Registry struct {
	MaxManagers          int
	MaxManagerNameLength int

	order   []ManagerKey
	entries map[ManagerKey]VersionedSet
}

// NewRegistry returns an empty Registry with the default caps.
func NewRegistry() *Registry {
	return &Registry{
		MaxManagers:          DefaultMaxManagers,
		MaxManagerNameLength: DefaultMaxManagerNameLength,
		entries:              map[ManagerKey]VersionedSet{},
	}
}

// Insert records vs under key, evicting the least-recently-updated
// Update entry first if the registry is at MaxManagers and key is not
// already present. Apply entries are never auto-evicted:
// an applier's ownership is sticky per spec.md's field-manager identity
// capping.
func (r *Registry) Insert(key ManagerKey, vs VersionedSet) error {
	if r.entries == nil {
		r.entries = map[ManagerKey]VersionedSet{}
	}
	maxLen := r.MaxManagerNameLength
	if maxLen == 0 {
		maxLen = DefaultMaxManagerNameLength
	}
	if len(key.Name) > maxLen {
		return fmt.Errorf("managedfields: manager name %q exceeds the maximum length of %d", key.Name, maxLen)
	}
	if _, exists := r.entries[key]; !exists {
		max := r.MaxManagers
		if max == 0 {
			max = DefaultMaxManagers
		}
		if len(r.order) >= max {
			if !r.evictOldestUpdate() {
				return fmt.Errorf("managedfields: registry is at its %d-manager limit and has no Update entry to evict", max)
			}
		}
		r.order = append(r.order, key)
	} else {
		r.touch(key)
	}
	r.entries[key] = vs
	return nil
}

// touch moves key to the back of the insertion order, marking it most
// recently updated for eviction purposes.
func (r *Registry) touch(key ManagerKey) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.order = append(r.order, key)
}

func (r *Registry) evictOldestUpdate() bool {
	for i, k := range r.order {
		if k.Operation == Update {
			delete(r.entries, k)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the VersionedSet stored for key, if any.
func (r *Registry) Get(key ManagerKey) (VersionedSet, bool) {
	vs, ok := r.entries[key]
	return vs, ok
}

// Remove deletes key from the registry.
func (r *Registry) Remove(key ManagerKey) {
	if _, ok := r.entries[key]; !ok {
		return
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Iterate calls fn once per entry, in insertion order.
func (r *Registry) Iterate(fn func(ManagerKey, VersionedSet)) {
	for _, k := range r.order {
		fn(k, r.entries[k])
	}
}

// Keys returns every ManagerKey currently stored, in insertion order.
func (r *Registry) Keys() []ManagerKey {
	out := make([]ManagerKey, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many entries the registry holds.
func (r *Registry) Len() int { return len(r.order) }

// Clone returns a deep copy of r, safe to mutate independently.
func (r *Registry) Clone() *Registry {
	out := &Registry{
		MaxManagers:          r.MaxManagers,
		MaxManagerNameLength: r.MaxManagerNameLength,
		order:                append([]ManagerKey(nil), r.order...),
		entries:              make(map[ManagerKey]VersionedSet, len(r.entries)),
	}
	for k, v := range r.entries {
		out.entries[k] = v
	}
	return out
}

// Difference returns, per manager key, the symmetric difference of the
// underlying sets between r and other (spec.md §4.G).
func (r *Registry) Difference(other *Registry) map[ManagerKey]*fieldpath.Set {
	out := map[ManagerKey]*fieldpath.Set{}
	seen := map[ManagerKey]bool{}
	consider := func(k ManagerKey) {
		if seen[k] {
			return
		}
		seen[k] = true
		a, _ := r.Get(k)
		b, _ := other.Get(k)
		d := setOrEmpty(a.Set).Difference(setOrEmpty(b.Set)).Union(setOrEmpty(b.Set).Difference(setOrEmpty(a.Set)))
		if !d.Empty() {
			out[k] = d
		}
	}
	for _, k := range r.order {
		consider(k)
	}
	for _, k := range other.order {
		consider(k)
	}
	return out
}

// Equals reports whether r and other carry the same keys, each with an
// equal VersionedSet (spec.md §4.G).
func (r *Registry) Equals(other *Registry) bool {
	if r.Len() != other.Len() {
		return false
	}
	for _, k := range r.order {
		a, _ := r.Get(k)
		b, ok := other.Get(k)
		if !ok || !a.Equals(b) {
			return false
		}
	}
	return true
}

// SortedKeys returns the registry's keys sorted by (name, operation),
// for deterministic textual output (e.g. the CLI's `fields` command).
func (r *Registry) SortedKeys() []ManagerKey {
	out := r.Keys()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}
