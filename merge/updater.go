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

// Package merge is the orchestrator: it wires schema, fieldpath,
// typed and managedfields together into the Apply/Update/ExtractApply
// operations of spec.md §4.H, the same role
// sigs.k8s.io/structured-merge-diff/v4/merge plays for the Kubernetes
// API server's field manager.
package merge

import (
	"k8s.io/klog/v2"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/managedfields"
	"sigs.k8s.io/typed-merge/typed"
)

// Updater runs the field-manager algorithm for one type. HubVersion is
// the API version owned sets are stored and conflicts are computed in;
// if empty, whatever version is passed to Apply/Update is used
// directly and no cross-version bridging occurs. Converter and
// IgnoreFilters are both optional collaborators (spec.md §6).
type Updater struct {
	HubVersion    string
	Converter     Converter
	IgnoreFilters map[string]IgnoreFilter
}

func (u *Updater) hubVersion(requested string) string {
	if u.HubVersion != "" {
		return u.HubVersion
	}
	return requested
}

// Apply performs a server-side-apply update: config, supplied by
// manager at API version version, is merged into live. Any leaf
// config claims that another manager currently owns and that would
// actually change value is a conflict; with force set to false,
// Apply returns a *ConflictsError and leaves live and managers
// untouched. With force true (or no conflicts), the merge proceeds,
// fields manager previously claimed via Apply but no longer claims are
// pruned from the result, ownership of every field in config moves to
// manager, and managers is updated to record the new Apply entry
// (spec.md §4.H).
func (u *Updater) Apply(live, config *typed.TypedValue, version string, managers *managedfields.Registry, manager string, force bool) (*typed.TypedValue, *managedfields.Registry, error) {
	hub := u.hubVersion(version)

	config, err := u.convert(config, version, hub)
	if err != nil {
		return nil, nil, err
	}
	config, err = u.strip(config, hub)
	if err != nil {
		return nil, nil, err
	}
	live, err = u.strip(live, hub)
	if err != nil {
		return nil, nil, err
	}

	newOwned, err := config.ToFieldSet()
	if err != nil {
		return nil, nil, err
	}

	// Tentatively compute the merge result so conflicts are judged
	// against what would actually change, not merely what config
	// mentions (spec.md §4.H step 4).
	merged, err := live.Merge(config)
	if err != nil {
		return nil, nil, err
	}
	cmp, err := live.Compare(merged)
	if err != nil {
		return nil, nil, err
	}
	changing := cmp.Modified.Union(cmp.Removed)

	applyKey := managedfields.ManagerKey{Name: manager, Operation: managedfields.Apply}
	previous, hadPrevious := managers.Get(applyKey)

	conflicts, reconciled, err := u.detectConflicts(live, managers, applyKey, newOwned, changing, hub)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 && !force {
		return nil, nil, &ConflictsError{Conflicts: conflicts}
	}

	var dropped *fieldpath.Set
	if hadPrevious {
		dropped = previous.Set.Difference(newOwned)
		if !dropped.Empty() {
			merged, err = merged.RemoveItems(dropped)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	out := managers.Clone()
	for key, theirSet := range reconciled {
		if key == applyKey {
			continue
		}
		remaining := theirSet.Difference(newOwned)
		if dropped != nil {
			remaining = remaining.Difference(dropped)
		}
		vs, _ := out.Get(key)
		if remaining.Empty() {
			out.Remove(key)
			continue
		}
		// theirSet is now expressed in hub's schema regardless of what
		// version it was recorded at; store it that way so it is not
		// reconciled a second time on the next operation.
		vs.Set, vs.Version = remaining, hub
		if err := out.Insert(key, vs); err != nil {
			return nil, nil, err
		}
	}
	if err := out.Insert(applyKey, managedfields.VersionedSet{Set: newOwned, Version: hub, Applied: true}); err != nil {
		return nil, nil, err
	}

	klog.V(4).InfoS("applied field set", "manager", manager, "fields", newOwned.Size(), "conflicts", len(conflicts), "forced", force && len(conflicts) > 0)
	return merged, out, nil
}

// detectConflicts reconciles every other manager's owned set into hub
// and reports every leaf in changing that both newOwned and another
// manager's reconciled set claim. It returns the reconciled sets
// keyed by ManagerKey (including entries that needed no reconciling)
// so Apply can reuse them for rebalancing without recomputing.
func (u *Updater) detectConflicts(live *typed.TypedValue, managers *managedfields.Registry, applyKey managedfields.ManagerKey, newOwned, changing *fieldpath.Set, hub string) ([]Conflict, map[managedfields.ManagerKey]*fieldpath.Set, error) {
	reconciled := map[managedfields.ManagerKey]*fieldpath.Set{}
	var conflicts []Conflict
	var walkErr error
	managers.Iterate(func(key managedfields.ManagerKey, vs managedfields.VersionedSet) {
		if walkErr != nil || key == applyKey {
			return
		}
		theirs, err := u.reconcileOwned(live, vs, hub)
		if err != nil {
			walkErr = err
			return
		}
		reconciled[key] = theirs
		if key.Name == applyKey.Name {
			// A manager can never conflict with its own prior claims,
			// whichever operation key they are recorded under.
			return
		}
		overlap := theirs.Intersection(newOwned).Intersection(changing)
		overlap.Iterate(func(p fieldpath.Path) {
			conflicts = append(conflicts, Conflict{Manager: key.Name, Path: p})
		})
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return conflicts, reconciled, nil
}

// reconcileOwned re-expresses vs.Set -- recorded at vs.Version -- in
// terms of live's schema at hub, per spec.md §4.F. When the versions
// already match, the set is returned as-is.
func (u *Updater) reconcileOwned(live *typed.TypedValue, vs managedfields.VersionedSet, hub string) (*fieldpath.Set, error) {
	if vs.Version == "" || vs.Version == hub {
		return vs.Set, nil
	}
	oldTyped, err := u.convert(live, hub, vs.Version)
	if err != nil {
		if _, ok := err.(*VersionMismatchError); ok {
			// No way to reconcile this manager's claim; keep it as
			// recorded rather than silently discarding ownership.
			return vs.Set, nil
		}
		return nil, err
	}
	reconciledSet, _, err := typed.ReconcileFieldSet(vs.Set, oldTyped.Schema(), oldTyped.TypeRef(), live.Schema(), live.TypeRef(), live.AsValue())
	if err != nil {
		return nil, err
	}
	return reconciledSet, nil
}

// Update performs a direct, non-apply write: desired entirely replaces
// live's content. Every leaf desired adds, changes, or removes relative
// to live is stripped from every other manager's entry, since this
// write implicitly asserts authority over whatever it touched. The
// leaves it adds or changes move to manager's Update entry; the leaves
// it removes are dropped from that entry as well (spec.md §4.H).
func (u *Updater) Update(live, desired *typed.TypedValue, version string, managers *managedfields.Registry, manager string) (*typed.TypedValue, *managedfields.Registry, error) {
	hub := u.hubVersion(version)

	desired, err := u.convert(desired, version, hub)
	if err != nil {
		return nil, nil, err
	}
	desired, err = u.strip(desired, hub)
	if err != nil {
		return nil, nil, err
	}
	live, err = u.strip(live, hub)
	if err != nil {
		return nil, nil, err
	}

	cmp, err := live.Compare(desired)
	if err != nil {
		return nil, nil, err
	}
	changed := cmp.Added.Union(cmp.Modified).Union(cmp.Removed)

	out := managers.Clone()
	updateKey := managedfields.ManagerKey{Name: manager, Operation: managedfields.Update}
	var walkErr error
	managers.Iterate(func(key managedfields.ManagerKey, vs managedfields.VersionedSet) {
		if walkErr != nil || key == updateKey {
			return
		}
		theirs, err := u.reconcileOwned(live, vs, hub)
		if err != nil {
			walkErr = err
			return
		}
		remaining := theirs.Difference(changed)
		if remaining.Empty() {
			out.Remove(key)
			return
		}
		vs.Set, vs.Version = remaining, hub
		if err := out.Insert(key, vs); err != nil {
			walkErr = err
		}
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	existing, _ := out.Get(updateKey)
	var base *fieldpath.Set
	if existing.Set != nil {
		base = existing.Set.Difference(cmp.Removed)
	} else {
		base = &fieldpath.Set{}
	}
	newSet := base.Union(cmp.Added).Union(cmp.Modified)
	if err := out.Insert(updateKey, managedfields.VersionedSet{Set: newSet, Version: hub, Applied: false}); err != nil {
		return nil, nil, err
	}

	klog.V(4).InfoS("updated object", "manager", manager, "changed", changed.Size())
	return desired, out, nil
}

// ExtractApply reconstructs manager's current Apply entry as a
// standalone object -- the configuration that, if re-applied, would
// claim exactly the fields manager already owns -- merges cfg on top
// of it, and applies the result. This is how a caller amends its own
// previously-applied configuration without first fetching and
// re-submitting the whole thing (spec.md §4.H).
func (u *Updater) ExtractApply(live, cfg *typed.TypedValue, version string, managers *managedfields.Registry, manager string, force bool) (*typed.TypedValue, *managedfields.Registry, error) {
	hub := u.hubVersion(version)
	applyKey := managedfields.ManagerKey{Name: manager, Operation: managedfields.Apply}
	vs, ok := managers.Get(applyKey)
	if !ok {
		return u.Apply(live, cfg, version, managers, manager, force)
	}
	owned, err := u.reconcileOwned(live, vs, hub)
	if err != nil {
		return nil, nil, err
	}
	base, err := live.ExtractItems(owned)
	if err != nil {
		return nil, nil, err
	}
	cfg, err = u.convert(cfg, version, hub)
	if err != nil {
		return nil, nil, err
	}
	merged, err := base.Merge(cfg)
	if err != nil {
		return nil, nil, err
	}
	return u.Apply(live, merged, hub, managers, manager, force)
}
