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

package merge

import (
	"fmt"
	"sort"
	"strings"

	"sigs.k8s.io/typed-merge/fieldpath"
)

// Conflict names one leaf the applier's claim overlaps, and who
// currently owns it (spec.md §7).
type Conflict struct {
	Manager string
	Path    fieldpath.Path
}

// ConflictsError is returned by Apply when force is false and the
// applier's claimed leaves overlap leaves owned by other managers at
// values that would change. Neither the result object nor managers are
// mutated when this is returned (spec.md §7).
type ConflictsError struct {
	Conflicts []Conflict
}

func (e *ConflictsError) Error() string {
	sorted := append([]Conflict(nil), e.Conflicts...)
	sort.Slice(sorted, func(i, j int) bool {
		if fieldpath.PathLess(sorted[i].Path, sorted[j].Path) {
			return true
		}
		if fieldpath.PathLess(sorted[j].Path, sorted[i].Path) {
			return false
		}
		return sorted[i].Manager < sorted[j].Manager
	})
	lines := make([]string, len(sorted))
	managers := map[string]bool{}
	for i, c := range sorted {
		lines[i] = fmt.Sprintf("%s: %s", c.Manager, fieldpath.Serialize(c.Path))
		managers[c.Manager] = true
	}
	return fmt.Sprintf("conflicts with %d field manager(s):\n%s", len(managers), strings.Join(lines, "\n"))
}

// VersionMismatchError is returned when an object must be converted
// between API versions but no Converter was configured.
type VersionMismatchError struct {
	From, To string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: no converter registered to convert from %q to %q", e.From, e.To)
}

// ConversionFailedError wraps an error a Converter returned.
type ConversionFailedError struct {
	From, To string
	Cause    error
}

func (e *ConversionFailedError) Error() string {
	return fmt.Sprintf("converting from %q to %q: %v", e.From, e.To, e.Cause)
}

func (e *ConversionFailedError) Unwrap() error { return e.Cause }

// SchemaErrorKind reports a malformed schema document or an unresolved
// type reference encountered while orchestrating an operation.
type SchemaErrorKind struct {
	Detail string
}

func (e *SchemaErrorKind) Error() string { return "schema error: " + e.Detail }

// InternalInvariantError reports a walker producing a set that violates
// the atomicity invariant -- treated as a bug; it must never occur on
// valid inputs (spec.md §7).
type InternalInvariantError struct {
	Detail string
}

func (e *InternalInvariantError) Error() string { return "internal invariant violated: " + e.Detail }
