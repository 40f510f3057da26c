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

// Package utilerrors aggregates multiple errors into one, modeled on
// k8s.io/apimachinery/pkg/util/errors.Aggregate -- reimplemented here
// rather than imported because apimachinery itself is not part of this
// module's dependency surface (see DESIGN.md).
package utilerrors

import "strings"

// Aggregate bundles independently-useful errors under a single error
// value with a deterministic, comma-joined (", ") message.
type Aggregate interface {
	error
	Errors() []error
}

type aggregate []error

// NewAggregate returns nil if errs has no non-nil entries, and an
// Aggregate wrapping the non-nil ones otherwise.
func NewAggregate(errs []error) Aggregate {
	var filtered []error
	for _, e := range errs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return aggregate(filtered)
}

func (a aggregate) Error() string {
	if len(a) == 1 {
		return a[0].Error()
	}
	seen := map[string]bool{}
	msgs := make([]string, 0, len(a))
	for _, e := range a {
		m := e.Error()
		if seen[m] {
			continue
		}
		seen[m] = true
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, ", ")
}

func (a aggregate) Errors() []error {
	return []error(a)
}
