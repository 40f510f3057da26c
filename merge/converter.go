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

import "sigs.k8s.io/typed-merge/typed"

// Converter translates a TypedValue between two API versions, the way
// a CustomResourceConversion webhook or a versioned Go type's
// ConvertTo/ConvertFrom pair does in a real API server. Apply and
// Update use it to bring the supplied config or desired object to the
// Updater's HubVersion before operating (live is taken as already at
// the hub version), and to re-express another manager's owned set in
// the hub version's schema when reconciling (spec.md §4.H's "normalize
// versions").
type Converter interface {
	Convert(tv *typed.TypedValue, from, to string) (*typed.TypedValue, error)
}

// IgnoreFilter removes fields a particular version's API never exposes
// (for example server-managed status subresources) before they take
// part in conflict detection or merging, the way a field manager's
// "managed fields that should be ignored" list does (spec.md §5).
type IgnoreFilter interface {
	Strip(tv *typed.TypedValue, version string) (*typed.TypedValue, error)
}

// sameVersionConverter is used when an Updater has no Converter
// configured: every conversion is a no-op unless the versions actually
// differ, in which case it is a VersionMismatchError.
type sameVersionConverter struct{}

func (sameVersionConverter) Convert(tv *typed.TypedValue, from, to string) (*typed.TypedValue, error) {
	if from == to {
		return tv, nil
	}
	return nil, &VersionMismatchError{From: from, To: to}
}

func (u *Updater) convert(tv *typed.TypedValue, from, to string) (*typed.TypedValue, error) {
	if from == to {
		return tv, nil
	}
	conv := u.Converter
	if conv == nil {
		conv = sameVersionConverter{}
	}
	out, err := conv.Convert(tv, from, to)
	if err != nil {
		if _, ok := err.(*VersionMismatchError); ok {
			return nil, err
		}
		return nil, &ConversionFailedError{From: from, To: to, Cause: err}
	}
	return out, nil
}

func (u *Updater) strip(tv *typed.TypedValue, version string) (*typed.TypedValue, error) {
	if u.IgnoreFilters == nil {
		return tv, nil
	}
	f, ok := u.IgnoreFilters[version]
	if !ok || f == nil {
		return tv, nil
	}
	out, err := f.Strip(tv, version)
	if err != nil {
		return nil, err
	}
	return out, nil
}
