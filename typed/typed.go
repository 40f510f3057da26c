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

// Package typed walks a value.Value against a schema.Schema, producing
// the field-level operations (Validate, Compare, Merge, RemoveItems,
// ExtractItems, ToFieldSet) that merge and managedfields build on.
package typed

import (
	"errors"
	"fmt"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/internal/utilerrors"
	"sigs.k8s.io/typed-merge/schema"
	"sigs.k8s.io/typed-merge/value"
)

// TypedValue is a value.Value interpreted against one type in a schema.
// It is the unit every walker operates on.
type TypedValue struct {
	value   value.Value
	typeRef schema.TypeRef
	schema  *schema.Schema
}

// AsTyped pairs v with the named type in s, validating it first.
func AsTyped(v value.Value, s *schema.Schema, typeName string) (*TypedValue, error) {
	tv := &TypedValue{value: v, typeRef: schema.TypeRef{NamedType: typeName}, schema: s}
	if err := tv.Validate(); err != nil {
		return nil, err
	}
	return tv, nil
}

// AsTypedUnvalidated is AsTyped without the validation pass, for
// internal use where the caller already knows the value conforms (for
// example, a sub-value produced by a previous validated walk).
func AsTypedUnvalidated(v value.Value, s *schema.Schema, ref schema.TypeRef) *TypedValue {
	return &TypedValue{value: v, typeRef: ref, schema: s}
}

// AsValue returns the underlying value.Value.
func (tv *TypedValue) AsValue() value.Value { return tv.value }

// Schema returns the schema tv was validated against.
func (tv *TypedValue) Schema() *schema.Schema { return tv.schema }

// TypeRef returns the type tv is interpreted as.
func (tv *TypedValue) TypeRef() schema.TypeRef { return tv.typeRef }

func (tv *TypedValue) atom() (schema.Atom, error) {
	atom, err := tv.schema.Resolve(tv.typeRef)
	if err != nil {
		return schema.Atom{}, fmt.Errorf("schema error: %w", err)
	}
	return atom, nil
}

// errorFormatter accumulates validation errors with their field paths,
// the way fieldmanager-adjacent validators do, so a caller sees every
// offending leaf instead of only the first.
type errorFormatter struct {
	path fieldpath.Path
	errs []FieldError
}

func (e *errorFormatter) errorf(format string, args ...interface{}) {
	e.errs = append(e.errs, FieldError{Path: e.path, Reason: fmt.Sprintf(format, args...)})
}

func (e *errorFormatter) descend(pe fieldpath.PathElement) *errorFormatter {
	return &errorFormatter{path: e.path.Append(pe)}
}

func (e *errorFormatter) error() error {
	if len(e.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: e.errs}
}

// FieldError is one (path, reason) validation failure, per spec.md §7's
// ValidationError(list of (path, reason)).
type FieldError struct {
	Path   fieldpath.Path
	Reason string
}

func (f FieldError) String() string {
	if len(f.Path) == 0 {
		return f.Reason
	}
	return fmt.Sprintf("%s: %s", fieldpath.Serialize(f.Path), f.Reason)
}

// ValidationError reports every field path that failed to validate
// against its schema type.
type ValidationError struct {
	Errors []FieldError
}

// Messages renders each FieldError as "<path>: <reason>", for callers
// that only want the formatted strings.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.String()
	}
	return out
}

func (e *ValidationError) Error() string {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = errors.New(fe.String())
	}
	agg := utilerrors.NewAggregate(errs)
	if len(e.Errors) == 1 {
		return "validation error: " + agg.Error()
	}
	s := fmt.Sprintf("%d validation errors:", len(e.Errors))
	for _, m := range agg.Errors() {
		s += "\n  " + m.Error()
	}
	return s
}
