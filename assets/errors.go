// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package assets

import "fmt"

var _ error = (*ErrPropertyMustNotBeNil)(nil)
var _ error = (*ErrCardinality)(nil)

// ErrPropertyMustNotBeNil is an error type that indicates a required property is nil.
type ErrPropertyMustNotBeNil struct {
	PropertyName string
}

// Error implements the error interface for type ErrPropertyMustNotBeNil.
func (e *ErrPropertyMustNotBeNil) Error() string {
	return fmt.Sprintf("property '%s' must not be nil", e.PropertyName)
}

// NewErrPropertyMustNotBeNil creates a new ErrPropertyMustNotBeNil error.
func NewErrPropertyMustNotBeNil(propertyName string) error {
	return &ErrPropertyMustNotBeNil{PropertyName: propertyName}
}

// ErrCardinality is an error type that indicates a collection property has an
// unexpected number of elements.
type ErrCardinality struct {
	PropertyName string
	Expected     int
	Actual       int
}

// Error implements the error interface for type ErrCardinality.
func (e *ErrCardinality) Error() string {
	return fmt.Sprintf("property '%s' must have exactly %d element(s), got %d", e.PropertyName, e.Expected, e.Actual)
}

// NewErrCardinality creates a new ErrCardinality error.
func NewErrCardinality(propertyName string, expected, actual int) error {
	return &ErrCardinality{PropertyName: propertyName, Expected: expected, Actual: actual}
}
