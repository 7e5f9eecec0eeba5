// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package to

// Ptr returns a pointer to the supplied value.
func Ptr[T any](v T) *T {
	return &v
}

// ValOrZero returns the value of the pointer or the zero value of the type if the pointer is nil.
func ValOrZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// SliceOfPtrs returns a slice of pointers to copies of the supplied values.
func SliceOfPtrs[T any](vv ...T) []*T {
	res := make([]*T, len(vv))
	for i := range vv {
		res[i] = Ptr(vv[i])
	}
	return res
}
