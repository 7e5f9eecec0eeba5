// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-getter/v2"

	"github.com/Azure/ilblib/internal/environment"
	"github.com/Azure/ilblib/processor"
)

// FetchIlbLibraryMember fetches a member of the ILB library repository by its
// path and tag, e.g. "networking/ilb" and "2024.03.0".
func FetchIlbLibraryMember(ctx context.Context, destinationDirectory, path, ref string) (fs.FS, error) {
	q := fmt.Sprintf("%s//%s?ref=%s/%s", environment.IlbLibraryGitUrl(), path, path, ref)
	return FetchLibraryByGetterString(ctx, q, destinationDirectory)
}

// FetchLibraryByGetterString fetches a library from a go-getter URL into a
// subdirectory of the base directory and returns it as an fs.FS.
// The destination directory is removed before fetching.
func FetchLibraryByGetterString(ctx context.Context, getterString, destinationDirectory string) (fs.FS, error) {
	dst := filepath.Join(environment.IlbLibDir(), destinationDirectory)
	if err := os.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("FetchLibraryByGetterString: error cleaning destination directory %s: %w", dst, err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("FetchLibraryByGetterString: error getting working directory: %w", err)
	}

	client := getter.Client{}
	req := &getter.Request{
		Src: getterString,
		Dst: dst,
		Pwd: wd,
	}
	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("FetchLibraryByGetterString: error fetching library from %s: %w", getterString, err)
	}
	return os.DirFS(res.Dst), nil
}

// FetchAllLibrariesWithDependencies takes a library reference, fetches it,
// then recursively fetches all of its dependencies.
// The returned LibraryReferences are ordered so that dependencies come before
// their dependents, ready to pass to IlbLib.Init via FSs().
//
// Example usage:
//
//	lib := ilblib.NewIlbLib()
//	thisLib := ilblib.NewCustomLibraryReference("path/to/library")
//	libs, err := ilblib.FetchAllLibrariesWithDependencies(ctx, 0, thisLib, make(ilblib.LibraryReferences, 0, 5))
//	// ... handle error
//	err = lib.Init(ctx, libs.FSs()...)
//	// ... handle error
func FetchAllLibrariesWithDependencies(ctx context.Context, i int, lib LibraryReference, libs LibraryReferences) (LibraryReferences, error) {
	f, err := lib.Fetch(ctx, strconv.Itoa(i))
	if err != nil {
		return nil, fmt.Errorf("FetchAllLibrariesWithDependencies: error fetching library %s: %w", lib.String(), err)
	}
	pc := processor.NewProcessorClient(f)
	libmeta, err := pc.Metadata()
	if err != nil {
		return nil, fmt.Errorf("FetchAllLibrariesWithDependencies: error reading metadata of library %s: %w", lib.String(), err)
	}
	meta := NewMetadata(libmeta)
	// for each dependency, recurse using this function
	for _, dep := range meta.Dependencies() {
		i++
		libs, err = FetchAllLibrariesWithDependencies(ctx, i, dep, libs)
		if err != nil {
			return nil, err
		}
	}
	// add the current library reference to the list
	return addLibraryReferenceToSlice(libs, lib), nil
}

// addLibraryReferenceToSlice adds a library reference to a slice if it does not already exist.
func addLibraryReferenceToSlice(libs LibraryReferences, lib LibraryReference) LibraryReferences {
	for _, l := range libs {
		if l.String() == lib.String() {
			return libs
		}
	}
	return append(libs, lib)
}
