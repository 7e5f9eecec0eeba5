// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"context"
	"io/fs"
	"strings"

	"github.com/Azure/ilblib/processor"
)

// Metadata is the metadata of a library member, with its dependencies
// converted to fetchable references.
type Metadata struct {
	name         string
	displayName  string
	description  string
	dependencies []LibraryReference
}

// LibraryReference is an interface that represents a dependency of a library member.
// It can be fetched from either a custom go-getter URL or from the ILB library.
type LibraryReference interface {
	// Fetch fetches the library member into a subdirectory of the destination directory.
	Fetch(ctx context.Context, destinationDirectory string) (fs.FS, error)
	// FS returns the fetched filesystem, or nil when Fetch has not been called.
	FS() fs.FS
	String() string
}

// LibraryReferences is a slice of LibraryReference.
type LibraryReferences []LibraryReference

// FSs returns the filesystems of the library references, in order.
// Fetch must have been called on each reference first.
func (refs LibraryReferences) FSs() []fs.FS {
	res := make([]fs.FS, 0, len(refs))
	for _, ref := range refs {
		f := ref.FS()
		if f == nil {
			continue
		}
		res = append(res, f)
	}
	return res
}

var _ LibraryReference = (*IlbLibraryReference)(nil)
var _ LibraryReference = (*CustomLibraryReference)(nil)

// IlbLibraryReference represents a dependency that is fetched from the ILB library repository.
type IlbLibraryReference struct {
	path string
	ref  string
	fs   fs.FS
}

// NewIlbLibraryReference creates a reference to a member of the ILB library repository.
func NewIlbLibraryReference(path, ref string) *IlbLibraryReference {
	return &IlbLibraryReference{
		path: path,
		ref:  ref,
	}
}

// Fetch fetches the library member from the ILB library repository.
func (m *IlbLibraryReference) Fetch(ctx context.Context, destinationDirectory string) (fs.FS, error) {
	f, err := FetchIlbLibraryMember(ctx, destinationDirectory, m.path, m.ref)
	if err != nil {
		return nil, err
	}
	m.fs = f
	return f, nil
}

// FS returns the fetched filesystem, or nil when Fetch has not been called.
func (m *IlbLibraryReference) FS() fs.FS {
	return m.fs
}

// String returns the formatted path and the tag of the library member.
func (m *IlbLibraryReference) String() string {
	return strings.Join([]string{m.path, m.ref}, "@")
}

// CustomLibraryReference represents a dependency that is fetched from a custom go-getter URL.
type CustomLibraryReference struct {
	url string
	fs  fs.FS
}

// NewCustomLibraryReference creates a reference to a library at a custom go-getter URL.
func NewCustomLibraryReference(url string) *CustomLibraryReference {
	return &CustomLibraryReference{
		url: url,
	}
}

// Fetch fetches the library member from the custom go-getter URL.
func (m *CustomLibraryReference) Fetch(ctx context.Context, destinationDirectory string) (fs.FS, error) {
	f, err := FetchLibraryByGetterString(ctx, m.url, destinationDirectory)
	if err != nil {
		return nil, err
	}
	m.fs = f
	return f, nil
}

// FS returns the fetched filesystem, or nil when Fetch has not been called.
func (m *CustomLibraryReference) FS() fs.FS {
	return m.fs
}

// String returns the URL of the custom go-getter.
func (m *CustomLibraryReference) String() string {
	return m.url
}

// NewMetadata converts the processor metadata into a Metadata with fetchable dependencies.
func NewMetadata(in *processor.LibMetadata) *Metadata {
	dependencies := make([]LibraryReference, len(in.Dependencies))
	for i, dep := range in.Dependencies {
		dependencies[i] = NewMetadataDependencyFromProcessor(dep)
	}
	return &Metadata{
		name:         in.Name,
		displayName:  in.DisplayName,
		description:  in.Description,
		dependencies: dependencies,
	}
}

// NewMetadataDependencyFromProcessor converts a processor dependency into a LibraryReference.
func NewMetadataDependencyFromProcessor(in processor.LibMetadataDependency) LibraryReference {
	if in.CustomUrl != "" {
		return NewCustomLibraryReference(in.CustomUrl)
	}
	return NewIlbLibraryReference(in.Path, in.Ref)
}

// Name returns the name of the library member.
func (m *Metadata) Name() string {
	return m.name
}

// DisplayName returns the display name of the library member.
func (m *Metadata) DisplayName() string {
	return m.displayName
}

// Description returns the description of the library member.
func (m *Metadata) Description() string {
	return m.description
}

// Dependencies returns the dependencies of the library member.
func (m *Metadata) Dependencies() LibraryReferences {
	return m.dependencies
}
