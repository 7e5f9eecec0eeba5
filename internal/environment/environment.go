// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package environment contains the types and methods for fetching configuration from the local environment.
package environment

import "os"

const (
	fetchDefaultBaseDir    = ".ilblib"                        // fetchDefaultBaseDir is the default base directory for fetching libraries.
	fetchDefaultBaseDirEnv = "ILBLIB_DIR"                     // fetchDefaultBaseDirEnv is the environment variable to override the default base directory.
	ilbLibraryGitUrl       = "github.com/Azure/ilblib-library" // ilbLibraryGitUrl is the URL of the ILB library repository.
	ilbLibraryGitUrlEnv    = "ILBLIB_LIBRARY_GIT_URL"         // ilbLibraryGitUrlEnv is the environment variable to override the default git URL.
)

// IlbLibDir contents of the `ILBLIB_DIR` environment variable, or the default which is `.ilblib`.
func IlbLibDir() string {
	dir := fetchDefaultBaseDir
	if d := os.Getenv(fetchDefaultBaseDirEnv); d != "" {
		dir = d
	}
	return dir
}

// IlbLibraryGitUrl contents of the `ILBLIB_LIBRARY_GIT_URL` environment variable, or the default which is `github.com/Azure/ilblib-library`.
func IlbLibraryGitUrl() string {
	url := ilbLibraryGitUrl
	if u := os.Getenv(ilbLibraryGitUrlEnv); u != "" {
		url = u
	}
	return url
}
