// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package processor reads ILB library files from an fs.FS and classifies them
// by their file name suffix. The resulting maps of schema types are consumed
// by the ilblib package, which performs cross-reference validation.
package processor
