// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package assets contains thin typed wrappers around the Azure SDK network
// types, together with validation helpers for the properties that the
// deployment package relies on.
package assets
