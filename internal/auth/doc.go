// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package auth creates Entra token credentials from well-known ARM
// environment variables.
package auth
