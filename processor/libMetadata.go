// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package processor

import "errors"

// LibMetadata represents the metadata of an ILB library member.
type LibMetadata struct {
	Name        string `json:"name"         yaml:"name"`         // The name of the library member
	DisplayName string `json:"display_name" yaml:"display_name"` // The display name of the library member
	Description string `json:"description"  yaml:"description"`  // The description of the library member
	// The dependencies of the library member, fetched before the member itself is processed.
	Dependencies []LibMetadataDependency `json:"dependencies" yaml:"dependencies"`
}

// LibMetadataDependency represents a dependency of a library member.
// Use either Path + Ref, or CustomUrl.
type LibMetadataDependency struct {
	// The relative path to the library member within the ILB library, e.g. "networking/ilb"
	Path string `json:"path" yaml:"path"`
	// The tag of the library member, e.g. "2024.03.0"
	Ref string `json:"ref" yaml:"ref"`
	// The custom URL (go-getter path) of the library member, used when the library member is not in the ILB library
	CustomUrl string `json:"custom_url" yaml:"custom_url"`
}

// Validate checks that the dependency uses exactly one of the two supported forms.
func (d LibMetadataDependency) Validate() error {
	switch {
	case d.Path != "" && d.Ref != "" && d.CustomUrl == "":
		return nil
	case d.Path == "" && d.Ref == "" && d.CustomUrl != "":
		return nil
	}
	return errors.New("LibMetadataDependency.Validate: dependency must be either path & ref, or custom_url")
}
