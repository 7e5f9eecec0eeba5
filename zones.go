// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import "strings"

// regionZones maps normalized region names to the availability zones that a
// frontend IP configuration is spread across in that region.
// Regions not present in the table get no zone assignment.
var regionZones = map[string][]string{
	"eastus":         {"1", "2", "3"},
	"southcentralus": {"1", "2", "3"},
}

// ZonesForRegion returns the availability zones for the supplied region, or
// nil if the region has no zone assignment.
// Region names are compared case-insensitively and ignoring spaces, so
// "East US" and "eastus" are equivalent.
func ZonesForRegion(location string) []string {
	zones, ok := regionZones[normalizeRegion(location)]
	if !ok {
		return nil
	}
	res := make([]string, len(zones))
	copy(res, zones)
	return res
}

func normalizeRegion(location string) string {
	return strings.ReplaceAll(strings.ToLower(location), " ", "")
}
