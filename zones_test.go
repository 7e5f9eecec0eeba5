// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZonesForRegion(t *testing.T) {
	t.Parallel()
	tests := map[string][]string{
		"East US":          {"1", "2", "3"},
		"eastus":           {"1", "2", "3"},
		"EASTUS":           {"1", "2", "3"},
		"South Central US": {"1", "2", "3"},
		"southcentralus":   {"1", "2", "3"},
		"westeurope":       nil,
		"":                 nil,
	}
	for region, want := range tests {
		assert.Equal(t, want, ZonesForRegion(region), "region %q", region)
	}
}

func TestZonesForRegionReturnsCopy(t *testing.T) {
	t.Parallel()
	zones := ZonesForRegion("East US")
	zones[0] = "mutated"
	assert.Equal(t, []string{"1", "2", "3"}, ZonesForRegion("East US"))
}
