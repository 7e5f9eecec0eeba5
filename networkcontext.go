// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"errors"
	"fmt"

	"github.com/Azure/ilblib/processor"
)

const subnetIdFmt = "/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s/subnets/%s"

// NetworkContext identifies the virtual network and subnet that a load
// balancer frontend is bound to. The subnet always belongs to the named
// virtual network and resource group, as its resource ID is composed from
// them.
type NetworkContext struct {
	Name               string
	SubscriptionId     string
	ResourceGroup      string
	VirtualNetworkName string
	SubnetName         string
	Existing           bool
	// AddressSpace and SubnetAddressPrefix are only set for managed (non-existing) contexts.
	AddressSpace        []string
	SubnetAddressPrefix string
}

// newNetworkContext creates a canonical NetworkContext from the processor schema type.
func newNetworkContext(lib *processor.LibNetworkContext) (*NetworkContext, error) {
	if lib.SubscriptionId == "" {
		return nil, fmt.Errorf("newNetworkContext: network context %s has no subscription_id", lib.Name)
	}
	if lib.ResourceGroup == "" {
		return nil, fmt.Errorf("newNetworkContext: network context %s has no resource_group", lib.Name)
	}
	if lib.VirtualNetworkName == "" || lib.SubnetName == "" {
		return nil, fmt.Errorf("newNetworkContext: network context %s must name both a virtual network and a subnet", lib.Name)
	}
	if !lib.Existing && (len(lib.AddressSpace) == 0 || lib.SubnetAddressPrefix == "") {
		return nil, fmt.Errorf("newNetworkContext: managed network context %s must declare address_space and subnet_address_prefix", lib.Name)
	}
	if lib.Existing && (len(lib.AddressSpace) != 0 || lib.SubnetAddressPrefix != "") {
		return nil, fmt.Errorf("newNetworkContext: existing network context %s must not declare address prefixes", lib.Name)
	}
	return &NetworkContext{
		Name:                lib.Name,
		SubscriptionId:      lib.SubscriptionId,
		ResourceGroup:       lib.ResourceGroup,
		VirtualNetworkName:  lib.VirtualNetworkName,
		SubnetName:          lib.SubnetName,
		Existing:            lib.Existing,
		AddressSpace:        lib.AddressSpace,
		SubnetAddressPrefix: lib.SubnetAddressPrefix,
	}, nil
}

// SubnetId returns the resource ID of the subnet.
func (nc *NetworkContext) SubnetId() string {
	return fmt.Sprintf(subnetIdFmt, nc.SubscriptionId, nc.ResourceGroup, nc.VirtualNetworkName, nc.SubnetName)
}

// Validate checks the context is complete.
func (nc *NetworkContext) Validate() error {
	if nc == nil {
		return errors.New("NetworkContext.Validate: context is nil")
	}
	if nc.Name == "" || nc.SubscriptionId == "" || nc.ResourceGroup == "" || nc.VirtualNetworkName == "" || nc.SubnetName == "" {
		return fmt.Errorf("NetworkContext.Validate: context %s is incomplete", nc.Name)
	}
	return nil
}
