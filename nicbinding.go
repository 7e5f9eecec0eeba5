// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"fmt"

	"github.com/Azure/ilblib/assets"
	"github.com/Azure/ilblib/processor"
)

const networkInterfaceIdFmt = "/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/networkInterfaces/%s"

// NicBinding maps one IP configuration of an existing network interface into
// the backend pool of a load balancer. One binding produces exactly one
// backend pool association.
type NicBinding struct {
	Name                string
	LoadBalancer        string
	SubscriptionId      string
	ResourceGroup       string
	NicId               string
	IpConfigurationName string
}

// newNicBinding creates a canonical NicBinding from the processor schema type.
// When a full NIC resource ID is supplied, the subscription and resource group
// are taken from it; otherwise they must be declared and the ID is composed.
func newNicBinding(lib *processor.LibNicBinding) (*NicBinding, error) {
	nb := &NicBinding{
		Name:                lib.Name,
		LoadBalancer:        lib.LoadBalancer,
		SubscriptionId:      lib.SubscriptionId,
		ResourceGroup:       lib.ResourceGroup,
		NicId:               lib.NicId,
		IpConfigurationName: lib.IpConfiguration,
	}
	if nb.LoadBalancer == "" {
		return nil, fmt.Errorf("newNicBinding: NIC binding %s has no load_balancer", nb.Name)
	}
	if nb.IpConfigurationName == "" {
		nb.IpConfigurationName = DefaultIpConfigurationName
	}

	if nb.NicId != "" {
		sub, err := assets.SubscriptionFromResourceId(nb.NicId)
		if err != nil {
			return nil, fmt.Errorf("newNicBinding: NIC binding %s: %w", nb.Name, err)
		}
		rg, err := assets.ResourceGroupFromResourceId(nb.NicId)
		if err != nil {
			return nil, fmt.Errorf("newNicBinding: NIC binding %s: %w", nb.Name, err)
		}
		typ, err := assets.ResourceTypeFromResourceId(nb.NicId)
		if err != nil {
			return nil, fmt.Errorf("newNicBinding: NIC binding %s: %w", nb.Name, err)
		}
		if typ != "networkInterfaces" {
			return nil, fmt.Errorf("newNicBinding: NIC binding %s: nic_id is not a network interface: %s", nb.Name, nb.NicId)
		}
		nb.SubscriptionId = sub
		nb.ResourceGroup = rg
		return nb, nil
	}

	if nb.SubscriptionId == "" || nb.ResourceGroup == "" {
		return nil, fmt.Errorf("newNicBinding: NIC binding %s must declare either nic_id or subscription_id and resource_group", nb.Name)
	}
	nb.NicId = fmt.Sprintf(networkInterfaceIdFmt, nb.SubscriptionId, nb.ResourceGroup, nb.Name)
	return nb, nil
}

// NicName returns the name of the network interface.
func (nb *NicBinding) NicName() (string, error) {
	return assets.NameFromResourceId(nb.NicId)
}

// IpConfigurationId returns the resource ID of the bound IP configuration.
func (nb *NicBinding) IpConfigurationId() string {
	return fmt.Sprintf("%s/ipConfigurations/%s", nb.NicId, nb.IpConfigurationName)
}
