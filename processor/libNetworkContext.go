// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package processor

// LibNetworkContext represents a network context definition file.
// It identifies the virtual network and subnet that a load balancer frontend
// is bound to. When Existing is true the virtual network and subnet are
// looked up rather than declared.
type LibNetworkContext struct {
	Name               string `json:"name"                 yaml:"name"`
	SubscriptionId     string `json:"subscription_id"      yaml:"subscription_id"`
	ResourceGroup      string `json:"resource_group"       yaml:"resource_group"`
	VirtualNetworkName string `json:"virtual_network_name" yaml:"virtual_network_name"`
	SubnetName         string `json:"subnet_name"          yaml:"subnet_name"`
	Existing           bool   `json:"existing"             yaml:"existing"`
	// AddressSpace and SubnetAddressPrefix are only used when Existing is false.
	AddressSpace        []string `json:"address_space,omitempty"         yaml:"address_space,omitempty"`
	SubnetAddressPrefix string   `json:"subnet_address_prefix,omitempty" yaml:"subnet_address_prefix,omitempty"`
}
