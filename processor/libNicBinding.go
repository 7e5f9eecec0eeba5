// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package processor

// LibNicBinding represents a NIC binding definition file.
// Each binding maps one IP configuration of an existing network interface
// into the backend pool of the referenced load balancer.
type LibNicBinding struct {
	Name            string `json:"name"             yaml:"name"`
	LoadBalancer    string `json:"load_balancer"    yaml:"load_balancer"`
	SubscriptionId  string `json:"subscription_id"  yaml:"subscription_id"`
	ResourceGroup   string `json:"resource_group"   yaml:"resource_group"`
	NicId           string `json:"nic_id"           yaml:"nic_id"`
	IpConfiguration string `json:"ip_configuration" yaml:"ip_configuration"`
}
