// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package assets

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/ilblib/to"
)

// LoadBalancer wraps armnetwork.LoadBalancer with accessors for the
// properties that make up the output surface of a deployment.
// An internal load balancer in this library has exactly one frontend IP
// configuration and exactly one backend address pool.
type LoadBalancer struct {
	armnetwork.LoadBalancer
}

// NewLoadBalancer creates a new LoadBalancer instance from an armnetwork.LoadBalancer.
// The caller is responsible for ensuring that the load balancer is valid,
// use the ValidateLoadBalancer function to do so.
func NewLoadBalancer(lb armnetwork.LoadBalancer) *LoadBalancer {
	return &LoadBalancer{lb}
}

// NewLoadBalancerValidate creates a new LoadBalancer instance and validates it.
func NewLoadBalancerValidate(lb armnetwork.LoadBalancer) (*LoadBalancer, error) {
	lbObj := &LoadBalancer{lb}
	if err := ValidateLoadBalancer(lbObj); err != nil {
		return nil, fmt.Errorf("NewLoadBalancerValidate: %w", err)
	}
	return lbObj, nil
}

// ValidateLoadBalancer checks the invariants that the deployment package
// relies on: a name, a location, one frontend IP configuration and one
// backend address pool.
func ValidateLoadBalancer(lb *LoadBalancer) error {
	if lb == nil {
		return NewErrPropertyMustNotBeNil("LoadBalancer")
	}
	if lb.Name == nil || *lb.Name == "" {
		return NewErrPropertyMustNotBeNil("Name")
	}
	if lb.Location == nil || *lb.Location == "" {
		return NewErrPropertyMustNotBeNil("Location")
	}
	if lb.Properties == nil {
		return NewErrPropertyMustNotBeNil("Properties")
	}
	if len(lb.Properties.FrontendIPConfigurations) != 1 {
		return NewErrCardinality("Properties.FrontendIPConfigurations", 1, len(lb.Properties.FrontendIPConfigurations))
	}
	if len(lb.Properties.BackendAddressPools) != 1 {
		return NewErrCardinality("Properties.BackendAddressPools", 1, len(lb.Properties.BackendAddressPools))
	}
	return nil
}

// FrontendIPConfigurationId returns the resource ID of the single frontend IP configuration.
func (lb *LoadBalancer) FrontendIPConfigurationId() string {
	if lb.Properties == nil || len(lb.Properties.FrontendIPConfigurations) != 1 {
		return ""
	}
	return to.ValOrZero(lb.Properties.FrontendIPConfigurations[0].ID)
}

// BackendAddressPoolId returns the resource ID of the single backend address pool.
func (lb *LoadBalancer) BackendAddressPoolId() string {
	if lb.Properties == nil || len(lb.Properties.BackendAddressPools) != 1 {
		return ""
	}
	return to.ValOrZero(lb.Properties.BackendAddressPools[0].ID)
}

// ProbeIds returns the resource IDs of the health probes, in declaration order.
func (lb *LoadBalancer) ProbeIds() []string {
	if lb.Properties == nil {
		return nil
	}
	res := make([]string, len(lb.Properties.Probes))
	for i, p := range lb.Properties.Probes {
		res[i] = to.ValOrZero(p.ID)
	}
	return res
}

// LoadBalancingRuleIds returns the resource IDs of the load balancing rules, in declaration order.
func (lb *LoadBalancer) LoadBalancingRuleIds() []string {
	if lb.Properties == nil {
		return nil
	}
	res := make([]string, len(lb.Properties.LoadBalancingRules))
	for i, r := range lb.Properties.LoadBalancingRules {
		res[i] = to.ValOrZero(r.ID)
	}
	return res
}

// PrivateIpAddress returns the private IP address assigned to the frontend IP
// configuration. It is empty until the load balancer has been created and the
// dynamic allocation has happened.
func (lb *LoadBalancer) PrivateIpAddress() string {
	if lb.Properties == nil || len(lb.Properties.FrontendIPConfigurations) != 1 {
		return ""
	}
	fe := lb.Properties.FrontendIPConfigurations[0]
	if fe.Properties == nil {
		return ""
	}
	return to.ValOrZero(fe.Properties.PrivateIPAddress)
}

// ProbeIdForPort returns the resource ID of the probe listening on the supplied port.
func (lb *LoadBalancer) ProbeIdForPort(port int32) (string, error) {
	if lb.Properties == nil {
		return "", NewErrPropertyMustNotBeNil("Properties")
	}
	for _, p := range lb.Properties.Probes {
		if p.Properties == nil || p.Properties.Port == nil {
			continue
		}
		if *p.Properties.Port == port {
			return to.ValOrZero(p.ID), nil
		}
	}
	return "", fmt.Errorf("LoadBalancer.ProbeIdForPort: no probe with port %d in load balancer %s", port, to.ValOrZero(lb.Name))
}
