// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Azure/ilblib/assets"
	"github.com/Azure/ilblib/to"
)

// PlanAction describes what applying the deployment would do to a resource.
type PlanAction string

const (
	PlanActionCreate PlanAction = "create"
	PlanActionUpdate PlanAction = "update"
)

// PlanEntry is a single pending change.
type PlanEntry struct {
	ResourceId   string
	ResourceType string
	Action       PlanAction
}

// Plan is the set of changes that applying the deployment would make.
// Re-planning an already applied, unchanged deployment yields an empty plan.
type Plan struct {
	Entries []PlanEntry
}

// Empty returns true when the plan contains no pending changes.
func (p *Plan) Empty() bool {
	return len(p.Entries) == 0
}

func (p *Plan) add(resourceId, resourceType string, action PlanAction) {
	p.Entries = append(p.Entries, PlanEntry{
		ResourceId:   resourceId,
		ResourceType: resourceType,
		Action:       action,
	})
}

// Plan compares the desired state of the deployment with the live state in
// Azure and returns the set of pending changes.
func (d *Deployment) Plan(ctx context.Context) (*Plan, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.lbs))
	for name := range d.lbs {
		names = append(names, name)
	}
	sort.Strings(names)

	plan := new(Plan)
	for _, name := range names {
		if err := d.planLoadBalancer(ctx, plan, d.lbs[name]); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (d *Deployment) planLoadBalancer(ctx context.Context, plan *Plan, lbd *LoadBalancerDeployment) error {
	client, err := d.ilblib.NetworkClient(lbd.spec.SubscriptionId)
	if err != nil {
		return err
	}

	// Managed virtual network first, the load balancer frontend depends on its subnet.
	if vnet := lbd.virtualNetwork; vnet != nil {
		nc := lbd.networkContext
		resp, err := client.NewVirtualNetworksClient().Get(ctx, nc.ResourceGroup, nc.VirtualNetworkName, nil)
		switch {
		case isNotFound(err):
			plan.add(to.ValOrZero(vnet.ID), "Microsoft.Network/virtualNetworks", PlanActionCreate)
		case err != nil:
			return fmt.Errorf("planning virtual network %s: %w", nc.VirtualNetworkName, err)
		case virtualNetworkNeedsUpdate(&resp.VirtualNetwork, vnet):
			plan.add(to.ValOrZero(vnet.ID), "Microsoft.Network/virtualNetworks", PlanActionUpdate)
		}
	}

	resp, err := client.NewLoadBalancersClient().Get(ctx, lbd.spec.ResourceGroup, lbd.name, nil)
	switch {
	case isNotFound(err):
		plan.add(lbd.ResourceId(), "Microsoft.Network/loadBalancers", PlanActionCreate)
	case err != nil:
		return fmt.Errorf("planning load balancer %s: %w", lbd.name, err)
	case loadBalancerNeedsUpdate(&resp.LoadBalancer, lbd.loadBalancer):
		plan.add(lbd.ResourceId(), "Microsoft.Network/loadBalancers", PlanActionUpdate)
	}

	for _, assoc := range lbd.NicAssociations() {
		nicClient, err := d.ilblib.NetworkClient(assoc.SubscriptionId)
		if err != nil {
			return err
		}
		nicResp, err := nicClient.NewInterfacesClient().Get(ctx, assoc.ResourceGroup, assoc.NicName, nil)
		if err != nil {
			return fmt.Errorf("planning NIC association %s: %w", assoc.Name, err)
		}
		needsUpdate, err := nicAssociationNeedsUpdate(&nicResp.Interface, assoc)
		if err != nil {
			return err
		}
		if needsUpdate {
			plan.add(assoc.IpConfigurationId, "Microsoft.Network/networkInterfaces/ipConfigurations", PlanActionUpdate)
		}
	}
	return nil
}

// isNotFound returns true when the error is an Azure 404 response.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// virtualNetworkNeedsUpdate compares the managed properties of the virtual network.
func virtualNetworkNeedsUpdate(existing, desired *armnetwork.VirtualNetwork) bool {
	if existing.Properties == nil || desired.Properties == nil {
		return true
	}
	if !stringPtrSetEqual(prefixesOf(existing), prefixesOf(desired)) {
		return true
	}
	// every desired subnet must exist with the same address prefix
	for _, want := range desired.Properties.Subnets {
		found := false
		for _, got := range existing.Properties.Subnets {
			if !strings.EqualFold(to.ValOrZero(got.Name), to.ValOrZero(want.Name)) {
				continue
			}
			found = true
			if got.Properties == nil || want.Properties == nil ||
				to.ValOrZero(got.Properties.AddressPrefix) != to.ValOrZero(want.Properties.AddressPrefix) {
				return true
			}
		}
		if !found {
			return true
		}
	}
	return false
}

func prefixesOf(vnet *armnetwork.VirtualNetwork) []*string {
	if vnet.Properties == nil || vnet.Properties.AddressSpace == nil {
		return nil
	}
	return vnet.Properties.AddressSpace.AddressPrefixes
}

// loadBalancerNeedsUpdate compares the properties managed by this library.
// Server-populated fields (etags, provisioning state, allocated addresses)
// are ignored.
func loadBalancerNeedsUpdate(existing *armnetwork.LoadBalancer, desired *assets.LoadBalancer) bool {
	if existing.Properties == nil {
		return true
	}
	if existing.SKU == nil || desired.SKU == nil ||
		to.ValOrZero(existing.SKU.Name) != to.ValOrZero(desired.SKU.Name) {
		return true
	}
	if frontendNeedsUpdate(existing.Properties.FrontendIPConfigurations, desired.Properties.FrontendIPConfigurations[0]) {
		return true
	}
	if !hasBackendPool(existing.Properties.BackendAddressPools, desired.Properties.BackendAddressPools[0]) {
		return true
	}
	if probesNeedUpdate(existing.Properties.Probes, desired.Properties.Probes) {
		return true
	}
	return rulesNeedUpdate(existing.Properties.LoadBalancingRules, desired.Properties.LoadBalancingRules)
}

func frontendNeedsUpdate(existing []*armnetwork.FrontendIPConfiguration, desired *armnetwork.FrontendIPConfiguration) bool {
	if len(existing) != 1 {
		return true
	}
	got, want := existing[0], desired
	if !strings.EqualFold(to.ValOrZero(got.Name), to.ValOrZero(want.Name)) {
		return true
	}
	if got.Properties == nil || want.Properties == nil {
		return true
	}
	if got.Properties.Subnet == nil || want.Properties.Subnet == nil ||
		!strings.EqualFold(to.ValOrZero(got.Properties.Subnet.ID), to.ValOrZero(want.Properties.Subnet.ID)) {
		return true
	}
	if to.ValOrZero(got.Properties.PrivateIPAllocationMethod) != to.ValOrZero(want.Properties.PrivateIPAllocationMethod) {
		return true
	}
	return !stringPtrSetEqual(got.Zones, want.Zones)
}

func hasBackendPool(existing []*armnetwork.BackendAddressPool, desired *armnetwork.BackendAddressPool) bool {
	for _, got := range existing {
		if strings.EqualFold(to.ValOrZero(got.Name), to.ValOrZero(desired.Name)) {
			return true
		}
	}
	return false
}

func probesNeedUpdate(existing, desired []*armnetwork.Probe) bool {
	if len(existing) != len(desired) {
		return true
	}
	byName := make(map[string]*armnetwork.Probe, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(to.ValOrZero(p.Name))] = p
	}
	for _, want := range desired {
		got, ok := byName[strings.ToLower(to.ValOrZero(want.Name))]
		if !ok || got.Properties == nil || want.Properties == nil {
			return true
		}
		if to.ValOrZero(got.Properties.Protocol) != to.ValOrZero(want.Properties.Protocol) ||
			to.ValOrZero(got.Properties.Port) != to.ValOrZero(want.Properties.Port) ||
			to.ValOrZero(got.Properties.IntervalInSeconds) != to.ValOrZero(want.Properties.IntervalInSeconds) ||
			to.ValOrZero(got.Properties.NumberOfProbes) != to.ValOrZero(want.Properties.NumberOfProbes) ||
			to.ValOrZero(got.Properties.RequestPath) != to.ValOrZero(want.Properties.RequestPath) {
			return true
		}
	}
	return false
}

func rulesNeedUpdate(existing, desired []*armnetwork.LoadBalancingRule) bool {
	if len(existing) != len(desired) {
		return true
	}
	byName := make(map[string]*armnetwork.LoadBalancingRule, len(existing))
	for _, r := range existing {
		byName[strings.ToLower(to.ValOrZero(r.Name))] = r
	}
	for _, want := range desired {
		got, ok := byName[strings.ToLower(to.ValOrZero(want.Name))]
		if !ok || got.Properties == nil || want.Properties == nil {
			return true
		}
		if to.ValOrZero(got.Properties.Protocol) != to.ValOrZero(want.Properties.Protocol) ||
			to.ValOrZero(got.Properties.FrontendPort) != to.ValOrZero(want.Properties.FrontendPort) ||
			to.ValOrZero(got.Properties.BackendPort) != to.ValOrZero(want.Properties.BackendPort) {
			return true
		}
		// probe references are compared by name, the ID prefix is server-normalized
		if lastSegment(subResourceId(got.Properties.Probe)) != lastSegment(subResourceId(want.Properties.Probe)) {
			return true
		}
	}
	return false
}

// nicAssociationNeedsUpdate returns true when the NIC's IP configuration is
// not yet a member of the backend pool.
func nicAssociationNeedsUpdate(nic *armnetwork.Interface, assoc *NicAssociation) (bool, error) {
	ipc, err := findIpConfiguration(nic, assoc.IpConfigurationName)
	if err != nil {
		return false, err
	}
	if ipc.Properties == nil {
		return true, nil
	}
	for _, pool := range ipc.Properties.LoadBalancerBackendAddressPools {
		if strings.EqualFold(to.ValOrZero(pool.ID), assoc.BackendAddressPoolId) {
			return false, nil
		}
	}
	return true, nil
}

func findIpConfiguration(nic *armnetwork.Interface, name string) (*armnetwork.InterfaceIPConfiguration, error) {
	if nic.Properties == nil {
		return nil, fmt.Errorf("network interface %s has no properties", to.ValOrZero(nic.Name))
	}
	for _, ipc := range nic.Properties.IPConfigurations {
		if strings.EqualFold(to.ValOrZero(ipc.Name), name) {
			return ipc, nil
		}
	}
	return nil, fmt.Errorf("network interface %s has no IP configuration named %s", to.ValOrZero(nic.Name), name)
}

func subResourceId(sr *armnetwork.SubResource) string {
	if sr == nil {
		return ""
	}
	return to.ValOrZero(sr.ID)
}

func lastSegment(s string) string {
	parts := strings.Split(s, "/")
	return strings.ToLower(parts[len(parts)-1])
}

func stringPtrSetEqual(a, b []*string) bool {
	as := mapset.NewThreadUnsafeSet[string]()
	for _, s := range a {
		as.Add(strings.ToLower(to.ValOrZero(s)))
	}
	bs := mapset.NewThreadUnsafeSet[string]()
	for _, s := range b {
		bs.Add(strings.ToLower(to.ValOrZero(s)))
	}
	return as.Equal(bs)
}
