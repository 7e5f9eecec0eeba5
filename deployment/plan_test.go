// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/brunoga/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/ilblib/assets"
	"github.com/Azure/ilblib/to"
)

// liveCopy simulates the service view of a desired load balancer: the same
// document with server-populated fields added.
func liveCopy(t *testing.T, desired *assets.LoadBalancer) *armnetwork.LoadBalancer {
	t.Helper()
	cp, err := deep.Copy(&desired.LoadBalancer)
	require.NoError(t, err)
	cp.Etag = to.Ptr("W/\"0000\"")
	cp.Properties.ProvisioningState = to.Ptr(armnetwork.ProvisioningStateSucceeded)
	return cp
}

func TestLoadBalancerNeedsUpdateIdentical(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)

	live := liveCopy(t, lbd.LoadBalancer())
	assert.False(t, loadBalancerNeedsUpdate(live, lbd.LoadBalancer()),
		"an unchanged load balancer must produce no pending changes")
}

func TestLoadBalancerNeedsUpdateChanged(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)
	desired := lbd.LoadBalancer()

	tests := map[string]func(lb *armnetwork.LoadBalancer){
		"sku": func(lb *armnetwork.LoadBalancer) {
			lb.SKU.Name = to.Ptr(armnetwork.LoadBalancerSKUNameBasic)
		},
		"frontend subnet": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.FrontendIPConfigurations[0].Properties.Subnet.ID = to.Ptr("/subscriptions/x/resourceGroups/y/providers/Microsoft.Network/virtualNetworks/z/subnets/other")
		},
		"frontend zones": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.FrontendIPConfigurations[0].Zones = to.SliceOfPtrs("1", "2")
		},
		"missing backend pool": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.BackendAddressPools = nil
		},
		"probe interval": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.Probes[0].Properties.IntervalInSeconds = to.Ptr[int32](30)
		},
		"missing probe": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.Probes = lb.Properties.Probes[:1]
		},
		"rule backend port": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.LoadBalancingRules[0].Properties.BackendPort = to.Ptr[int32](8888)
		},
		"rule probe reference": func(lb *armnetwork.LoadBalancer) {
			lb.Properties.LoadBalancingRules[0].Properties.Probe.ID = to.Ptr("/probes/9999")
		},
	}
	for name, mutate := range tests {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			live := liveCopy(t, desired)
			mutate(live)
			assert.True(t, loadBalancerNeedsUpdate(live, desired))
		})
	}
}

func TestLoadBalancerNeedsUpdateCaseInsensitiveProbeRef(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)

	// the service normalizes ID casing, which must not register as drift
	live := liveCopy(t, lbd.LoadBalancer())
	for _, r := range live.Properties.LoadBalancingRules {
		id := to.ValOrZero(r.Properties.Probe.ID)
		r.Properties.Probe.ID = to.Ptr("/SUBSCRIPTIONS" + id[len("/subscriptions"):])
	}
	assert.False(t, loadBalancerNeedsUpdate(live, lbd.LoadBalancer()))
}

func TestVirtualNetworkNeedsUpdate(t *testing.T) {
	t.Parallel()
	desired := &armnetwork.VirtualNetwork{
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: to.SliceOfPtrs("10.0.0.0/16"),
			},
			Subnets: []*armnetwork.Subnet{
				{
					Name: to.Ptr("snet-ilb"),
					Properties: &armnetwork.SubnetPropertiesFormat{
						AddressPrefix: to.Ptr("10.0.1.0/24"),
					},
				},
			},
		},
	}

	same, err := deep.Copy(desired)
	require.NoError(t, err)
	assert.False(t, virtualNetworkNeedsUpdate(same, desired))

	prefixChanged, err := deep.Copy(desired)
	require.NoError(t, err)
	prefixChanged.Properties.AddressSpace.AddressPrefixes = to.SliceOfPtrs("10.1.0.0/16")
	assert.True(t, virtualNetworkNeedsUpdate(prefixChanged, desired))

	subnetMissing, err := deep.Copy(desired)
	require.NoError(t, err)
	subnetMissing.Properties.Subnets = nil
	assert.True(t, virtualNetworkNeedsUpdate(subnetMissing, desired))

	// extra live subnets are tolerated, only the managed subnet is compared
	subnetExtra, err := deep.Copy(desired)
	require.NoError(t, err)
	subnetExtra.Properties.Subnets = append(subnetExtra.Properties.Subnets, &armnetwork.Subnet{
		Name: to.Ptr("snet-other"),
		Properties: &armnetwork.SubnetPropertiesFormat{
			AddressPrefix: to.Ptr("10.0.2.0/24"),
		},
	})
	assert.False(t, virtualNetworkNeedsUpdate(subnetExtra, desired))
}

func TestNicAssociationNeedsUpdate(t *testing.T) {
	t.Parallel()
	const poolId = "/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/rg-web/providers/Microsoft.Network/loadBalancers/web/backendAddressPools/backend"
	assoc := &NicAssociation{
		Name:                 "assoc",
		IpConfigurationName:  "ipconfig1",
		BackendAddressPoolId: poolId,
	}
	nic := func(poolIds ...string) *armnetwork.Interface {
		pools := make([]*armnetwork.BackendAddressPool, 0, len(poolIds))
		for _, id := range poolIds {
			pools = append(pools, &armnetwork.BackendAddressPool{ID: to.Ptr(id)})
		}
		return &armnetwork.Interface{
			Name: to.Ptr("test1226"),
			Properties: &armnetwork.InterfacePropertiesFormat{
				IPConfigurations: []*armnetwork.InterfaceIPConfiguration{
					{
						Name: to.Ptr("ipconfig1"),
						Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
							LoadBalancerBackendAddressPools: pools,
						},
					},
				},
			},
		}
	}

	needs, err := nicAssociationNeedsUpdate(nic(), assoc)
	require.NoError(t, err)
	assert.True(t, needs)

	needs, err = nicAssociationNeedsUpdate(nic(poolId), assoc)
	require.NoError(t, err)
	assert.False(t, needs)

	// membership comparison is case insensitive
	needs, err = nicAssociationNeedsUpdate(nic("/SUBSCRIPTIONS"+poolId[len("/subscriptions"):]), assoc)
	require.NoError(t, err)
	assert.False(t, needs)

	_, err = nicAssociationNeedsUpdate(nic(), &NicAssociation{IpConfigurationName: "missing"})
	assert.ErrorContains(t, err, "no IP configuration named missing")
}

func TestStringPtrSetEqual(t *testing.T) {
	t.Parallel()
	assert.True(t, stringPtrSetEqual(to.SliceOfPtrs("1", "2", "3"), to.SliceOfPtrs("3", "2", "1")))
	assert.True(t, stringPtrSetEqual(nil, nil))
	assert.False(t, stringPtrSetEqual(to.SliceOfPtrs("1", "2"), to.SliceOfPtrs("1", "2", "3")))
	assert.False(t, stringPtrSetEqual(nil, to.SliceOfPtrs("1")))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	assert.False(t, isNotFound(nil))
	assert.False(t, isNotFound(errors.New("boom")))
	assert.True(t, isNotFound(&azcore.ResponseError{StatusCode: http.StatusNotFound}))
	assert.False(t, isNotFound(&azcore.ResponseError{StatusCode: http.StatusForbidden}))
}

func TestLastSegment(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "8080", lastSegment("/subscriptions/s/providers/Microsoft.Network/loadBalancers/web/probes/8080"))
	assert.Equal(t, "", lastSegment(""))
}

func TestPlanEmpty(t *testing.T) {
	t.Parallel()
	p := new(Plan)
	assert.True(t, p.Empty())
	p.add("/id", "Microsoft.Network/loadBalancers", PlanActionCreate)
	assert.False(t, p.Empty())
	assert.Equal(t, PlanActionCreate, p.Entries[0].Action)
}
