// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/ilblib"
	"github.com/Azure/ilblib/to"
)

// newTestDeployment initializes a library from the simple testdata and adds
// the web load balancer to a new deployment.
func newTestDeployment(t *testing.T) (*Deployment, *LoadBalancerDeployment) {
	t.Helper()
	lib := ilblib.NewIlbLib()
	require.NoError(t, lib.Init(context.Background(), os.DirFS("testdata/simple")))

	spec, err := lib.CopyLoadBalancerSpec("web")
	require.NoError(t, err)

	d := NewDeployment(lib)
	require.NoError(t, d.AddLoadBalancer(context.Background(), &LoadBalancerAddRequest{
		Name: "web",
		Spec: spec,
	}))

	lbd := d.GetLoadBalancer("web")
	require.NotNil(t, lbd)
	return d, lbd
}

func TestAddLoadBalancer(t *testing.T) {
	t.Parallel()
	d, lbd := newTestDeployment(t)

	assert.Equal(t, []string{"web"}, d.ListLoadBalancers())
	assert.Equal(t, "web", lbd.Name())
	assert.Equal(t,
		"/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/rg-web/providers/Microsoft.Network/loadBalancers/web",
		lbd.ResourceId(),
	)
	assert.Nil(t, lbd.VirtualNetwork(), "existing network context must not produce a managed virtual network")
}

func TestAddLoadBalancerFrontendZones(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)

	frontends := lbd.LoadBalancer().Properties.FrontendIPConfigurations
	require.Len(t, frontends, 1)
	fe := frontends[0]
	assert.Equal(t, "frontend", to.ValOrZero(fe.Name))

	zones := make([]string, 0, len(fe.Zones))
	for _, z := range fe.Zones {
		zones = append(zones, to.ValOrZero(z))
	}
	assert.ElementsMatch(t, []string{"1", "2", "3"}, zones, "East US is a zonal region")

	require.NotNil(t, fe.Properties.Subnet)
	assert.Equal(t,
		"/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/rg-network/providers/Microsoft.Network/virtualNetworks/vnet-prod/subnets/snet-ilb",
		to.ValOrZero(fe.Properties.Subnet.ID),
	)
}

func TestAddLoadBalancerProbesAndRules(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)
	lb := lbd.LoadBalancer()

	require.Len(t, lb.Properties.Probes, 2)
	probeNames := make([]string, 0, 2)
	for _, p := range lb.Properties.Probes {
		probeNames = append(probeNames, to.ValOrZero(p.Name))
	}
	assert.ElementsMatch(t, []string{"8080", "8443"}, probeNames)

	require.Len(t, lb.Properties.LoadBalancingRules, 2)
	wantProbe := map[string]string{
		"80":  "8080",
		"443": "8443",
	}
	for _, r := range lb.Properties.LoadBalancingRules {
		name := to.ValOrZero(r.Name)
		require.Contains(t, wantProbe, name)
		require.NotNil(t, r.Properties.Probe)
		assert.Equal(t, wantProbe[name], lastSegment(to.ValOrZero(r.Properties.Probe.ID)),
			"rule %s must reference the probe for its paired probe port", name)
	}
}

func TestAddLoadBalancerNicAssociations(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)

	assocs := lbd.NicAssociations()
	require.Len(t, assocs, 2)
	assert.Equal(t, "test1226", assocs[0].NicName)
	assert.Equal(t, "test2498", assocs[1].NicName)

	poolId := lbd.LoadBalancer().BackendAddressPoolId()
	for _, assoc := range assocs {
		assert.Equal(t, poolId, assoc.BackendAddressPoolId)
		assert.Equal(t, "ipconfig1", assoc.IpConfigurationName)
		assert.Equal(t, assoc.NicId+"/ipConfigurations/ipconfig1", assoc.IpConfigurationId)
		// association names are deterministic, rebuilding must not churn them
		assert.Equal(t, uuidV5(assoc.IpConfigurationId, poolId).String(), assoc.Name)
	}
}

func TestAddLoadBalancerOutputs(t *testing.T) {
	t.Parallel()
	_, lbd := newTestDeployment(t)

	out := lbd.Outputs()
	assert.Equal(t, lbd.ResourceId(), out.LoadBalancerId)
	assert.Equal(t, lbd.ResourceId()+"/frontendIPConfigurations/frontend", out.FrontendIPConfigurationId)
	assert.Equal(t, lbd.ResourceId()+"/backendAddressPools/backend", out.BackendAddressPoolId)
	assert.Len(t, out.ProbeIds, 2)
	assert.Len(t, out.LoadBalancingRuleIds, 2)
	assert.Empty(t, out.PrivateIpAddress, "private IP is only known after apply")
}

func TestAddLoadBalancerDuplicate(t *testing.T) {
	t.Parallel()
	d, lbd := newTestDeployment(t)

	err := d.AddLoadBalancer(context.Background(), &LoadBalancerAddRequest{
		Name: "web",
		Spec: lbd.spec,
	})
	assert.ErrorContains(t, err, "already exists")
}

func TestAddLoadBalancerNameMismatch(t *testing.T) {
	t.Parallel()
	lib := ilblib.NewIlbLib()
	require.NoError(t, lib.Init(context.Background(), os.DirFS("testdata/simple")))
	spec, err := lib.CopyLoadBalancerSpec("web")
	require.NoError(t, err)

	d := NewDeployment(lib)
	err = d.AddLoadBalancer(context.Background(), &LoadBalancerAddRequest{
		Name: "other",
		Spec: spec,
	})
	assert.ErrorContains(t, err, "does not match spec name")
}

func TestAddLoadBalancerNilRequest(t *testing.T) {
	t.Parallel()
	d := NewDeployment(ilblib.NewIlbLib())
	assert.Error(t, d.AddLoadBalancer(context.Background(), nil))
	assert.Error(t, d.AddLoadBalancer(context.Background(), &LoadBalancerAddRequest{Name: "web"}))
}

func TestUuidV5Deterministic(t *testing.T) {
	t.Parallel()
	a := uuidV5("foo", "bar")
	b := uuidV5("foo", "bar")
	c := uuidV5("foo", "baz")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAddLoadBalancerManagedNetwork(t *testing.T) {
	t.Parallel()
	lib := ilblib.NewIlbLib()
	require.NoError(t, lib.Init(context.Background(), os.DirFS("testdata/managed")))

	spec, err := lib.CopyLoadBalancerSpec("app")
	require.NoError(t, err)
	// legacy aligned list form: backend ports default to the frontend ports
	require.Equal(t, []ilblib.PortMapping{
		{FrontendPort: 80, BackendPort: 80, ProbePort: 8080},
	}, spec.PortMappings)

	d := NewDeployment(lib)
	require.NoError(t, d.AddLoadBalancer(context.Background(), &LoadBalancerAddRequest{
		Name: "app",
		Spec: spec,
	}))
	lbd := d.GetLoadBalancer("app")
	require.NotNil(t, lbd)

	vnet := lbd.VirtualNetwork()
	require.NotNil(t, vnet, "non-existing network context must produce a managed virtual network")
	assert.Equal(t, "vnet-app", to.ValOrZero(vnet.Name))
	assert.Equal(t, "South Central US", to.ValOrZero(vnet.Location))
	require.Len(t, vnet.Properties.AddressSpace.AddressPrefixes, 1)
	assert.Equal(t, "10.10.0.0/16", to.ValOrZero(vnet.Properties.AddressSpace.AddressPrefixes[0]))
	require.Len(t, vnet.Properties.Subnets, 1)
	assert.Equal(t, "snet-app", to.ValOrZero(vnet.Properties.Subnets[0].Name))
	assert.Equal(t, "10.10.1.0/24", to.ValOrZero(vnet.Properties.Subnets[0].Properties.AddressPrefix))

	assert.Empty(t, lbd.NicAssociations())
}
