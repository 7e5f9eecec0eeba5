// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Azure/ilblib"
	"github.com/Azure/ilblib/assets"
	"github.com/Azure/ilblib/to"
)

// LoadBalancerDeployment holds the desired-state resources built for a single
// internal load balancer.
// Note: this is not thread safe, and should not be used concurrently without
// an external mutex.
type LoadBalancerDeployment struct {
	name            string
	spec            *ilblib.LoadBalancerSpec
	networkContext  *ilblib.NetworkContext
	loadBalancer    *assets.LoadBalancer
	virtualNetwork  *armnetwork.VirtualNetwork // nil when the network context is existing
	nicAssociations map[string]*NicAssociation // keyed by binding name
}

// NicAssociation maps the IP configuration of a network interface into the
// backend pool of the load balancer. Its name is a deterministic UUID derived
// from the IP configuration and the pool, so re-building the same deployment
// always produces the same association set.
type NicAssociation struct {
	Name                 string `json:"name"`
	NicId                string `json:"nicId"`
	NicName              string `json:"nicName"`
	SubscriptionId       string `json:"subscriptionId"`
	ResourceGroup        string `json:"resourceGroup"`
	IpConfigurationName  string `json:"ipConfigurationName"`
	IpConfigurationId    string `json:"ipConfigurationId"`
	BackendAddressPoolId string `json:"backendAddressPoolId"`
}

// Outputs are the attributes of the created resources that a deployment
// exposes to its consumers.
type Outputs struct {
	LoadBalancerId            string   `json:"loadBalancerId"`
	FrontendIPConfigurationId string   `json:"frontendIpConfigurationId"`
	BackendAddressPoolId      string   `json:"backendAddressPoolId"`
	ProbeIds                  []string `json:"probeIds"`
	LoadBalancingRuleIds      []string `json:"loadBalancingRuleIds"`
	PrivateIpAddress          string   `json:"privateIpAddress"`
}

func newLoadBalancerDeployment(name string, spec *ilblib.LoadBalancerSpec, nc *ilblib.NetworkContext) *LoadBalancerDeployment {
	return &LoadBalancerDeployment{
		name:            name,
		spec:            spec,
		networkContext:  nc,
		nicAssociations: make(map[string]*NicAssociation),
	}
}

// Name returns the name of the load balancer.
func (lbd *LoadBalancerDeployment) Name() string {
	return lbd.name
}

// ResourceId returns the resource ID of the load balancer.
func (lbd *LoadBalancerDeployment) ResourceId() string {
	return fmt.Sprintf(loadBalancerIdFmt, lbd.spec.SubscriptionId, lbd.spec.ResourceGroup, lbd.name)
}

// LoadBalancer returns the built load balancer resource.
func (lbd *LoadBalancerDeployment) LoadBalancer() *assets.LoadBalancer {
	return lbd.loadBalancer
}

// VirtualNetwork returns the managed virtual network resource, or nil when
// the network context references an existing network.
func (lbd *LoadBalancerDeployment) VirtualNetwork() *armnetwork.VirtualNetwork {
	return lbd.virtualNetwork
}

// NicAssociations returns the NIC associations sorted by NIC name.
func (lbd *LoadBalancerDeployment) NicAssociations() []*NicAssociation {
	res := make([]*NicAssociation, 0, len(lbd.nicAssociations))
	for _, a := range lbd.nicAssociations {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].NicName < res[j].NicName })
	return res
}

// Outputs returns the output surface of the deployment.
// PrivateIpAddress is empty until the load balancer has been applied and the
// dynamic frontend allocation has happened.
func (lbd *LoadBalancerDeployment) Outputs() *Outputs {
	return &Outputs{
		LoadBalancerId:            lbd.ResourceId(),
		FrontendIPConfigurationId: lbd.loadBalancer.FrontendIPConfigurationId(),
		BackendAddressPoolId:      lbd.loadBalancer.BackendAddressPoolId(),
		ProbeIds:                  lbd.loadBalancer.ProbeIds(),
		LoadBalancingRuleIds:      lbd.loadBalancer.LoadBalancingRuleIds(),
		PrivateIpAddress:          lbd.loadBalancer.PrivateIpAddress(),
	}
}

// build creates the armnetwork resources from the spec.
func (lbd *LoadBalancerDeployment) build() error {
	spec := lbd.spec
	nc := lbd.networkContext
	lbId := lbd.ResourceId()

	frontend := &armnetwork.FrontendIPConfiguration{
		ID:   to.Ptr(fmt.Sprintf("%s/frontendIPConfigurations/%s", lbId, spec.FrontendName)),
		Name: to.Ptr(spec.FrontendName),
		Properties: &armnetwork.FrontendIPConfigurationPropertiesFormat{
			PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
			Subnet: &armnetwork.Subnet{
				ID: to.Ptr(nc.SubnetId()),
			},
		},
	}
	if zones := ilblib.ZonesForRegion(spec.Location); len(zones) > 0 {
		frontend.Zones = to.SliceOfPtrs(zones...)
	}

	pool := &armnetwork.BackendAddressPool{
		ID:   to.Ptr(fmt.Sprintf("%s/backendAddressPools/%s", lbId, spec.BackendPoolName)),
		Name: to.Ptr(spec.BackendPoolName),
	}

	probes, err := lbd.buildProbes(lbId)
	if err != nil {
		return err
	}
	rules, err := lbd.buildRules(lbId, frontend, pool)
	if err != nil {
		return err
	}

	lb, err := assets.NewLoadBalancerValidate(armnetwork.LoadBalancer{
		ID:       to.Ptr(lbId),
		Name:     to.Ptr(lbd.name),
		Location: to.Ptr(spec.Location),
		SKU: &armnetwork.LoadBalancerSKU{
			Name: to.Ptr(spec.Sku),
		},
		Properties: &armnetwork.LoadBalancerPropertiesFormat{
			FrontendIPConfigurations: []*armnetwork.FrontendIPConfiguration{frontend},
			BackendAddressPools:      []*armnetwork.BackendAddressPool{pool},
			Probes:                   probes,
			LoadBalancingRules:       rules,
		},
	})
	if err != nil {
		return fmt.Errorf("load balancer %s: %w", lbd.name, err)
	}
	lbd.loadBalancer = lb

	if !nc.Existing {
		lbd.virtualNetwork = buildVirtualNetwork(spec.Location, nc)
	}
	return nil
}

// buildProbes creates one probe per distinct probe port, named by the port.
// Rules that share a probe port share the probe.
func (lbd *LoadBalancerDeployment) buildProbes(lbId string) ([]*armnetwork.Probe, error) {
	seen := mapset.NewThreadUnsafeSet[int32]()
	probes := make([]*armnetwork.Probe, 0, len(lbd.spec.PortMappings))
	for _, pm := range lbd.spec.PortMappings {
		if !seen.Add(pm.ProbePort) {
			continue
		}
		name := strconv.Itoa(int(pm.ProbePort))
		probe := &armnetwork.Probe{
			ID:   to.Ptr(fmt.Sprintf("%s/probes/%s", lbId, name)),
			Name: to.Ptr(name),
			Properties: &armnetwork.ProbePropertiesFormat{
				Protocol:          to.Ptr(lbd.spec.Probe.Protocol),
				Port:              to.Ptr(pm.ProbePort),
				IntervalInSeconds: to.Ptr(lbd.spec.Probe.IntervalInSeconds),
				NumberOfProbes:    to.Ptr(lbd.spec.Probe.NumberOfProbes),
			},
		}
		if lbd.spec.Probe.RequestPath != "" {
			probe.Properties.RequestPath = to.Ptr(lbd.spec.Probe.RequestPath)
		}
		probes = append(probes, probe)
	}
	return probes, nil
}

// buildRules creates one rule per port mapping, named by the frontend port.
// Each rule references the probe built for its paired probe port.
func (lbd *LoadBalancerDeployment) buildRules(lbId string, frontend *armnetwork.FrontendIPConfiguration, pool *armnetwork.BackendAddressPool) ([]*armnetwork.LoadBalancingRule, error) {
	rules := make([]*armnetwork.LoadBalancingRule, 0, len(lbd.spec.PortMappings))
	for _, pm := range lbd.spec.PortMappings {
		name := strconv.Itoa(int(pm.FrontendPort))
		probeId := fmt.Sprintf("%s/probes/%d", lbId, pm.ProbePort)
		rules = append(rules, &armnetwork.LoadBalancingRule{
			ID:   to.Ptr(fmt.Sprintf("%s/loadBalancingRules/%s", lbId, name)),
			Name: to.Ptr(name),
			Properties: &armnetwork.LoadBalancingRulePropertiesFormat{
				Protocol:                to.Ptr(armnetwork.TransportProtocolTCP),
				FrontendPort:            to.Ptr(pm.FrontendPort),
				BackendPort:             to.Ptr(pm.BackendPort),
				FrontendIPConfiguration: &armnetwork.SubResource{ID: frontend.ID},
				BackendAddressPool:      &armnetwork.SubResource{ID: pool.ID},
				Probe:                   &armnetwork.SubResource{ID: to.Ptr(probeId)},
				EnableFloatingIP:        to.Ptr(false),
			},
		})
	}
	return rules, nil
}

// buildNicAssociations creates one association per NIC binding.
func (lbd *LoadBalancerDeployment) buildNicAssociations(bindings []*ilblib.NicBinding) error {
	poolId := lbd.loadBalancer.BackendAddressPoolId()
	for _, nb := range bindings {
		nicName, err := nb.NicName()
		if err != nil {
			return fmt.Errorf("NIC binding %s: %w", nb.Name, err)
		}
		if _, exists := lbd.nicAssociations[nb.Name]; exists {
			return fmt.Errorf("NIC association %s already exists in load balancer %s", nb.Name, lbd.name)
		}
		lbd.nicAssociations[nb.Name] = &NicAssociation{
			Name:                 uuidV5(nb.IpConfigurationId(), poolId).String(),
			NicId:                nb.NicId,
			NicName:              nicName,
			SubscriptionId:       nb.SubscriptionId,
			ResourceGroup:        nb.ResourceGroup,
			IpConfigurationName:  nb.IpConfigurationName,
			IpConfigurationId:    nb.IpConfigurationId(),
			BackendAddressPoolId: poolId,
		}
	}
	return nil
}

// buildVirtualNetwork creates the managed virtual network resource for a
// non-existing network context.
func buildVirtualNetwork(location string, nc *ilblib.NetworkContext) *armnetwork.VirtualNetwork {
	return &armnetwork.VirtualNetwork{
		ID:       to.Ptr(fmt.Sprintf(virtualNetworkIdFmt, nc.SubscriptionId, nc.ResourceGroup, nc.VirtualNetworkName)),
		Name:     to.Ptr(nc.VirtualNetworkName),
		Location: to.Ptr(location),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: to.SliceOfPtrs(nc.AddressSpace...),
			},
			Subnets: []*armnetwork.Subnet{
				{
					ID:   to.Ptr(nc.SubnetId()),
					Name: to.Ptr(nc.SubnetName),
					Properties: &armnetwork.SubnetPropertiesFormat{
						AddressPrefix: to.Ptr(nc.SubnetAddressPrefix),
					},
				},
			},
		},
	}
}
