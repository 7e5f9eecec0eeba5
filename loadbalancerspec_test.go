// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/ilblib/processor"
)

func validLibLoadBalancer() *processor.LibLoadBalancer {
	return &processor.LibLoadBalancer{
		Name:           "web",
		Location:       "East US",
		SubscriptionId: "00000000-0000-0000-0000-000000000000",
		ResourceGroup:  "rg-web",
		NetworkContext: "main",
		PortMappings: []processor.LibPortMapping{
			{FrontendPort: 80, BackendPort: 8080, ProbePort: 8081},
		},
	}
}

func TestNewLoadBalancerSpecDefaults(t *testing.T) {
	t.Parallel()
	spec, err := newLoadBalancerSpec(validLibLoadBalancer())
	require.NoError(t, err)

	assert.Equal(t, DefaultFrontendName, spec.FrontendName)
	assert.Equal(t, DefaultBackendPoolName, spec.BackendPoolName)
	assert.Equal(t, armnetwork.LoadBalancerSKUNameStandard, spec.Sku)
	assert.Equal(t, armnetwork.ProbeProtocolTCP, spec.Probe.Protocol)
	assert.Equal(t, int32(DefaultProbeInterval), spec.Probe.IntervalInSeconds)
	assert.Equal(t, int32(DefaultProbeCount), spec.Probe.NumberOfProbes)
}

func TestNewLoadBalancerSpecMissingFields(t *testing.T) {
	t.Parallel()
	tests := map[string]func(lb *processor.LibLoadBalancer){
		"location":        func(lb *processor.LibLoadBalancer) { lb.Location = "" },
		"subscription_id": func(lb *processor.LibLoadBalancer) { lb.SubscriptionId = "" },
		"resource_group":  func(lb *processor.LibLoadBalancer) { lb.ResourceGroup = "" },
		"network_context": func(lb *processor.LibLoadBalancer) { lb.NetworkContext = "" },
	}
	for name, mutate := range tests {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			lb := validLibLoadBalancer()
			mutate(lb)
			_, err := newLoadBalancerSpec(lb)
			assert.ErrorContains(t, err, "has no "+name)
		})
	}
}

func TestNewLoadBalancerSpecPortValidation(t *testing.T) {
	t.Parallel()

	t.Run("mutually exclusive forms", func(t *testing.T) {
		t.Parallel()
		lb := validLibLoadBalancer()
		lb.RulePorts = []string{"80"}
		lb.ProbePorts = []string{"8080"}
		_, err := newLoadBalancerSpec(lb)
		assert.ErrorContains(t, err, "mutually exclusive")
	})

	t.Run("duplicate frontend port", func(t *testing.T) {
		t.Parallel()
		lb := validLibLoadBalancer()
		lb.PortMappings = append(lb.PortMappings, processor.LibPortMapping{FrontendPort: 80, ProbePort: 9090})
		_, err := newLoadBalancerSpec(lb)
		assert.ErrorContains(t, err, "duplicate frontend port 80")
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Parallel()
		lb := validLibLoadBalancer()
		lb.PortMappings = []processor.LibPortMapping{{FrontendPort: 80, ProbePort: 70000}}
		_, err := newLoadBalancerSpec(lb)
		assert.ErrorContains(t, err, "out of range")
	})

	t.Run("backend port defaults to frontend port", func(t *testing.T) {
		t.Parallel()
		lb := validLibLoadBalancer()
		lb.PortMappings = []processor.LibPortMapping{{FrontendPort: 443, ProbePort: 8443}}
		spec, err := newLoadBalancerSpec(lb)
		require.NoError(t, err)
		assert.Equal(t, int32(443), spec.PortMappings[0].BackendPort)
	})
}

func TestPortMappingsFromPortLists(t *testing.T) {
	t.Parallel()
	mappings, err := PortMappingsFromPortLists([]string{"80", "443"}, []string{"8080", "8443"})
	require.NoError(t, err)
	assert.Equal(t, []PortMapping{
		{FrontendPort: 80, BackendPort: 80, ProbePort: 8080},
		{FrontendPort: 443, BackendPort: 443, ProbePort: 8443},
	}, mappings)
}

func TestPortMappingsFromPortListsLengthMismatch(t *testing.T) {
	t.Parallel()
	_, err := PortMappingsFromPortLists([]string{"80", "443"}, []string{"8080"})
	require.Error(t, err)

	mismatch := new(ErrPortListLengthMismatch)
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.RulePorts)
	assert.Equal(t, 1, mismatch.ProbePorts)
	assert.Equal(t, "rule port list (2 entries) and probe port list (1 entries) must be the same length", err.Error())
}

func TestPortMappingsFromPortListsInvalidPort(t *testing.T) {
	t.Parallel()
	_, err := PortMappingsFromPortLists([]string{"http"}, []string{"8080"})
	assert.ErrorContains(t, err, "not a valid port number")

	mismatch := new(ErrPortListLengthMismatch)
	assert.False(t, errors.As(err, &mismatch))
}

func TestNewProbeSettings(t *testing.T) {
	t.Parallel()

	t.Run("http with request path", func(t *testing.T) {
		t.Parallel()
		ps, err := newProbeSettings(&processor.LibProbeSettings{
			Protocol:    "Http",
			RequestPath: "/healthz",
		})
		require.NoError(t, err)
		assert.Equal(t, armnetwork.ProbeProtocolHTTP, ps.Protocol)
		assert.Equal(t, "/healthz", ps.RequestPath)
	})

	t.Run("request path rejected for tcp", func(t *testing.T) {
		t.Parallel()
		_, err := newProbeSettings(&processor.LibProbeSettings{
			Protocol:    "Tcp",
			RequestPath: "/healthz",
		})
		assert.ErrorContains(t, err, "request_path is only valid")
	})

	t.Run("unknown protocol", func(t *testing.T) {
		t.Parallel()
		_, err := newProbeSettings(&processor.LibProbeSettings{Protocol: "udp"})
		assert.ErrorContains(t, err, "unknown probe protocol")
	})
}

func TestParseSkuName(t *testing.T) {
	t.Parallel()
	sku, err := parseSkuName("standard")
	require.NoError(t, err)
	assert.Equal(t, armnetwork.LoadBalancerSKUNameStandard, sku)

	sku, err = parseSkuName("")
	require.NoError(t, err)
	assert.Equal(t, armnetwork.LoadBalancerSKUNameStandard, sku)

	_, err = parseSkuName("premium")
	assert.ErrorContains(t, err, "unknown load balancer sku")
}
