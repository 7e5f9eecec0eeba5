// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Azure/ilblib/processor"
)

// Defaults applied to load balancer definitions that omit the optional fields.
const (
	DefaultFrontendName        = "frontend"
	DefaultBackendPoolName     = "backend"
	DefaultProbeInterval       = 5 // seconds
	DefaultProbeCount          = 2
	DefaultIpConfigurationName = "ipconfig1"

	minPort = 1
	maxPort = 65535
)

// LoadBalancerSpec is the canonical, validated form of a load balancer
// definition. Port pairs are always explicit here; the legacy two-list input
// form has been resolved by the time a LoadBalancerSpec exists.
type LoadBalancerSpec struct {
	Name            string
	Location        string
	SubscriptionId  string
	ResourceGroup   string
	Sku             armnetwork.LoadBalancerSKUName
	NetworkContext  string
	FrontendName    string
	BackendPoolName string
	Probe           ProbeSettings
	PortMappings    []PortMapping
}

// PortMapping pairs a load balancing rule frontend port with its backend port
// and the port of the health probe that governs it.
type PortMapping struct {
	FrontendPort int32
	BackendPort  int32
	ProbePort    int32
}

// ProbeSettings are the health probe parameters shared by all probes of a
// load balancer.
type ProbeSettings struct {
	Protocol          armnetwork.ProbeProtocol
	IntervalInSeconds int32
	NumberOfProbes    int32
	RequestPath       string
}

var _ error = (*ErrPortListLengthMismatch)(nil)

// ErrPortListLengthMismatch is returned when the legacy two-list port input
// form is used and the rule port list and probe port list have different
// lengths. The positional pairing between the two lists is undefined in that
// case, so the definition is rejected before any resource graph is built.
type ErrPortListLengthMismatch struct {
	RulePorts  int
	ProbePorts int
}

// Error implements the error interface for type ErrPortListLengthMismatch.
func (e *ErrPortListLengthMismatch) Error() string {
	return fmt.Sprintf("rule port list (%d entries) and probe port list (%d entries) must be the same length", e.RulePorts, e.ProbePorts)
}

// newLoadBalancerSpec creates a canonical LoadBalancerSpec from the processor
// schema type, applying defaults and validating the port pairs.
func newLoadBalancerSpec(lib *processor.LibLoadBalancer) (*LoadBalancerSpec, error) {
	if lib.Location == "" {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s has no location", lib.Name)
	}
	if lib.SubscriptionId == "" {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s has no subscription_id", lib.Name)
	}
	if lib.ResourceGroup == "" {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s has no resource_group", lib.Name)
	}
	if lib.NetworkContext == "" {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s has no network_context", lib.Name)
	}

	sku, err := parseSkuName(lib.Sku)
	if err != nil {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s: %w", lib.Name, err)
	}

	probe, err := newProbeSettings(lib.Probe)
	if err != nil {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s: %w", lib.Name, err)
	}

	mappings, err := resolvePortMappings(lib)
	if err != nil {
		return nil, fmt.Errorf("newLoadBalancerSpec: load balancer %s: %w", lib.Name, err)
	}

	spec := &LoadBalancerSpec{
		Name:            lib.Name,
		Location:        lib.Location,
		SubscriptionId:  lib.SubscriptionId,
		ResourceGroup:   lib.ResourceGroup,
		Sku:             sku,
		NetworkContext:  lib.NetworkContext,
		FrontendName:    lib.FrontendName,
		BackendPoolName: lib.BackendPoolName,
		Probe:           probe,
		PortMappings:    mappings,
	}
	if spec.FrontendName == "" {
		spec.FrontendName = DefaultFrontendName
	}
	if spec.BackendPoolName == "" {
		spec.BackendPoolName = DefaultBackendPoolName
	}
	return spec, nil
}

// resolvePortMappings produces the explicit port pair list from a definition.
// The explicit form and the legacy two-list form are mutually exclusive.
// In the legacy form the Nth rule port is paired with the Nth probe port and
// the backend port equals the frontend port; lists of unequal length are
// rejected here, before any resource graph is built.
func resolvePortMappings(lib *processor.LibLoadBalancer) ([]PortMapping, error) {
	legacy := len(lib.RulePorts) > 0 || len(lib.ProbePorts) > 0
	if legacy && len(lib.PortMappings) > 0 {
		return nil, fmt.Errorf("port_mappings and rule_ports/probe_ports are mutually exclusive")
	}

	var mappings []PortMapping
	if legacy {
		var err error
		mappings, err = PortMappingsFromPortLists(lib.RulePorts, lib.ProbePorts)
		if err != nil {
			return nil, err
		}
	} else {
		mappings = make([]PortMapping, len(lib.PortMappings))
		for i, pm := range lib.PortMappings {
			mappings[i] = PortMapping{
				FrontendPort: pm.FrontendPort,
				BackendPort:  pm.BackendPort,
				ProbePort:    pm.ProbePort,
			}
			if mappings[i].BackendPort == 0 {
				mappings[i].BackendPort = mappings[i].FrontendPort
			}
		}
	}

	frontendPorts := mapset.NewThreadUnsafeSet[int32]()
	for _, pm := range mappings {
		for _, p := range []int32{pm.FrontendPort, pm.BackendPort, pm.ProbePort} {
			if p < minPort || p > maxPort {
				return nil, fmt.Errorf("port %d is out of range [%d, %d]", p, minPort, maxPort)
			}
		}
		if !frontendPorts.Add(pm.FrontendPort) {
			return nil, fmt.Errorf("duplicate frontend port %d", pm.FrontendPort)
		}
	}
	return mappings, nil
}

// PortMappingsFromPortLists converts the legacy aligned-list port input form
// into explicit port pairs. The Nth rule port is paired with the Nth probe
// port. An ErrPortListLengthMismatch is returned when the lists differ in
// length.
func PortMappingsFromPortLists(rulePorts, probePorts []string) ([]PortMapping, error) {
	if len(rulePorts) != len(probePorts) {
		return nil, &ErrPortListLengthMismatch{
			RulePorts:  len(rulePorts),
			ProbePorts: len(probePorts),
		}
	}
	mappings := make([]PortMapping, len(rulePorts))
	for i := range rulePorts {
		fe, err := parsePort(rulePorts[i])
		if err != nil {
			return nil, fmt.Errorf("rule port %q: %w", rulePorts[i], err)
		}
		pr, err := parsePort(probePorts[i])
		if err != nil {
			return nil, fmt.Errorf("probe port %q: %w", probePorts[i], err)
		}
		mappings[i] = PortMapping{
			FrontendPort: fe,
			BackendPort:  fe,
			ProbePort:    pr,
		}
	}
	return mappings, nil
}

func parsePort(s string) (int32, error) {
	p, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not a valid port number: %w", err)
	}
	return int32(p), nil
}

func newProbeSettings(lib *processor.LibProbeSettings) (ProbeSettings, error) {
	ps := ProbeSettings{
		Protocol:          armnetwork.ProbeProtocolTCP,
		IntervalInSeconds: DefaultProbeInterval,
		NumberOfProbes:    DefaultProbeCount,
	}
	if lib == nil {
		return ps, nil
	}
	if lib.Protocol != "" {
		proto, err := parseProbeProtocol(lib.Protocol)
		if err != nil {
			return ps, err
		}
		ps.Protocol = proto
	}
	if lib.IntervalInSeconds != 0 {
		ps.IntervalInSeconds = lib.IntervalInSeconds
	}
	if lib.NumberOfProbes != 0 {
		ps.NumberOfProbes = lib.NumberOfProbes
	}
	ps.RequestPath = lib.RequestPath
	if ps.RequestPath != "" && ps.Protocol == armnetwork.ProbeProtocolTCP {
		return ps, fmt.Errorf("request_path is only valid for Http and Https probes")
	}
	return ps, nil
}

func parseSkuName(s string) (armnetwork.LoadBalancerSKUName, error) {
	if s == "" {
		return armnetwork.LoadBalancerSKUNameStandard, nil
	}
	for _, v := range armnetwork.PossibleLoadBalancerSKUNameValues() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown load balancer sku %q", s)
}

func parseProbeProtocol(s string) (armnetwork.ProbeProtocol, error) {
	for _, v := range armnetwork.PossibleProbeProtocolValues() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown probe protocol %q", s)
}
