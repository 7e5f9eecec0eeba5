// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package processor

// LibLoadBalancer represents a load balancer definition file.
// It is used to construct the ilblib LoadBalancerSpec and is then added to the IlbLib struct.
//
// Port pairs may be supplied either explicitly via PortMappings, or in the
// legacy form of two aligned lists (RulePorts and ProbePorts). The two forms
// are mutually exclusive; validation happens in ilblib.
type LibLoadBalancer struct {
	Name            string            `json:"name"              yaml:"name"`
	Location        string            `json:"location"          yaml:"location"`
	SubscriptionId  string            `json:"subscription_id"   yaml:"subscription_id"`
	ResourceGroup   string            `json:"resource_group"    yaml:"resource_group"`
	Sku             string            `json:"sku"               yaml:"sku"`
	NetworkContext  string            `json:"network_context"   yaml:"network_context"`
	FrontendName    string            `json:"frontend_name"     yaml:"frontend_name"`
	BackendPoolName string            `json:"backend_pool_name" yaml:"backend_pool_name"`
	Probe           *LibProbeSettings `json:"probe"             yaml:"probe"`
	PortMappings    []LibPortMapping  `json:"port_mappings"     yaml:"port_mappings"`
	RulePorts       []string          `json:"rule_ports"        yaml:"rule_ports"`
	ProbePorts      []string          `json:"probe_ports"       yaml:"probe_ports"`
}

// LibPortMapping pairs a load balancing rule frontend port with its backend
// port and the port of the health probe that governs it.
type LibPortMapping struct {
	FrontendPort int32 `json:"frontend_port" yaml:"frontend_port"`
	BackendPort  int32 `json:"backend_port"  yaml:"backend_port"`
	ProbePort    int32 `json:"probe_port"    yaml:"probe_port"`
}

// LibProbeSettings are the health probe parameters shared by all probes of a
// load balancer definition.
type LibProbeSettings struct {
	Protocol          string `json:"protocol"            yaml:"protocol"`
	IntervalInSeconds int32  `json:"interval_in_seconds" yaml:"interval_in_seconds"`
	NumberOfProbes    int32  `json:"number_of_probes"    yaml:"number_of_probes"`
	RequestPath       string `json:"request_path"        yaml:"request_path"`
}
