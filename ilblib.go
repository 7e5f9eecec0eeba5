// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/brunoga/deep"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Azure/ilblib/processor"
	"github.com/Azure/ilblib/to"
)

const (
	defaultParallelism = 10 // default number of parallel requests to make to Azure APIs
)

// IlbLib is the structure that gets built from the library files.
// Do not create this directly, use NewIlbLib instead.
type IlbLib struct {
	Options *IlbLibOptions

	networkContexts map[string]*NetworkContext
	loadBalancers   map[string]*LoadBalancerSpec
	nicBindings     map[string]*NicBinding
	clients         *azureClients
	mu              sync.RWMutex // mu protects the IlbLib maps
}

type azureClients struct {
	// networkClients is keyed by subscription ID, NIC bindings may live in a
	// different subscription than the load balancer.
	networkClients map[string]*armnetwork.ClientFactory
}

// IlbLibOptions are options for the IlbLib.
// This is created by NewIlbLib.
type IlbLibOptions struct {
	AllowOverwrite bool // AllowOverwrite allows overwriting of existing definitions when processing additional libraries with IlbLib.Init()
	Parallelism    int  // Parallelism is the number of parallel requests to make to Azure APIs
}

// NewIlbLib returns a new instance of the ilblib library.
func NewIlbLib() *IlbLib {
	return &IlbLib{
		Options:         getDefaultIlbLibOptions(),
		networkContexts: make(map[string]*NetworkContext),
		loadBalancers:   make(map[string]*LoadBalancerSpec),
		nicBindings:     make(map[string]*NicBinding),
		clients: &azureClients{
			networkClients: make(map[string]*armnetwork.ClientFactory),
		},
		mu: sync.RWMutex{},
	}
}

func getDefaultIlbLibOptions() *IlbLibOptions {
	return &IlbLibOptions{
		Parallelism:    defaultParallelism,
		AllowOverwrite: false,
	}
}

// AddNetworkClient adds an authenticated *armnetwork.ClientFactory for the
// given subscription. Clients are needed to resolve existing resources from
// Azure and to apply deployments.
func (lib *IlbLib) AddNetworkClient(subscriptionId string, client *armnetwork.ClientFactory) {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	lib.clients.networkClients[subscriptionId] = client
}

// NetworkClient returns the client factory for the given subscription.
func (lib *IlbLib) NetworkClient(subscriptionId string) (*armnetwork.ClientFactory, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	client, ok := lib.clients.networkClients[subscriptionId]
	if !ok {
		return nil, fmt.Errorf("no network client for subscription %s", subscriptionId)
	}
	return client, nil
}

// Init processes ILB libraries, supplied as fs.FS interfaces.
// These are typically an os.DirFS or the result of FetchLibraryByGetterString.
// It populates the struct with the results of the processing.
func (lib *IlbLib) Init(_ context.Context, libs ...fs.FS) error {
	if lib.Options == nil || lib.Options.Parallelism == 0 {
		return errors.New("ilblib Options not set or parallelism is 0")
	}

	accumulated := &processor.Result{
		NetworkContexts: make(map[string]*processor.LibNetworkContext),
		LoadBalancers:   make(map[string]*processor.LibLoadBalancer),
		NicBindings:     make(map[string]*processor.LibNicBinding),
	}

	// Process the libraries
	for _, l := range libs {
		res := new(processor.Result)
		pc := processor.NewProcessorClient(l)
		if err := pc.Process(res); err != nil {
			return fmt.Errorf("error processing library %v: %w", l, err)
		}
		if err := lib.mergeProcessedResult(accumulated, res); err != nil {
			return err
		}
	}

	// Canonicalize after all libraries are processed, so that definitions may
	// reference each other across library boundaries.
	return lib.generateSpecs(accumulated)
}

// mergeProcessedResult merges the results of a processed library into the accumulated result.
func (lib *IlbLib) mergeProcessedResult(acc, res *processor.Result) error {
	for k, v := range res.NetworkContexts {
		if _, exists := acc.NetworkContexts[k]; exists && !lib.Options.AllowOverwrite {
			return fmt.Errorf("network context %s already exists in the library", k)
		}
		acc.NetworkContexts[k] = v
	}
	for k, v := range res.LoadBalancers {
		if _, exists := acc.LoadBalancers[k]; exists && !lib.Options.AllowOverwrite {
			return fmt.Errorf("load balancer %s already exists in the library", k)
		}
		acc.LoadBalancers[k] = v
	}
	for k, v := range res.NicBindings {
		if _, exists := acc.NicBindings[k]; exists && !lib.Options.AllowOverwrite {
			return fmt.Errorf("NIC binding %s already exists in the library", k)
		}
		acc.NicBindings[k] = v
	}
	return nil
}

// generateSpecs builds the canonical types from the accumulated raw result
// and validates cross references between them.
func (lib *IlbLib) generateSpecs(res *processor.Result) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	for name, libNc := range res.NetworkContexts {
		nc, err := newNetworkContext(libNc)
		if err != nil {
			return err
		}
		lib.networkContexts[name] = nc
	}

	for name, libLb := range res.LoadBalancers {
		spec, err := newLoadBalancerSpec(libLb)
		if err != nil {
			return err
		}
		if _, ok := lib.networkContexts[spec.NetworkContext]; !ok {
			return fmt.Errorf("load balancer %s references network context %s which does not exist in the library", name, spec.NetworkContext)
		}
		lib.loadBalancers[name] = spec
	}

	for name, libNb := range res.NicBindings {
		nb, err := newNicBinding(libNb)
		if err != nil {
			return err
		}
		if _, ok := lib.loadBalancers[nb.LoadBalancer]; !ok {
			return fmt.Errorf("NIC binding %s references load balancer %s which does not exist in the library", name, nb.LoadBalancer)
		}
		lib.nicBindings[name] = nb
	}

	// Two bindings for the same load balancer must not resolve to the same NIC
	// IP configuration, that would put one IP configuration into the backend
	// pool twice.
	seenIpConfigurations := mapset.NewThreadUnsafeSet[string]()
	for _, name := range sortedKeys(lib.nicBindings) {
		nb := lib.nicBindings[name]
		key := strings.ToLower(nb.LoadBalancer + "|" + nb.IpConfigurationId())
		if !seenIpConfigurations.Add(key) {
			return fmt.Errorf("NIC binding %s resolves to IP configuration %s which is already bound to load balancer %s", name, nb.IpConfigurationId(), nb.LoadBalancer)
		}
	}

	return nil
}

// ListNetworkContexts returns a sorted list of the network context names in the IlbLib struct.
func (lib *IlbLib) ListNetworkContexts() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return sortedKeys(lib.networkContexts)
}

// ListLoadBalancers returns a sorted list of the load balancer names in the IlbLib struct.
func (lib *IlbLib) ListLoadBalancers() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return sortedKeys(lib.loadBalancers)
}

// ListNicBindings returns a sorted list of the NIC binding names in the IlbLib struct.
func (lib *IlbLib) ListNicBindings() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return sortedKeys(lib.nicBindings)
}

// NetworkContextExists returns true if the network context exists in the IlbLib struct.
func (lib *IlbLib) NetworkContextExists(name string) bool {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	_, exists := lib.networkContexts[name]
	return exists
}

// LoadBalancerExists returns true if the load balancer exists in the IlbLib struct.
func (lib *IlbLib) LoadBalancerExists(name string) bool {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	_, exists := lib.loadBalancers[name]
	return exists
}

// GetNetworkContext returns the network context with the given name.
func (lib *IlbLib) GetNetworkContext(name string) (*NetworkContext, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	nc, ok := lib.networkContexts[name]
	if !ok {
		return nil, fmt.Errorf("network context %s not found", name)
	}
	return nc, nil
}

// GetLoadBalancerSpec returns the load balancer spec with the given name.
func (lib *IlbLib) GetLoadBalancerSpec(name string) (*LoadBalancerSpec, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	spec, ok := lib.loadBalancers[name]
	if !ok {
		return nil, fmt.Errorf("load balancer %s not found", name)
	}
	return spec, nil
}

// CopyLoadBalancerSpec returns a deep copy of the requested load balancer
// spec by name. The returned struct can be modified and used as a parameter
// to the deployment.AddLoadBalancer method without affecting the library.
func (lib *IlbLib) CopyLoadBalancerSpec(name string) (*LoadBalancerSpec, error) {
	spec, err := lib.GetLoadBalancerSpec(name)
	if err != nil {
		return nil, err
	}
	cp, err := deep.Copy(spec)
	if err != nil {
		return nil, fmt.Errorf("CopyLoadBalancerSpec: error copying load balancer spec %s: %w", name, err)
	}
	return cp, nil
}

// NicBindingsForLoadBalancer returns the NIC bindings that reference the
// given load balancer, sorted by name.
func (lib *IlbLib) NicBindingsForLoadBalancer(name string) []*NicBinding {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	res := make([]*NicBinding, 0)
	for _, nb := range lib.nicBindings {
		if nb.LoadBalancer == name {
			res = append(res, nb)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// GetExternalResourcesFromAzure resolves the external resources referenced by
// the library: the subnets of existing network contexts and the network
// interfaces of the NIC bindings. Missing resources are reported as errors.
func (lib *IlbLib) GetExternalResourcesFromAzure(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(lib.Options.Parallelism)

	lib.mu.RLock()
	contexts := make([]*NetworkContext, 0, len(lib.networkContexts))
	for _, nc := range lib.networkContexts {
		if nc.Existing {
			contexts = append(contexts, nc)
		}
	}
	bindings := make([]*NicBinding, 0, len(lib.nicBindings))
	for _, nb := range lib.nicBindings {
		bindings = append(bindings, nb)
	}
	lib.mu.RUnlock()

	for _, nc := range contexts {
		nc := nc
		grp.Go(func() error {
			client, err := lib.NetworkClient(nc.SubscriptionId)
			if err != nil {
				return err
			}
			resp, err := client.NewSubnetsClient().Get(ctx, nc.ResourceGroup, nc.VirtualNetworkName, nc.SubnetName, nil)
			if err != nil {
				return fmt.Errorf("subnet %s not found in virtual network %s (resource group %s): %w", nc.SubnetName, nc.VirtualNetworkName, nc.ResourceGroup, err)
			}
			if !strings.EqualFold(to.ValOrZero(resp.ID), nc.SubnetId()) {
				return fmt.Errorf("subnet %s resolved to unexpected resource ID %s", nc.SubnetName, to.ValOrZero(resp.ID))
			}
			return nil
		})
	}

	for _, nb := range bindings {
		nb := nb
		grp.Go(func() error {
			client, err := lib.NetworkClient(nb.SubscriptionId)
			if err != nil {
				return err
			}
			nicName, err := nb.NicName()
			if err != nil {
				return err
			}
			resp, err := client.NewInterfacesClient().Get(ctx, nb.ResourceGroup, nicName, nil)
			if err != nil {
				return fmt.Errorf("network interface %s not found in resource group %s: %w", nicName, nb.ResourceGroup, err)
			}
			if resp.Properties == nil {
				return fmt.Errorf("network interface %s has no properties", nicName)
			}
			for _, ipc := range resp.Properties.IPConfigurations {
				if strings.EqualFold(to.ValOrZero(ipc.Name), nb.IpConfigurationName) {
					return nil
				}
			}
			return fmt.Errorf("network interface %s has no IP configuration named %s", nicName, nb.IpConfigurationName)
		})
	}

	return grp.Wait()
}

func sortedKeys[V any](m map[string]V) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
