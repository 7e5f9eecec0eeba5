// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Azure/ilblib"
)

const (
	loadBalancerIdFmt   = "/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/loadBalancers/%s"
	virtualNetworkIdFmt = "/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s"
)

// Deployment represents a deployment of internal load balancers.
type Deployment struct {
	lbs    map[string]*LoadBalancerDeployment
	ilblib *ilblib.IlbLib
	mu     *sync.RWMutex
}

// LoadBalancerAddRequest is the input to Deployment.AddLoadBalancer.
// The spec should have been obtained using the `IlbLib.CopyLoadBalancerSpec`
// method, this allows for customization without affecting the library.
type LoadBalancerAddRequest struct {
	Name string
	Spec *ilblib.LoadBalancerSpec
}

// NewDeployment creates a new empty Deployment backed by the supplied library.
func NewDeployment(lib *ilblib.IlbLib) *Deployment {
	return &Deployment{
		lbs:    make(map[string]*LoadBalancerDeployment),
		ilblib: lib,
		mu:     new(sync.RWMutex),
	}
}

// GetLoadBalancer returns the load balancer deployment with the given name,
// or nil when it does not exist.
func (d *Deployment) GetLoadBalancer(name string) *LoadBalancerDeployment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if lb, ok := d.lbs[name]; ok {
		return lb
	}
	return nil
}

// ListLoadBalancers returns the load balancer deployment names as a sorted slice of string.
func (d *Deployment) ListLoadBalancers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]string, 0, len(d.lbs))
	for name := range d.lbs {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// AddLoadBalancer adds a load balancer to the deployment and builds its
// desired-state resources: the armnetwork load balancer, the managed virtual
// network when the network context is not existing, and one NIC association
// per NIC binding that references the load balancer in the library.
func (d *Deployment) AddLoadBalancer(_ context.Context, req *LoadBalancerAddRequest) error {
	if req == nil || req.Spec == nil {
		return errors.New("load balancer add request or spec is nil")
	}
	if req.Name == "" {
		return errors.New("load balancer add request name is empty")
	}
	if req.Spec.Name != req.Name {
		return fmt.Errorf("load balancer add request name %s does not match spec name %s", req.Name, req.Spec.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.lbs[req.Name]; exists {
		return fmt.Errorf("load balancer %s already exists in the deployment", req.Name)
	}

	nc, err := d.ilblib.GetNetworkContext(req.Spec.NetworkContext)
	if err != nil {
		return err
	}
	if err := nc.Validate(); err != nil {
		return err
	}

	lbd := newLoadBalancerDeployment(req.Name, req.Spec, nc)
	if err := lbd.build(); err != nil {
		return err
	}

	bindings := d.ilblib.NicBindingsForLoadBalancer(req.Name)
	if err := lbd.buildNicAssociations(bindings); err != nil {
		return err
	}
	// one association per binding, no more, no less
	if len(lbd.nicAssociations) != len(bindings) {
		return fmt.Errorf("load balancer %s: expected %d NIC associations, built %d", req.Name, len(bindings), len(lbd.nicAssociations))
	}

	d.lbs[req.Name] = lbd
	return nil
}

// uuidV5 generates a deterministic UUID from the supplied strings.
func uuidV5(s ...string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(s, "")))
}
