// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Azure/ilblib/assets"
)

// Apply creates or updates the deployment's resources in dependency order:
// the managed virtual network first, then the load balancer, then the NIC
// associations fanning into the backend pool. NIC updates run with bounded
// parallelism, everything else is sequential because of the dependencies.
//
// After a successful apply the stored load balancer is refreshed from the
// service response, so Outputs reflects the allocated private IP address.
func (d *Deployment) Apply(ctx context.Context) error {
	for _, name := range d.ListLoadBalancers() {
		d.mu.RLock()
		lbd := d.lbs[name]
		d.mu.RUnlock()
		if err := d.applyLoadBalancer(ctx, lbd); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deployment) applyLoadBalancer(ctx context.Context, lbd *LoadBalancerDeployment) error {
	client, err := d.ilblib.NetworkClient(lbd.spec.SubscriptionId)
	if err != nil {
		return err
	}

	if vnet := lbd.virtualNetwork; vnet != nil {
		nc := lbd.networkContext
		poller, err := client.NewVirtualNetworksClient().BeginCreateOrUpdate(ctx, nc.ResourceGroup, nc.VirtualNetworkName, *vnet, nil)
		if err != nil {
			return fmt.Errorf("creating virtual network %s: %w", nc.VirtualNetworkName, err)
		}
		if _, err := poller.PollUntilDone(ctx, nil); err != nil {
			return fmt.Errorf("creating virtual network %s: %w", nc.VirtualNetworkName, err)
		}
	}

	poller, err := client.NewLoadBalancersClient().BeginCreateOrUpdate(ctx, lbd.spec.ResourceGroup, lbd.name, lbd.loadBalancer.LoadBalancer, nil)
	if err != nil {
		return fmt.Errorf("creating load balancer %s: %w", lbd.name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return fmt.Errorf("creating load balancer %s: %w", lbd.name, err)
	}

	// refresh from the service response so the allocated private IP is visible
	d.mu.Lock()
	lbd.loadBalancer = assets.NewLoadBalancer(resp.LoadBalancer)
	d.mu.Unlock()

	return d.applyNicAssociations(ctx, lbd)
}

func (d *Deployment) applyNicAssociations(ctx context.Context, lbd *LoadBalancerDeployment) error {
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(d.ilblib.Options.Parallelism)

	for _, assoc := range lbd.NicAssociations() {
		assoc := assoc
		grp.Go(func() error {
			client, err := d.ilblib.NetworkClient(assoc.SubscriptionId)
			if err != nil {
				return err
			}
			nicClient := client.NewInterfacesClient()
			resp, err := nicClient.Get(ctx, assoc.ResourceGroup, assoc.NicName, nil)
			if err != nil {
				return fmt.Errorf("applying NIC association %s: %w", assoc.Name, err)
			}
			nic := resp.Interface

			needsUpdate, err := nicAssociationNeedsUpdate(&nic, assoc)
			if err != nil {
				return err
			}
			if !needsUpdate {
				return nil
			}

			ipc, err := findIpConfiguration(&nic, assoc.IpConfigurationName)
			if err != nil {
				return err
			}
			if ipc.Properties == nil {
				ipc.Properties = &armnetwork.InterfaceIPConfigurationPropertiesFormat{}
			}
			ipc.Properties.LoadBalancerBackendAddressPools = append(
				ipc.Properties.LoadBalancerBackendAddressPools,
				&armnetwork.BackendAddressPool{ID: &assoc.BackendAddressPoolId},
			)

			poller, err := nicClient.BeginCreateOrUpdate(ctx, assoc.ResourceGroup, assoc.NicName, nic, nil)
			if err != nil {
				return fmt.Errorf("applying NIC association %s: %w", assoc.Name, err)
			}
			if _, err := poller.PollUntilDone(ctx, nil); err != nil {
				return fmt.Errorf("applying NIC association %s: %w", assoc.Name, err)
			}
			return nil
		})
	}
	return grp.Wait()
}
