// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package deploy contains the commands that compare a library member with the
// live state in Azure and apply the pending changes.
package deploy

import (
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"

	"github.com/Azure/ilblib"
	"github.com/Azure/ilblib/deployment"
	"github.com/Azure/ilblib/internal/auth"
)

// DeployCmd groups the deployment operations.
var DeployCmd = cobra.Command{
	Use:   "deploy [flags]",
	Short: "Plan and apply internal load balancer deployments against Azure.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.PrintErrf("%s deploy command: missing required child command\n", cmd.ErrPrefix())
		cmd.Usage() // nolint: errcheck
	},
}

// PlanCmd prints the changes that applying the library member would make.
var PlanCmd = cobra.Command{
	Use:   "plan [flags] dir",
	Short: "Show the changes that applying the library member would make.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := newDeploymentFromDir(cmd, args[0])
		if err != nil {
			cmd.PrintErrf("%s deploy plan error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		plan, err := d.Plan(cmd.Context())
		if err != nil {
			cmd.PrintErrf("%s deploy plan error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		if plan.Empty() {
			cmd.Println("no changes")
			return
		}
		for _, e := range plan.Entries {
			cmd.Printf("%s %s %s\n", e.Action, e.ResourceType, e.ResourceId)
		}
	},
}

// ApplyCmd applies the library member to Azure.
var ApplyCmd = cobra.Command{
	Use:   "apply [flags] dir",
	Short: "Apply the library member to Azure.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		d, err := newDeploymentFromDir(cmd, args[0])
		if err != nil {
			cmd.PrintErrf("%s deploy apply error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		if err := d.Apply(cmd.Context()); err != nil {
			cmd.PrintErrf("%s deploy apply error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		for _, name := range d.ListLoadBalancers() {
			out := d.GetLoadBalancer(name).Outputs()
			cmd.Printf("%s: %s\n", name, out.PrivateIpAddress)
		}
	},
}

// newDeploymentFromDir initializes a library from the supplied directory,
// creates the network clients for every subscription the library references,
// resolves the external resources and builds the deployment.
func newDeploymentFromDir(cmd *cobra.Command, dir string) (*deployment.Deployment, error) {
	lib := ilblib.NewIlbLib()
	if err := lib.Init(cmd.Context(), os.DirFS(dir)); err != nil {
		return nil, err
	}

	cred, err := auth.NewToken()
	if err != nil {
		return nil, fmt.Errorf("creating credential: %w", err)
	}
	for _, sub := range subscriptionIds(lib).ToSlice() {
		factory, err := armnetwork.NewClientFactory(sub, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("creating network client for subscription %s: %w", sub, err)
		}
		lib.AddNetworkClient(sub, factory)
	}

	if err := lib.GetExternalResourcesFromAzure(cmd.Context()); err != nil {
		return nil, err
	}

	d := deployment.NewDeployment(lib)
	for _, name := range lib.ListLoadBalancers() {
		spec, err := lib.CopyLoadBalancerSpec(name)
		if err != nil {
			return nil, err
		}
		if err := d.AddLoadBalancer(cmd.Context(), &deployment.LoadBalancerAddRequest{
			Name: name,
			Spec: spec,
		}); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// subscriptionIds collects every subscription referenced by the library's
// network contexts, load balancers and NIC bindings.
func subscriptionIds(lib *ilblib.IlbLib) mapset.Set[string] {
	subs := mapset.NewThreadUnsafeSet[string]()
	for _, name := range lib.ListNetworkContexts() {
		if nc, err := lib.GetNetworkContext(name); err == nil {
			subs.Add(nc.SubscriptionId)
		}
	}
	for _, name := range lib.ListLoadBalancers() {
		if spec, err := lib.GetLoadBalancerSpec(name); err == nil {
			subs.Add(spec.SubscriptionId)
		}
		for _, nb := range lib.NicBindingsForLoadBalancer(name) {
			subs.Add(nb.SubscriptionId)
		}
	}
	return subs
}

func init() {
	DeployCmd.AddCommand(&PlanCmd)
	DeployCmd.AddCommand(&ApplyCmd)
}
