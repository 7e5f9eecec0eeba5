// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package generate contains the command that builds the resource documents of
// a library member without touching Azure.
package generate

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Azure/ilblib"
	"github.com/Azure/ilblib/deployment"
)

var outputDir string

// GenerateCmd builds the load balancer resource documents from a library
// member and writes them to the output directory.
var GenerateCmd = cobra.Command{
	Use:   "generate [flags] dir",
	Short: "Generate the internal load balancer resource documents from an ilblib library member.",
	Long: `Processes the library member in the supplied directory, builds the resource
graph of every load balancer, and writes the resulting documents to the
output directory. No Azure credentials are required.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lib := ilblib.NewIlbLib()
		if err := lib.Init(cmd.Context(), os.DirFS(args[0])); err != nil {
			cmd.PrintErrf("%s generate error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}

		d := deployment.NewDeployment(lib)
		for _, name := range lib.ListLoadBalancers() {
			spec, err := lib.CopyLoadBalancerSpec(name)
			if err != nil {
				cmd.PrintErrf("%s generate error: %v\n", cmd.ErrPrefix(), err)
				os.Exit(1)
			}
			if err := d.AddLoadBalancer(cmd.Context(), &deployment.LoadBalancerAddRequest{
				Name: name,
				Spec: spec,
			}); err != nil {
				cmd.PrintErrf("%s generate error: %v\n", cmd.ErrPrefix(), err)
				os.Exit(1)
			}
		}

		if err := deployment.NewFSWriter().Write(cmd.Context(), d, outputDir); err != nil {
			cmd.PrintErrf("%s generate error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		cmd.Printf("wrote %d load balancer(s) to %s\n", len(d.ListLoadBalancers()), outputDir)
	},
}

func init() {
	GenerateCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "output directory for the generated documents")
}
