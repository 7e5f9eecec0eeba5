// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package command

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Azure/ilblib/cmd/ilbtool/command/deploy"
	"github.com/Azure/ilblib/cmd/ilbtool/command/generate"
	"github.com/Azure/ilblib/cmd/ilbtool/command/library"
)

var version = "dev"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "ilbtool",
	Version: version,
	Short:   "A cli tool for working with ilblib libraries",
	Long: `A cli tool for working with ilblib libraries.

This tool can:

- Check the validity of an ilblib library member.
- Generate the internal load balancer resource documents from a library member.
- Plan and apply internal load balancer deployments against Azure.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(&library.LibraryCmd)
	rootCmd.AddCommand(&generate.GenerateCmd)
	rootCmd.AddCommand(&deploy.DeployCmd)
}
