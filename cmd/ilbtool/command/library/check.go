// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package library

import (
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"

	"github.com/Azure/ilblib"
)

// CheckCmd validates a library member directory.
var CheckCmd = cobra.Command{
	Use:   "check [flags] dir",
	Short: "Check the validity of an ilblib library member.",
	Long: `Processes the library member in the supplied directory and validates the
definitions and the cross references between them.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lib := ilblib.NewIlbLib()
		if err := lib.Init(cmd.Context(), os.DirFS(args[0])); err != nil {
			cmd.PrintErrf("%s library check error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		if err := checkAllLoadBalancersAreBound(lib); err != nil {
			cmd.PrintErrf("%s library check error: %v\n", cmd.ErrPrefix(), err)
			os.Exit(1)
		}
		cmd.Printf("library %s is valid\n", args[0])
	},
}

// checkAllLoadBalancersAreBound reports load balancers that no NIC binding
// references. They are valid but serve no traffic, which is usually a
// mistake in the library.
func checkAllLoadBalancersAreBound(lib *ilblib.IlbLib) error {
	bound := mapset.NewThreadUnsafeSet[string]()
	for _, name := range lib.ListLoadBalancers() {
		if len(lib.NicBindingsForLoadBalancer(name)) > 0 {
			bound.Add(name)
		}
	}
	unbound := mapset.NewThreadUnsafeSet(lib.ListLoadBalancers()...).Difference(bound).ToSlice()
	if len(unbound) > 0 {
		return fmt.Errorf("checkAllLoadBalancersAreBound: found load balancers with no NIC bindings: %v", unbound)
	}
	return nil
}
