// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package library

import (
	"github.com/spf13/cobra"
)

// LibraryCmd groups the operations on an ilblib library member.
var LibraryCmd = cobra.Command{
	Use:   "library [flags]",
	Short: "Perform operations on an ilblib library member.",
	Long:  `Primarily used as a tool to check the validity of a library member.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.PrintErrf("%s library command: missing required child command\n", cmd.ErrPrefix())
		cmd.Usage() // nolint: errcheck
	},
}

func init() {
	LibraryCmd.AddCommand(&CheckCmd)
}
