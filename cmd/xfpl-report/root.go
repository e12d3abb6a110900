package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xfpl-report",
		Short:         "Expected FPL points from underlying season statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(computeCmd())
	return root
}
