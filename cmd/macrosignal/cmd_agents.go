package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcauduro0/macro-signal-pipeline/internal/registry"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the agent registry",
	}
	cmd.AddCommand(newAgentsListCmd())
	return cmd
}

func newAgentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents in locked execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, id := range registry.ExecutionOrder {
				fmt.Printf("%d. %s\n", i+1, id)
			}
			return nil
		},
	}
}
