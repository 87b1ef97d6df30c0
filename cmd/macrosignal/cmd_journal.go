package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the decision journal",
	}
	cmd.AddCommand(newJournalProposalCmd())
	cmd.AddCommand(newJournalChainCmd())
	return cmd
}

func newJournalProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal [proposal-id]",
		Short: "List every journal entry referencing a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			entries, err := rt.journal.FindByProposal(ctx, args[0])
			if err != nil {
				return err
			}
			printJournalEntries(entries)
			return nil
		},
	}
}

func newJournalChainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain [entry-id]",
		Short: "Print the ancestor-to-descendant chain rooted at an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			entries, err := rt.journal.Chain(ctx, args[0])
			if err != nil {
				return err
			}
			printJournalEntries(entries)
			return nil
		},
	}
}

func printJournalEntries(entries []domain.JournalEntry) {
	for _, e := range entries {
		parent := "-"
		if e.ParentEntryID != nil {
			parent = *e.ParentEntryID
		}
		fmt.Printf("%s %-10s parent=%-10s hash=%s created=%s\n",
			e.EntryID, e.EntryType, parent, e.ContentHash[:12], e.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("%d entries\n", len(entries))
}
