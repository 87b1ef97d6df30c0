package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newProposalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Manage trade proposals",
	}
	cmd.AddCommand(newProposalsPendingCmd())
	cmd.AddCommand(newProposalsApproveCmd())
	cmd.AddCommand(newProposalsRejectCmd())
	cmd.AddCommand(newProposalsExpireCmd())
	return cmd
}

func newProposalsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List every PENDING trade proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			proposals, err := rt.trades.GetPendingProposals(ctx)
			if err != nil {
				return err
			}
			for _, p := range proposals {
				fmt.Printf("%s %-16s %-5s conviction=%.2f weight=%.3f flip=%v\n",
					p.ProposalID, p.InstrumentID, p.Direction, p.Conviction, p.TargetWeight, p.IsFlip)
			}
			fmt.Printf("%d pending proposal(s)\n", len(proposals))
			return nil
		},
	}
}

func newProposalsApproveCmd() *cobra.Command {
	var approver string
	cmd := &cobra.Command{
		Use:   "approve [proposal-id]",
		Short: "Approve a pending proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			proposal, entry, err := rt.trades.ApproveProposal(ctx, args[0], approver)
			if err != nil {
				return err
			}
			fmt.Printf("approved %s (status=%s, journal_entry=%s)\n", proposal.ProposalID, proposal.Status, entry.EntryID)
			return nil
		},
	}
	cmd.Flags().StringVar(&approver, "approver", "", "name or id of the approving manager")
	return cmd
}

func newProposalsRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject [proposal-id]",
		Short: "Reject a pending proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			proposal, entry, err := rt.trades.RejectProposal(ctx, args[0], reason)
			if err != nil {
				return err
			}
			fmt.Printf("rejected %s (status=%s, journal_entry=%s)\n", proposal.ProposalID, proposal.Status, entry.EntryID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for rejection")
	return cmd
}

func newProposalsExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Expire every PENDING proposal older than the stale-proposal window",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := buildRuntime(defaultInflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			count, err := rt.trades.ExpireStaleProposals(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("expired %d proposal(s)\n", count)
			return nil
		},
	}
}
